package cmd

import (
	"fmt"
	"os"

	"github.com/skyfold/astro-session/internal"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	imagingDir string
	guidingDir string
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "astro-session",
	Short: "Analyze astrophotography imaging and guiding logs",
	Long: `A CLI tool that reconstructs a unified model of one imaging night from
the log files of your imaging and guiding software.

It pairs each imaging-session log with the guiding log of the same
observing night, correlates exposures with the guiding frames captured
during them, and computes RMS guiding statistics with configurable
time buckets and dither exclusion.

Quick Start:
  astro-session sessions                 # List discovered observing nights
  astro-session show 2024-03-14         # Analyze and display one night
  astro-session export 2024-03-14 --format md

Log folders come from the config file, environment, or flags:
  --imaging-dir / ASTRO_SESSION_IMAGING_DIR
  --guiding-dir / ASTRO_SESSION_GUIDING_DIR`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: user config dir)")
	rootCmd.PersistentFlags().StringVar(&imagingDir, "imaging-dir", "", "Folder containing imaging-session logs")
	rootCmd.PersistentFlags().StringVar(&guidingDir, "guiding-dir", "", "Folder containing guide logs")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// loadAppConfig loads the YAML/env configuration and applies flag overrides.
func loadAppConfig() (*internal.Config, error) {
	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if imagingDir != "" {
		cfg.ImagingFolder = imagingDir
	}
	if guidingDir != "" {
		cfg.GuidingFolder = guidingDir
	}
	if cfg.ImagingFolder == "" {
		return nil, fmt.Errorf("no imaging log folder configured (use --imaging-dir, config file, or ASTRO_SESSION_IMAGING_DIR)")
	}
	return cfg, nil
}
