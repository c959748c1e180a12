package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/skyfold/astro-session/internal"
	"github.com/skyfold/astro-session/internal/export"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOutput string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export [night|imaging-log]",
	Short: "Export an analyzed session to file",
	Long: `Analyze one observing night and write the session report in the chosen
format (json, yaml, md, csv). The csv format writes the RMS timeline
only, for spreadsheet plotting.

With --output - the report is written to stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadAppConfig()
		if err != nil {
			return err
		}

		exporter, err := export.NewExporter(exportFormat)
		if err != nil {
			return err
		}

		arg := ""
		if len(args) > 0 {
			arg = args[0]
		}
		pair, err := resolvePair(cfg, arg)
		if err != nil {
			return err
		}

		acfg := cfg.Analysis.AnalysisConfig()
		session, err := internal.LoadSession(pair, acfg.DitherMargin)
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}
		analysis := session.Analyze(acfg)
		cacheReport(cfg, pair, session, analysis)
		report := internal.BuildReport(session, analysis)

		if exportOutput == "-" {
			if err := exporter.Export(report, os.Stdout); err != nil {
				return &internal.ExportError{Format: exportFormat, Path: "stdout", Err: err}
			}
			return nil
		}

		outDir := exportOutput
		if outDir == "" {
			outDir = "."
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		path := filepath.Join(outDir, fmt.Sprintf("session_%s.%s", report.Night, exporter.Extension()))
		f, err := os.Create(path)
		if err != nil {
			return &internal.ExportError{Format: exportFormat, Path: path, Err: err}
		}
		defer f.Close()
		if err := exporter.Export(report, f); err != nil {
			return &internal.ExportError{Format: exportFormat, Path: path, Err: err}
		}

		internal.LogInfo("Exported %s", path)
		fmt.Printf("Exported %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Export format: json, yaml, md, csv")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output directory, or - for stdout")
}
