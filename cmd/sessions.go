package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/skyfold/astro-session/internal"
	"github.com/spf13/cobra"
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208"))
)

// sessionsCmd represents the sessions command
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List discovered observing nights",
	Long: `Scan the configured imaging and guiding log folders, pair the logs by
observing night, and list the discovered sessions. Previously analyzed
nights show their cached statistics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadAppConfig()
		if err != nil {
			return err
		}

		pairs, err := internal.DiscoverAndMatch(cfg.ImagingFolder, cfg.GuidingFolder)
		if err != nil {
			return fmt.Errorf("failed to scan log folders: %w", err)
		}
		if len(pairs) == 0 {
			fmt.Println(headerStyle.Render("No imaging logs found"))
			return nil
		}

		cached := cachedRecords(cfg)

		header := headerStyle.Render(fmt.Sprintf("Found %d observing night(s)", len(pairs)))
		fmt.Println(header)
		fmt.Println()

		w := tabwriter.NewWriter(lipgloss.DefaultRenderer().Output(), 0, 0, 3, ' ', tabwriter.AlignRight)
		_, _ = fmt.Fprintln(w, titleStyle.Render("Night")+"\t"+titleStyle.Render("Imaging log")+"\t"+titleStyle.Render("Guiding")+"\t"+titleStyle.Render("Target")+"\t"+titleStyle.Render("Exposures")+"\t"+titleStyle.Render("Total RMS")+"\t")
		_, _ = fmt.Fprintln(w, strings.Repeat("─", 110))

		for _, pair := range pairs {
			night := dateStyle.Render(pair.Imaging.Night.Format("2006-01-02"))
			logName := filepath.Base(pair.Imaging.Path)
			if len(logName) > 35 {
				logName = logName[:32] + "..."
			}

			guiding := dimStyle.Render("—")
			if pair.Guiding != nil {
				guiding = countStyle.Render("yes")
			}

			target, exposures, rms := dimStyle.Render("—"), dimStyle.Render("—"), dimStyle.Render("—")
			if rec, ok := cached[pair.Imaging.Path]; ok {
				if info, err := os.Stat(pair.Imaging.Path); err == nil && rec.ImagingModTime.Equal(info.ModTime()) {
					if rec.Target != "" {
						target = rec.Target
					}
					exposures = countStyle.Render(strconv.Itoa(rec.Exposures))
					if rec.RMSTotal != nil {
						rms = fmt.Sprintf("%.2f\"", *rec.RMSTotal)
					}
				} else {
					target = warnStyle.Render("(stale cache)")
				}
			}

			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n", night, logName, guiding, target, exposures, rms)
		}

		_ = w.Flush()
		fmt.Println()
		fmt.Println(dimStyle.Render("Tip: analyze a night with `astro-session show <night>`"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}
