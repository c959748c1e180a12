package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/skyfold/astro-session/internal"
	"github.com/spf13/cobra"
)

var (
	showBucketSeconds float64
	showDitherMargin  float64
	showIncludeDither bool
	showBuckets       bool
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show [night|imaging-log]",
	Short: "Analyze and display one observing night",
	Long: `Run the full pipeline for one observing night: parse the imaging and
guiding logs, correlate them onto one timeline, and display the derived
guiding statistics, exposure table and autofocus runs.

The night is given as a date (2024-03-14) or an imaging log filename;
with no argument the most recent night is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadAppConfig()
		if err != nil {
			return err
		}
		applyAnalysisFlags(cmd, cfg)

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

		displaySession(session, analysis)
		return nil
	},
}

func applyAnalysisFlags(cmd *cobra.Command, cfg *internal.Config) {
	if cmd.Flags().Changed("bucket-seconds") {
		cfg.Analysis.BucketWidthSeconds = showBucketSeconds
	}
	if cmd.Flags().Changed("dither-margin") {
		cfg.Analysis.DitherMarginSeconds = showDitherMargin
	}
	if cmd.Flags().Changed("include-dither") {
		cfg.Analysis.ExcludeDither = !showIncludeDither
	}
}

func displaySession(session *internal.Session, analysis *internal.AnalysisReport) {
	target := session.Target
	if target == "" {
		target = "Unknown target"
	}
	fmt.Println(headerStyle.Render(fmt.Sprintf("%s — %s", target, session.Date.Format("2006-01-02"))))
	fmt.Println()

	w := tabwriter.NewWriter(lipgloss.DefaultRenderer().Output(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "%s\t%d (%s integration)\n", titleStyle.Render("Exposures"),
		analysis.ExposureCount, analysis.IntegrationTime.Round(time.Second))
	if session.Guided() {
		_, _ = fmt.Fprintf(w, "%s\t%s, pier %s, %.2f\"/px\n", titleStyle.Render("Guiding"),
			session.Meta.Equipment, session.Meta.PierSide, session.Meta.PixelScale)
		_, _ = fmt.Fprintf(w, "%s\t%d frames, %d in disturbance zones\n", titleStyle.Render("Frames"),
			analysis.FrameCount, analysis.ExcludedFrames)
		if analysis.Overall != nil {
			_, _ = fmt.Fprintf(w, "%s\t%.2f\" RA / %.2f\" Dec / %.2f\" total\n", titleStyle.Render("Overall RMS"),
				analysis.Overall.RA, analysis.Overall.Dec, analysis.Overall.Total)
		}
	} else {
		_, _ = fmt.Fprintf(w, "%s\tnone (unguided session)\n", titleStyle.Render("Guiding"))
	}
	if n := len(session.ImagingWarnings) + len(session.GuidingWarnings); n > 0 {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", titleStyle.Render("Warnings"),
			warnStyle.Render(fmt.Sprintf("%d line(s) could not be parsed", n)))
	}
	_ = w.Flush()
	fmt.Println()

	if exposures := session.Exposures(); len(exposures) > 0 {
		displayExposures(exposures, analysis)
	}
	if afRuns := session.AutofocusRuns(); len(afRuns) > 0 {
		displayAutofocus(afRuns)
	}
	if showBuckets && len(analysis.Buckets) > 0 {
		displayBuckets(analysis)
	}
}

func displayExposures(exposures []*internal.ExposureEvent, analysis *internal.AnalysisReport) {
	fmt.Println(titleStyle.Render("Exposures"))
	summaries := make(map[int]internal.ExposureGuidingSummary, len(analysis.Exposures))
	for _, s := range analysis.Exposures {
		summaries[s.ExposureIndex] = s
	}

	w := tabwriter.NewWriter(lipgloss.DefaultRenderer().Output(), 0, 0, 3, ' ', tabwriter.AlignRight)
	_, _ = fmt.Fprintln(w, "#\tStart\tFilter\tDuration\tHFR\tRMS\tFrames\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 90))
	for _, exp := range exposures {
		hfr := "—"
		if exp.HFR != nil {
			hfr = fmt.Sprintf("%.2f", *exp.HFR)
		}
		rms, frames := "—", "—"
		if s, ok := summaries[exp.Index]; ok {
			if s.RMS != nil {
				rms = fmt.Sprintf("%.2f\"", s.RMS.Total)
			}
			frames = fmt.Sprintf("%d", s.FrameCount)
			if s.ExcludedCount > 0 {
				frames += dimStyle.Render(fmt.Sprintf(" (-%d)", s.ExcludedCount))
			}
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%.0fs\t%s\t%s\t%s\t\n",
			exp.Index, exp.Start.Format("15:04:05"), exp.Filter, exp.Duration.Seconds(), hfr, rms, frames)
	}
	_ = w.Flush()
	fmt.Println()
}

func displayAutofocus(runs []*internal.AutofocusEvent) {
	fmt.Println(titleStyle.Render("Autofocus runs"))
	w := tabwriter.NewWriter(lipgloss.DefaultRenderer().Output(), 0, 0, 3, ' ', tabwriter.AlignRight)
	_, _ = fmt.Fprintln(w, "Time\tTrigger\tFilter\tPosition\tHFR\tTemp\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 80))
	for _, af := range runs {
		hfr, temp := "—", "—"
		if af.FinalHFR != nil {
			hfr = fmt.Sprintf("%.2f", *af.FinalHFR)
		}
		if af.Temperature != nil {
			temp = fmt.Sprintf("%.1f°C", *af.Temperature)
		}
		position := fmt.Sprintf("%d", af.FinalPosition)
		if af.Incomplete {
			position = warnStyle.Render(position + " (incomplete)")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			af.Timestamp.Format("15:04:05"), af.Trigger, af.Filter, position, hfr, temp)
	}
	_ = w.Flush()
	fmt.Println()
}

func displayBuckets(analysis *internal.AnalysisReport) {
	fmt.Println(titleStyle.Render(fmt.Sprintf("RMS timeline (%s buckets)", analysis.Config.BucketWidth)))
	w := tabwriter.NewWriter(lipgloss.DefaultRenderer().Output(), 0, 0, 3, ' ', tabwriter.AlignRight)
	_, _ = fmt.Fprintln(w, "Start\tRA\tDec\tTotal\tSamples\tExcluded\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 70))
	for _, b := range analysis.Buckets {
		if b.RMS != nil {
			_, _ = fmt.Fprintf(w, "%s\t%.2f\"\t%.2f\"\t%.2f\"\t%d\t%d\t\n",
				b.Start.Format("15:04"), b.RMS.RA, b.RMS.Dec, b.RMS.Total, b.SampleCount, b.ExcludedCount)
		} else {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t\n",
				b.Start.Format("15:04"), dimStyle.Render("—"), dimStyle.Render("—"), dimStyle.Render("—"),
				b.SampleCount, b.ExcludedCount)
		}
	}
	_ = w.Flush()
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().Float64Var(&showBucketSeconds, "bucket-seconds", 60, "RMS bucket width in seconds")
	showCmd.Flags().Float64Var(&showDitherMargin, "dither-margin", 3, "Exclusion margin around disturbances in seconds")
	showCmd.Flags().BoolVar(&showIncludeDither, "include-dither", false, "Include dither-disturbed frames in RMS statistics")
	showCmd.Flags().BoolVar(&showBuckets, "buckets", false, "Show the per-bucket RMS timeline")
}
