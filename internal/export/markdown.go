package export

import (
	"fmt"
	"io"

	"github.com/skyfold/astro-session/internal"
)

// MarkdownExporter exports reports as a human-readable Markdown summary
type MarkdownExporter struct{}

// Export writes the session report as Markdown
func (e *MarkdownExporter) Export(report *internal.SessionReport, w io.Writer) error {
	target := report.Target
	if target == "" {
		target = "Unknown target"
	}
	_, _ = fmt.Fprintf(w, "# %s — %s\n\n", target, report.Night)

	_, _ = fmt.Fprintf(w, "**Exposures:** %d  \n", report.ExposureCount)
	_, _ = fmt.Fprintf(w, "**Integration:** %s  \n", formatSeconds(report.IntegrationSeconds))
	if report.Guided && report.Meta != nil {
		_, _ = fmt.Fprintf(w, "**Guiding:** %s, pier %s, %.2f\"/px  \n",
			report.Meta.Equipment, report.Meta.PierSide, report.Meta.PixelScale)
	} else {
		_, _ = fmt.Fprintf(w, "**Guiding:** none  \n")
	}
	if report.Overall != nil {
		_, _ = fmt.Fprintf(w, "**Overall RMS:** %.2f\" RA / %.2f\" Dec / %.2f\" total  \n",
			report.Overall.RA, report.Overall.Dec, report.Overall.Total)
	}
	if report.SkippedLines > 0 {
		_, _ = fmt.Fprintf(w, "**Parser warnings:** %d line(s) could not be parsed  \n", report.SkippedLines)
	}
	_, _ = fmt.Fprintf(w, "\n")

	if len(report.Exposures) > 0 {
		_, _ = fmt.Fprintf(w, "## Exposures\n\n")
		_, _ = fmt.Fprintf(w, "| # | Start | Filter | Duration | HFR | RMS total | Frames | Excluded |\n")
		_, _ = fmt.Fprintf(w, "|---|-------|--------|----------|-----|-----------|--------|----------|\n")
		for _, exp := range report.Exposures {
			_, _ = fmt.Fprintf(w, "| %d | %s | %s | %.0fs | %s | %s | %d | %d |\n",
				exp.Index, exp.Start, exp.Filter, exp.DurationSeconds,
				formatOptional(exp.HFR), formatRMSTotal(exp.RMS), exp.FrameCount, exp.ExcludedCount)
		}
		_, _ = fmt.Fprintf(w, "\n")
	}

	if len(report.Autofocus) > 0 {
		_, _ = fmt.Fprintf(w, "## Autofocus runs\n\n")
		_, _ = fmt.Fprintf(w, "| Time | Trigger | Filter | Position | HFR | Temp |\n")
		_, _ = fmt.Fprintf(w, "|------|---------|--------|----------|-----|------|\n")
		for _, af := range report.Autofocus {
			position := fmt.Sprintf("%d", af.FinalPosition)
			if af.Incomplete {
				position += " (incomplete)"
			}
			_, _ = fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %s |\n",
				af.Time, af.Trigger, af.Filter, position,
				formatOptional(af.FinalHFR), formatOptional(af.Temperature))
		}
		_, _ = fmt.Fprintf(w, "\n")
	}

	if len(report.Timeline) > 0 {
		_, _ = fmt.Fprintf(w, "## Events\n\n")
		for _, entry := range report.Timeline {
			if entry.Detail != "" {
				_, _ = fmt.Fprintf(w, "- %s — %s: %s\n", entry.Time, entry.Kind, entry.Detail)
			} else {
				_, _ = fmt.Fprintf(w, "- %s — %s\n", entry.Time, entry.Kind)
			}
		}
	}

	return nil
}

func formatSeconds(s float64) string {
	total := int(s)
	h := total / 3600
	m := (total % 3600) / 60
	sec := total % 60
	if h > 0 {
		return fmt.Sprintf("%dh %02dm %02ds", h, m, sec)
	}
	return fmt.Sprintf("%dm %02ds", m, sec)
}

func formatOptional(v *float64) string {
	if v == nil {
		return "—"
	}
	return fmt.Sprintf("%.2f", *v)
}

func formatRMSTotal(v *internal.RmsValue) string {
	if v == nil {
		return "—"
	}
	return fmt.Sprintf("%.2f\"", v.Total)
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
