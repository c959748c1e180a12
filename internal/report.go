package internal

import (
	"fmt"
	"time"
)

// SessionReport is the flattened, serializable view of one analyzed session,
// the shape handed to exporters and to the cache.
type SessionReport struct {
	Target             string          `json:"target,omitempty" yaml:"target,omitempty"`
	Night              string          `json:"night" yaml:"night"`
	Guided             bool            `json:"guided" yaml:"guided"`
	Meta               *GuidingMeta    `json:"guiding,omitempty" yaml:"guiding,omitempty"`
	ExposureCount      int             `json:"exposureCount" yaml:"exposureCount"`
	IntegrationSeconds float64         `json:"integrationSeconds" yaml:"integrationSeconds"`
	Overall            *RmsValue       `json:"overallRms,omitempty" yaml:"overallRms,omitempty"`
	Buckets            []RmsBucket     `json:"rmsTimeline,omitempty" yaml:"rmsTimeline,omitempty"`
	Exposures          []ExposureRow   `json:"exposures,omitempty" yaml:"exposures,omitempty"`
	Autofocus          []AutofocusRow  `json:"autofocus,omitempty" yaml:"autofocus,omitempty"`
	Timeline           []TimelineEntry `json:"timeline,omitempty" yaml:"timeline,omitempty"`
	SkippedLines       int             `json:"skippedLines,omitempty" yaml:"skippedLines,omitempty"`
}

// ExposureRow joins one exposure with its guiding quality summary.
type ExposureRow struct {
	Index           int       `json:"index" yaml:"index"`
	Start           string    `json:"start" yaml:"start"`
	DurationSeconds float64   `json:"durationSeconds" yaml:"durationSeconds"`
	Filter          string    `json:"filter,omitempty" yaml:"filter,omitempty"`
	HFR             *float64  `json:"hfr,omitempty" yaml:"hfr,omitempty"`
	Stars           *int      `json:"stars,omitempty" yaml:"stars,omitempty"`
	RMS             *RmsValue `json:"rms,omitempty" yaml:"rms,omitempty"`
	Peak            *RmsValue `json:"peak,omitempty" yaml:"peak,omitempty"`
	FrameCount      int       `json:"frameCount" yaml:"frameCount"`
	ExcludedCount   int       `json:"excludedCount,omitempty" yaml:"excludedCount,omitempty"`
}

// AutofocusRow is one autofocus run in table form.
type AutofocusRow struct {
	Time            string   `json:"time" yaml:"time"`
	Trigger         string   `json:"trigger,omitempty" yaml:"trigger,omitempty"`
	Filter          string   `json:"filter,omitempty" yaml:"filter,omitempty"`
	InitialPosition int      `json:"initialPosition,omitempty" yaml:"initialPosition,omitempty"`
	FinalPosition   int      `json:"finalPosition,omitempty" yaml:"finalPosition,omitempty"`
	FinalHFR        *float64 `json:"finalHfr,omitempty" yaml:"finalHfr,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	Incomplete      bool     `json:"incomplete,omitempty" yaml:"incomplete,omitempty"`
}

// TimelineEntry is one row of the chronological event list.
type TimelineEntry struct {
	Time   string `json:"time" yaml:"time"`
	Kind   string `json:"kind" yaml:"kind"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// BuildReport flattens a session and one analysis into the export shape.
func BuildReport(s *Session, analysis *AnalysisReport) *SessionReport {
	report := &SessionReport{
		Target:             s.Target,
		Night:              s.Date.Format("2006-01-02"),
		Guided:             s.Guided(),
		Meta:               s.Meta,
		ExposureCount:      analysis.ExposureCount,
		IntegrationSeconds: analysis.IntegrationTime.Seconds(),
		Overall:            analysis.Overall,
		Buckets:            analysis.Buckets,
		SkippedLines:       len(s.ImagingWarnings) + len(s.GuidingWarnings),
	}

	summaries := make(map[int]ExposureGuidingSummary, len(analysis.Exposures))
	for _, sum := range analysis.Exposures {
		summaries[sum.ExposureIndex] = sum
	}
	for _, exp := range s.Exposures() {
		row := ExposureRow{
			Index:           exp.Index,
			Start:           exp.Start.Format(time.RFC3339),
			DurationSeconds: exp.Duration.Seconds(),
			Filter:          exp.Filter,
			HFR:             exp.HFR,
			Stars:           exp.Stars,
		}
		if sum, ok := summaries[exp.Index]; ok {
			row.RMS = sum.RMS
			row.Peak = sum.Peak
			row.FrameCount = sum.FrameCount
			row.ExcludedCount = sum.ExcludedCount
		}
		report.Exposures = append(report.Exposures, row)
	}

	for _, af := range s.AutofocusRuns() {
		report.Autofocus = append(report.Autofocus, AutofocusRow{
			Time:            af.Timestamp.Format(time.RFC3339),
			Trigger:         af.Trigger,
			Filter:          af.Filter,
			InitialPosition: af.InitialPosition,
			FinalPosition:   af.FinalPosition,
			FinalHFR:        af.FinalHFR,
			Temperature:     af.Temperature,
			Incomplete:      af.Incomplete,
		})
	}

	for _, ev := range s.Events {
		report.Timeline = append(report.Timeline, TimelineEntry{
			Time:   ev.Time().Format(time.RFC3339),
			Kind:   ev.Kind(),
			Detail: describeEvent(ev),
		})
	}

	return report
}

func describeEvent(ev ImagingEvent) string {
	switch e := ev.(type) {
	case *ExposureEvent:
		return fmt.Sprintf("#%d %s %.0fs", e.Index, e.Filter, e.Duration.Seconds())
	case *AutofocusEvent:
		detail := fmt.Sprintf("position %d", e.FinalPosition)
		if e.FinalHFR != nil {
			detail += fmt.Sprintf(", HFR %.2f", *e.FinalHFR)
		}
		if e.Incomplete {
			detail += " (incomplete)"
		}
		return detail
	case *FilterChangeEvent:
		if e.From != "" {
			return fmt.Sprintf("%s -> %s", e.From, e.To)
		}
		return e.To
	case *DitherEvent:
		if e.Settle > 0 {
			return fmt.Sprintf("settled in %.1fs", e.Settle.Seconds())
		}
		return ""
	case *MeridianFlipEvent:
		if e.FromSide != "" {
			return fmt.Sprintf("%s -> %s", e.FromSide, e.ToSide)
		}
		return ""
	case *RMSAlertEvent:
		return fmt.Sprintf("total %.2f\" above %.2f\"", e.TotalRMS, e.Threshold)
	}
	return ""
}
