package internal

import (
	"sync"
	"time"
)

// Session is the unified, time-aligned model of one imaging night: the
// chronological imaging events, the tagged guide frame sequence (empty for an
// unguided session), and the guiding metadata. It is constructed once by
// Correlate and never mutated afterwards; derived statistics are computed and
// cached per analysis configuration.
type Session struct {
	Target string
	Date   time.Time // observing-night date, derived from the first imaging event

	Events []ImagingEvent
	Frames []GuideFrame
	Meta   *GuidingMeta // nil for an unguided session

	ImagingWarnings []SkippedLine
	GuidingWarnings []SkippedLine

	ditherMargin time.Duration // margin the frame tags were computed with

	mu       sync.Mutex
	analyses map[AnalysisConfig]*AnalysisReport
}

// AnalysisReport is the RMS Aggregator output for one configuration.
type AnalysisReport struct {
	Config          AnalysisConfig           `json:"config"`
	Overall         *RmsValue                `json:"overall,omitempty"`
	Buckets         []RmsBucket              `json:"buckets,omitempty"`
	Exposures       []ExposureGuidingSummary `json:"exposures,omitempty"`
	FrameCount      int                      `json:"frameCount"`
	ExcludedFrames  int                      `json:"excludedFrames"`
	IntegrationTime time.Duration            `json:"integrationTime"`
	ExposureCount   int                      `json:"exposureCount"`
}

// Guided reports whether the session has guiding data.
func (s *Session) Guided() bool {
	return s.Meta != nil
}

// Exposures returns the session's exposures in chronological order.
func (s *Session) Exposures() []*ExposureEvent {
	var out []*ExposureEvent
	for _, ev := range s.Events {
		if exp, ok := ev.(*ExposureEvent); ok {
			out = append(out, exp)
		}
	}
	return out
}

// AutofocusRuns returns the session's autofocus runs in chronological order.
func (s *Session) AutofocusRuns() []*AutofocusEvent {
	var out []*AutofocusEvent
	for _, ev := range s.Events {
		if af, ok := ev.(*AutofocusEvent); ok {
			out = append(out, af)
		}
	}
	return out
}

// Dithers returns the session's dither events in chronological order.
func (s *Session) Dithers() []*DitherEvent {
	var out []*DitherEvent
	for _, ev := range s.Events {
		if d, ok := ev.(*DitherEvent); ok {
			out = append(out, d)
		}
	}
	return out
}

// ExposureCount returns the number of captured exposures.
func (s *Session) ExposureCount() int {
	n := 0
	for _, ev := range s.Events {
		if _, ok := ev.(*ExposureEvent); ok {
			n++
		}
	}
	return n
}

// IntegrationTime returns the summed duration of all exposures.
func (s *Session) IntegrationTime() time.Duration {
	var total time.Duration
	for _, ev := range s.Events {
		if exp, ok := ev.(*ExposureEvent); ok {
			total += exp.Duration
		}
	}
	return total
}

// Span returns the session's overall time range across both streams.
func (s *Session) Span() (start, end time.Time) {
	if len(s.Events) > 0 {
		start = s.Events[0].Time()
		end = s.Events[len(s.Events)-1].Time()
		if exp, ok := s.Events[len(s.Events)-1].(*ExposureEvent); ok {
			end = exp.End()
		}
	}
	if len(s.Frames) > 0 {
		if start.IsZero() || s.Frames[0].Time.Before(start) {
			start = s.Frames[0].Time
		}
		if last := s.Frames[len(s.Frames)-1].Time; last.After(end) {
			end = last
		}
	}
	return
}

// Analyze runs the RMS Aggregator for the given configuration and caches the
// report. Re-running with a different configuration recomputes statistics
// only; the frame sequence and its stored exclusion tags are never touched.
func (s *Session) Analyze(cfg AnalysisConfig) *AnalysisReport {
	s.mu.Lock()
	if report, ok := s.analyses[cfg]; ok {
		s.mu.Unlock()
		return report
	}
	s.mu.Unlock()

	frames := s.Frames
	if cfg.DitherMargin != s.ditherMargin {
		// A different margin retags a private copy; the session's own frames
		// keep the tags computed at correlation time.
		frames = make([]GuideFrame, len(s.Frames))
		copy(frames, s.Frames)
		for i := range frames {
			frames[i].Excluded = false
		}
		tagExcluded(frames, exclusionZones(s.Events, cfg.DitherMargin))
	}

	var bucketStart time.Time
	if s.Meta != nil {
		bucketStart = s.Meta.Start
	} else if len(frames) > 0 {
		bucketStart = frames[0].Time
	}

	excluded := 0
	for _, f := range frames {
		if f.Excluded {
			excluded++
		}
	}

	report := &AnalysisReport{
		Config:          cfg,
		Overall:         OverallRMS(frames, cfg.ExcludeDither),
		Buckets:         BucketRMS(frames, bucketStart, cfg.BucketWidth, cfg.ExcludeDither),
		Exposures:       ExposureSummaries(s.Events, frames, cfg.ExcludeDither),
		FrameCount:      len(frames),
		ExcludedFrames:  excluded,
		IntegrationTime: s.IntegrationTime(),
		ExposureCount:   s.ExposureCount(),
	}

	s.mu.Lock()
	if s.analyses == nil {
		s.analyses = make(map[AnalysisConfig]*AnalysisReport)
	}
	s.analyses[cfg] = report
	s.mu.Unlock()
	return report
}
