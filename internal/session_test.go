package internal

import (
	"testing"
	"time"

	"github.com/skyfold/astro-session/testutil"
)

func sampleSession(t *testing.T) *Session {
	t.Helper()
	img, err := ParseImagingLog(testutil.SampleImagingLog)
	if err != nil {
		t.Fatalf("Failed to parse imaging fixture: %v", err)
	}
	gl, err := ParseGuidingLog(testutil.SampleGuidingLog)
	if err != nil {
		t.Fatalf("Failed to parse guiding fixture: %v", err)
	}
	return Correlate(img, gl, 3*time.Second)
}

func TestSessionAccessors(t *testing.T) {
	s := sampleSession(t)

	if !s.Guided() {
		t.Error("Expected a guided session")
	}
	if s.Target != "NGC 7000" {
		t.Errorf("Expected target NGC 7000, got %q", s.Target)
	}
	if got := s.ExposureCount(); got != 2 {
		t.Errorf("Expected 2 exposures, got %d", got)
	}
	if got := s.IntegrationTime(); got != 240*time.Second {
		t.Errorf("Expected 240s integration, got %v", got)
	}
	if got := len(s.AutofocusRuns()); got != 1 {
		t.Errorf("Expected 1 autofocus run, got %d", got)
	}
	if got := len(s.Dithers()); got != 1 {
		t.Errorf("Expected 1 dither, got %d", got)
	}

	start, end := s.Span()
	if !start.Before(end) {
		t.Errorf("Expected a positive span, got %v..%v", start, end)
	}
	// The span starts at the first imaging event, before guiding began.
	wantStart := time.Date(2024, 3, 14, 21, 56, 0, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Errorf("Expected span start %v, got %v", wantStart, start)
	}
}

func TestSessionAnalyzeCachesPerConfig(t *testing.T) {
	s := sampleSession(t)

	cfg := DefaultAnalysisConfig()
	first := s.Analyze(cfg)
	second := s.Analyze(cfg)
	if first != second {
		t.Error("Expected the same report instance for the same configuration")
	}

	other := cfg
	other.BucketWidth = 5 * time.Minute
	third := s.Analyze(other)
	if third == first {
		t.Error("Expected a distinct report for a different configuration")
	}
	if len(third.Buckets) >= len(first.Buckets) && len(first.Buckets) > 1 {
		t.Error("Wider buckets must produce fewer intervals")
	}
}

func TestSessionAnalyzeReport(t *testing.T) {
	s := sampleSession(t)
	report := s.Analyze(DefaultAnalysisConfig())

	if report.FrameCount != 4 {
		t.Errorf("Expected 4 frames, got %d", report.FrameCount)
	}
	if report.ExposureCount != 2 {
		t.Errorf("Expected 2 exposures, got %d", report.ExposureCount)
	}
	if report.Overall == nil {
		t.Fatal("Expected an overall RMS")
	}
	// Fixture frames alternate +/-1.0" RA and -/+0.5" Dec.
	if report.Overall.RA != 1.0 || report.Overall.Dec != 0.5 {
		t.Errorf("Expected RMS 1.0/0.5, got %v/%v", report.Overall.RA, report.Overall.Dec)
	}
	if len(report.Exposures) != 2 {
		t.Errorf("Expected 2 exposure summaries, got %d", len(report.Exposures))
	}
	if len(report.Buckets) == 0 {
		t.Error("Expected an RMS timeline")
	}
	// Buckets align to the guiding-session start.
	if !report.Buckets[0].Start.Equal(s.Meta.Start) {
		t.Errorf("Expected first bucket at %v, got %v", s.Meta.Start, report.Buckets[0].Start)
	}
}

func TestSessionAnalyzeDifferentMarginKeepsStoredTags(t *testing.T) {
	base := time.Date(2024, 3, 14, 22, 0, 0, 0, time.UTC)
	img := &ImagingLog{
		Events: []ImagingEvent{
			&DitherEvent{Start: base.Add(100 * time.Second)},
		},
	}
	gl := &GuidingLog{
		Meta:   GuidingMeta{Start: base},
		Frames: framesEverySecond(base.Add(90*time.Second), 21),
	}
	s := Correlate(img, gl, 3*time.Second)

	countExcluded := func() int {
		n := 0
		for _, f := range s.Frames {
			if f.Excluded {
				n++
			}
		}
		return n
	}
	before := countExcluded()
	if before != 7 {
		t.Fatalf("Expected 7 tagged frames at margin 3s, got %d", before)
	}

	wide := DefaultAnalysisConfig()
	wide.DitherMargin = 8 * time.Second
	report := s.Analyze(wide)

	// [92s, 108s] at one frame per second.
	if report.ExcludedFrames != 17 {
		t.Errorf("Expected 17 excluded frames at margin 8s, got %d", report.ExcludedFrames)
	}
	if got := countExcluded(); got != before {
		t.Errorf("Session frame tags changed from %d to %d; must stay put", before, got)
	}
}

func TestSessionAnalyzeUnguided(t *testing.T) {
	img, err := ParseImagingLog(testutil.SampleImagingLog)
	if err != nil {
		t.Fatalf("Failed to parse imaging fixture: %v", err)
	}
	s := Correlate(img, nil, 3*time.Second)
	report := s.Analyze(DefaultAnalysisConfig())

	if report.Overall != nil {
		t.Errorf("Expected no overall RMS, got %+v", report.Overall)
	}
	if len(report.Buckets) != 0 {
		t.Errorf("Expected no RMS timeline, got %d buckets", len(report.Buckets))
	}
	// Exposure summaries still exist; they just carry no frames.
	if len(report.Exposures) != 2 {
		t.Fatalf("Expected 2 exposure summaries, got %d", len(report.Exposures))
	}
	for _, sum := range report.Exposures {
		if sum.RMS != nil || sum.FrameCount != 0 {
			t.Errorf("Expected empty summary, got %+v", sum)
		}
	}
	if report.ExposureCount != 2 {
		t.Errorf("Expected 2 exposures, got %d", report.ExposureCount)
	}
}
