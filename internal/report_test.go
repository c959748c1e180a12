package internal

import (
	"testing"
)

func TestBuildReport(t *testing.T) {
	s := sampleSession(t)
	analysis := s.Analyze(DefaultAnalysisConfig())
	report := BuildReport(s, analysis)

	if report.Target != "NGC 7000" {
		t.Errorf("Expected target NGC 7000, got %q", report.Target)
	}
	if report.Night != "2024-03-14" {
		t.Errorf("Expected night 2024-03-14, got %q", report.Night)
	}
	if !report.Guided {
		t.Error("Expected a guided report")
	}
	if report.ExposureCount != 2 || report.IntegrationSeconds != 240 {
		t.Errorf("Unexpected totals: %d exposures, %vs", report.ExposureCount, report.IntegrationSeconds)
	}
	if report.Overall == nil {
		t.Error("Expected an overall RMS")
	}

	if len(report.Exposures) != 2 {
		t.Fatalf("Expected 2 exposure rows, got %d", len(report.Exposures))
	}
	first := report.Exposures[0]
	if first.Index != 0 || first.DurationSeconds != 120 {
		t.Errorf("Unexpected first exposure row: %+v", first)
	}
	if first.HFR == nil {
		t.Error("Expected the exposure HFR carried into the row")
	}

	if len(report.Autofocus) != 1 {
		t.Fatalf("Expected 1 autofocus row, got %d", len(report.Autofocus))
	}
	if report.Autofocus[0].FinalPosition != 18304 {
		t.Errorf("Unexpected autofocus row: %+v", report.Autofocus[0])
	}

	if len(report.Timeline) != len(s.Events) {
		t.Errorf("Expected %d timeline entries, got %d", len(s.Events), len(report.Timeline))
	}
}

func TestBuildReportUnguided(t *testing.T) {
	img := &ImagingLog{
		Target: "M31",
		Events: []ImagingEvent{},
	}
	s := Correlate(img, nil, 0)
	report := BuildReport(s, s.Analyze(DefaultAnalysisConfig()))

	if report.Guided {
		t.Error("Expected an unguided report")
	}
	if report.Meta != nil || report.Overall != nil {
		t.Error("Expected no guiding sections")
	}
}

func TestDescribeEvent(t *testing.T) {
	hfr := 2.1
	tests := []struct {
		name  string
		event ImagingEvent
		want  string
	}{
		{
			name:  "autofocus with HFR",
			event: &AutofocusEvent{FinalPosition: 18304, FinalHFR: &hfr},
			want:  "position 18304, HFR 2.10",
		},
		{
			name:  "filter change",
			event: &FilterChangeEvent{From: "L", To: "Ha"},
			want:  "L -> Ha",
		},
		{
			name:  "meridian flip",
			event: &MeridianFlipEvent{FromSide: "East", ToSide: "West"},
			want:  "East -> West",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describeEvent(tt.event); got != tt.want {
				t.Errorf("describeEvent = %q, want %q", got, tt.want)
			}
		})
	}
}
