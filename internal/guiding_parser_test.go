package internal

import (
	"errors"
	"testing"
	"time"

	"github.com/skyfold/astro-session/testutil"
)

func TestParseGuidingLog(t *testing.T) {
	log, err := ParseGuidingLog(testutil.SampleGuidingLog)
	if err != nil {
		t.Fatalf("ParseGuidingLog failed: %v", err)
	}

	if got := len(log.Frames); got != 4 {
		t.Fatalf("Expected 4 frames, got %d", got)
	}
	if len(log.Skipped) != 0 {
		t.Errorf("Expected no skipped lines, got %v", log.Skipped)
	}

	meta := log.Meta
	if meta.Equipment != "ED80 + ASI290MM" {
		t.Errorf("Expected equipment 'ED80 + ASI290MM', got %q", meta.Equipment)
	}
	if meta.PixelScale != 2.0 {
		t.Errorf("Expected pixel scale 2.0, got %v", meta.PixelScale)
	}
	if meta.FocalLength != 400 {
		t.Errorf("Expected focal length 400, got %d", meta.FocalLength)
	}
	if meta.PierSide != "East" {
		t.Errorf("Expected pier side East, got %q", meta.PierSide)
	}
	if meta.Calibration.IsZero() {
		t.Error("Expected calibration time to be set")
	}

	wantStart := time.Date(2024, 3, 14, 22, 0, 0, 0, time.UTC)
	if !meta.Start.Equal(wantStart) {
		t.Errorf("Expected start %v, got %v", wantStart, meta.Start)
	}
	wantEnd := time.Date(2024, 3, 14, 22, 30, 0, 0, time.UTC)
	if !meta.End.Equal(wantEnd) {
		t.Errorf("Expected end %v, got %v", wantEnd, meta.End)
	}
}

func TestParseGuidingLogPixelScaleConversion(t *testing.T) {
	// The sample log has raw distances of +/-0.50 px RA and +/-0.25 px Dec at
	// 2.0 arc-sec/px.
	log, err := ParseGuidingLog(testutil.SampleGuidingLog)
	if err != nil {
		t.Fatalf("ParseGuidingLog failed: %v", err)
	}

	first := log.Frames[0]
	if first.RA != 1.0 {
		t.Errorf("Expected first RA error 1.0 arcsec, got %v", first.RA)
	}
	if first.Dec != -0.5 {
		t.Errorf("Expected first Dec error -0.5 arcsec, got %v", first.Dec)
	}
	if first.RAPulse != 120 || first.RADir != "E" {
		t.Errorf("Expected RA pulse 120 E, got %d %q", first.RAPulse, first.RADir)
	}
	if first.SNR == nil || *first.SNR != 25.4 {
		t.Errorf("Expected SNR 25.4, got %v", first.SNR)
	}
	if first.StarMass == nil || *first.StarMass != 560.5 {
		t.Errorf("Expected star mass 560.5, got %v", first.StarMass)
	}

	wantTime := time.Date(2024, 3, 14, 22, 0, 1, 0, time.UTC)
	if !first.Time.Equal(wantTime) {
		t.Errorf("Expected frame time %v, got %v", wantTime, first.Time)
	}
}

func TestParseGuidingLogWithoutPixelScale(t *testing.T) {
	text := `Guiding Begins at 2024-03-14 22:00:00
1,1.000,"Mount",0.00,0.00,0.30,0.40,0.00,0.00
`
	log, err := ParseGuidingLog(text)
	if err != nil {
		t.Fatalf("ParseGuidingLog failed: %v", err)
	}
	if len(log.Frames) != 1 {
		t.Fatalf("Expected 1 frame, got %d", len(log.Frames))
	}
	// No reported scale leaves raw values untouched.
	if log.Frames[0].RA != 0.30 || log.Frames[0].Dec != 0.40 {
		t.Errorf("Expected raw 0.30/0.40, got %v/%v", log.Frames[0].RA, log.Frames[0].Dec)
	}
}

func TestParseGuidingLogSkipsMalformedLines(t *testing.T) {
	tests := []struct {
		name       string
		frameLine  string
		wantFrames int
	}{
		{
			name:       "unparsable time offset",
			frameLine:  `2,notatime,"Mount",0.00,0.00,0.10,0.10`,
			wantFrames: 1,
		},
		{
			name:       "unparsable RA distance",
			frameLine:  `2,2.000,"Mount",0.00,0.00,bogus,0.10`,
			wantFrames: 1,
		},
		{
			name:       "too few columns",
			frameLine:  `2,2.000,"Mount"`,
			wantFrames: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := testutil.GuidingLogWithFrames("2024-03-14 22:00:00",
				testutil.GuidingFrameLine(1, 1.0, 0.5, 0.5, 20),
				tt.frameLine,
			)
			log, err := ParseGuidingLog(text)
			if err != nil {
				t.Fatalf("ParseGuidingLog failed: %v", err)
			}
			if len(log.Frames) != tt.wantFrames {
				t.Errorf("Expected %d frames, got %d", tt.wantFrames, len(log.Frames))
			}
			if len(log.Skipped) != 1 {
				t.Errorf("Expected 1 skipped line, got %v", log.Skipped)
			}
		})
	}
}

func TestParseGuidingLogFrameOutsideSegment(t *testing.T) {
	text := `Guiding Begins at 2024-03-14 22:00:00
1,1.000,"Mount",0.00,0.00,0.10,0.10
Guiding Ends at 2024-03-14 22:10:00
2,2.000,"Mount",0.00,0.00,0.10,0.10
`
	log, err := ParseGuidingLog(text)
	if err != nil {
		t.Fatalf("ParseGuidingLog failed: %v", err)
	}
	if len(log.Frames) != 1 {
		t.Errorf("Expected 1 frame inside the segment, got %d", len(log.Frames))
	}
	if len(log.Skipped) != 1 {
		t.Fatalf("Expected 1 skipped line, got %v", log.Skipped)
	}
	if log.Skipped[0].Line != 4 {
		t.Errorf("Expected skip at line 4, got %d", log.Skipped[0].Line)
	}
}

func TestParseGuidingLogOutOfOrderFramesKept(t *testing.T) {
	text := testutil.GuidingLogWithFrames("2024-03-14 22:00:00",
		testutil.GuidingFrameLine(1, 2.0, 0.1, 0.1, 20),
		testutil.GuidingFrameLine(2, 1.0, 0.1, 0.1, 20),
	)
	log, err := ParseGuidingLog(text)
	if err != nil {
		t.Fatalf("ParseGuidingLog failed: %v", err)
	}
	// Out-of-order frames are a diagnostic, not a drop.
	if len(log.Frames) != 2 {
		t.Errorf("Expected both frames kept, got %d", len(log.Frames))
	}
	if len(log.Skipped) != 1 {
		t.Errorf("Expected 1 warning, got %v", log.Skipped)
	}
}

func TestParseGuidingLogDroppedFrameFlag(t *testing.T) {
	text := testutil.GuidingLogWithFrames("2024-03-14 22:00:00",
		`1,1.000,"Mount",0.00,0.00,0.10,0.10,0.00,0.00,0,,0,,,,500.0,20.0,2`,
	)
	log, err := ParseGuidingLog(text)
	if err != nil {
		t.Fatalf("ParseGuidingLog failed: %v", err)
	}
	if len(log.Frames) != 1 || !log.Frames[0].Dropped {
		t.Errorf("Expected a dropped frame, got %+v", log.Frames)
	}
}

func TestParseGuidingLogOptionalColumnsAbsent(t *testing.T) {
	text := testutil.GuidingLogWithFrames("2024-03-14 22:00:00",
		`1,1.000,"Mount",0.00,0.00,0.10,0.10`,
	)
	log, err := ParseGuidingLog(text)
	if err != nil {
		t.Fatalf("ParseGuidingLog failed: %v", err)
	}
	f := log.Frames[0]
	if f.SNR != nil || f.StarMass != nil {
		t.Errorf("Expected absent optional columns to stay nil, got SNR=%v mass=%v", f.SNR, f.StarMass)
	}
	if f.RAPulse != 0 || f.Dropped {
		t.Errorf("Expected zero pulse and no dropped flag, got %+v", f)
	}
}

func TestParseGuidingLogForeignText(t *testing.T) {
	_, err := ParseGuidingLog("hello\nthis is not a guide log\n")
	if err == nil {
		t.Fatal("Expected error for foreign text")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected *ParseError, got %T", err)
	}
	if pe.Source != "guiding" {
		t.Errorf("Expected source 'guiding', got %q", pe.Source)
	}
}
