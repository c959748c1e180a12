package internal

import (
	"testing"
	"time"
)

func framesEverySecond(start time.Time, n int) []GuideFrame {
	frames := make([]GuideFrame, n)
	for i := range frames {
		frames[i] = GuideFrame{Time: start.Add(time.Duration(i) * time.Second), RA: 0.5, Dec: 0.5}
	}
	return frames
}

func TestCorrelateDitherExclusionBounds(t *testing.T) {
	base := time.Date(2024, 3, 14, 22, 0, 0, 0, time.UTC)

	img := &ImagingLog{
		Target: "M31",
		Events: []ImagingEvent{
			&DitherEvent{Start: base.Add(100 * time.Second)},
		},
	}
	gl := &GuidingLog{
		Meta:   GuidingMeta{Start: base},
		Frames: framesEverySecond(base.Add(90*time.Second), 21), // 90s..110s
	}

	s := Correlate(img, gl, 3*time.Second)

	// With no settle time the zone is [97s, 103s], bounds inclusive.
	for _, f := range s.Frames {
		offset := f.Time.Sub(base)
		wantExcluded := offset >= 97*time.Second && offset <= 103*time.Second
		if f.Excluded != wantExcluded {
			t.Errorf("Frame at +%v: excluded = %v, want %v", offset, f.Excluded, wantExcluded)
		}
	}
	if len(s.Frames) != 21 {
		t.Errorf("Exclusion must tag, never delete: got %d frames", len(s.Frames))
	}
}

func TestCorrelateDitherSettleExtendsZone(t *testing.T) {
	base := time.Date(2024, 3, 14, 22, 0, 0, 0, time.UTC)

	img := &ImagingLog{
		Events: []ImagingEvent{
			&DitherEvent{Start: base.Add(100 * time.Second), Settle: 10 * time.Second},
		},
	}
	gl := &GuidingLog{Frames: framesEverySecond(base.Add(95*time.Second), 25)} // 95s..119s

	s := Correlate(img, gl, 3*time.Second)

	// Zone is [97s, 113s]: start-margin through start+settle+margin.
	for _, f := range s.Frames {
		offset := f.Time.Sub(base)
		wantExcluded := offset >= 97*time.Second && offset <= 113*time.Second
		if f.Excluded != wantExcluded {
			t.Errorf("Frame at +%v: excluded = %v, want %v", offset, f.Excluded, wantExcluded)
		}
	}
}

func TestCorrelateMeridianFlipZone(t *testing.T) {
	base := time.Date(2024, 3, 14, 23, 40, 0, 0, time.UTC)

	img := &ImagingLog{
		Events: []ImagingEvent{
			&MeridianFlipEvent{Timestamp: base, FromSide: "East", ToSide: "West"},
		},
	}
	gl := &GuidingLog{Frames: framesEverySecond(base.Add(-5*time.Second), 11)}

	s := Correlate(img, gl, 3*time.Second)

	excluded := 0
	for _, f := range s.Frames {
		if f.Excluded {
			excluded++
		}
	}
	// [-3s, +3s] inclusive at one frame per second.
	if excluded != 7 {
		t.Errorf("Expected 7 excluded frames around the flip, got %d", excluded)
	}
}

func TestCorrelateSortsAndDeduplicates(t *testing.T) {
	base := time.Date(2024, 3, 14, 22, 0, 0, 0, time.UTC)

	img := &ImagingLog{
		Events: []ImagingEvent{
			&ExposureEvent{Start: base.Add(10 * time.Minute), Duration: time.Minute, Index: 1},
			&ExposureEvent{Start: base, Duration: time.Minute, Index: 0},
			&ExposureEvent{Start: base, Duration: time.Minute, Index: 0}, // duplicate
			&DitherEvent{Start: base}, // same instant, different kind: kept
		},
	}
	gl := &GuidingLog{
		Frames: []GuideFrame{
			{Time: base.Add(2 * time.Second), RA: 0.2},
			{Time: base.Add(1 * time.Second), RA: 0.1},
			{Time: base.Add(1 * time.Second), RA: 0.1},
		},
	}

	s := Correlate(img, gl, 0)

	if len(s.Events) != 3 {
		t.Fatalf("Expected 3 events after dedup, got %d", len(s.Events))
	}
	for i := 1; i < len(s.Events); i++ {
		if s.Events[i].Time().Before(s.Events[i-1].Time()) {
			t.Fatal("Events not sorted")
		}
	}
	if len(s.Frames) != 2 {
		t.Errorf("Expected 2 frames after dedup, got %d", len(s.Frames))
	}
	if !s.Frames[0].Time.Before(s.Frames[1].Time) {
		t.Error("Frames not sorted")
	}
}

func TestCorrelateUnguidedSession(t *testing.T) {
	base := time.Date(2024, 3, 14, 22, 0, 0, 0, time.UTC)
	img := &ImagingLog{
		Target: "M31",
		Events: []ImagingEvent{
			&ExposureEvent{Start: base, Duration: 2 * time.Minute},
		},
	}

	s := Correlate(img, nil, 3*time.Second)

	if s.Guided() {
		t.Error("Expected an unguided session")
	}
	if s.Meta != nil || len(s.Frames) != 0 {
		t.Error("Expected no guiding data")
	}
	if len(s.Exposures()) != 1 {
		t.Errorf("Expected 1 exposure, got %d", len(s.Exposures()))
	}
	wantDate := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	if !s.Date.Equal(wantDate) {
		t.Errorf("Expected date %v, got %v", wantDate, s.Date)
	}
}

func TestCorrelateDateFromAfterMidnightEvent(t *testing.T) {
	img := &ImagingLog{
		Events: []ImagingEvent{
			&ExposureEvent{Start: time.Date(2024, 3, 15, 1, 30, 0, 0, time.UTC), Duration: time.Minute},
		},
	}
	s := Correlate(img, nil, 0)
	want := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	if !s.Date.Equal(want) {
		t.Errorf("Expected observing night %v, got %v", want, s.Date)
	}
}

func TestFramesInWindow(t *testing.T) {
	base := time.Date(2024, 3, 14, 22, 0, 0, 0, time.UTC)
	frames := framesEverySecond(base, 10) // 0s..9s

	lo, hi := framesInWindow(frames, base.Add(3*time.Second), base.Add(7*time.Second))
	// [3s, 7s): frames at 3, 4, 5, 6.
	if hi-lo != 4 {
		t.Errorf("Expected 4 frames in window, got %d", hi-lo)
	}
	if !frames[lo].Time.Equal(base.Add(3 * time.Second)) {
		t.Errorf("Unexpected window start frame %v", frames[lo].Time)
	}
	if !frames[hi-1].Time.Equal(base.Add(6 * time.Second)) {
		t.Errorf("Unexpected window end frame %v", frames[hi-1].Time)
	}
}
