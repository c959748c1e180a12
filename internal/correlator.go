package internal

import (
	"sort"
	"time"
)

// exclusionZone is one disturbance interval. Bounds are inclusive.
type exclusionZone struct {
	start, end time.Time
}

func (z exclusionZone) contains(t time.Time) bool {
	return !t.Before(z.start) && !t.After(z.end)
}

// Correlate merges one parsed imaging log and one parsed guiding log (nil for
// an unguided session) onto a single timeline and returns the immutable
// Session. Both streams are sorted and deduplicated by timestamp; guide frames
// falling inside a disturbance exclusion zone are tagged excluded but always
// retained.
func Correlate(img *ImagingLog, gl *GuidingLog, margin time.Duration) *Session {
	events := normalizeEvents(img.Events)

	s := &Session{
		Target:          img.Target,
		Events:          events,
		ImagingWarnings: img.Skipped,
		ditherMargin:    margin,
		analyses:        make(map[AnalysisConfig]*AnalysisReport),
	}
	if len(events) > 0 {
		s.Date = ObservingNight(events[0].Time())
	}

	if gl != nil {
		meta := gl.Meta
		s.Meta = &meta
		s.GuidingWarnings = gl.Skipped
		frames := normalizeFrames(gl.Frames)
		tagExcluded(frames, exclusionZones(events, margin))
		s.Frames = frames
	}

	return s
}

func normalizeEvents(events []ImagingEvent) []ImagingEvent {
	out := make([]ImagingEvent, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time().Before(out[j].Time()) })

	dedup := out[:0]
	for i, ev := range out {
		if i > 0 {
			prev := dedup[len(dedup)-1]
			if prev.Kind() == ev.Kind() && prev.Time().Equal(ev.Time()) {
				continue
			}
		}
		dedup = append(dedup, ev)
	}
	return dedup
}

func normalizeFrames(frames []GuideFrame) []GuideFrame {
	out := make([]GuideFrame, len(frames))
	copy(out, frames)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	dedup := out[:0]
	for i, f := range out {
		if i > 0 && dedup[len(dedup)-1].Time.Equal(f.Time) {
			continue
		}
		dedup = append(dedup, f)
	}
	return dedup
}

// exclusionZones derives the disturbance intervals from dither and meridian
// flip events: [t-margin, t+settle+margin] for dithers, [t-margin, t+margin]
// for flips.
func exclusionZones(events []ImagingEvent, margin time.Duration) []exclusionZone {
	var zones []exclusionZone
	for _, ev := range events {
		switch e := ev.(type) {
		case *DitherEvent:
			zones = append(zones, exclusionZone{
				start: e.Start.Add(-margin),
				end:   e.Start.Add(e.Settle).Add(margin),
			})
		case *MeridianFlipEvent:
			zones = append(zones, exclusionZone{
				start: e.Timestamp.Add(-margin),
				end:   e.Timestamp.Add(margin),
			})
		}
	}
	return zones
}

func tagExcluded(frames []GuideFrame, zones []exclusionZone) {
	if len(zones) == 0 {
		return
	}
	for i := range frames {
		for _, z := range zones {
			if z.contains(frames[i].Time) {
				frames[i].Excluded = true
				break
			}
		}
	}
}

// framesInWindow returns the index range [lo, hi) of frames whose timestamp
// falls within [start, end). Frames must be sorted by time.
func framesInWindow(frames []GuideFrame, start, end time.Time) (lo, hi int) {
	lo = sort.Search(len(frames), func(i int) bool { return !frames[i].Time.Before(start) })
	hi = sort.Search(len(frames), func(i int) bool { return !frames[i].Time.Before(end) })
	return
}
