package internal

import (
	"sort"
	"time"
)

// MatchLogs pairs each imaging log with at most one guiding log from the same
// observing night. When several guiding logs share the night, the one whose
// time span overlaps the imaging log's span the most wins; a candidate with no
// overlap at all is still acceptable when it is the only one for that night
// (clock skew between the two programs is common). An imaging log with no
// candidate keeps a nil guiding entry rather than being dropped; that is a
// normal unguided session.
//
// Pure function: inputs are never mutated, a guiding log is assigned to at
// most one imaging log.
func MatchLogs(imaging, guiding []DiscoveredLog) []LogPair {
	byNight := make(map[time.Time][]DiscoveredLog)
	for _, g := range guiding {
		byNight[g.Night] = append(byNight[g.Night], g)
	}
	taken := make(map[string]bool)

	// Longer imaging sessions pick first so the dominant session of a night
	// gets the best-overlapping guide log.
	ordered := make([]DiscoveredLog, len(imaging))
	copy(ordered, imaging)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].End.Sub(ordered[i].Start) > ordered[j].End.Sub(ordered[j].Start)
	})

	chosen := make(map[string]*DiscoveredLog)
	for _, img := range ordered {
		best := pickGuidingLog(img, byNight[img.Night], taken)
		if best != nil {
			taken[best.Path] = true
		}
		chosen[img.Path] = best
	}

	pairs := make([]LogPair, 0, len(imaging))
	for _, img := range imaging {
		pairs = append(pairs, LogPair{Imaging: img, Guiding: chosen[img.Path]})
	}
	return pairs
}

func pickGuidingLog(img DiscoveredLog, candidates []DiscoveredLog, taken map[string]bool) *DiscoveredLog {
	var (
		best        *DiscoveredLog
		bestOverlap time.Duration = -1
	)
	for i := range candidates {
		g := &candidates[i]
		if taken[g.Path] {
			continue
		}
		overlap := spanOverlap(img.Start, img.End, g.Start, g.End)
		if overlap > bestOverlap {
			bestOverlap = overlap
			best = g
		}
	}
	return best
}

// spanOverlap returns the length of the intersection of two time ranges, or
// zero when they are disjoint.
func spanOverlap(aStart, aEnd, bStart, bEnd time.Time) time.Duration {
	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	if end.Before(start) {
		return 0
	}
	return end.Sub(start)
}
