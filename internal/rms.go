package internal

import (
	"math"
	"time"
)

// rmsOf computes the RA/Dec/Total RMS of a frame set. Excluded frames are
// omitted when excludeDither is set but always counted. A set with zero
// included frames yields a nil RMS, never a zero one.
func rmsOf(frames []GuideFrame, excludeDither bool) (rms *RmsValue, included, excluded int) {
	var sumRA, sumDec float64
	for _, f := range frames {
		if f.Excluded {
			excluded++
			if excludeDither {
				continue
			}
		}
		sumRA += f.RA * f.RA
		sumDec += f.Dec * f.Dec
		included++
	}
	if included == 0 {
		return nil, 0, excluded
	}
	ra := math.Sqrt(sumRA / float64(included))
	dec := math.Sqrt(sumDec / float64(included))
	return &RmsValue{RA: ra, Dec: dec, Total: math.Hypot(ra, dec)}, included, excluded
}

// peakOf computes the largest absolute excursion per axis over a frame set,
// honoring the same exclusion rule as rmsOf.
func peakOf(frames []GuideFrame, excludeDither bool) *RmsValue {
	var peakRA, peakDec float64
	seen := false
	for _, f := range frames {
		if excludeDither && f.Excluded {
			continue
		}
		seen = true
		if v := math.Abs(f.RA); v > peakRA {
			peakRA = v
		}
		if v := math.Abs(f.Dec); v > peakDec {
			peakDec = v
		}
	}
	if !seen {
		return nil
	}
	return &RmsValue{RA: peakRA, Dec: peakDec, Total: math.Hypot(peakRA, peakDec)}
}

// BucketRMS slices the tagged frame sequence into contiguous buckets aligned
// to the guiding-session start plus integer multiples of the bucket width and
// computes each bucket's RMS. Frames must be sorted by time.
func BucketRMS(frames []GuideFrame, start time.Time, width time.Duration, excludeDither bool) []RmsBucket {
	if width <= 0 || len(frames) == 0 || start.IsZero() {
		return nil
	}

	last := frames[len(frames)-1].Time
	if last.Before(start) {
		return nil
	}
	n := int(last.Sub(start)/width) + 1

	grouped := make([][]GuideFrame, n)
	for _, f := range frames {
		if f.Time.Before(start) {
			continue
		}
		idx := int(f.Time.Sub(start) / width)
		grouped[idx] = append(grouped[idx], f)
	}

	buckets := make([]RmsBucket, n)
	for i := range buckets {
		bucketStart := start.Add(time.Duration(i) * width)
		rms, _, excluded := rmsOf(grouped[i], excludeDither)
		buckets[i] = RmsBucket{
			Start:         bucketStart,
			End:           bucketStart.Add(width),
			RMS:           rms,
			SampleCount:   len(grouped[i]),
			ExcludedCount: excluded,
		}
	}
	return buckets
}

// ExposureSummaries computes the per-exposure guiding quality records: for
// each exposure, the RMS and peak excursion over the guide frames captured in
// its [start, start+duration) window.
func ExposureSummaries(events []ImagingEvent, frames []GuideFrame, excludeDither bool) []ExposureGuidingSummary {
	var summaries []ExposureGuidingSummary
	for _, ev := range events {
		exp, ok := ev.(*ExposureEvent)
		if !ok {
			continue
		}
		lo, hi := framesInWindow(frames, exp.Start, exp.End())
		window := frames[lo:hi]
		rms, _, excluded := rmsOf(window, excludeDither)
		summaries = append(summaries, ExposureGuidingSummary{
			ExposureIndex: exp.Index,
			RMS:           rms,
			Peak:          peakOf(window, excludeDither),
			FrameCount:    len(window),
			ExcludedCount: excluded,
		})
	}
	return summaries
}

// OverallRMS computes the whole-session RMS over the tagged frame sequence.
func OverallRMS(frames []GuideFrame, excludeDither bool) *RmsValue {
	rms, _, _ := rmsOf(frames, excludeDither)
	return rms
}
