package internal

import (
	"bufio"
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Imaging-log line matchers. A line is classified by the first matcher that
// recognizes it; unrecognized lines are dropped silently because imaging logs
// are full of unrelated diagnostics.
var (
	reImagingTimestamp = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?)`)
	reTargetName       = regexp.MustCompile(`Target:\s*(.+?)\s+RA:`)
	reAFInitial        = regexp.MustCompile(`Starting AutoFocus with initial position (\d+)`)
	reAFTrigger        = regexp.MustCompile(`Trigger: (AutofocusAfter\w+)`)
	reAFTemperature    = regexp.MustCompile(`Temperature (-?[\d.]+)`)
	reAFCompleted      = regexp.MustCompile(`ending at (\d+)`)
	reStarDetection    = regexp.MustCompile(`Average HFR: ([\d.]+).*Detected Stars (\d+)`)
	reFilterMove       = regexp.MustCompile(`Moving to Filter (\w+) at Position (\d+)`)
	reExposureStart    = regexp.MustCompile(`Exposure Time: ([\d.]+)s; Filter: (\w*); Gain: (\d+); Offset (\d+); Binning: (\d+x\d+)`)
	reImageSaved       = regexp.MustCompile(`Saved image to (.+\.\w+)`)
	rePierSide         = regexp.MustCompile(`pier side pier(\w+)`)
	reRMSAlert         = regexp.MustCompile(`Total RMS above threshold \(([\d.]+) / ([\d.]+)\)`)
	reDitherAmount     = regexp.MustCompile(`Dither(?:ing)? by ([\d.]+)`)
	reFocuserTemp      = regexp.MustCompile(`Temperature:?\s*(-?[\d.]+)`)
)

const imagingTimeLayout = "2006-01-02T15:04:05"

// imagingAccumulator is the explicit rolling buffer for events that span
// several log lines (autofocus runs, exposures, dithers). It is created per
// parse call; nothing survives between calls.
type imagingAccumulator struct {
	out *ImagingLog

	currentFilter string
	currentPier   string
	lastHFR       *float64
	lastStars     *int
	lastTemp      *float64
	exposureCount int

	pendingAF       *AutofocusEvent
	pendingExposure *ExposureEvent
	pendingDither   *DitherEvent
}

// ParseImagingLog converts raw imaging-log text into an ordered event
// sequence. A *ParseError is returned only when the text contains no
// timestamped lines at all.
func ParseImagingLog(text string) (*ImagingLog, error) {
	acc := &imagingAccumulator{out: &ImagingLog{}}

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	timestamped := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		m := reImagingTimestamp.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		ts, err := parseImagingTimestamp(m[1])
		if err != nil {
			acc.out.Skipped = append(acc.out.Skipped, SkippedLine{Line: lineNo, Reason: "unparsable timestamp"})
			continue
		}
		timestamped++
		classifyImagingLine(ts, line, lineNo, acc)
	}

	if timestamped == 0 {
		return nil, &ParseError{Source: "imaging", Err: errors.New("no recognizable timestamped lines")}
	}

	acc.flushPending(lineNo)

	// Flushes append at terminator time while events carry their start time,
	// so the stream can be locally out of order here.
	sort.SliceStable(acc.out.Events, func(i, j int) bool {
		return acc.out.Events[i].Time().Before(acc.out.Events[j].Time())
	})

	return acc.out, nil
}

func parseImagingTimestamp(s string) (time.Time, error) {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		frac := s[i+1:]
		if len(frac) > 9 {
			frac = frac[:9]
		}
		return time.Parse(imagingTimeLayout+".999999999", s[:i]+"."+frac)
	}
	return time.Parse(imagingTimeLayout, s)
}

// classifyImagingLine maps one timestamped line onto the accumulator. The
// checks are ordered by priority; at most one event variant consumes a line.
func classifyImagingLine(ts time.Time, line string, lineNo int, acc *imagingAccumulator) {
	switch {
	case strings.Contains(line, "DeepSkyObjectContainer") && strings.Contains(line, "Target:"):
		if m := reTargetName.FindStringSubmatch(line); m != nil && acc.out.Target == "" {
			acc.out.Target = strings.TrimSpace(m[1])
		}

	case strings.Contains(line, "RunAutofocus") && strings.Contains(line, "Starting"):
		if acc.pendingAF != nil {
			acc.flushAutofocus(lineNo, "autofocus run restarted before completing")
		}
		acc.pendingAF = &AutofocusEvent{Timestamp: ts, Filter: acc.currentFilter}

	case strings.Contains(line, "Starting AutoFocus with initial position"):
		if m := reAFInitial.FindStringSubmatch(line); m != nil && acc.pendingAF != nil {
			acc.pendingAF.InitialPosition, _ = strconv.Atoi(m[1])
		}

	case strings.Contains(line, "AutofocusAfter") && strings.Contains(line, "Starting Trigger"):
		if m := reAFTrigger.FindStringSubmatch(line); m != nil && acc.pendingAF != nil {
			acc.pendingAF.Trigger = m[1]
		}

	case strings.Contains(line, "BroadcastSuccessfulAutoFocusRun"):
		if m := reAFTemperature.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				acc.lastTemp = &v
				if acc.pendingAF != nil {
					acc.pendingAF.Temperature = &v
				}
			}
		}

	case strings.Contains(line, "AutoFocus completed"):
		if acc.pendingAF == nil {
			return
		}
		if m := reAFCompleted.FindStringSubmatch(line); m != nil {
			acc.pendingAF.FinalPosition, _ = strconv.Atoi(m[1])
		}
		acc.pendingAF.FinalHFR = acc.lastHFR
		acc.out.Events = append(acc.out.Events, acc.pendingAF)
		acc.pendingAF = nil

	case strings.Contains(line, "StarDetection") && strings.Contains(line, "Average HFR:"):
		if m := reStarDetection.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				acc.lastHFR = &v
			}
			if n, err := strconv.Atoi(m[2]); err == nil {
				acc.lastStars = &n
			}
		}

	case strings.Contains(line, "FilterWheelVM") && strings.Contains(line, "Moving to Filter"):
		m := reFilterMove.FindStringSubmatch(line)
		if m == nil {
			acc.out.Skipped = append(acc.out.Skipped, SkippedLine{Line: lineNo, Reason: "unparsable filter move"})
			return
		}
		pos, _ := strconv.Atoi(m[2])
		acc.out.Events = append(acc.out.Events, &FilterChangeEvent{
			Timestamp: ts,
			From:      acc.currentFilter,
			To:        m[1],
			Position:  pos,
		})
		acc.currentFilter = m[1]

	case strings.Contains(line, "CameraVM") && strings.Contains(line, "Starting Exposure"):
		m := reExposureStart.FindStringSubmatch(line)
		if m == nil {
			acc.out.Skipped = append(acc.out.Skipped, SkippedLine{Line: lineNo, Reason: "unparsable exposure start"})
			return
		}
		if acc.pendingExposure != nil {
			// Previous exposure never reported a save; keep it anyway.
			acc.flushExposure(lineNo, "exposure never reported a saved image")
		}
		seconds, _ := strconv.ParseFloat(m[1], 64)
		filter := m[2]
		if filter == "" {
			filter = acc.currentFilter
		} else {
			acc.currentFilter = filter
		}
		gain, _ := strconv.Atoi(m[3])
		offset, _ := strconv.Atoi(m[4])
		acc.pendingExposure = &ExposureEvent{
			Start:       ts,
			Duration:    time.Duration(seconds * float64(time.Second)),
			Filter:      filter,
			Gain:        gain,
			Offset:      offset,
			Binning:     m[5],
			ImageType:   "LIGHT",
			Temperature: acc.lastTemp,
		}

	case strings.Contains(line, "SaveToDisk"):
		if acc.pendingExposure == nil {
			return
		}
		if m := reImageSaved.FindStringSubmatch(line); m != nil {
			acc.pendingExposure.SavedPath = m[1]
		}
		acc.pendingExposure.HFR = acc.lastHFR
		acc.pendingExposure.Stars = acc.lastStars
		acc.pendingExposure.Index = acc.exposureCount
		acc.exposureCount++
		acc.out.Events = append(acc.out.Events, acc.pendingExposure)
		acc.pendingExposure = nil

	case strings.Contains(line, "MeridianFlipTrigger") && strings.Contains(line, "pier side"):
		m := rePierSide.FindStringSubmatch(line)
		if m == nil {
			return
		}
		side := m[1]
		if acc.currentPier != "" && acc.currentPier != side {
			acc.out.Events = append(acc.out.Events, &MeridianFlipEvent{
				Timestamp: ts,
				FromSide:  acc.currentPier,
				ToSide:    side,
			})
		}
		acc.currentPier = side

	case strings.Contains(line, "InterruptWhenRMSAbove") && strings.Contains(line, "Total RMS above threshold"):
		if m := reRMSAlert.FindStringSubmatch(line); m != nil {
			total, _ := strconv.ParseFloat(m[1], 64)
			threshold, _ := strconv.ParseFloat(m[2], 64)
			acc.out.Events = append(acc.out.Events, &RMSAlertEvent{
				Timestamp: ts,
				TotalRMS:  total,
				Threshold: threshold,
			})
		}

	case strings.Contains(line, "SequenceItem") && strings.Contains(line, "Item: Dither"):
		switch {
		case strings.Contains(line, "Starting"):
			if acc.pendingDither != nil {
				acc.flushDither(lineNo, "dither restarted before settling")
			}
			acc.pendingDither = &DitherEvent{Start: ts}
			if m := reDitherAmount.FindStringSubmatch(line); m != nil {
				if v, err := strconv.ParseFloat(m[1], 64); err == nil {
					acc.pendingDither.Magnitude = &v
				}
			}
		case strings.Contains(line, "Finishing"):
			if acc.pendingDither == nil {
				return
			}
			acc.pendingDither.Settle = ts.Sub(acc.pendingDither.Start)
			acc.out.Events = append(acc.out.Events, acc.pendingDither)
			acc.pendingDither = nil
		}

	case strings.Contains(line, "FocuserVM"):
		if m := reFocuserTemp.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				acc.lastTemp = &v
			}
		}
	}
}

// flushPending drains the accumulation buffer at end-of-input. A run that
// never saw its terminator is kept with whatever was collected and flagged.
func (acc *imagingAccumulator) flushPending(lineNo int) {
	if acc.pendingAF != nil {
		acc.flushAutofocus(lineNo, "autofocus run unterminated at end of log")
	}
	if acc.pendingExposure != nil {
		acc.flushExposure(lineNo, "exposure unterminated at end of log")
	}
	if acc.pendingDither != nil {
		acc.flushDither(lineNo, "dither unterminated at end of log")
	}
}

func (acc *imagingAccumulator) flushAutofocus(lineNo int, reason string) {
	acc.pendingAF.FinalHFR = acc.lastHFR
	acc.pendingAF.Incomplete = true
	acc.out.Events = append(acc.out.Events, acc.pendingAF)
	acc.out.Skipped = append(acc.out.Skipped, SkippedLine{Line: lineNo, Reason: reason})
	acc.pendingAF = nil
}

func (acc *imagingAccumulator) flushExposure(lineNo int, reason string) {
	acc.pendingExposure.HFR = acc.lastHFR
	acc.pendingExposure.Stars = acc.lastStars
	acc.pendingExposure.Index = acc.exposureCount
	acc.exposureCount++
	acc.out.Events = append(acc.out.Events, acc.pendingExposure)
	acc.out.Skipped = append(acc.out.Skipped, SkippedLine{Line: lineNo, Reason: reason})
	acc.pendingExposure = nil
}

func (acc *imagingAccumulator) flushDither(lineNo int, reason string) {
	acc.out.Events = append(acc.out.Events, acc.pendingDither)
	acc.out.Skipped = append(acc.out.Skipped, SkippedLine{Line: lineNo, Reason: reason})
	acc.pendingDither = nil
}
