package internal

import (
	"bufio"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// guidingTimeLayout is the wall-clock format used by guide-log header lines.
const guidingTimeLayout = "2006-01-02 15:04:05"

// Guide-log line matchers. Each matcher is independent so that a new
// format revision is an additive change, not a grammar rewrite.
var (
	reGuideLogEnabled = regexp.MustCompile(`Log enabled at (\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})`)
	reGuidingBegins   = regexp.MustCompile(`^Guiding Begins at (\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})`)
	reGuidingEnds     = regexp.MustCompile(`^Guiding Ends at (\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})`)
	reCalibration     = regexp.MustCompile(`^Calibration Begins at (\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})`)
	reEquipment       = regexp.MustCompile(`^Equipment Profile = (.+)`)
	rePixelScale      = regexp.MustCompile(`^Pixel scale = ([\d.]+)[^,]*(?:,.*Focal length = (\d+))?`)
	rePointing        = regexp.MustCompile(`^RA = ([\d.]+) hr, Dec = ([-\d.]+) deg, Hour angle = ([-\d.]+) hr, Pier side = (\w+).*Alt = ([\d.]+) deg, Az = ([\d.]+) deg`)
	reFrameLine       = regexp.MustCompile(`^\d+,`)
)

// Frame CSV column positions. Columns past the guide distances are optional
// and vary between guiding-software versions.
const (
	colFrame = iota
	colTime
	colMount
	colDX
	colDY
	colRARaw
	colDecRaw
	colRAGuide
	colDecGuide
	colRADuration
	colRADirection
	colDecDuration
	colDecDirection
	colXStep
	colYStep
	colStarMass
	colSNR
	colErrorCode
)

// minFrameColumns is the shortest frame line still carrying both raw
// distances.
const minFrameColumns = colDecRaw + 1

// ParseGuidingLog converts raw guide-log text into session metadata and an
// ordered frame sequence. Individual malformed lines are skipped with a
// recorded warning; a *ParseError is returned only when the text contains no
// recognizable header or frame lines at all.
func ParseGuidingLog(text string) (*GuidingLog, error) {
	result := &GuidingLog{}

	var (
		segStart   time.Time // start of the current guiding segment
		headerSeen bool
		lastFrame  time.Time
		rawFrames  []GuideFrame // RA/Dec still in pixels
	)

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case reGuideLogEnabled.MatchString(line):
			headerSeen = true

		case reGuidingBegins.MatchString(line):
			headerSeen = true
			m := reGuidingBegins.FindStringSubmatch(line)
			t, err := time.Parse(guidingTimeLayout, m[1])
			if err != nil {
				result.Skipped = append(result.Skipped, SkippedLine{Line: lineNo, Reason: "unparsable segment start time"})
				continue
			}
			segStart = t
			if result.Meta.Start.IsZero() {
				result.Meta.Start = t
			}

		case reGuidingEnds.MatchString(line):
			m := reGuidingEnds.FindStringSubmatch(line)
			if t, err := time.Parse(guidingTimeLayout, m[1]); err == nil {
				result.Meta.End = t
			}
			segStart = time.Time{}

		case reCalibration.MatchString(line):
			headerSeen = true
			m := reCalibration.FindStringSubmatch(line)
			if t, err := time.Parse(guidingTimeLayout, m[1]); err == nil && result.Meta.Calibration.IsZero() {
				result.Meta.Calibration = t
			}

		case reEquipment.MatchString(line):
			headerSeen = true
			if result.Meta.Equipment == "" {
				result.Meta.Equipment = strings.TrimSpace(reEquipment.FindStringSubmatch(line)[1])
			}

		case rePixelScale.MatchString(line):
			headerSeen = true
			m := rePixelScale.FindStringSubmatch(line)
			if result.Meta.PixelScale == 0 {
				result.Meta.PixelScale, _ = strconv.ParseFloat(m[1], 64)
			}
			if m[2] != "" && result.Meta.FocalLength == 0 {
				result.Meta.FocalLength, _ = strconv.Atoi(m[2])
			}

		case rePointing.MatchString(line):
			headerSeen = true
			m := rePointing.FindStringSubmatch(line)
			if result.Meta.PierSide == "" {
				result.Meta.RAHours, _ = strconv.ParseFloat(m[1], 64)
				result.Meta.DecDegrees, _ = strconv.ParseFloat(m[2], 64)
				result.Meta.HourAngle, _ = strconv.ParseFloat(m[3], 64)
				result.Meta.PierSide = m[4]
				result.Meta.Altitude, _ = strconv.ParseFloat(m[5], 64)
				result.Meta.Azimuth, _ = strconv.ParseFloat(m[6], 64)
			}

		case reFrameLine.MatchString(line):
			if segStart.IsZero() {
				result.Skipped = append(result.Skipped, SkippedLine{Line: lineNo, Reason: "frame line outside a guiding segment"})
				continue
			}
			frame, reason := parseGuideFrame(line, segStart)
			if reason != "" {
				result.Skipped = append(result.Skipped, SkippedLine{Line: lineNo, Reason: reason})
				continue
			}
			if !lastFrame.IsZero() && frame.Time.Before(lastFrame) {
				result.Skipped = append(result.Skipped, SkippedLine{Line: lineNo, Reason: "timestamp earlier than previous frame"})
			}
			lastFrame = frame.Time
			rawFrames = append(rawFrames, frame)
		}
	}

	if !headerSeen && len(rawFrames) == 0 {
		return nil, &ParseError{Source: "guiding", Err: errors.New("no recognizable guide-log lines")}
	}

	// Raw distances are in pixels; scale to arcseconds once the whole header
	// has been seen. An unreported scale leaves the values as-is.
	scale := result.Meta.PixelScale
	if scale == 0 {
		scale = 1.0
	}
	result.Frames = make([]GuideFrame, len(rawFrames))
	for i, f := range rawFrames {
		f.RA *= scale
		f.Dec *= scale
		result.Frames[i] = f
	}

	if result.Meta.End.IsZero() && !lastFrame.IsZero() {
		result.Meta.End = lastFrame
	}

	return result, nil
}

// parseGuideFrame decodes one CSV frame line. The returned reason is empty on
// success. Optional columns absent from the revision at hand stay unknown
// (nil) rather than becoming zeros.
func parseGuideFrame(line string, segStart time.Time) (GuideFrame, string) {
	parts := strings.Split(line, ",")
	if len(parts) < minFrameColumns {
		return GuideFrame{}, "frame line has too few columns"
	}

	offset, err := strconv.ParseFloat(strings.TrimSpace(parts[colTime]), 64)
	if err != nil {
		return GuideFrame{}, "unparsable frame time offset"
	}
	ra, err := strconv.ParseFloat(strings.TrimSpace(parts[colRARaw]), 64)
	if err != nil {
		return GuideFrame{}, "unparsable RA distance"
	}
	dec, err := strconv.ParseFloat(strings.TrimSpace(parts[colDecRaw]), 64)
	if err != nil {
		return GuideFrame{}, "unparsable Dec distance"
	}

	frame := GuideFrame{
		Time: segStart.Add(time.Duration(offset * float64(time.Second))),
		RA:   ra,
		Dec:  dec,
	}

	if v, ok := intColumn(parts, colRADuration); ok {
		frame.RAPulse = v
	}
	if v, ok := intColumn(parts, colDecDuration); ok {
		frame.DecPulse = v
	}
	if colRADirection < len(parts) {
		frame.RADir = strings.TrimSpace(parts[colRADirection])
	}
	if colDecDirection < len(parts) {
		frame.DecDir = strings.TrimSpace(parts[colDecDirection])
	}
	if v, ok := floatColumn(parts, colStarMass); ok {
		frame.StarMass = &v
	}
	if v, ok := floatColumn(parts, colSNR); ok {
		frame.SNR = &v
	}
	if v, ok := intColumn(parts, colErrorCode); ok && v != 0 {
		frame.Dropped = true
	}

	return frame, ""
}

func floatColumn(parts []string, idx int) (float64, bool) {
	if idx >= len(parts) {
		return 0, false
	}
	s := strings.TrimSpace(parts[idx])
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func intColumn(parts []string, idx int) (int, bool) {
	if idx >= len(parts) {
		return 0, false
	}
	s := strings.TrimSpace(parts[idx])
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}
