package internal

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Log filename grammars. Imaging logs are named YYYYMMDD-HHMMSS*.log, guide
// logs PHD2_GuideLog_YYYY-MM-DD_HHMMSS.txt. Files with foreign names fall
// back to the first timestamped line of their content.
var (
	reImagingLogName = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})-(\d{2})(\d{2})(\d{2}).*\.log$`)
	reGuidingLogName = regexp.MustCompile(`^PHD2_GuideLog_(\d{4})-(\d{2})-(\d{2})_(\d{2})(\d{2})(\d{2})\.txt$`)
)

// ObservingNight maps a timestamp to the calendar date of the observing night
// it belongs to. Anything before local noon counts as the previous evening's
// night, so a log started at 01:30 pairs with one started at 22:00 the day
// before.
func ObservingNight(t time.Time) time.Time {
	if t.Hour() < 12 {
		t = t.AddDate(0, 0, -1)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// InferLogStart extracts the log start time from a well-known filename.
func InferLogStart(name string) (LogKind, time.Time, bool) {
	if m := reImagingLogName.FindStringSubmatch(name); m != nil {
		if t, ok := buildTime(m[1], m[2], m[3], m[4], m[5], m[6]); ok {
			return LogKindImaging, t, true
		}
	}
	if m := reGuidingLogName.FindStringSubmatch(name); m != nil {
		if t, ok := buildTime(m[1], m[2], m[3], m[4], m[5], m[6]); ok {
			return LogKindGuiding, t, true
		}
	}
	return "", time.Time{}, false
}

func buildTime(y, mo, d, h, mi, s string) (time.Time, bool) {
	yy, _ := strconv.Atoi(y)
	mm, _ := strconv.Atoi(mo)
	dd, _ := strconv.Atoi(d)
	hh, _ := strconv.Atoi(h)
	mn, _ := strconv.Atoi(mi)
	ss, _ := strconv.Atoi(s)
	if mm < 1 || mm > 12 || dd < 1 || dd > 31 {
		return time.Time{}, false
	}
	return time.Date(yy, time.Month(mm), dd, hh, mn, ss, 0, time.UTC), true
}

// ScanFolder discovers logs of one kind in a directory. Files whose start
// time cannot be inferred from either the filename or the content are skipped
// with a logged warning, never an error.
func ScanFolder(dir string, kind LogKind) ([]DiscoveredLog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var logs []DiscoveredLog
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".log" && ext != ".txt" {
			continue
		}
		path := filepath.Join(dir, name)

		inferredKind, start, ok := InferLogStart(name)
		if ok && inferredKind != kind {
			continue
		}

		first, last := probeSpan(path, kind)
		if !ok {
			if first.IsZero() {
				LogDebug("skipping %s: no inferable start time", path)
				continue
			}
			start = first
		}
		end := last
		if end.IsZero() {
			end = start
		}

		logs = append(logs, DiscoveredLog{
			Path:  path,
			Kind:  kind,
			Night: ObservingNight(start),
			Start: start,
			End:   end,
		})
	}

	sort.Slice(logs, func(i, j int) bool { return logs[i].Start.Before(logs[j].Start) })
	return logs, nil
}

// probeSpan scans a log file for its first and last recognizable timestamps.
// Best effort; zero times mean the content carried none.
func probeSpan(path string, kind LogKind) (first, last time.Time) {
	f, err := os.Open(path)
	if err != nil {
		LogDebug("probe %s: %v", path, err)
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		var t time.Time
		switch kind {
		case LogKindImaging:
			m := reImagingTimestamp.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			parsed, err := parseImagingTimestamp(m[1])
			if err != nil {
				continue
			}
			t = parsed
		case LogKindGuiding:
			var m []string
			if m = reGuidingBegins.FindStringSubmatch(line); m == nil {
				if m = reGuidingEnds.FindStringSubmatch(line); m == nil {
					continue
				}
			}
			parsed, err := time.Parse(guidingTimeLayout, m[1])
			if err != nil {
				continue
			}
			t = parsed
		default:
			return
		}
		if first.IsZero() {
			first = t
		}
		last = t
	}
	return
}
