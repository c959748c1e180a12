package internal

import (
	"os"
	"time"
)

// LoadSession reads one matched log pair from disk and runs the full pipeline:
// parse both logs, correlate onto one timeline, return the Session. File
// access lives here at the collaborator boundary; the parsers themselves only
// ever see text.
func LoadSession(pair LogPair, margin time.Duration) (*Session, error) {
	imagingText, err := os.ReadFile(pair.Imaging.Path)
	if err != nil {
		return nil, &ParseError{Source: "imaging", Path: pair.Imaging.Path, Err: err}
	}
	img, err := ParseImagingLog(string(imagingText))
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Path = pair.Imaging.Path
		}
		return nil, err
	}

	var gl *GuidingLog
	if pair.Guiding != nil {
		guidingText, err := os.ReadFile(pair.Guiding.Path)
		if err != nil {
			// A vanished guide log degrades to an unguided session.
			LogWarn("guiding log %s unreadable: %v", pair.Guiding.Path, err)
		} else {
			gl, err = ParseGuidingLog(string(guidingText))
			if err != nil {
				if pe, ok := err.(*ParseError); ok {
					pe.Path = pair.Guiding.Path
				}
				LogWarn("guiding log ignored: %v", err)
				gl = nil
			}
		}
	}

	session := Correlate(img, gl, margin)
	if len(img.Skipped) > 0 {
		LogDebug("imaging log %s: %d line(s) skipped", pair.Imaging.Path, len(img.Skipped))
	}
	if gl != nil && len(gl.Skipped) > 0 {
		LogDebug("guiding log %s: %d line(s) skipped", pair.Guiding.Path, len(gl.Skipped))
	}
	return session, nil
}

// DiscoverAndMatch scans the configured folders and pairs the discovered
// logs. Either folder may be empty or missing; the other side still yields
// (possibly unguided) sessions.
func DiscoverAndMatch(imagingDir, guidingDir string) ([]LogPair, error) {
	var imaging, guiding []DiscoveredLog

	if imagingDir != "" {
		logs, err := ScanFolder(imagingDir, LogKindImaging)
		if err != nil {
			return nil, err
		}
		imaging = logs
	}
	if guidingDir != "" {
		logs, err := ScanFolder(guidingDir, LogKindGuiding)
		if err != nil {
			LogWarn("guiding folder %s: %v", guidingDir, err)
		} else {
			guiding = logs
		}
	}

	return MatchLogs(imaging, guiding), nil
}
