package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// SampleGuidingLog is a small but structurally complete guide log: header,
// calibration, one guiding segment with frames, and a segment end. Raw
// distances are in pixels with a 2.0 arc-sec/px scale.
const SampleGuidingLog = `PHD2 version 2.6.11, Log version 2.5. Log enabled at 2024-03-14 21:58:12
Calibration Begins at 2024-03-14 21:59:01
Calibration complete
Guiding Begins at 2024-03-14 22:00:00
Equipment Profile = ED80 + ASI290MM
Pixel scale = 2.00 arc-sec/px, Binning = 1, Focal length = 400 mm
RA = 20.98 hr, Dec = 44.33 deg, Hour angle = -1.20 hr, Pier side = East, Rotator pos = N/A, Alt = 61.2 deg, Az = 112.4 deg
Frame,Time,mount,dx,dy,RARawDistance,DECRawDistance,RAGuideDistance,DECGuideDistance,RADuration,RADirection,DECDuration,DECDirection,XStep,YStep,StarMass,SNR,ErrorCode,ErrorInfo
1,1.000,"Mount",0.12,-0.05,0.50,-0.25,0.40,-0.20,120,E,90,N,,,560.5,25.4,0
2,2.000,"Mount",-0.08,0.04,-0.50,0.25,-0.35,0.18,110,W,80,S,,,558.1,24.9,0
3,3.000,"Mount",0.10,-0.02,0.50,-0.25,0.30,-0.10,100,E,60,N,,,561.0,25.1,0
4,4.000,"Mount",-0.09,0.03,-0.50,0.25,-0.25,0.12,90,W,50,S,,,559.4,25.0,0
not,a,frame,line
Guiding Ends at 2024-03-14 22:30:00
`

// SampleImagingLog is a small imaging-session log exercising every event
// variant: target, filter change, exposures, a multi-line autofocus run, a
// dither pair, a pier-side flip and an RMS alert.
const SampleImagingLog = `2024-03-14T21:55:00.0000|INFO|SequencerVM.cs|Start|100|Starting sequence
2024-03-14T21:55:01.0000|INFO|DeepSkyObjectContainer.cs|Run|120|Target: NGC 7000 RA: 20:59:17 Dec: 44° 31'
2024-03-14T21:56:00.0000|INFO|FilterWheelVM.cs|Move|210|Moving to Filter Ha at Position 1
2024-03-14T21:57:00.0000|INFO|RunAutofocus.cs|Execute|300|Starting autofocus run
2024-03-14T21:57:01.0000|INFO|AutoFocusVM.cs|Run|310|Starting AutoFocus with initial position 18220
2024-03-14T21:57:02.0000|INFO|SequenceTrigger.cs|Check|320|AutofocusAfterHFRIncreaseTrigger - Starting Trigger: AutofocusAfterHFRIncrease
2024-03-14T21:59:40.0000|INFO|HocusFocusStarDetection.cs|Detect|330|Average HFR: 2.31, HFR σ: 0.12, Detected Stars 412
2024-03-14T21:59:45.0000|INFO|AutoFocusVM.cs|Broadcast|340|BroadcastSuccessfulAutoFocusRun Temperature 4.3
2024-03-14T21:59:50.0000|INFO|AutoFocusVM.cs|Run|350|AutoFocus completed, ending at 18304
2024-03-14T22:00:30.0000|INFO|CameraVM.cs|Capture|400|Starting Exposure - Exposure Time: 120.0s; Filter: Ha; Gain: 100; Offset 50; Binning: 1x1
2024-03-14T22:02:31.0000|INFO|HocusFocusStarDetection.cs|Detect|330|Average HFR: 2.40, HFR σ: 0.11, Detected Stars 398
2024-03-14T22:02:32.0000|INFO|ImageSaveController.cs|SaveToDisk|500|Saved image to N:\Astro\NGC7000\LIGHT_0001.fits
2024-03-14T22:02:35.0000|INFO|SequenceItem.cs|Run|600|Starting Category: Guider, Item: Dither
2024-03-14T22:02:45.0000|INFO|SequenceItem.cs|Run|610|Finishing Category: Guider, Item: Dither
2024-03-14T22:02:50.0000|INFO|CameraVM.cs|Capture|400|Starting Exposure - Exposure Time: 120.0s; Filter: Ha; Gain: 100; Offset 50; Binning: 1x1
2024-03-14T22:04:51.0000|INFO|ImageSaveController.cs|SaveToDisk|500|Saved image to N:\Astro\NGC7000\LIGHT_0002.fits
2024-03-14T22:05:00.0000|INFO|MeridianFlipTrigger.cs|Check|700|Current pier side pierEast
2024-03-14T23:40:00.0000|INFO|MeridianFlipTrigger.cs|Check|700|Current pier side pierWest
2024-03-14T23:45:00.0000|INFO|InterruptWhenRMSAbove.cs|Check|800|Total RMS above threshold (1.42 / 1.00)
some line without a timestamp
`

// GuidingFrameLine builds one frame CSV line with the standard column set.
func GuidingFrameLine(frame int, offset, raPx, decPx, snr float64) string {
	return fmt.Sprintf(`%d,%.3f,"Mount",0.00,0.00,%.3f,%.3f,0.00,0.00,0,,0,,,,500.0,%.1f,0`,
		frame, offset, raPx, decPx, snr)
}

// GuidingLogWithFrames builds a single-segment guide log around the given
// frame lines. Pixel scale 1.0 keeps raw and arcsec values identical.
func GuidingLogWithFrames(start string, frameLines ...string) string {
	var b strings.Builder
	b.WriteString("PHD2 version 2.6.11, Log version 2.5. Log enabled at " + start + "\n")
	b.WriteString("Guiding Begins at " + start + "\n")
	b.WriteString("Pixel scale = 1.00 arc-sec/px, Binning = 1, Focal length = 400 mm\n")
	for _, line := range frameLines {
		b.WriteString(line + "\n")
	}
	return b.String()
}

// WriteLogFile writes a log fixture into dir and returns its path.
func WriteLogFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", name, err)
	}
	return path
}
