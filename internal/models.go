package internal

import "time"

// GuideFrame is a single guiding correction sample. RA and Dec errors are in
// arcseconds (converted from raw pixel distances when the log reports a pixel
// scale). Frames are immutable once parsed; Excluded is assigned exactly once
// by Correlate and acts as a query-time filter, never a deletion.
type GuideFrame struct {
	Time     time.Time `json:"time"`
	RA       float64   `json:"ra"`
	Dec      float64   `json:"dec"`
	RAPulse  int       `json:"raPulse,omitempty"`  // correction duration, ms
	DecPulse int       `json:"decPulse,omitempty"` // correction duration, ms
	RADir    string    `json:"raDir,omitempty"`
	DecDir   string    `json:"decDir,omitempty"`
	StarMass *float64  `json:"starMass,omitempty"`
	SNR      *float64  `json:"snr,omitempty"`
	Dropped  bool      `json:"dropped,omitempty"` // non-zero error code in the log
	Excluded bool      `json:"excluded,omitempty"`
}

// GuidingMeta describes one guiding log's session header data.
type GuidingMeta struct {
	Equipment   string    `json:"equipment,omitempty"`
	PierSide    string    `json:"pierSide,omitempty"`
	PixelScale  float64   `json:"pixelScale,omitempty"` // arcsec/px
	FocalLength int       `json:"focalLength,omitempty"`
	RAHours     float64   `json:"raHours,omitempty"`
	DecDegrees  float64   `json:"decDegrees,omitempty"`
	HourAngle   float64   `json:"hourAngle,omitempty"`
	Altitude    float64   `json:"altitude,omitempty"`
	Azimuth     float64   `json:"azimuth,omitempty"`
	Calibration time.Time `json:"calibration,omitempty"` // zero when never calibrated in this log
	Start       time.Time `json:"start"`
	End         time.Time `json:"end,omitempty"`
}

// SkippedLine records a single non-fatal parse diagnostic.
type SkippedLine struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// GuidingLog is the Guiding Log Parser output.
type GuidingLog struct {
	Meta    GuidingMeta   `json:"meta"`
	Frames  []GuideFrame  `json:"frames"`
	Skipped []SkippedLine `json:"skipped,omitempty"`
}

// ImagingLog is the Imaging Log Parser output: the chronological event stream
// of one imaging-session log.
type ImagingLog struct {
	Target  string         `json:"target,omitempty"`
	Events  []ImagingEvent `json:"events"`
	Skipped []SkippedLine  `json:"skipped,omitempty"`
}

// Span returns the time range covered by the log's events.
func (l *ImagingLog) Span() (start, end time.Time) {
	if len(l.Events) == 0 {
		return
	}
	start = l.Events[0].Time()
	end = l.Events[len(l.Events)-1].Time()
	if exp, ok := l.Events[len(l.Events)-1].(*ExposureEvent); ok {
		end = exp.End()
	}
	return
}

// ImagingEvent is one typed, timestamped record from an imaging log.
type ImagingEvent interface {
	Time() time.Time
	Kind() string
}

// ExposureEvent is one camera exposure.
type ExposureEvent struct {
	Start       time.Time     `json:"start"`
	Duration    time.Duration `json:"duration"`
	Filter      string        `json:"filter,omitempty"`
	Index       int           `json:"index"`
	Gain        int           `json:"gain,omitempty"`
	Offset      int           `json:"offset,omitempty"`
	Binning     string        `json:"binning,omitempty"`
	ImageType   string        `json:"imageType,omitempty"`
	HFR         *float64      `json:"hfr,omitempty"`
	Stars       *int          `json:"stars,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
	SavedPath   string        `json:"savedPath,omitempty"`
}

func (e *ExposureEvent) Time() time.Time { return e.Start }
func (e *ExposureEvent) Kind() string    { return "exposure" }

// End returns the end of the exposure window.
func (e *ExposureEvent) End() time.Time { return e.Start.Add(e.Duration) }

// AutofocusEvent is one completed (or EOF-truncated) autofocus run.
type AutofocusEvent struct {
	Timestamp       time.Time `json:"timestamp"`
	Trigger         string    `json:"trigger,omitempty"`
	Filter          string    `json:"filter,omitempty"`
	InitialPosition int       `json:"initialPosition,omitempty"`
	FinalPosition   int       `json:"finalPosition,omitempty"`
	FinalHFR        *float64  `json:"finalHfr,omitempty"`
	Temperature     *float64  `json:"temperature,omitempty"`
	Incomplete      bool      `json:"incomplete,omitempty"` // run never reached its terminator
}

func (e *AutofocusEvent) Time() time.Time { return e.Timestamp }
func (e *AutofocusEvent) Kind() string    { return "autofocus" }

// FilterChangeEvent is a filter wheel move.
type FilterChangeEvent struct {
	Timestamp time.Time `json:"timestamp"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to"`
	Position  int       `json:"position,omitempty"`
}

func (e *FilterChangeEvent) Time() time.Time { return e.Timestamp }
func (e *FilterChangeEvent) Kind() string    { return "filter" }

// DitherEvent is a deliberate pointing offset between exposures. Settle is the
// reported settle duration (zero when the log only records the start).
type DitherEvent struct {
	Start     time.Time     `json:"start"`
	Settle    time.Duration `json:"settle,omitempty"`
	Magnitude *float64      `json:"magnitude,omitempty"`
}

func (e *DitherEvent) Time() time.Time { return e.Start }
func (e *DitherEvent) Kind() string    { return "dither" }

// MeridianFlipEvent marks a pier-side transition.
type MeridianFlipEvent struct {
	Timestamp time.Time `json:"timestamp"`
	FromSide  string    `json:"fromSide,omitempty"`
	ToSide    string    `json:"toSide,omitempty"`
}

func (e *MeridianFlipEvent) Time() time.Time { return e.Timestamp }
func (e *MeridianFlipEvent) Kind() string    { return "meridianFlip" }

// RMSAlertEvent records the imaging software interrupting on a guiding RMS
// threshold breach. Informational only.
type RMSAlertEvent struct {
	Timestamp time.Time `json:"timestamp"`
	TotalRMS  float64   `json:"totalRms"`
	Threshold float64   `json:"threshold"`
}

func (e *RMSAlertEvent) Time() time.Time { return e.Timestamp }
func (e *RMSAlertEvent) Kind() string    { return "rmsAlert" }

// RmsValue holds one RA/Dec/Total RMS triple in arcseconds. Total is the
// quadrature combination of the RA and Dec components.
type RmsValue struct {
	RA    float64 `json:"ra"`
	Dec   float64 `json:"dec"`
	Total float64 `json:"total"`
}

// RmsBucket is one aggregation interval of the RMS timeline. RMS is nil when
// the bucket contains no included frames, so a chart can render a gap instead
// of a misleading zero.
type RmsBucket struct {
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	RMS           *RmsValue `json:"rms,omitempty"`
	SampleCount   int       `json:"sampleCount"`
	ExcludedCount int       `json:"excludedCount,omitempty"`
}

// ExposureGuidingSummary is the per-exposure guiding quality record: RMS over
// the exposure window plus the peak absolute excursion seen in it.
type ExposureGuidingSummary struct {
	ExposureIndex int       `json:"exposureIndex"`
	RMS           *RmsValue `json:"rms,omitempty"`
	Peak          *RmsValue `json:"peak,omitempty"`
	FrameCount    int       `json:"frameCount"`
	ExcludedCount int       `json:"excludedCount,omitempty"`
}

// AnalysisConfig controls the RMS Aggregator. The zero value is not useful;
// use DefaultAnalysisConfig.
type AnalysisConfig struct {
	BucketWidth   time.Duration `json:"bucketWidth"`
	ExcludeDither bool          `json:"excludeDither"`
	DitherMargin  time.Duration `json:"ditherMargin"`
}

// DefaultAnalysisConfig mirrors the defaults of the desktop tooling this
// replaces: one-minute buckets, dither excluded with a 3 s margin.
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		BucketWidth:   time.Minute,
		ExcludeDither: true,
		DitherMargin:  3 * time.Second,
	}
}

// LogKind distinguishes discovered log files.
type LogKind string

const (
	LogKindImaging LogKind = "imaging"
	LogKindGuiding LogKind = "guiding"
)

// DiscoveredLog is one log file found on disk with its inferred observing
// night and, when known, the time span its content covers.
type DiscoveredLog struct {
	Path  string    `json:"path"`
	Kind  LogKind   `json:"kind"`
	Night time.Time `json:"night"` // observing-night date, midnight UTC
	Start time.Time `json:"start,omitempty"`
	End   time.Time `json:"end,omitempty"`
}

// LogPair is the Session Matcher output: one imaging log and the guiding log
// chosen for it, or nil when the night was unguided.
type LogPair struct {
	Imaging DiscoveredLog  `json:"imaging"`
	Guiding *DiscoveredLog `json:"guiding,omitempty"`
}
