package session

import (
	"image"
	"io"
	"log/slog"
	"strings"

	"github.com/idkit/card-scanner/internal/detection"
	"github.com/idkit/card-scanner/internal/frame"
	"github.com/idkit/card-scanner/internal/quality"
	"github.com/idkit/card-scanner/internal/rectify"
	"github.com/idkit/card-scanner/internal/vision"
)

// Mode selects how capture is triggered.
type Mode string

const (
	// ModeAuto counts consecutive good frames and signals auto-capture.
	ModeAuto Mode = "auto"
	// ModeManual leaves capture to an explicit caller request.
	ModeManual Mode = "manual"
)

// Config holds the orchestrator parameters plus the configurations of every
// component the session owns.
type Config struct {
	// HistorySize bounds the per-frame detection FIFO.
	HistorySize int

	// DetectionThreshold is the number of recent detections required for a
	// detection to count as stable.
	DetectionThreshold int

	// AutoCaptureThreshold is the number of consecutive fully valid frames
	// before auto-capture fires in auto mode.
	AutoCaptureThreshold int

	// JPEGQuality is used when encoding a captured card image.
	JPEGQuality int

	Locator detection.Config
	Tracker detection.TrackerConfig
	Gate    quality.GateConfig
	Rectify rectify.Config
}

// DefaultConfig returns the tuned session defaults.
func DefaultConfig() Config {
	return Config{
		HistorySize:          5,
		DetectionThreshold:   3,
		AutoCaptureThreshold: 30,
		JPEGQuality:          95,
		Locator:              detection.DefaultConfig(),
		Tracker:              detection.DefaultTrackerConfig(),
		Gate:                 quality.DefaultGateConfig(),
		Rectify:              rectify.DefaultConfig(),
	}
}

// Guidance is the per-frame feedback sent to the user interface.
type Guidance struct {
	Type              string       `json:"type"`
	CardDetected      bool         `json:"card_detected"`
	Message           string       `json:"message"`
	Distance          string       `json:"distance"`
	Centering         string       `json:"centering"`
	Blur              string       `json:"blur"`
	Glare             string       `json:"glare"`
	ReadyToCapture    bool         `json:"ready_to_capture"`
	ShouldAutoCapture bool         `json:"should_auto_capture"`
	Corners           *vision.Quad `json:"card_corners,omitempty"`
}

// CaptureResult is the outcome of a capture request.
type CaptureResult struct {
	Type        string `json:"type"`
	Success     bool   `json:"success"`
	ImageBase64 string `json:"warped_image,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`
	Message     string `json:"message"`
}

// Session owns all per-connection mutable state: the detection tracker, the
// quality gate's hysteresis, the detection history and the good-frame
// counter.
//
// A session must be driven by exactly one logical sequence of calls; frames
// of the same session are never processed concurrently. Different sessions
// are fully isolated and may run in parallel without locking.
type Session struct {
	cfg       Config
	logger    *slog.Logger
	locator   *detection.Locator
	tracker   *detection.Tracker
	gate      *quality.Gate
	rectifier *rectify.Rectifier

	history    []bool
	retained   *vision.Quad
	goodFrames int
}

// New builds a session in its initial state. A nil logger disables logging.
func New(cfg Config, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Session{
		cfg:       cfg,
		logger:    logger,
		locator:   detection.NewLocator(cfg.Locator),
		tracker:   detection.NewTracker(cfg.Tracker),
		rectifier: rectify.NewRectifier(cfg.Rectify),
	}
	s.gate = quality.NewGate(cfg.Gate, func(img image.Image) (vision.Quad, bool) {
		corners, found, _ := s.locateStable(img)
		return corners, found
	})
	return s
}

// LocateAndTrack runs the full stabilized detection for one frame: raw
// multi-scale location, tracker smoothing and grace-period retention, then
// the session-level detection-history vote. Never fails on empty input; it
// reports found=false instead.
func (s *Session) LocateAndTrack(img image.Image) (vision.Quad, bool) {
	corners, found, _ := s.locateStable(img)
	return corners, found
}

// locateStable is the shared detection step. stable reports whether the
// recent history carries enough detections to consider the card present.
func (s *Session) locateStable(img image.Image) (corners vision.Quad, found, stable bool) {
	raw := s.locator.Locate(img, s.tracker.AreaHint())
	tracked, found := s.tracker.Update(raw)

	s.history = append(s.history, raw.Found)
	if len(s.history) > s.cfg.HistorySize {
		s.history = s.history[1:]
	}
	recent := countTrue(s.history)
	stable = recent >= s.cfg.DetectionThreshold

	corners = tracked.Corners
	// Session-level retention on top of the tracker's grace period: if the
	// tracker gave up but the history still holds a recent detection, keep
	// reporting the retained corners.
	if !found && s.retained != nil && recent > 0 {
		corners = *s.retained
		found = true
	} else if found {
		c := corners
		s.retained = &c
	}

	if recent == 0 {
		s.retained = nil
		if countTrue(lastN(s.history, 3)) == 0 {
			s.tracker.ResetSizeTracking()
		}
	}
	return corners, found, stable
}

// ProcessFrame analyzes one frame and produces live guidance. In auto mode
// it also advances the good-frame counter toward auto-capture; any frame
// that is not fully valid resets the counter.
func (s *Session) ProcessFrame(img image.Image, mode Mode) *Guidance {
	corners, found, stable := s.locateStable(img)

	if !stable && !found {
		s.goodFrames = 0
		return &Guidance{
			Type:      "guidance",
			Message:   "Place document in frame",
			Distance:  "unknown",
			Centering: "unknown",
			Blur:      "unknown",
			Glare:     "unknown",
		}
	}

	report := s.gate.EvaluateAt(img, corners, found)

	if report.IsValid && mode == ModeAuto {
		s.goodFrames++
	} else {
		s.goodFrames = 0
	}
	shouldCapture := s.goodFrames >= s.cfg.AutoCaptureThreshold

	blurStatus := "sharp"
	if !report.IsSharp {
		blurStatus = "blurry"
	}
	glareStatus := "acceptable"
	if !report.GlareAcceptable {
		glareStatus = "excessive"
	}

	g := &Guidance{
		Type:              "guidance",
		CardDetected:      stable,
		Message:           report.PrimaryMessage(),
		Distance:          string(report.Distance.Status),
		Centering:         string(report.Centering.Status),
		Blur:              blurStatus,
		Glare:             glareStatus,
		ReadyToCapture:    report.IsValid,
		ShouldAutoCapture: shouldCapture,
		Corners:           report.Corners,
	}
	s.logger.Debug("frame processed",
		"detected", stable,
		"valid", report.IsValid,
		"good_frames", s.goodFrames,
		"message", g.Message)
	return g
}

// EvaluateQuality validates one frame against every quality requirement,
// including its own stabilized detection pass.
func (s *Session) EvaluateQuality(img image.Image) *quality.Report {
	return s.gate.Evaluate(img)
}

// Rectify warps the card region into the canonical image.
func (s *Session) Rectify(img image.Image, corners *vision.Quad) (*image.NRGBA, bool) {
	return s.rectifier.Warp(img, corners)
}

// Capture validates the frame, warps the card and encodes the canonical
// image. It resets the good-frame counter so auto-capture re-arms.
func (s *Session) Capture(img image.Image) *CaptureResult {
	report := s.gate.Evaluate(img)
	s.goodFrames = 0

	if !report.IsValid {
		return &CaptureResult{
			Type:    "capture",
			Message: "Image does not meet quality requirements: " + strings.Join(report.Messages, ", "),
		}
	}

	warped, ok := s.rectifier.Warp(img, report.Corners)
	if !ok {
		return &CaptureResult{
			Type:    "capture",
			Message: "Failed to extract card image",
		}
	}

	encoded, err := frame.EncodeBase64JPEG(warped, s.cfg.JPEGQuality)
	if err != nil {
		s.logger.Error("capture encoding failed", "error", err)
		return &CaptureResult{
			Type:    "capture",
			Message: "Failed to encode card image",
		}
	}

	s.logger.Info("card captured")
	return &CaptureResult{
		Type:        "capture",
		Success:     true,
		ImageBase64: encoded,
		MimeType:    "image/jpeg",
		Message:     "Card captured successfully",
	}
}

// GoodFrames exposes the auto-capture progress counter.
func (s *Session) GoodFrames() int {
	return s.goodFrames
}

// Reset returns every piece of session state to its initial value: tracker,
// distance hysteresis, detection history, retention and counters.
func (s *Session) Reset() {
	s.tracker.Reset()
	s.gate.Reset()
	s.history = nil
	s.retained = nil
	s.goodFrames = 0
	s.logger.Debug("session reset")
}

func countTrue(vals []bool) int {
	n := 0
	for _, v := range vals {
		if v {
			n++
		}
	}
	return n
}

func lastN(vals []bool, n int) []bool {
	if len(vals) <= n {
		return vals
	}
	return vals[len(vals)-n:]
}
