package detection

import "github.com/idkit/card-scanner/internal/vision"

// TrackerConfig controls temporal stabilization of per-frame detections.
type TrackerConfig struct {
	// MaxFailures is the grace-period budget: after a successful detection,
	// up to this many consecutive failed frames still report the retained
	// corners before the tracker resets.
	MaxFailures int

	// SmoothingAlpha is the exponential corner-smoothing weight on history;
	// values near 1.0 favor stability over responsiveness.
	SmoothingAlpha float64

	// AreaAlpha is the weight on history for the card-area moving average
	// consumed by the locator's size-preference scoring.
	AreaAlpha float64
}

// DefaultTrackerConfig returns the tuned stabilization defaults.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		MaxFailures:    10,
		SmoothingAlpha: 0.8,
		AreaAlpha:      0.7,
	}
}

// Tracker retains and smooths detections across frames for one session.
//
// It is exclusively owned by a single session and must be updated exactly
// once per frame, strictly sequentially. A dropped frame inside the grace
// period still reports the last smoothed corners, which prevents guidance
// flicker from single missed detections.
type Tracker struct {
	cfg TrackerConfig

	lastCorners         Result
	consecutiveFailures int
	hasEverDetected     bool

	trackedArea float64
	hasArea     bool
}

// NewTracker builds a tracker in its initial (nothing detected) state.
func NewTracker(cfg TrackerConfig) *Tracker {
	return &Tracker{cfg: cfg}
}

// Update folds one frame's raw detection into the track state and returns
// the stabilized outcome.
//
// On success the failure counter resets and the new corners are blended with
// the previous smoothed corners. On failure within the grace period the
// retained corners are returned with found=true; once the failure budget is
// exceeded, all retained state is cleared and found=false is reported until
// a fresh detection occurs.
func (t *Tracker) Update(res Result) (Result, bool) {
	if res.Found {
		t.consecutiveFailures = 0

		if t.hasEverDetected {
			res.Corners = vision.Blend(t.lastCorners.Corners, res.Corners, t.cfg.SmoothingAlpha)
		}
		t.hasEverDetected = true
		t.lastCorners = res

		area := res.Corners.Area()
		if t.hasArea {
			t.trackedArea = t.cfg.AreaAlpha*t.trackedArea + (1-t.cfg.AreaAlpha)*area
		} else {
			t.trackedArea = area
			t.hasArea = true
		}
		return res, true
	}

	t.consecutiveFailures++
	if t.hasEverDetected && t.consecutiveFailures <= t.cfg.MaxFailures {
		retained := t.lastCorners
		retained.Found = true
		return retained, true
	}
	if t.consecutiveFailures > t.cfg.MaxFailures {
		t.lastCorners = Result{}
		t.hasEverDetected = false
		t.consecutiveFailures = 0
	}
	return Result{}, false
}

// AreaHint returns the tracked card-area moving average, or 0 when no area
// has been tracked since the last reset. Read-only for the locator.
func (t *Tracker) AreaHint() float64 {
	if !t.hasArea {
		return 0
	}
	return t.trackedArea
}

// ResetSizeTracking clears only the area moving average. Called when the
// card has been out of frame long enough that size preference would mislead
// the next search.
func (t *Tracker) ResetSizeTracking() {
	t.trackedArea = 0
	t.hasArea = false
}

// Reset returns the tracker to its initial state.
func (t *Tracker) Reset() {
	*t = Tracker{cfg: t.cfg}
}
