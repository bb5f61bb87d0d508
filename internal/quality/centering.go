package quality

import (
	"image"
	"math"

	"github.com/idkit/card-scanner/internal/vision"
)

// CenteringStatus reports whether the card sits close enough to the frame
// center.
type CenteringStatus string

const (
	Centered  CenteringStatus = "centered"
	OffCenter CenteringStatus = "off_center"
)

// CenteringConfig holds the centering tolerance.
type CenteringConfig struct {
	// ThresholdRatio is the maximum allowed centroid offset per axis as a
	// fraction of the corresponding frame dimension.
	ThresholdRatio float64
}

// DefaultCenteringConfig returns the tuned centering tolerance.
func DefaultCenteringConfig() CenteringConfig {
	return CenteringConfig{ThresholdRatio: 0.15}
}

// CenteringResult reports the centering analysis for one frame.
type CenteringResult struct {
	IsCentered bool            `json:"is_centered"`
	Message    string          `json:"message"`
	Status     CenteringStatus `json:"status"`
}

// CenteringMetric compares the card's moment centroid to the frame center
// and produces directional guidance along the axis with the larger offset.
type CenteringMetric struct {
	cfg CenteringConfig
}

// NewCenteringMetric builds a centering metric with the given tolerance.
func NewCenteringMetric(cfg CenteringConfig) *CenteringMetric {
	return &CenteringMetric{cfg: cfg}
}

// Analyze evaluates the card's position in the frame. Absent frame or
// corners report off-center with the not-detected message.
func (m *CenteringMetric) Analyze(img image.Image, corners *vision.Quad) CenteringResult {
	if img == nil || corners == nil {
		return CenteringResult{Message: "Card not detected", Status: OffCenter}
	}

	bounds := img.Bounds()
	frameW := float64(bounds.Dx())
	frameH := float64(bounds.Dy())

	cx, cy, ok := corners.Centroid()
	if !ok {
		return CenteringResult{Message: "Center document", Status: OffCenter}
	}

	dx := cx - frameW/2
	dy := cy - frameH/2

	centeredX := math.Abs(dx) <= frameW*m.cfg.ThresholdRatio
	centeredY := math.Abs(dy) <= frameH*m.cfg.ThresholdRatio
	if centeredX && centeredY {
		return CenteringResult{IsCentered: true, Message: "Centered", Status: Centered}
	}

	// The larger offset decides the directional hint.
	var message string
	if math.Abs(dx) > math.Abs(dy) {
		if dx > 0 {
			message = "Move document left"
		} else {
			message = "Move document right"
		}
	} else {
		if dy > 0 {
			message = "Move document up"
		} else {
			message = "Move document down"
		}
	}
	return CenteringResult{Message: message, Status: OffCenter}
}
