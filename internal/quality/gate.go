package quality

import (
	"fmt"
	"image"

	"github.com/idkit/card-scanner/internal/vision"
)

// GateConfig aggregates the per-metric configurations.
type GateConfig struct {
	Blur      BlurConfig
	Glare     GlareConfig
	Distance  DistanceConfig
	Centering CenteringConfig
}

// DefaultGateConfig returns the tuned defaults for every metric.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		Blur:      DefaultBlurConfig(),
		Glare:     DefaultGlareConfig(),
		Distance:  DefaultDistanceConfig(),
		Centering: DefaultCenteringConfig(),
	}
}

// LocateFunc supplies the gate with a stabilized card detection for a frame.
// Sessions wire in their tracked locate step here.
type LocateFunc func(image.Image) (vision.Quad, bool)

// Report is the combined quality verdict for one frame.
//
// IsValid requires card detected, sharp and distance optimal. Glare and
// centering are advisory: they are reported and surfaced in messages but do
// not block capture, a deliberate usability relaxation.
type Report struct {
	IsValid         bool `json:"is_valid"`
	CardDetected    bool `json:"card_detected"`
	IsSharp         bool `json:"is_sharp"`
	GlareAcceptable bool `json:"glare_acceptable"`
	DistanceOptimal bool `json:"distance_optimal"`
	IsCentered      bool `json:"is_centered"`

	// Messages lists the human-readable findings in evaluation order.
	Messages []string `json:"messages"`

	// Corners is the stabilized quadrilateral, nil when no card was found.
	Corners *vision.Quad `json:"corners,omitempty"`

	Blur      BlurResult      `json:"blur"`
	Glare     GlareResult     `json:"glare"`
	Distance  DistanceResult  `json:"distance"`
	Centering CenteringResult `json:"centering"`
}

// Gate runs every quality metric over the stabilized detection and fuses
// the outcomes into one report. One gate per session; the embedded distance
// metric carries hysteresis state.
type Gate struct {
	blur      *BlurMetric
	glare     *GlareMetric
	distance  *DistanceMetric
	centering *CenteringMetric
	locate    LocateFunc
}

// NewGate builds a gate around the given stabilized locate step.
func NewGate(cfg GateConfig, locate LocateFunc) *Gate {
	return &Gate{
		blur:      NewBlurMetric(cfg.Blur),
		glare:     NewGlareMetric(cfg.Glare),
		distance:  NewDistanceMetric(cfg.Distance),
		centering: NewCenteringMetric(cfg.Centering),
		locate:    locate,
	}
}

// Reset clears all per-session metric state (distance hysteresis).
func (g *Gate) Reset() {
	g.distance.Reset()
}

// Evaluate locates the card via the stabilized detection step and then
// scores the frame against every metric.
func (g *Gate) Evaluate(img image.Image) *Report {
	var corners vision.Quad
	found := false
	if img != nil && g.locate != nil {
		corners, found = g.locate(img)
	}
	return g.EvaluateAt(img, corners, found)
}

// EvaluateAt scores a frame against every metric using an already-located
// quadrilateral, avoiding a second detection pass when the caller has one.
func (g *Gate) EvaluateAt(img image.Image, corners vision.Quad, found bool) *Report {
	report := &Report{}

	report.CardDetected = found
	if !found {
		report.Messages = append(report.Messages, "Card not detected")
		report.Distance = DistanceResult{Message: "Card not detected", Status: DistanceUnknown}
		report.Glare = GlareResult{Message: "Card not detected", GlareFraction: 1.0}
		report.Centering = CenteringResult{Message: "Card not detected", Status: OffCenter}
		report.Blur = BlurResult{IsBlurry: true}
		return report
	}
	report.Corners = &corners

	report.Blur = g.blur.Analyze(img, &corners)
	report.IsSharp = !report.Blur.IsBlurry
	if report.Blur.IsBlurry {
		report.Messages = append(report.Messages, fmt.Sprintf("Image is blurry (variance: %.1f)", report.Blur.Variance))
	}

	report.Glare = g.glare.Analyze(img, &corners)
	report.GlareAcceptable = report.Glare.IsAcceptable
	if !report.Glare.IsAcceptable {
		report.Messages = append(report.Messages, report.Glare.Message)
	}

	report.Distance = g.distance.Analyze(img, &corners)
	report.DistanceOptimal = report.Distance.IsOptimal
	if !report.Distance.IsOptimal {
		report.Messages = append(report.Messages, report.Distance.Message)
	}

	report.Centering = g.centering.Analyze(img, &corners)
	report.IsCentered = report.Centering.IsCentered

	report.IsValid = report.CardDetected && report.IsSharp && report.DistanceOptimal
	if report.IsValid {
		report.Messages = append(report.Messages, "Quality check passed")
	}
	return report
}

// PrimaryMessage picks the single most actionable hint for live guidance.
// Priority: distance, then centering, then blur, then glare; an all-clear
// frame asks the user to hold still for auto-capture.
func (r *Report) PrimaryMessage() string {
	switch {
	case !r.CardDetected:
		return "Place document in frame"
	case r.Distance.Status != DistanceOptimal:
		return r.Distance.Message
	case !r.IsCentered:
		return r.Centering.Message
	case !r.IsSharp:
		return "Too blurry"
	case !r.GlareAcceptable:
		return r.Glare.Message
	default:
		return "Hold still..."
	}
}
