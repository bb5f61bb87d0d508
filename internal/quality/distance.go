package quality

import (
	"image"
	"math"

	"github.com/idkit/card-scanner/internal/vision"
)

// DistanceStatus is the hysteresis state of the distance guide.
type DistanceStatus string

const (
	DistanceUnknown  DistanceStatus = "unknown"
	DistanceOptimal  DistanceStatus = "optimal"
	DistanceTooFar   DistanceStatus = "too_far"
	DistanceTooClose DistanceStatus = "too_close"
)

// Physical ID-1 card dimensions (ISO/IEC 7810).
const (
	cardWidthMM  = 85.60
	cardHeightMM = 53.98
)

// Coarse camera assumption used only by the low-weight physical-size factor.
const defaultHorizontalFOVDeg = 65.0

// DistanceConfig holds the area-ratio bands and hysteresis margin.
type DistanceConfig struct {
	// MinAreaRatio/MaxAreaRatio bound the usable card-area fraction;
	// OptimalMin/OptimalMax delimit the pass band.
	MinAreaRatio float64
	MaxAreaRatio float64
	OptimalMin   float64
	OptimalMax   float64

	// Hysteresis is the extra area-ratio margin required to cross into or
	// out of the optimal state, suppressing single-frame flicker around
	// band boundaries.
	Hysteresis float64
}

// DefaultDistanceConfig returns the tuned distance bands.
func DefaultDistanceConfig() DistanceConfig {
	return DistanceConfig{
		MinAreaRatio: 0.10,
		MaxAreaRatio: 0.75,
		OptimalMin:   0.25,
		OptimalMax:   0.60,
		Hysteresis:   0.02,
	}
}

// DistanceResult reports the distance analysis for one frame.
type DistanceResult struct {
	IsOptimal bool           `json:"is_optimal"`
	Message   string         `json:"message"`
	Status    DistanceStatus `json:"status"`

	// AreaRatio is the card-area over frame-area primary signal.
	AreaRatio float64 `json:"area_ratio"`

	// Score is the weighted multi-factor score in [0, 1].
	Score float64 `json:"score"`
}

// DistanceMetric scores how far the card is from the camera by fusing the
// area ratio (primary), edge lengths, perspective distortion and a coarse
// physical-size estimate, then runs the result through a three-state
// hysteresis machine so guidance does not flicker between adjacent states.
//
// The metric is stateful per session: it remembers the last status for the
// hysteresis decision. Reset clears it.
type DistanceMetric struct {
	cfg        DistanceConfig
	lastStatus DistanceStatus
}

// NewDistanceMetric builds a distance metric in the undetermined state.
func NewDistanceMetric(cfg DistanceConfig) *DistanceMetric {
	return &DistanceMetric{cfg: cfg, lastStatus: DistanceUnknown}
}

// Reset clears the hysteresis state.
func (m *DistanceMetric) Reset() {
	m.lastStatus = DistanceUnknown
}

// Analyze evaluates the card's apparent distance. Absent frame or corners
// report the unknown-status sentinel.
func (m *DistanceMetric) Analyze(img image.Image, corners *vision.Quad) DistanceResult {
	if img == nil || corners == nil {
		return DistanceResult{Message: "Card not detected", Status: DistanceUnknown}
	}

	bounds := img.Bounds()
	frameW := float64(bounds.Dx())
	frameH := float64(bounds.Dy())
	frameArea := frameW * frameH
	if frameArea == 0 {
		return DistanceResult{Message: "Card not detected", Status: DistanceUnknown}
	}

	areaRatio := corners.Area() / frameArea
	lengths := corners.EdgeLengths()
	top, right, bottom, left := lengths[0], lengths[1], lengths[2], lengths[3]

	avgEdge := (top + right + bottom + left) / 4
	frameDiagonal := math.Hypot(frameW, frameH)

	// Perspective distortion: ratio of opposite edge lengths, 1.0 when the
	// card faces the camera squarely.
	horizontal := edgeRatio(top, bottom)
	vertical := edgeRatio(left, right)
	perspectiveScore := (horizontal + vertical) / 2

	physicalScore := physicalSizeScore(lengths, frameW)

	score := 0.70*m.scoreAreaRatio(areaRatio) +
		0.15*scoreEdgeLength(avgEdge, frameDiagonal) +
		0.10*perspectiveScore +
		0.05*physicalScore

	status := m.applyHysteresis(areaRatio)

	result := DistanceResult{Status: status, AreaRatio: areaRatio, Score: score}
	switch status {
	case DistanceOptimal:
		result.IsOptimal = true
		result.Message = "Distance OK"
	case DistanceTooFar:
		result.Message = "Move document closer"
	case DistanceTooClose:
		result.Message = "Move document farther"
	default:
		result.Message = "Adjust distance"
	}
	return result
}

// scoreAreaRatio maps the area ratio into [0, 1] with a plateau over the
// optimal band and linear ramps toward the outer bounds.
func (m *DistanceMetric) scoreAreaRatio(ratio float64) float64 {
	switch {
	case ratio < m.cfg.MinAreaRatio, ratio > m.cfg.MaxAreaRatio:
		return 0.0
	case ratio >= m.cfg.OptimalMin && ratio <= m.cfg.OptimalMax:
		return 1.0
	case ratio < m.cfg.OptimalMin:
		return (ratio - m.cfg.MinAreaRatio) / (m.cfg.OptimalMin - m.cfg.MinAreaRatio)
	default:
		return 1.0 - (ratio-m.cfg.OptimalMax)/(m.cfg.MaxAreaRatio-m.cfg.OptimalMax)
	}
}

// scoreEdgeLength prefers an average edge length around 25-45% of the frame
// diagonal.
func scoreEdgeLength(avgEdge, frameDiagonal float64) float64 {
	if frameDiagonal == 0 {
		return 0.5
	}
	ratio := avgEdge / frameDiagonal
	const lo, hi = 0.25, 0.45
	switch {
	case ratio >= lo && ratio <= hi:
		return 1.0
	case ratio < lo:
		return ratio / lo
	default:
		return math.Max(0.0, 1.0-(ratio-hi)/(0.6-hi))
	}
}

// physicalSizeScore estimates scene scale from the known ID-1 card diagonal.
// The estimate depends on an assumed field of view, so it only carries 5%
// of the combined weight.
func physicalSizeScore(lengths [4]float64, frameW float64) float64 {
	cardWidthPx := math.Max(lengths[0], lengths[2])
	cardHeightPx := math.Max(lengths[1], lengths[3])
	cardDiagonalPx := math.Hypot(cardWidthPx, cardHeightPx)
	if cardDiagonalPx == 0 {
		return 1.0
	}

	cardDiagonalMM := math.Hypot(cardWidthMM, cardHeightMM)
	pixelsPerMM := cardDiagonalPx / cardDiagonalMM
	frameWidthMM := frameW / pixelsPerMM
	factor := frameWidthMM / (2 * math.Tan(defaultHorizontalFOVDeg/2*math.Pi/180))
	return math.Min(1.0, factor)
}

func edgeRatio(a, b float64) float64 {
	max := math.Max(a, b)
	if max == 0 {
		return 1.0
	}
	return math.Min(a, b) / max
}

// applyHysteresis classifies the area ratio into a status, but suppresses
// transitions that do not cross the band boundary by more than the margin.
// Leaving optimal needs the ratio beyond boundary-margin; entering optimal
// needs it beyond boundary+margin (relative to the approach direction).
func (m *DistanceMetric) applyHysteresis(ratio float64) DistanceStatus {
	var next DistanceStatus
	switch {
	case ratio < m.cfg.MinAreaRatio:
		next = DistanceTooFar
	case ratio > m.cfg.MaxAreaRatio:
		next = DistanceTooClose
	case ratio >= m.cfg.OptimalMin && ratio <= m.cfg.OptimalMax:
		next = DistanceOptimal
	case ratio < m.cfg.OptimalMin:
		next = DistanceTooFar
	default:
		next = DistanceTooClose
	}

	if m.lastStatus == DistanceUnknown {
		m.lastStatus = next
		return next
	}

	if next != m.lastStatus {
		h := m.cfg.Hysteresis
		switch {
		case m.lastStatus == DistanceOptimal && next == DistanceTooFar:
			if ratio >= m.cfg.OptimalMin-h {
				return m.lastStatus
			}
		case m.lastStatus == DistanceOptimal && next == DistanceTooClose:
			if ratio <= m.cfg.OptimalMax+h {
				return m.lastStatus
			}
		case m.lastStatus == DistanceTooFar && next == DistanceOptimal:
			if ratio < m.cfg.OptimalMin+h {
				return m.lastStatus
			}
		case m.lastStatus == DistanceTooClose && next == DistanceOptimal:
			if ratio > m.cfg.OptimalMax-h {
				return m.lastStatus
			}
		}
	}

	m.lastStatus = next
	return next
}
