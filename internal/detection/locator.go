package detection

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/idkit/card-scanner/internal/vision"
)

// Result is one frame's raw detection outcome. It is produced fresh per
// frame and never retained; temporal stability is the Tracker's job.
type Result struct {
	Found   bool        `json:"found"`
	Corners vision.Quad `json:"corners"`
	Score   float64     `json:"score"`
}

// Config holds the locator's search parameters. Defaults follow ID-1 card
// geometry: the aspect band covers 85.60x53.98mm cards in landscape or
// portrait framing with moderate perspective skew.
type Config struct {
	// Scales is the downsampling cascade, tried in order. The first entry
	// is expected to be 1.0 (full scale).
	Scales []float64

	// MinAreaRatio/MaxAreaRatio bound candidate contour area relative to
	// the scaled frame area. FullScaleMaxAreaRatio widens the upper bound
	// at scale 1.0 to tolerate near-fill cards.
	MinAreaRatio          float64
	MaxAreaRatio          float64
	FullScaleMaxAreaRatio float64

	// MinSolidity rejects ragged, non-card-like blobs.
	MinSolidity float64

	// ToleranceFactors is the polygon-approximation cascade, as fractions
	// of the contour perimeter. The first factor yielding exactly 4
	// vertices wins; otherwise the first yielding 3-5 is accepted.
	ToleranceFactors []float64

	// AspectMin/AspectMax is the accepted width/height band; the inverse
	// band covers portrait framing.
	AspectMin float64
	AspectMax float64

	// FullScaleBoost multiplies candidate scores at scale 1.0 to prefer
	// close-range, high-resolution detections.
	FullScaleBoost float64

	// AreaTolerance and AreaMatchBoost implement size preference: a
	// candidate whose area is within AreaTolerance (relative) of the
	// tracked area gets its score multiplied by AreaMatchBoost.
	AreaTolerance  float64
	AreaMatchBoost float64

	// MinContourSize discards tiny edge components before tracing.
	MinContourSize int
}

// DefaultConfig returns the tuned locator defaults.
func DefaultConfig() Config {
	return Config{
		Scales:                []float64{1.0, 0.85, 0.7, 0.5},
		MinAreaRatio:          0.02,
		MaxAreaRatio:          0.85,
		FullScaleMaxAreaRatio: 0.98,
		MinSolidity:           0.85,
		ToleranceFactors:      []float64{0.02, 0.03, 0.04, 0.05, 0.08},
		AspectMin:             1.3,
		AspectMax:             1.8,
		FullScaleBoost:        1.3,
		AreaTolerance:         0.4,
		AreaMatchBoost:        1.2,
		MinContourSize:        30,
	}
}

// Locator finds the best card-shaped quadrilateral in a frame using a
// multi-scale search over fused edge maps.
type Locator struct {
	cfg     Config
	full    vision.PreprocessConfig
	reduced vision.PreprocessConfig
}

// NewLocator builds a locator with the given search parameters.
func NewLocator(cfg Config) *Locator {
	return &Locator{
		cfg:     cfg,
		full:    vision.FullScalePreprocessConfig(),
		reduced: vision.DefaultPreprocessConfig(),
	}
}

// Locate runs the scale cascade and returns the highest-scoring candidate
// with corners in original frame coordinates, canonically ordered.
//
// areaHint is the tracked card area from previous frames (0 when unknown);
// candidates near that size get a score boost, which keeps the search locked
// onto the same card when multiple rectangles are present. A nil or empty
// frame yields Found=false.
func (l *Locator) Locate(img image.Image, areaHint float64) Result {
	if img == nil {
		return Result{}
	}
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return Result{}
	}

	var best Result
	for _, scale := range l.cfg.Scales {
		fullScale := scale >= 0.999

		scaled := img
		sw, sh := width, height
		if !fullScale {
			sw = int(float64(width) * scale)
			sh = int(float64(height) * scale)
			if sw < 8 || sh < 8 {
				continue
			}
			scaled = imaging.Resize(img, sw, sh, imaging.Lanczos)
		}

		pcfg := l.reduced
		if fullScale {
			pcfg = l.full
		}
		edges := vision.Preprocess(scaled, pcfg)
		contours := vision.FindContours(edges, l.cfg.MinContourSize)

		scaledAreaHint := areaHint * scale * scale
		for _, contour := range contours {
			cand, ok := l.evaluate(contour, sw, sh, fullScale, scaledAreaHint)
			if !ok {
				continue
			}
			if fullScale {
				cand.Score *= l.cfg.FullScaleBoost
			}
			if cand.Score > best.Score {
				cand.Corners = cand.Corners.Scale(1 / scale)
				best = cand
			}
		}
	}
	return best
}

// evaluate filters and scores one contour at one scale.
func (l *Locator) evaluate(contour vision.Contour, width, height int, fullScale bool, areaHint float64) (Result, bool) {
	frameArea := float64(width * height)
	area := contour.Area()

	maxRatio := l.cfg.MaxAreaRatio
	if fullScale {
		maxRatio = l.cfg.FullScaleMaxAreaRatio
	}
	if area < l.cfg.MinAreaRatio*frameArea || area > maxRatio*frameArea {
		return Result{}, false
	}

	solidity := contour.Solidity()
	if solidity < l.cfg.MinSolidity {
		return Result{}, false
	}

	perimeter := contour.Perimeter()
	if perimeter == 0 {
		return Result{}, false
	}

	poly, exactFour := l.approximate(contour, perimeter)
	if poly == nil {
		return Result{}, false
	}

	var quad vision.Quad
	if exactFour {
		quad = vision.OrderCorners(poly)
		if !validPerspectiveRectangle(quad, fullScale) {
			return Result{}, false
		}
	} else {
		// 3 or 5 vertices: fall back to the minimal axis-aligned bounding
		// rectangle of the approximation.
		minX, minY, maxX, maxY := boundingBox(poly)
		quad = vision.Quad{
			{X: minX, Y: minY},
			{X: maxX, Y: minY},
			{X: maxX, Y: maxY},
			{X: minX, Y: maxY},
		}
	}

	minX, minY, maxX, maxY := quad.BoundingBox()
	w := maxX - minX
	h := maxY - minY
	if w <= 0 || h <= 0 {
		return Result{}, false
	}

	aspect := w / h
	inverse := h / w
	horizontal := aspect >= l.cfg.AspectMin && aspect <= l.cfg.AspectMax
	vertical := inverse >= l.cfg.AspectMin && inverse <= l.cfg.AspectMax
	if !horizontal && !vertical {
		return Result{}, false
	}

	score := 0.6*(area/frameArea) + 0.3*solidity
	if exactFour {
		score += 0.1
	}
	if areaHint > 0 {
		diff := math.Abs(area-areaHint) / areaHint
		if diff <= l.cfg.AreaTolerance {
			score *= l.cfg.AreaMatchBoost
		}
	}

	return Result{Found: true, Corners: quad, Score: score}, true
}

// approximate runs the tolerance cascade: first factor producing exactly 4
// vertices wins; otherwise the first producing 3-5 vertices is kept as a
// fallback. Returns nil when no factor produces an acceptable polygon.
func (l *Locator) approximate(contour vision.Contour, perimeter float64) (poly []vision.Point, exactFour bool) {
	var fallback []vision.Point
	for _, tol := range l.cfg.ToleranceFactors {
		approx := vision.ApproxPolygon(contour, tol*perimeter)
		if len(approx) == 4 {
			return approx, true
		}
		if fallback == nil && len(approx) >= 3 && len(approx) <= 5 {
			fallback = approx
		}
	}
	return fallback, false
}

// validPerspectiveRectangle checks that the quad's opposite edges are
// near-parallel and adjacent edges near-perpendicular. At full scale only 2
// of the 3 checks need to pass and thresholds are looser, tolerating the
// stronger perspective skew of a near-fill card; at reduced scale all 3
// must hold.
func validPerspectiveRectangle(q vision.Quad, fullScale bool) bool {
	unit := func(a, b vision.Point) (float64, float64, bool) {
		dx := b.X - a.X
		dy := b.Y - a.Y
		length := math.Hypot(dx, dy)
		if length < 1 {
			return 0, 0, false
		}
		return dx / length, dy / length, true
	}

	topX, topY, ok1 := unit(q[0], q[1])
	rightX, rightY, ok2 := unit(q[1], q[2])
	bottomX, bottomY, ok3 := unit(q[3], q[2])
	leftX, leftY, ok4 := unit(q[0], q[3])
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return false
	}

	parallelThr, perpThr := 0.85, 0.30
	if fullScale {
		parallelThr, perpThr = 0.75, 0.45
	}

	checks := 0
	if math.Abs(topX*bottomX+topY*bottomY) >= parallelThr {
		checks++
	}
	if math.Abs(leftX*rightX+leftY*rightY) >= parallelThr {
		checks++
	}
	if math.Abs(topX*leftX+topY*leftY) <= perpThr {
		checks++
	}

	if fullScale {
		return checks >= 2
	}
	return checks == 3
}

func boundingBox(pts []vision.Point) (minX, minY, maxX, maxY float64) {
	minX, minY = pts[0].X, pts[0].Y
	maxX, maxY = pts[0].X, pts[0].Y
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return minX, minY, maxX, maxY
}
