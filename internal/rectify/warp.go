package rectify

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/mat"

	"github.com/idkit/card-scanner/internal/vision"
)

// Physical ID-1 card dimensions (ISO/IEC 7810).
const (
	cardWidthMM  = 85.60
	cardHeightMM = 53.98
	mmPerInch    = 25.4
)

// Config controls the canonical output geometry.
type Config struct {
	// DPI sets the output resolution; the pixel dimensions are derived
	// from the physical ID-1 card size unless overridden below.
	DPI int

	// OutputWidth/OutputHeight override the derived dimensions when both
	// are positive.
	OutputWidth  int
	OutputHeight int
}

// DefaultConfig returns a 100 DPI canonical output (337x212 pixels).
func DefaultConfig() Config {
	return Config{DPI: 100}
}

// Rectifier warps the card quadrilateral into a fixed-size canonical image.
type Rectifier struct {
	width  int
	height int
}

// NewRectifier builds a rectifier with the resolved output dimensions.
func NewRectifier(cfg Config) *Rectifier {
	width, height := cfg.OutputWidth, cfg.OutputHeight
	if width <= 0 || height <= 0 {
		dpi := cfg.DPI
		if dpi <= 0 {
			dpi = DefaultConfig().DPI
		}
		width = int(cardWidthMM / mmPerInch * float64(dpi))
		height = int(cardHeightMM / mmPerInch * float64(dpi))
	}
	return &Rectifier{width: width, height: height}
}

// OutputDimensions returns the canonical image size in pixels.
func (r *Rectifier) OutputDimensions() (width, height int) {
	return r.width, r.height
}

// Warp maps the region bounded by the ordered corners onto the canonical
// rectangle using a projective transform with bilinear resampling and black
// border fill. Returns ok=false for a nil frame, missing corners, or a
// degenerate (non-invertible) homography.
func (r *Rectifier) Warp(img image.Image, corners *vision.Quad) (*image.NRGBA, bool) {
	if img == nil || corners == nil {
		return nil, false
	}

	// Destination corners of the canonical rectangle, in the same
	// TL/TR/BR/BL order as the source quad.
	dst := vision.Quad{
		{X: 0, Y: 0},
		{X: float64(r.width - 1), Y: 0},
		{X: float64(r.width - 1), Y: float64(r.height - 1)},
		{X: 0, Y: float64(r.height - 1)},
	}

	// Solve for the inverse mapping (canonical -> source) directly, which
	// is the direction resampling needs.
	h, ok := homography(dst, *corners)
	if !ok {
		return nil, false
	}

	src := imaging.Clone(img)
	out := image.NewNRGBA(image.Rect(0, 0, r.width, r.height))

	for y := 0; y < r.height; y++ {
		fy := float64(y)
		for x := 0; x < r.width; x++ {
			fx := float64(x)
			w := h[6]*fx + h[7]*fy + 1
			if w == 0 {
				continue
			}
			sx := (h[0]*fx + h[1]*fy + h[2]) / w
			sy := (h[3]*fx + h[4]*fy + h[5]) / w
			out.SetNRGBA(x, y, bilinearSample(src, sx, sy))
		}
	}
	return out, true
}

// homography solves the 8-unknown projective mapping taking each from[i] to
// to[i]. ok is false when the 8x8 system is singular (collinear or
// coincident corners).
func homography(from, to vision.Quad) ([8]float64, bool) {
	var h [8]float64

	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		sx, sy := from[i].X, from[i].Y
		dx, dy := to[i].X, to[i].Y

		a.SetRow(2*i, []float64{sx, sy, 1, 0, 0, 0, -dx * sx, -dx * sy})
		b.SetVec(2*i, dx)
		a.SetRow(2*i+1, []float64{0, 0, 0, sx, sy, 1, -dy * sx, -dy * sy})
		b.SetVec(2*i+1, dy)
	}

	var sol mat.VecDense
	if err := sol.SolveVec(a, b); err != nil {
		return h, false
	}
	for i := 0; i < 8; i++ {
		h[i] = sol.AtVec(i)
	}
	return h, true
}

// bilinearSample reads the source at a sub-pixel position; coordinates
// outside the image contribute black, producing the constant border fill.
func bilinearSample(src *image.NRGBA, x, y float64) color.NRGBA {
	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	fx := x - float64(x0)
	fy := y - float64(y0)

	at := func(px, py int) (rr, gg, bb, aa float64) {
		if px < 0 || px >= width || py < 0 || py >= height {
			return 0, 0, 0, 255
		}
		c := src.NRGBAAt(px+bounds.Min.X, py+bounds.Min.Y)
		return float64(c.R), float64(c.G), float64(c.B), float64(c.A)
	}

	r00, g00, b00, a00 := at(x0, y0)
	r10, g10, b10, a10 := at(x0+1, y0)
	r01, g01, b01, a01 := at(x0, y0+1)
	r11, g11, b11, a11 := at(x0+1, y0+1)

	lerp2 := func(v00, v10, v01, v11 float64) uint8 {
		top := v00*(1-fx) + v10*fx
		bottom := v01*(1-fx) + v11*fx
		v := top*(1-fy) + bottom*fy
		return uint8(math.Round(math.Max(0, math.Min(255, v))))
	}

	return color.NRGBA{
		R: lerp2(r00, r10, r01, r11),
		G: lerp2(g00, g10, g01, g11),
		B: lerp2(b00, b10, b01, b11),
		A: lerp2(a00, a10, a01, a11),
	}
}
