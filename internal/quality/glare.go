package quality

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/stat"

	"github.com/idkit/card-scanner/internal/vision"
)

// GlareConfig holds the hotspot-detection thresholds.
type GlareConfig struct {
	// ThresholdValue caps the adaptive bright-pixel threshold (0-255).
	ThresholdValue float64

	// MaxGlareFraction is the accepted ceiling on glare pixels as a
	// fraction of the card area.
	MaxGlareFraction float64

	// MinHotspotSize is the minimum connected-component size in pixels for
	// a bright region to count as a hotspot rather than noise.
	MinHotspotSize int

	// MaxHotspots is the accepted hotspot count.
	MaxHotspots int
}

// DefaultGlareConfig returns the tuned glare defaults.
func DefaultGlareConfig() GlareConfig {
	return GlareConfig{
		ThresholdValue:   240,
		MaxGlareFraction: 0.015,
		MinHotspotSize:   50,
		MaxHotspots:      3,
	}
}

// GlareResult reports reflections found on the card surface.
type GlareResult struct {
	IsAcceptable bool `json:"is_acceptable"`

	// Message is the user-facing hint for the dominant glare condition.
	Message string `json:"message"`

	// GlareFraction is the glare pixel count over the card area.
	GlareFraction float64 `json:"glare_fraction"`

	// HotspotCount is the number of significant bright components.
	HotspotCount int `json:"hotspot_count"`
}

// GlareMetric finds specular hotspots inside the card quadrilateral using
// combined grayscale and HSV-value thresholding with an adaptive cutoff.
type GlareMetric struct {
	cfg GlareConfig
}

// NewGlareMetric builds a glare metric with the given thresholds.
func NewGlareMetric(cfg GlareConfig) *GlareMetric {
	return &GlareMetric{cfg: cfg}
}

// Analyze inspects the card region for reflections. Absent frame or corners
// report not-acceptable with glare fraction 1, the "card not detected"
// sentinel of the error model.
func (m *GlareMetric) Analyze(img image.Image, corners *vision.Quad) GlareResult {
	notDetected := GlareResult{Message: "Card not detected", GlareFraction: 1.0}
	if img == nil || corners == nil {
		return notDetected
	}

	bounds := img.Bounds()
	frameW := bounds.Dx()
	frameH := bounds.Dy()

	minX, minY, maxX, maxY := corners.BoundingBox()
	x0 := clampInt(int(minX), 0, frameW)
	y0 := clampInt(int(minY), 0, frameH)
	x1 := clampInt(int(maxX)+1, 0, frameW)
	y1 := clampInt(int(maxY)+1, 0, frameH)
	if x1 <= x0 || y1 <= y0 {
		return GlareResult{Message: "Invalid card region", GlareFraction: 1.0}
	}

	roi := imaging.Crop(img, image.Rect(x0+bounds.Min.X, y0+bounds.Min.Y, x1+bounds.Min.X, y1+bounds.Min.Y))
	roiW := x1 - x0
	roiH := y1 - y0

	// Card mask in ROI coordinates.
	local := *corners
	for i := range local {
		local[i].X -= float64(x0)
		local[i].Y -= float64(y0)
	}
	cardMask := vision.FillPoly(local, roiW, roiH)
	cardArea := vision.Count(cardMask)
	if cardArea == 0 {
		return notDetected
	}

	gray := vision.Grayscale(roi)

	// Brightness statistics inside the card polygon drive the adaptive
	// threshold: brighter cards need a higher cutoff before a pixel counts
	// as glare.
	inside := make([]float64, 0, cardArea)
	for y := 0; y < roiH; y++ {
		for x := 0; x < roiW; x++ {
			if cardMask[y][x] {
				inside = append(inside, gray[y][x])
			}
		}
	}
	mean := stat.Mean(inside, nil)
	stddev := stat.PopStdDev(inside, nil)
	threshold := math.Min(255, math.Max(200, mean+2*stddev))
	threshold = math.Min(m.cfg.ThresholdValue, threshold)

	// segment.Threshold counts any transparent pixel as white, so the ROI is
	// composited over opaque black first; unset pixels of a camera-frame
	// buffer must read as dark, not as maximal brightness.
	brightGray := vision.ImageMask(segment.Threshold(imaging.Grayscale(flattenAlpha(roi)), uint8(threshold)))
	brightValue := hsvValueMask(roi, threshold)

	glare := vision.And(vision.Or(brightGray, brightValue), cardMask)

	// Edges are naturally bright; dilate the edge map and subtract it so
	// card borders and printed strokes never count as glare.
	edges := vision.Canny(vision.GaussianSmooth(gray), 50, 150)
	glare = vision.AndNot(glare, vision.Dilate(edges, 2, 2))

	glarePixels := vision.Count(glare)
	fraction := float64(glarePixels) / float64(cardArea)

	hotspots := 0
	for _, size := range vision.ComponentSizes(glare) {
		if size >= m.cfg.MinHotspotSize {
			hotspots++
		}
	}

	acceptable := fraction <= m.cfg.MaxGlareFraction && hotspots <= m.cfg.MaxHotspots

	message := "Glare acceptable"
	switch {
	case acceptable:
	case hotspots > m.cfg.MaxHotspots:
		message = "Too many reflections"
	case fraction > m.cfg.MaxGlareFraction*2:
		message = "Strong reflections detected"
	default:
		message = "Avoid reflections"
	}

	return GlareResult{
		IsAcceptable:  acceptable,
		Message:       message,
		GlareFraction: fraction,
		HotspotCount:  hotspots,
	}
}

// flattenAlpha composites an image over opaque black. RGBA() returns
// alpha-premultiplied channels, so a transparent pixel flattens to black.
func flattenAlpha(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			out.SetNRGBA(x, y, color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 255})
		}
	}
	return out
}

// hsvValueMask thresholds the HSV value channel; it reacts to saturated
// colored highlights that a pure grayscale threshold can miss.
func hsvValueMask(img image.Image, threshold float64) [][]bool {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	mask := vision.NewMask(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			c := colorful.Color{
				R: float64(r>>8) / 255.0,
				G: float64(g>>8) / 255.0,
				B: float64(b>>8) / 255.0,
			}
			_, _, v := c.Hsv()
			if v*255.0 > threshold {
				mask[y][x] = true
			}
		}
	}
	return mask
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
