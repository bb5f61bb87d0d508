package quality

import (
	"image"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"

	"github.com/idkit/card-scanner/internal/vision"
)

// BlurConfig holds the sharpness thresholds. The relative weights of the
// four sub-scores are tuned heuristics; change them only with measurement.
type BlurConfig struct {
	// LaplacianThreshold is the base Laplacian-variance threshold; the
	// effective threshold adapts to scene brightness and is clamped to
	// [20, 60].
	LaplacianThreshold float64

	// FFTThreshold is the minimum high-frequency spectral energy fraction.
	FFTThreshold float64

	// EdgeSharpnessThreshold is the minimum normalized gradient magnitude
	// at edge pixels.
	EdgeSharpnessThreshold float64
}

// DefaultBlurConfig returns the tuned sharpness defaults.
func DefaultBlurConfig() BlurConfig {
	return BlurConfig{
		LaplacianThreshold:     40.0,
		FFTThreshold:           0.1,
		EdgeSharpnessThreshold: 0.3,
	}
}

// BlurResult reports the sharpness analysis of the card region.
type BlurResult struct {
	// IsBlurry is true when the combined score falls below 0.5.
	IsBlurry bool `json:"is_blurry"`

	// Variance is the raw Laplacian variance, the primary focus measure.
	Variance float64 `json:"variance"`

	// FFTScore is the fraction of spectral energy outside the central disk.
	FFTScore float64 `json:"fft_score"`

	// EdgeSharpness is the mean gradient magnitude at edge pixels,
	// normalized by brightness.
	EdgeSharpness float64 `json:"edge_sharpness"`

	// MotionScore measures directional gradient concentration; high values
	// indicate motion blur.
	MotionScore float64 `json:"motion_score"`

	// Combined is the weighted pass/fail fusion of the four measures.
	Combined float64 `json:"combined"`
}

// BlurMetric detects blur with a multi-measure approach: Laplacian variance,
// FFT spectral analysis, edge sharpness and motion-blur detection.
type BlurMetric struct {
	cfg BlurConfig
}

// NewBlurMetric builds a blur metric with the given thresholds.
func NewBlurMetric(cfg BlurConfig) *BlurMetric {
	return &BlurMetric{cfg: cfg}
}

// Analyze measures sharpness over the card region when corners are given,
// or the whole frame otherwise. A nil frame reports blurry with variance 0.
func (m *BlurMetric) Analyze(img image.Image, corners *vision.Quad) BlurResult {
	if img == nil {
		return BlurResult{IsBlurry: true}
	}

	gray := vision.Grayscale(img)
	roi := gray
	if corners != nil {
		minX, minY, maxX, maxY := corners.BoundingBox()
		if cropped := vision.Crop(gray, int(minX), int(minY), int(maxX)+1, int(maxY)+1); cropped != nil {
			roi = cropped
		}
	}
	if len(roi) == 0 || len(roi[0]) == 0 {
		return BlurResult{IsBlurry: true}
	}

	variance := laplacianVariance(roi)
	fftScore := fftSharpness(roi)
	edgeScore := edgeSharpness(roi)
	motionScore := motionBlur(roi)

	// Darker scenes naturally have lower variance, so the Laplacian
	// threshold scales with mean brightness, clamped to a sane band.
	meanBrightness := vision.PlaneMean(roi)
	threshold := m.cfg.LaplacianThreshold * (meanBrightness / 128.0)
	threshold = math.Max(20.0, math.Min(60.0, threshold))

	combined := 0.0
	if variance >= threshold {
		combined += 0.5
	}
	if fftScore >= m.cfg.FFTThreshold {
		combined += 0.2
	}
	if edgeScore >= m.cfg.EdgeSharpnessThreshold {
		combined += 0.2
	}
	if motionScore > 0.5 {
		combined += 0.1
	}

	return BlurResult{
		IsBlurry:      combined < 0.5,
		Variance:      variance,
		FFTScore:      fftScore,
		EdgeSharpness: edgeScore,
		MotionScore:   motionScore,
		Combined:      combined,
	}
}

func laplacianVariance(roi [][]float64) float64 {
	lap := vision.Laplacian(roi)
	flat := make([]float64, 0, len(lap)*len(lap[0]))
	for _, row := range lap {
		flat = append(flat, row...)
	}
	return stat.PopVariance(flat, nil)
}

// fftSharpness returns the fraction of spectral energy outside a central
// disk of radius 0.35*min(dim). Blurry images concentrate energy at low
// frequencies, so a low fraction means blur. Regions too small for a
// meaningful spectrum report the neutral score 0.5.
func fftSharpness(roi [][]float64) float64 {
	height := len(roi)
	width := len(roi[0])

	// Power-of-two crop keeps the transform well-conditioned and cheap.
	h2 := 1 << int(math.Log2(float64(height)))
	w2 := 1 << int(math.Log2(float64(width)))
	if h2 < 32 || w2 < 32 {
		return 0.5
	}
	resized := resamplePlane(roi, w2, h2)

	grid := make([]complex128, w2*h2)
	rowFFT := fourier.NewCmplxFFT(w2)
	row := make([]complex128, w2)
	dst := make([]complex128, w2)
	for y := 0; y < h2; y++ {
		for x := 0; x < w2; x++ {
			row[x] = complex(resized[y][x], 0)
		}
		rowFFT.Coefficients(dst, row)
		copy(grid[y*w2:(y+1)*w2], dst)
	}

	colFFT := fourier.NewCmplxFFT(h2)
	col := make([]complex128, h2)
	colDst := make([]complex128, h2)
	for x := 0; x < w2; x++ {
		for y := 0; y < h2; y++ {
			col[y] = grid[y*w2+x]
		}
		colFFT.Coefficients(colDst, col)
		for y := 0; y < h2; y++ {
			grid[y*w2+x] = colDst[y]
		}
	}

	radius := float64(min(w2, h2)) * 0.35
	radiusSq := radius * radius

	var highEnergy, totalEnergy float64
	for y := 0; y < h2; y++ {
		fy := float64(y)
		if y >= h2/2 {
			fy = float64(y - h2)
		}
		for x := 0; x < w2; x++ {
			fx := float64(x)
			if x >= w2/2 {
				fx = float64(x - w2)
			}
			mag := cmplxAbs(grid[y*w2+x])
			totalEnergy += mag
			if fx*fx+fy*fy > radiusSq {
				highEnergy += mag
			}
		}
	}
	if totalEnergy == 0 {
		return 0.0
	}
	return highEnergy / totalEnergy
}

// edgeSharpness averages the gradient magnitude at Canny edge pixels,
// normalized by mean brightness. Soft edges drag the score down.
func edgeSharpness(roi [][]float64) float64 {
	_, _, mag, _ := vision.Gradients(roi)
	edges := vision.Canny(roi, 50, 150)

	var sum float64
	var n int
	for y := range edges {
		for x := range edges[y] {
			if edges[y][x] {
				sum += mag[y][x]
				n++
			}
		}
	}
	if n == 0 {
		return 0.0
	}

	meanBrightness := vision.PlaneMean(roi)
	if meanBrightness == 0 {
		return 0.0
	}
	return math.Min(1.0, (sum/float64(n))/(meanBrightness*2.0))
}

// motionBlur builds a magnitude-weighted 36-bin histogram of gradient
// directions; directional blur concentrates mass into few bins, which shows
// up as a high standard deviation of the normalized histogram.
func motionBlur(roi [][]float64) float64 {
	_, _, mag, dir := vision.Gradients(roi)

	const bins = 36
	hist := make([]float64, bins)
	var total float64
	for y := range mag {
		for x := range mag[y] {
			bin := int((dir[y][x] + math.Pi) / (2 * math.Pi) * bins)
			if bin >= bins {
				bin = bins - 1
			}
			if bin < 0 {
				bin = 0
			}
			hist[bin] += mag[y][x]
			total += mag[y][x]
		}
	}
	if total == 0 {
		return 0.0
	}
	for i := range hist {
		hist[i] /= total
	}
	return math.Min(1.0, stat.PopStdDev(hist, nil)*5.0)
}

// resamplePlane nearest-neighbor resamples a plane to the target size.
func resamplePlane(plane [][]float64, width, height int) [][]float64 {
	srcH := len(plane)
	srcW := len(plane[0])

	out := make([][]float64, height)
	for y := 0; y < height; y++ {
		out[y] = make([]float64, width)
		sy := y * srcH / height
		for x := 0; x < width; x++ {
			out[y][x] = plane[sy][x*srcW/width]
		}
	}
	return out
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}
