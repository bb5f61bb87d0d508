package vision

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
)

// CannyPair is a low/high hysteresis threshold pair for one Canny pass.
type CannyPair struct {
	Low  float64
	High float64
}

// PreprocessConfig controls the edge-map fusion. Locators run the
// preprocessor with different settings per scale: lower Canny thresholds and
// a smaller adaptive block pick up faint boundaries on downsampled frames,
// while the full-scale pass can afford stricter pairs.
type PreprocessConfig struct {
	// BlurRadius is the Gaussian pre-smoothing radius applied to the frame.
	BlurRadius float64

	// CannyPairs are the hysteresis threshold pairs whose edge maps are
	// unioned. Two to three pairs cover both crisp and faint boundaries.
	CannyPairs []CannyPair

	// AdaptiveBlock is the (odd) window size for inverse adaptive
	// thresholding; AdaptiveC is the constant subtracted from the local mean.
	AdaptiveBlock int
	AdaptiveC     float64

	// SobelThreshold marks pixels whose raw gradient magnitude exceeds it.
	SobelThreshold float64

	// CloseRadius/CloseIterations control the morphological gap closing:
	// CloseIterations dilation passes followed by the same number of erosion
	// passes, so the outline position is preserved.
	CloseRadius     float64
	CloseIterations int
}

// DefaultPreprocessConfig returns the reduced-scale settings.
func DefaultPreprocessConfig() PreprocessConfig {
	return PreprocessConfig{
		BlurRadius: 1.4,
		CannyPairs: []CannyPair{
			{Low: 20, High: 80},
			{Low: 40, High: 120},
			{Low: 30, High: 100},
		},
		AdaptiveBlock:   11,
		AdaptiveC:       2,
		SobelThreshold:  60,
		CloseRadius:     1,
		CloseIterations: 3,
	}
}

// FullScalePreprocessConfig returns the settings for the undownsampled pass:
// higher Canny pairs and a wider adaptive window.
func FullScalePreprocessConfig() PreprocessConfig {
	cfg := DefaultPreprocessConfig()
	cfg.CannyPairs = []CannyPair{
		{Low: 30, High: 100},
		{Low: 50, High: 150},
		{Low: 40, High: 120},
	}
	cfg.AdaptiveBlock = 15
	return cfg
}

// Preprocess fuses several edge detectors into one binary edge map of the
// frame's spatial size.
//
// Pipeline (order matters): Gaussian smoothing of the frame, grayscale
// conversion, then the union of Canny edges at each configured threshold
// pair, an inverse adaptive threshold for low-contrast boundaries, and a
// thresholded Sobel magnitude map. Morphological closing with equal dilation
// and erosion passes bridges small gaps in the card outline without shifting
// it; downstream contour tracing depends on the outline staying put. Pure
// function of its inputs; the frame is never mutated.
func Preprocess(img image.Image, cfg PreprocessConfig) [][]bool {
	smoothed := img
	if cfg.BlurRadius > 0 {
		smoothed = blur.Gaussian(img, cfg.BlurRadius)
	}
	gray := Grayscale(smoothed)
	// The Canny passes share one extra 5x5 smoothing of the intensity plane
	// rather than re-blurring per threshold pair.
	planed := GaussianSmooth(gray)

	masks := make([][][]bool, 0, len(cfg.CannyPairs)+2)
	for _, pair := range cfg.CannyPairs {
		masks = append(masks, Canny(planed, pair.Low, pair.High))
	}
	masks = append(masks, AdaptiveThreshold(planed, cfg.AdaptiveBlock, cfg.AdaptiveC))

	_, _, mag, _ := Gradients(planed)
	masks = append(masks, MagnitudeThreshold(mag, cfg.SobelThreshold))

	fused := Or(masks...)

	if cfg.CloseIterations > 0 {
		fused = Dilate(fused, cfg.CloseRadius, cfg.CloseIterations)
		fused = Erode(fused, cfg.CloseRadius, cfg.CloseIterations)
	}
	return fused
}
