package quality

import (
	"image"
	"image/color"
	"testing"

	"github.com/anthonynsimon/bild/blur"
	"github.com/stretchr/testify/assert"

	"github.com/idkit/card-scanner/internal/vision"
)

// checkerboard builds a high-frequency test image: alternating bright and
// dark cells, a best case for every sharpness measure.
func checkerboard(width, height, cell int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(60)
			if ((x/cell)+(y/cell))%2 == 0 {
				v = 190
			}
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

func TestBlurAnalyze_SharpTexture(t *testing.T) {
	m := NewBlurMetric(DefaultBlurConfig())

	res := m.Analyze(checkerboard(200, 150, 8), nil)

	assert.False(t, res.IsBlurry, "checkerboard should register as sharp")
	assert.Greater(t, res.Variance, 60.0, "Laplacian variance of a checkerboard")
	assert.GreaterOrEqual(t, res.Combined, 0.5)
}

func TestBlurAnalyze_BlurredTexture(t *testing.T) {
	m := NewBlurMetric(DefaultBlurConfig())

	sharp := checkerboard(200, 150, 8)
	blurred := blur.Gaussian(sharp, 12.0)

	sharpRes := m.Analyze(sharp, nil)
	blurredRes := m.Analyze(blurred, nil)

	assert.True(t, blurredRes.IsBlurry, "heavily blurred texture should register as blurry")
	assert.Less(t, blurredRes.Variance, sharpRes.Variance,
		"blurring must reduce Laplacian variance")
	assert.Less(t, blurredRes.Combined, 0.5)
}

func TestBlurAnalyze_FlatRegion(t *testing.T) {
	m := NewBlurMetric(DefaultBlurConfig())

	flat := image.NewRGBA(image.Rect(0, 0, 120, 90))
	for y := 0; y < 90; y++ {
		for x := 0; x < 120; x++ {
			flat.Set(x, y, color.RGBA{128, 128, 128, 255})
		}
	}

	res := m.Analyze(flat, nil)
	assert.True(t, res.IsBlurry)
	assert.InDelta(t, 0.0, res.Variance, 1e-9)
}

func TestBlurAnalyze_CardRegionOnly(t *testing.T) {
	// Sharp texture inside the card corners, flat gray everywhere else. With
	// corners supplied, the analysis must see only the textured region.
	img := image.NewRGBA(image.Rect(0, 0, 300, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 300; x++ {
			img.Set(x, y, color.RGBA{128, 128, 128, 255})
		}
	}
	for y := 60; y < 140; y++ {
		for x := 80; x < 220; x++ {
			v := uint8(60)
			if ((x/8)+(y/8))%2 == 0 {
				v = 190
			}
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}

	corners := vision.Quad{
		{X: 80, Y: 60},
		{X: 219, Y: 60},
		{X: 219, Y: 139},
		{X: 80, Y: 139},
	}

	m := NewBlurMetric(DefaultBlurConfig())
	withROI := m.Analyze(img, &corners)
	wholeFrame := m.Analyze(img, nil)

	assert.False(t, withROI.IsBlurry, "textured card region should be sharp")
	assert.Greater(t, withROI.Variance, wholeFrame.Variance,
		"restricting to the textured region must raise variance")
}

func TestBlurAnalyze_NilImage(t *testing.T) {
	m := NewBlurMetric(DefaultBlurConfig())
	res := m.Analyze(nil, nil)
	assert.True(t, res.IsBlurry)
	assert.Zero(t, res.Variance)
}
