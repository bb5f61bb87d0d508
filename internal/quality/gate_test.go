package quality

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idkit/card-scanner/internal/vision"
)

// gateFixture draws a printed-looking card (light body with dark text-like
// stripes) on a black 400x300 frame, centered at about a third of the frame
// area, and returns the frame with the card corners.
func gateFixture() (*image.RGBA, vision.Quad) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 300))
	for y := 70; y < 229; y++ {
		for x := 74; x < 326; x++ {
			img.Set(x, y, color.RGBA{200, 200, 200, 255})
		}
	}
	for stripe := 0; stripe < 6; stripe++ {
		y0 := 86 + stripe*24
		for y := y0; y < y0+6; y++ {
			for x := 90; x < 310; x++ {
				img.Set(x, y, color.RGBA{40, 40, 40, 255})
			}
		}
	}
	corners := vision.Quad{
		{X: 74, Y: 70},
		{X: 325, Y: 70},
		{X: 325, Y: 228},
		{X: 74, Y: 228},
	}
	return img, corners
}

func TestGateEvaluateAt_GoodFrame(t *testing.T) {
	img, corners := gateFixture()
	g := NewGate(DefaultGateConfig(), nil)

	report := g.EvaluateAt(img, corners, true)

	assert.True(t, report.CardDetected)
	assert.True(t, report.IsSharp)
	assert.True(t, report.GlareAcceptable)
	assert.True(t, report.DistanceOptimal)
	assert.True(t, report.IsCentered)
	assert.True(t, report.IsValid)
	assert.Contains(t, report.Messages, "Quality check passed")
	require.NotNil(t, report.Corners)
	assert.Equal(t, corners, *report.Corners)
	assert.Equal(t, "Hold still...", report.PrimaryMessage())
}

func TestGateEvaluateAt_NotDetected(t *testing.T) {
	img, _ := gateFixture()
	g := NewGate(DefaultGateConfig(), nil)

	report := g.EvaluateAt(img, vision.Quad{}, false)

	assert.False(t, report.IsValid)
	assert.False(t, report.CardDetected)
	assert.Nil(t, report.Corners)
	assert.Contains(t, report.Messages, "Card not detected")
	assert.Equal(t, DistanceUnknown, report.Distance.Status)
	assert.Equal(t, "Place document in frame", report.PrimaryMessage())
}

func TestGateEvaluateAt_CardTooFar(t *testing.T) {
	// A tiny card: detected but well below the optimal distance band.
	img := image.NewRGBA(image.Rect(0, 0, 400, 300))
	for y := 130; y < 170; y++ {
		for x := 170; x < 233; x++ {
			img.Set(x, y, color.RGBA{200, 200, 200, 255})
		}
	}
	corners := vision.Quad{
		{X: 170, Y: 130},
		{X: 232, Y: 130},
		{X: 232, Y: 169},
		{X: 170, Y: 169},
	}

	g := NewGate(DefaultGateConfig(), nil)
	report := g.EvaluateAt(img, corners, true)

	assert.False(t, report.IsValid)
	assert.False(t, report.DistanceOptimal)
	assert.Equal(t, DistanceTooFar, report.Distance.Status)
	assert.Contains(t, report.Messages, "Move document closer")
	assert.Equal(t, "Move document closer", report.PrimaryMessage())
}

func TestGateEvaluate_UsesLocateFunc(t *testing.T) {
	img, corners := gateFixture()

	calls := 0
	g := NewGate(DefaultGateConfig(), func(image.Image) (vision.Quad, bool) {
		calls++
		return corners, true
	})

	report := g.Evaluate(img)
	assert.Equal(t, 1, calls)
	assert.True(t, report.IsValid)
}

func TestGateEvaluate_NilLocate(t *testing.T) {
	img, _ := gateFixture()
	g := NewGate(DefaultGateConfig(), nil)

	report := g.Evaluate(img)
	assert.False(t, report.CardDetected)
	assert.False(t, report.IsValid)
}

func TestGateReset_ClearsDistanceHysteresis(t *testing.T) {
	img, corners := gateFixture()
	g := NewGate(DefaultGateConfig(), nil)

	// Settle the distance metric into optimal, then reset; the next border
	// ratio should classify without the retained state.
	g.EvaluateAt(img, corners, true)
	g.Reset()

	small := vision.Quad{
		{X: 110, Y: 95},
		{X: 304, Y: 95},
		{X: 304, Y: 217},
		{X: 110, Y: 217},
	}
	report := g.EvaluateAt(img, small, true)
	// 194x122 over 400x300 is ~0.197, below the optimal band.
	assert.Equal(t, DistanceTooFar, report.Distance.Status)
}
