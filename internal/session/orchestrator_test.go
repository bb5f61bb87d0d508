package session

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idkit/card-scanner/internal/frame"
)

// cardFrame draws a printed-looking card (light body, dark text-like stripes)
// centered on a black 400x300 frame at about a third of the frame area.
func cardFrame() *image.RGBA {
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
	return img
}

func emptyFrame() *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, 400, 300))
}

// testConfig lowers the auto-capture threshold so tests stay short.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.AutoCaptureThreshold = 3
	return cfg
}

func TestSession_LocateAndTrackNilFrame(t *testing.T) {
	sess := New(testConfig(), nil)

	_, found := sess.LocateAndTrack(nil)
	assert.False(t, found, "nil frame must report not found, never fail")

	_, found = sess.LocateAndTrack(image.NewRGBA(image.Rect(0, 0, 0, 0)))
	assert.False(t, found)
}

func TestSession_LocateAndTrackFindsCard(t *testing.T) {
	sess := New(testConfig(), nil)

	corners, found := sess.LocateAndTrack(cardFrame())
	require.True(t, found)
	// The card body spans (74,70)-(326,229); corners land on its outline.
	cx, cy, _ := corners.Centroid()
	assert.InDelta(t, 200, cx, 12)
	assert.InDelta(t, 149.5, cy, 12)
}

func TestSession_ProcessFrameLifecycle(t *testing.T) {
	sess := New(testConfig(), nil)

	// No card anywhere: placement guidance with every status unknown.
	g := sess.ProcessFrame(emptyFrame(), ModeAuto)
	assert.False(t, g.CardDetected)
	assert.Equal(t, "Place document in frame", g.Message)
	assert.Equal(t, "unknown", g.Distance)
	assert.False(t, g.ShouldAutoCapture)

	// Three consecutive good frames: detection becomes stable and the
	// good-frame counter reaches the lowered auto-capture threshold.
	img := cardFrame()
	var last *Guidance
	for i := 0; i < 3; i++ {
		last = sess.ProcessFrame(img, ModeAuto)
	}

	assert.True(t, last.CardDetected)
	assert.True(t, last.ReadyToCapture)
	assert.Equal(t, "Hold still...", last.Message)
	assert.True(t, last.ShouldAutoCapture)
	require.NotNil(t, last.Corners)
	assert.Equal(t, 3, sess.GoodFrames())
}

func TestSession_BadFrameResetsCounter(t *testing.T) {
	sess := New(testConfig(), nil)
	img := cardFrame()

	sess.ProcessFrame(img, ModeAuto)
	sess.ProcessFrame(img, ModeAuto)
	assert.Equal(t, 2, sess.GoodFrames())

	// The card vanishes: the tracker retains corners, but the frame itself
	// no longer passes quality, so the counter restarts.
	g := sess.ProcessFrame(emptyFrame(), ModeAuto)
	assert.False(t, g.ShouldAutoCapture)
	assert.Equal(t, 0, sess.GoodFrames())
}

func TestSession_ManualModeNeverAutoCaptures(t *testing.T) {
	sess := New(testConfig(), nil)
	img := cardFrame()

	var last *Guidance
	for i := 0; i < 5; i++ {
		last = sess.ProcessFrame(img, ModeManual)
	}

	assert.True(t, last.ReadyToCapture)
	assert.False(t, last.ShouldAutoCapture)
	assert.Equal(t, 0, sess.GoodFrames())
}

func TestSession_RetainsThroughSingleDropout(t *testing.T) {
	sess := New(testConfig(), nil)
	img := cardFrame()
	for i := 0; i < 3; i++ {
		sess.ProcessFrame(img, ModeAuto)
	}

	// One missed frame: the detection history still votes the card present.
	g := sess.ProcessFrame(emptyFrame(), ModeAuto)
	assert.True(t, g.CardDetected, "single dropout must not lose the card")
	assert.NotNil(t, g.Corners)
}

func TestSession_Capture(t *testing.T) {
	sess := New(testConfig(), nil)
	img := cardFrame()

	res := sess.Capture(img)
	require.True(t, res.Success, "capture of a good frame failed: %s", res.Message)
	assert.Equal(t, "Card captured successfully", res.Message)
	assert.Equal(t, "image/jpeg", res.MimeType)

	warped, err := frame.Decode(res.ImageBase64)
	require.NoError(t, err)
	assert.Equal(t, 337, warped.Bounds().Dx())
	assert.Equal(t, 212, warped.Bounds().Dy())
}

func TestSession_CaptureRejectsBadFrame(t *testing.T) {
	sess := New(testConfig(), nil)

	res := sess.Capture(emptyFrame())
	assert.False(t, res.Success)
	assert.Empty(t, res.ImageBase64)
	assert.Contains(t, res.Message, "Image does not meet quality requirements")
}

func TestSession_CaptureRearmsAutoCapture(t *testing.T) {
	sess := New(testConfig(), nil)
	img := cardFrame()
	for i := 0; i < 3; i++ {
		sess.ProcessFrame(img, ModeAuto)
	}
	require.Equal(t, 3, sess.GoodFrames())

	sess.Capture(img)
	assert.Equal(t, 0, sess.GoodFrames(), "capture must reset the good-frame counter")
}

func TestSession_Reset(t *testing.T) {
	sess := New(testConfig(), nil)
	img := cardFrame()
	for i := 0; i < 3; i++ {
		sess.ProcessFrame(img, ModeAuto)
	}

	sess.Reset()
	assert.Equal(t, 0, sess.GoodFrames())

	// With history and tracker cleared, an empty frame is back to square one.
	g := sess.ProcessFrame(emptyFrame(), ModeAuto)
	assert.False(t, g.CardDetected)
	assert.Equal(t, "Place document in frame", g.Message)
}

func TestSession_EvaluateQuality(t *testing.T) {
	sess := New(testConfig(), nil)

	report := sess.EvaluateQuality(cardFrame())
	assert.True(t, report.CardDetected)
	assert.True(t, report.IsValid)

	report = New(testConfig(), nil).EvaluateQuality(emptyFrame())
	assert.False(t, report.CardDetected)
	assert.False(t, report.IsValid)
}
