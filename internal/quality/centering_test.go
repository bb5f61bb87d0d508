package quality

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/idkit/card-scanner/internal/vision"
)

// quadCenteredAt builds a 200x126 quad with its center at (cx, cy).
func quadCenteredAt(cx, cy float64) *vision.Quad {
	const w, h = 200.0, 126.0
	return &vision.Quad{
		{X: cx - w/2, Y: cy - h/2},
		{X: cx + w/2, Y: cy - h/2},
		{X: cx + w/2, Y: cy + h/2},
		{X: cx - w/2, Y: cy + h/2},
	}
}

func TestCenteringAnalyze(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 640, 480))
	// 15% tolerance: 96px horizontally, 72px vertically.
	tests := []struct {
		name         string
		cx, cy       float64
		wantCentered bool
		wantMsg      string
	}{
		{"dead center", 320, 240, true, "Centered"},
		{"inside tolerance", 380, 280, true, "Centered"},
		{"offset right", 450, 240, false, "Move document left"},
		{"offset left", 180, 240, false, "Move document right"},
		{"offset down", 320, 330, false, "Move document up"},
		{"offset up", 320, 150, false, "Move document down"},
		{"diagonal, horizontal dominates", 460, 330, false, "Move document left"},
	}

	m := NewCenteringMetric(DefaultCenteringConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := m.Analyze(frame, quadCenteredAt(tt.cx, tt.cy))

			assert.Equal(t, tt.wantCentered, res.IsCentered)
			assert.Equal(t, tt.wantMsg, res.Message)
			if tt.wantCentered {
				assert.Equal(t, Centered, res.Status)
			} else {
				assert.Equal(t, OffCenter, res.Status)
			}
		})
	}
}

func TestCenteringAnalyze_MissingInput(t *testing.T) {
	m := NewCenteringMetric(DefaultCenteringConfig())

	res := m.Analyze(nil, nil)
	assert.False(t, res.IsCentered)
	assert.Equal(t, OffCenter, res.Status)
	assert.Equal(t, "Card not detected", res.Message)
}
