package vision

import (
	"image"
	"image/color"
	"testing"
)

// cardFrame draws a light gray card rectangle on a black frame.
func cardFrame(frameW, frameH, x0, y0, x1, y1 int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, frameW, frameH))
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			img.Set(x, y, color.RGBA{200, 200, 200, 255})
		}
	}
	return img
}

func TestPreprocess_CardOutline(t *testing.T) {
	img := cardFrame(200, 150, 40, 35, 160, 115)

	edges := Preprocess(img, DefaultPreprocessConfig())
	if len(edges) != 150 || len(edges[0]) != 200 {
		t.Fatalf("edge map size: got %dx%d, want 200x150", len(edges[0]), len(edges))
	}

	if Count(edges) == 0 {
		t.Fatal("no edges found on a high-contrast card")
	}

	// The fused edge map should carry a closed outline the contour tracer can
	// pick up as a card-sized component.
	contours := FindContours(edges, 30)
	found := false
	for _, c := range contours {
		area := c.Area()
		if area > 0.3*120*80 && area < 1.5*120*80 {
			found = true
		}
	}
	if !found {
		t.Errorf("no card-sized contour in %d components", len(contours))
	}
}

func TestPreprocess_ClosingKeepsOutlineInPlace(t *testing.T) {
	// The closing step must not inflate the card outline: corners traced from
	// the fused edge map feed the quality ROI and the rectifier crop, so a
	// grown mask would drag background into every downstream consumer.
	img := cardFrame(400, 300, 74, 70, 326, 229)

	edges := Preprocess(img, FullScalePreprocessConfig())
	contours := FindContours(edges, 30)
	if len(contours) == 0 {
		t.Fatal("no contours in fused edge map")
	}

	best := contours[0]
	for _, c := range contours[1:] {
		if c.Area() > best.Area() {
			best = c
		}
	}

	minX, minY := best.Points[0].X, best.Points[0].Y
	maxX, maxY := minX, minY
	for _, p := range best.Points {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	checks := []struct {
		name      string
		got, want int
	}{
		{"left", minX, 74},
		{"top", minY, 70},
		{"right", maxX, 325},
		{"bottom", maxY, 228},
	}
	for _, c := range checks {
		diff := c.got - c.want
		if diff < -8 || diff > 8 {
			t.Errorf("outline %s edge: got %d, want within 8px of %d", c.name, c.got, c.want)
		}
	}
}

func TestAdaptiveThreshold_PicksDarkOnLight(t *testing.T) {
	plane := make([][]float64, 40)
	for y := range plane {
		plane[y] = make([]float64, 40)
		for x := range plane[y] {
			plane[y][x] = 220
		}
	}
	// Dark stroke through a bright field.
	for x := 5; x < 35; x++ {
		plane[20][x] = 30
	}

	mask := AdaptiveThreshold(plane, 11, 2)
	if !mask[20][20] {
		t.Error("dark stroke pixel not marked")
	}
	if mask[5][5] {
		t.Error("uniform bright pixel marked")
	}
}

func TestMagnitudeThreshold(t *testing.T) {
	mag := [][]float64{
		{0, 100},
		{59, 61},
	}
	mask := MagnitudeThreshold(mag, 60)
	if mask[0][0] || mask[1][0] {
		t.Error("below-threshold pixels marked")
	}
	if !mask[0][1] || !mask[1][1] {
		t.Error("above-threshold pixels not marked")
	}
}
