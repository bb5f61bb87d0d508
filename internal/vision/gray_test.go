package vision

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestGrayscale(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 1))
	img.Set(0, 0, color.RGBA{255, 255, 255, 255})
	img.Set(1, 0, color.RGBA{0, 0, 0, 255})
	img.Set(2, 0, color.RGBA{255, 0, 0, 255})

	gray := Grayscale(img)
	if len(gray) != 1 || len(gray[0]) != 3 {
		t.Fatalf("plane size: got %dx%d, want 3x1", len(gray[0]), len(gray))
	}
	if math.Abs(gray[0][0]-255) > 0.5 {
		t.Errorf("white: got %v, want 255", gray[0][0])
	}
	if gray[0][1] != 0 {
		t.Errorf("black: got %v, want 0", gray[0][1])
	}
	// Pure red under BT.601: 0.299 * 255
	if math.Abs(gray[0][2]-76.245) > 0.5 {
		t.Errorf("red: got %v, want ~76.2", gray[0][2])
	}
}

func TestLaplacian_FlatPlane(t *testing.T) {
	plane := make([][]float64, 10)
	for y := range plane {
		plane[y] = make([]float64, 10)
		for x := range plane[y] {
			plane[y][x] = 128
		}
	}
	lap := Laplacian(plane)
	for y := range lap {
		for x := range lap[y] {
			if lap[y][x] != 0 {
				t.Fatalf("flat plane Laplacian at (%d,%d): got %v, want 0", x, y, lap[y][x])
			}
		}
	}
}

func TestGradients_VerticalEdge(t *testing.T) {
	plane := make([][]float64, 10)
	for y := range plane {
		plane[y] = make([]float64, 10)
		for x := 5; x < 10; x++ {
			plane[y][x] = 255
		}
	}

	_, _, mag, _ := Gradients(plane)
	if mag[5][5] == 0 {
		t.Error("expected nonzero gradient magnitude at the edge")
	}
	if mag[5][2] != 0 {
		t.Errorf("expected zero magnitude in flat region, got %v", mag[5][2])
	}
}

func TestPlaneMean(t *testing.T) {
	plane := [][]float64{{0, 100}, {200, 100}}
	if got := PlaneMean(plane); got != 100 {
		t.Errorf("mean: got %v, want 100", got)
	}
	if got := PlaneMean(nil); got != 0 {
		t.Errorf("empty mean: got %v, want 0", got)
	}
}

func TestCrop(t *testing.T) {
	plane := make([][]float64, 10)
	for y := range plane {
		plane[y] = make([]float64, 10)
		for x := range plane[y] {
			plane[y][x] = float64(y*10 + x)
		}
	}

	out := Crop(plane, 2, 3, 5, 7)
	if len(out) != 4 || len(out[0]) != 3 {
		t.Fatalf("crop size: got %dx%d, want 3x4", len(out[0]), len(out))
	}
	if out[0][0] != 32 {
		t.Errorf("crop origin value: got %v, want 32", out[0][0])
	}

	// Out-of-range coordinates clamp instead of failing.
	clamped := Crop(plane, -5, -5, 100, 100)
	if len(clamped) != 10 || len(clamped[0]) != 10 {
		t.Errorf("clamped crop size: got %dx%d, want 10x10", len(clamped[0]), len(clamped))
	}

	if got := Crop(plane, 5, 5, 5, 9); got != nil {
		t.Errorf("empty crop: got %v, want nil", got)
	}
}

func TestCanny_DetectsRectangleOutline(t *testing.T) {
	plane := make([][]float64, 60)
	for y := range plane {
		plane[y] = make([]float64, 80)
	}
	for y := 15; y < 45; y++ {
		for x := 20; x < 60; x++ {
			plane[y][x] = 220
		}
	}

	edges := Canny(GaussianSmooth(plane), 50, 150)

	if Count(edges) == 0 {
		t.Fatal("no edges found on a high-contrast rectangle")
	}

	// Edges cluster around the outline, not the interior or far background.
	interior := 0
	for y := 25; y < 35; y++ {
		for x := 30; x < 50; x++ {
			if edges[y][x] {
				interior++
			}
		}
	}
	if interior > 0 {
		t.Errorf("found %d edge pixels deep inside a uniform region", interior)
	}
}

func TestCanny_UniformPlane(t *testing.T) {
	plane := make([][]float64, 40)
	for y := range plane {
		plane[y] = make([]float64, 40)
		for x := range plane[y] {
			plane[y][x] = 128
		}
	}
	if got := Count(Canny(plane, 50, 150)); got != 0 {
		t.Errorf("uniform plane produced %d edge pixels, want 0", got)
	}
}
