package vision

import (
	"image"
	"math"
)

// Grayscale converts an image to a single-channel intensity plane using
// ITU-R BT.601 luminance weights (0.299*R + 0.587*G + 0.114*B).
//
// The plane is indexed plane[y][x] with values in [0, 255].
func Grayscale(img image.Image) [][]float64 {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	gray := make([][]float64, height)
	for y := 0; y < height; y++ {
		gray[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			gray[y][x] = float64(r>>8)*0.299 + float64(g>>8)*0.587 + float64(b>>8)*0.114
		}
	}
	return gray
}

// GaussianSmooth applies a 5x5 Gaussian kernel (sigma ~= 1.4) to suppress
// sensor noise before edge detection. Border pixels use clamped edge values.
func GaussianSmooth(plane [][]float64) [][]float64 {
	kernel := [5][5]float64{
		{1, 4, 7, 4, 1},
		{4, 16, 26, 16, 4},
		{7, 26, 41, 26, 7},
		{4, 16, 26, 16, 4},
		{1, 4, 7, 4, 1},
	}
	const kernelSum = 273.0

	height := len(plane)
	if height == 0 {
		return plane
	}
	width := len(plane[0])

	result := make([][]float64, height)
	for y := 0; y < height; y++ {
		result[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			var sum float64
			for ky := -2; ky <= 2; ky++ {
				for kx := -2; kx <= 2; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					sum += plane[py][px] * kernel[ky+2][kx+2]
				}
			}
			result[y][x] = sum / kernelSum
		}
	}
	return result
}

// Gradients computes Sobel x/y gradients plus magnitude and direction planes.
// Direction is in radians from atan2(gy, gx).
func Gradients(plane [][]float64) (gx, gy, mag, dir [][]float64) {
	sobelX := [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY := [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	height := len(plane)
	width := 0
	if height > 0 {
		width = len(plane[0])
	}

	gx = make([][]float64, height)
	gy = make([][]float64, height)
	mag = make([][]float64, height)
	dir = make([][]float64, height)

	for y := 0; y < height; y++ {
		gx[y] = make([]float64, width)
		gy[y] = make([]float64, width)
		mag[y] = make([]float64, width)
		dir[y] = make([]float64, width)

		for x := 0; x < width; x++ {
			var sx, sy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					sx += plane[py][px] * sobelX[ky+1][kx+1]
					sy += plane[py][px] * sobelY[ky+1][kx+1]
				}
			}
			gx[y][x] = sx
			gy[y][x] = sy
			mag[y][x] = math.Sqrt(sx*sx + sy*sy)
			dir[y][x] = math.Atan2(sy, sx)
		}
	}
	return gx, gy, mag, dir
}

// Laplacian convolves the plane with the 3x3 Laplacian kernel
// {0,1,0; 1,-4,1; 0,1,0}, the classic focus-measure operator.
func Laplacian(plane [][]float64) [][]float64 {
	height := len(plane)
	width := 0
	if height > 0 {
		width = len(plane[0])
	}

	result := make([][]float64, height)
	for y := 0; y < height; y++ {
		result[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			up := plane[clamp(y-1, 0, height-1)][x]
			down := plane[clamp(y+1, 0, height-1)][x]
			left := plane[y][clamp(x-1, 0, width-1)]
			right := plane[y][clamp(x+1, 0, width-1)]
			result[y][x] = up + down + left + right - 4*plane[y][x]
		}
	}
	return result
}

// PlaneMean returns the mean value of a plane, 0 for an empty plane.
func PlaneMean(plane [][]float64) float64 {
	var sum float64
	var n int
	for _, row := range plane {
		for _, v := range row {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Crop returns the sub-plane [y0:y1, x0:x1) with coordinates clamped to the
// plane bounds. Returns nil when the clamped region is empty.
func Crop(plane [][]float64, x0, y0, x1, y1 int) [][]float64 {
	height := len(plane)
	if height == 0 {
		return nil
	}
	width := len(plane[0])

	x0 = clamp(x0, 0, width)
	x1 = clamp(x1, 0, width)
	y0 = clamp(y0, 0, height)
	y1 = clamp(y1, 0, height)
	if x1 <= x0 || y1 <= y0 {
		return nil
	}

	out := make([][]float64, y1-y0)
	for y := y0; y < y1; y++ {
		out[y-y0] = plane[y][x0:x1]
	}
	return out
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
