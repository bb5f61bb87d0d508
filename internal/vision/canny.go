package vision

import "math"

// Canny performs Canny edge detection on a smoothed intensity plane.
//
// The caller is expected to have already applied GaussianSmooth; running the
// detector at several threshold pairs over the same smoothed plane avoids
// re-blurring per pair.
//
// Thresholds are on the Sobel gradient magnitude scale of an 8-bit plane.
// Pixels above high are strong edges, pixels between low and high are kept
// only when 8-connected to a strong edge, the rest are discarded. Edges are
// thinned to single-pixel width by non-maximum suppression along the
// gradient direction.
func Canny(smoothed [][]float64, low, high float64) [][]bool {
	height := len(smoothed)
	width := 0
	if height > 0 {
		width = len(smoothed[0])
	}

	_, _, magnitude, direction := Gradients(smoothed)

	// Non-maximum suppression
	suppressed := make([][]float64, height)
	for y := 0; y < height; y++ {
		suppressed[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			if y == 0 || y == height-1 || x == 0 || x == width-1 {
				continue
			}

			angle := direction[y][x]
			mag := magnitude[y][x]

			// Determine neighbors to compare based on gradient direction
			var n1, n2 float64
			if (angle >= -math.Pi/8 && angle < math.Pi/8) || (angle >= 7*math.Pi/8 || angle < -7*math.Pi/8) {
				n1 = magnitude[y][x-1]
				n2 = magnitude[y][x+1]
			} else if (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8) {
				n1 = magnitude[y-1][x+1]
				n2 = magnitude[y+1][x-1]
			} else if (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8) {
				n1 = magnitude[y-1][x]
				n2 = magnitude[y+1][x]
			} else {
				n1 = magnitude[y-1][x-1]
				n2 = magnitude[y+1][x+1]
			}

			if mag >= n1 && mag >= n2 {
				suppressed[y][x] = mag
			}
		}
	}

	// Double threshold and edge tracking by hysteresis
	result := NewMask(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			val := suppressed[y][x]
			if val >= high {
				result[y][x] = true
			} else if val >= low {
				// Weak edge: keep only if connected to a strong edge
				hasStrongNeighbor := false
				for ky := -1; ky <= 1 && !hasStrongNeighbor; ky++ {
					for kx := -1; kx <= 1 && !hasStrongNeighbor; kx++ {
						py := clamp(y+ky, 0, height-1)
						px := clamp(x+kx, 0, width-1)
						if suppressed[py][px] >= high {
							hasStrongNeighbor = true
						}
					}
				}
				if hasStrongNeighbor {
					result[y][x] = true
				}
			}
		}
	}

	return result
}
