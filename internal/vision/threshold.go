package vision

// AdaptiveThreshold computes an inverse-binary adaptive threshold: a pixel is
// set when its value is below the local mean over a block x block window
// minus the constant c. Picks up document boundaries that global thresholds
// miss in low-contrast lighting.
//
// The local mean is computed with an integral image so the cost is
// independent of block size. Block must be odd.
func AdaptiveThreshold(plane [][]float64, block int, c float64) [][]bool {
	height := len(plane)
	width := 0
	if height > 0 {
		width = len(plane[0])
	}

	// Integral image with a zero row/column of padding.
	integral := make([][]float64, height+1)
	integral[0] = make([]float64, width+1)
	for y := 0; y < height; y++ {
		integral[y+1] = make([]float64, width+1)
		var rowSum float64
		for x := 0; x < width; x++ {
			rowSum += plane[y][x]
			integral[y+1][x+1] = integral[y][x+1] + rowSum
		}
	}

	half := block / 2
	mask := NewMask(width, height)
	for y := 0; y < height; y++ {
		y0 := clamp(y-half, 0, height-1)
		y1 := clamp(y+half, 0, height-1)
		for x := 0; x < width; x++ {
			x0 := clamp(x-half, 0, width-1)
			x1 := clamp(x+half, 0, width-1)

			area := float64((y1 - y0 + 1) * (x1 - x0 + 1))
			sum := integral[y1+1][x1+1] - integral[y0][x1+1] - integral[y1+1][x0] + integral[y0][x0]
			mean := sum / area

			if plane[y][x] <= mean-c {
				mask[y][x] = true
			}
		}
	}
	return mask
}

// MagnitudeThreshold marks pixels whose gradient magnitude exceeds the
// threshold. Used to fold raw Sobel responses into the fused edge map.
func MagnitudeThreshold(mag [][]float64, threshold float64) [][]bool {
	height := len(mag)
	width := 0
	if height > 0 {
		width = len(mag[0])
	}

	mask := NewMask(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if mag[y][x] > threshold {
				mask[y][x] = true
			}
		}
	}
	return mask
}
