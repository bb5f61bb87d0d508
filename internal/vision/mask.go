package vision

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/effect"
)

// NewMask allocates an all-false binary mask indexed mask[y][x].
func NewMask(width, height int) [][]bool {
	mask := make([][]bool, height)
	for y := range mask {
		mask[y] = make([]bool, width)
	}
	return mask
}

// Or unions any number of same-sized masks.
func Or(masks ...[][]bool) [][]bool {
	if len(masks) == 0 {
		return nil
	}
	height := len(masks[0])
	width := 0
	if height > 0 {
		width = len(masks[0][0])
	}

	out := NewMask(width, height)
	for _, m := range masks {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				if m[y][x] {
					out[y][x] = true
				}
			}
		}
	}
	return out
}

// And intersects two same-sized masks.
func And(a, b [][]bool) [][]bool {
	height := len(a)
	width := 0
	if height > 0 {
		width = len(a[0])
	}

	out := NewMask(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			out[y][x] = a[y][x] && b[y][x]
		}
	}
	return out
}

// AndNot keeps pixels set in a but not in b.
func AndNot(a, b [][]bool) [][]bool {
	height := len(a)
	width := 0
	if height > 0 {
		width = len(a[0])
	}

	out := NewMask(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			out[y][x] = a[y][x] && !b[y][x]
		}
	}
	return out
}

// Count returns the number of set pixels.
func Count(mask [][]bool) int {
	n := 0
	for _, row := range mask {
		for _, v := range row {
			if v {
				n++
			}
		}
	}
	return n
}

// Dilate grows set regions by the given structuring radius, repeated for the
// requested number of iterations. Implemented on top of bild's grayscale
// morphology operators.
func Dilate(mask [][]bool, radius float64, iterations int) [][]bool {
	img := MaskImage(mask)
	for i := 0; i < iterations; i++ {
		img = toGray(effect.Dilate(img, radius))
	}
	return ImageMask(img)
}

// Erode shrinks set regions by the given structuring radius, repeated for
// the requested number of iterations.
func Erode(mask [][]bool, radius float64, iterations int) [][]bool {
	img := MaskImage(mask)
	for i := 0; i < iterations; i++ {
		img = toGray(effect.Erode(img, radius))
	}
	return ImageMask(img)
}

// MaskImage renders a binary mask as an 8-bit grayscale image
// (255 = set, 0 = clear).
func MaskImage(mask [][]bool) *image.Gray {
	height := len(mask)
	width := 0
	if height > 0 {
		width = len(mask[0])
	}

	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if mask[y][x] {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

// ImageMask converts a grayscale image back to a binary mask; any pixel at
// or above half intensity counts as set.
func ImageMask(img image.Image) [][]bool {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	mask := NewMask(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, _, _, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			mask[y][x] = r>>8 >= 128
		}
	}
	return mask
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, _, _, _ := img.At(x, y).RGBA()
			out.SetGray(x, y, color.Gray{Y: uint8(r >> 8)})
		}
	}
	return out
}
