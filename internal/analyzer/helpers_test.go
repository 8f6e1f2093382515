package analyzer

import (
	"image"
	"testing"
)

// constantGray builds a w×h image filled with v.
func constantGray(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

// squareOnWhite builds a white w×h image with a black size×size square whose
// top-left corner is at (x0, y0).
func squareOnWhite(w, h, x0, y0, size int) *image.Gray {
	img := constantGray(w, h, 255)
	for y := y0; y < y0+size; y++ {
		for x := x0; x < x0+size; x++ {
			img.Pix[y*img.Stride+x] = 0
		}
	}
	return img
}

// gradientGray builds a horizontal ramp from 0 to 255.
func gradientGray(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Pix[y*img.Stride+x] = uint8(x * 255 / (w - 1))
		}
	}
	return img
}

// noiseGray builds a deterministic pseudo-random image from a linear
// congruential sequence.
func noiseGray(w, h int, seed uint32) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	state := seed
	for i := range img.Pix {
		state = state*1664525 + 1013904223
		img.Pix[i] = uint8(state >> 24)
	}
	return img
}

// bumpGray builds a dark image with a single bright peak of the given height
// at (cx, cy), falling off by 8 intensity levels per Chebyshev step.
func bumpGray(w, h, cx, cy int, height uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := chebyshev(Point{X: cx, Y: cy}, x, y)
			v := int(height) - 8*d
			if v < 0 {
				v = 0
			}
			img.Pix[y*img.Stride+x] = uint8(v)
		}
	}
	return img
}

// coveragePercent is the share of true cells in a mask, in percent.
func coveragePercent(m *Mask) float64 {
	return float64(m.Count()) / float64(m.Width*m.Height) * 100
}

// samePix fails the test when two images differ in dimensions or pixels.
func samePix(t *testing.T, name string, a, b *image.Gray) {
	t.Helper()
	aw, ah := grayDims(a)
	bw, bh := grayDims(b)
	if aw != bw || ah != bh {
		t.Fatalf("%s: dimensions differ: %dx%d vs %dx%d", name, aw, ah, bw, bh)
	}
	for y := 0; y < ah; y++ {
		for x := 0; x < aw; x++ {
			if a.Pix[y*a.Stride+x] != b.Pix[y*b.Stride+x] {
				t.Fatalf("%s: pixel (%d,%d) differs: %d vs %d",
					name, x, y, a.Pix[y*a.Stride+x], b.Pix[y*b.Stride+x])
			}
		}
	}
}
