package analyzer

import (
	"fmt"
	"image"

	apperrors "go-psr-analyzer/internal/errors"
)

// grayDims returns the pixel dimensions of img, tolerating nil.
func grayDims(img *image.Gray) (int, int) {
	if img == nil {
		return 0, 0
	}
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

// validateGray rejects nil or empty images on behalf of the named stage.
func validateGray(stage string, img *image.Gray) error {
	w, h := grayDims(img)
	if w <= 0 || h <= 0 {
		return apperrors.NewDimensionError(stage,
			fmt.Sprintf("image has no pixels (%dx%d)", w, h))
	}
	return nil
}

// cloneGray copies img into a fresh zero-origin image so that pipeline
// outputs never alias caller memory.
func cloneGray(img *image.Gray) *image.Gray {
	w, h := grayDims(img)
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		copy(out.Pix[y*out.Stride:y*out.Stride+w], img.Pix[y*img.Stride:y*img.Stride+w])
	}
	return out
}

// negateGray returns 255−v for every pixel.
func negateGray(img *image.Gray) *image.Gray {
	w, h := grayDims(img)
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Pix[y*out.Stride+x] = 255 - img.Pix[y*img.Stride+x]
		}
	}
	return out
}

// clampIdx replicates the nearest edge sample for out-of-range indices. All
// window-based stages share this boundary policy.
func clampIdx(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
