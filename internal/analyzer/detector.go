package analyzer

import (
	"fmt"
	"image"
	"math"

	apperrors "go-psr-analyzer/internal/errors"
)

// shadowDetector implements the three PSR detection methods. The edge method
// lives in edge_detector.go.
type shadowDetector struct{}

// NewShadowDetector creates the multi-method shadow detector.
func NewShadowDetector() ShadowDetector {
	return &shadowDetector{}
}

// DetectBasic classifies every pixel strictly darker than threshold.
func (d *shadowDetector) DetectBasic(img *image.Gray, threshold int) (*Mask, error) {
	if err := validateGray("detect_basic", img); err != nil {
		return nil, err
	}
	if threshold < 0 || threshold > 255 {
		return nil, apperrors.NewConfigurationError("basic_threshold",
			fmt.Sprintf("threshold %d outside [0, 255]", threshold))
	}
	w, h := grayDims(img)
	mask := NewMask(w, h)
	t := uint8(threshold)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w]
		for x, v := range row {
			mask.Bits[y*w+x] = v < t
		}
	}
	return mask, nil
}

// DetectAdaptive classifies pixels strictly darker than their
// gaussian-weighted local mean minus c. The window has side blockSize (odd,
// at least 3) and edge-replicated boundaries, with the gaussian std derived
// from the window side. The mean is rounded to 1e-4 so that a perfectly
// uniform image never flips cells on float accumulation noise.
func (d *shadowDetector) DetectAdaptive(img *image.Gray, blockSize int, c float64) (*Mask, error) {
	if err := validateGray("detect_adaptive", img); err != nil {
		return nil, err
	}
	if blockSize < 3 || blockSize%2 == 0 {
		return nil, apperrors.NewConfigurationError("adaptive_block_size",
			fmt.Sprintf("block size %d must be odd and at least 3", blockSize))
	}
	if c < 0 || c > 20 {
		return nil, apperrors.NewConfigurationError("adaptive_c",
			fmt.Sprintf("constant %.3f outside [0, 20]", c))
	}
	w, h := grayDims(img)
	if blockSize > w || blockSize > h {
		return nil, apperrors.NewDimensionError("detect_adaptive",
			fmt.Sprintf("block size %d exceeds image dimensions %dx%d", blockSize, w, h))
	}

	kernel := gaussianKernel1D(blockSize, sigmaForBlock(blockSize))
	mean := sepConvolveGray(img, kernel)

	mask := NewMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m := math.Round(mean.Data[y*w+x]*1e4) / 1e4
			mask.Bits[y*w+x] = float64(img.Pix[y*img.Stride+x]) < m-c
		}
	}
	return mask, nil
}
