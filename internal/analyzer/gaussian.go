package analyzer

import (
	"image"
	"math"
)

// sigmaForBlock derives a gaussian standard deviation from a window side,
// the usual rule when a caller specifies only the window size:
// 0.3·((size−1)·0.5 − 1) + 0.8.
func sigmaForBlock(size int) float64 {
	return 0.3*((float64(size)-1)*0.5-1) + 0.8
}

// gaussianKernel1D builds a normalized 1-D gaussian kernel of odd length
// size centered on its middle element.
func gaussianKernel1D(size int, sigma float64) []float64 {
	k := make([]float64, size)
	r := size / 2
	sum := 0.0
	for i := range k {
		d := float64(i - r)
		k[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// gaussianKernelForSigma sizes the kernel from sigma alone, covering three
// standard deviations on each side.
func gaussianKernelForSigma(sigma float64) []float64 {
	r := int(math.Ceil(3 * sigma))
	if r < 1 {
		r = 1
	}
	return gaussianKernel1D(2*r+1, sigma)
}

// sepConvolveGray applies the 1-D kernel horizontally then vertically with
// edge-replicated sampling, which equals the full 2-D separable convolution
// under the same boundary policy.
func sepConvolveGray(img *image.Gray, k []float64) *FloatMap {
	w, h := grayDims(img)
	r := len(k) / 2

	horiz := NewFloatMap(w, h)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w]
		for x := 0; x < w; x++ {
			acc := 0.0
			for i, kv := range k {
				acc += kv * float64(row[clampIdx(x+i-r, w)])
			}
			horiz.Data[y*w+x] = acc
		}
	}

	out := NewFloatMap(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			acc := 0.0
			for i, kv := range k {
				acc += kv * horiz.Data[clampIdx(y+i-r, h)*w+x]
			}
			out.Data[y*w+x] = acc
		}
	}
	return out
}
