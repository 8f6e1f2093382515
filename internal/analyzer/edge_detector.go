package analyzer

import (
	"fmt"
	"image"
	"math"

	apperrors "go-psr-analyzer/internal/errors"
)

// DetectEdges produces the boundary-based shadow mask.
//
// Stages:
//  1. Gaussian smoothing with the given sigma (kernel radius ceil(3σ),
//     edge-replicated borders).
//  2. Sobel gradients, magnitude and direction.
//  3. Non-maximum suppression along the quantized gradient direction, which
//     thins responses to single-pixel lines.
//  4. Hysteresis: strong pixels (magnitude ≥ 20% of the image maximum) seed
//     a flood fill that retains weak pixels (≥ 10%) 8-connected to them.
//
// A constant image has zero gradient everywhere and yields an all-false
// mask rather than an error.
func (d *shadowDetector) DetectEdges(img *image.Gray, sigma float64) (*Mask, error) {
	if err := validateGray("detect_edges", img); err != nil {
		return nil, err
	}
	if sigma <= 0 || sigma > 10 {
		return nil, apperrors.NewConfigurationError("edge_sigma",
			fmt.Sprintf("sigma %.3f outside (0, 10]", sigma))
	}
	w, h := grayDims(img)

	smoothed := sepConvolveGray(img, gaussianKernelForSigma(sigma))
	gx, gy := sobelGradients(smoothed)

	mag := NewFloatMap(w, h)
	maxMag := 0.0
	for i := range mag.Data {
		m := math.Hypot(gx.Data[i], gy.Data[i])
		mag.Data[i] = m
		if m > maxMag {
			maxMag = m
		}
	}
	if maxMag == 0 {
		return NewMask(w, h), nil
	}

	thin := suppressNonMaxima(mag, gx, gy)
	return hysteresisMask(thin, 0.1*maxMag, 0.2*maxMag), nil
}

// sobelX and sobelY are the 3×3 gradient kernels.
var (
	sobelX = [3][3]float64{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	sobelY = [3][3]float64{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}
)

// sobelGradients convolves the plane with both Sobel kernels using
// edge-replicated sampling.
func sobelGradients(plane *FloatMap) (*FloatMap, *FloatMap) {
	w, h := plane.Width, plane.Height
	gx := NewFloatMap(w, h)
	gy := NewFloatMap(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sx, sy float64
			for j := -1; j <= 1; j++ {
				py := clampIdx(y+j, h)
				for i := -1; i <= 1; i++ {
					v := plane.Data[py*w+clampIdx(x+i, w)]
					sx += sobelX[j+1][i+1] * v
					sy += sobelY[j+1][i+1] * v
				}
			}
			gx.Data[y*w+x] = sx
			gy.Data[y*w+x] = sy
		}
	}
	return gx, gy
}

// suppressNonMaxima zeroes every magnitude that is not a local maximum along
// its gradient direction. Directions are quantized into four buckets:
// horizontal, vertical and the two diagonals.
func suppressNonMaxima(mag, gx, gy *FloatMap) *FloatMap {
	w, h := mag.Width, mag.Height
	out := NewFloatMap(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m := mag.Data[y*w+x]
			if m == 0 {
				continue
			}
			angle := math.Atan2(gy.Data[y*w+x], gx.Data[y*w+x])
			if angle < 0 {
				angle += math.Pi
			}
			var dx, dy int
			switch {
			case angle < math.Pi/8 || angle >= 7*math.Pi/8:
				dx, dy = 1, 0
			case angle < 3*math.Pi/8:
				dx, dy = 1, 1
			case angle < 5*math.Pi/8:
				dx, dy = 0, 1
			default:
				dx, dy = -1, 1
			}
			n1 := mag.Data[clampIdx(y+dy, h)*w+clampIdx(x+dx, w)]
			n2 := mag.Data[clampIdx(y-dy, h)*w+clampIdx(x-dx, w)]
			if m >= n1 && m >= n2 {
				out.Data[y*w+x] = m
			}
		}
	}
	return out
}

// hysteresisMask keeps every pixel at or above high, then flood-fills from
// those seeds across 8-connected pixels at or above low. The result is
// independent of visit order.
func hysteresisMask(mag *FloatMap, low, high float64) *Mask {
	w, h := mag.Width, mag.Height
	mask := NewMask(w, h)
	stack := make([]int, 0, w+h)
	for i, m := range mag.Data {
		if m >= high && !mask.Bits[i] {
			mask.Bits[i] = true
			stack = append(stack, i)
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				px, py := p%w, p/w
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						nx, ny := px+dx, py+dy
						if nx < 0 || nx >= w || ny < 0 || ny >= h {
							continue
						}
						q := ny*w + nx
						if !mask.Bits[q] && mag.Data[q] >= low {
							mask.Bits[q] = true
							stack = append(stack, q)
						}
					}
				}
			}
		}
	}
	return mask
}
