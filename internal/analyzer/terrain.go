package analyzer

import (
	"fmt"
	"image"
	"math"

	apperrors "go-psr-analyzer/internal/errors"
)

// terrainAnalyzer extracts local extrema and the roughness map. Peaks,
// valleys and roughness share one boundary policy (edge replication for
// windows, border clipping for extrema neighborhoods) so that runs are
// reproducible under a fixed configuration.
type terrainAnalyzer struct{}

// NewTerrainAnalyzer creates the terrain analyzer.
func NewTerrainAnalyzer() TerrainAnalyzer {
	return &terrainAnalyzer{}
}

func (t *terrainAnalyzer) AnalyzeTerrain(img *image.Gray, minDistance, window int) (*FeatureSet, error) {
	if err := validateGray("analyze_terrain", img); err != nil {
		return nil, err
	}
	if minDistance < 1 {
		return nil, apperrors.NewConfigurationError("peak_min_distance",
			fmt.Sprintf("distance %d must be at least 1", minDistance))
	}
	if window < 3 || window%2 == 0 {
		return nil, apperrors.NewConfigurationError("roughness_size",
			fmt.Sprintf("window %d must be odd and at least 3", window))
	}
	w, h := grayDims(img)
	if window > w || window > h {
		return nil, apperrors.NewDimensionError("analyze_terrain",
			fmt.Sprintf("roughness window %d exceeds image dimensions %dx%d", window, w, h))
	}

	return &FeatureSet{
		Peaks:     localMaxima(img, minDistance),
		Valleys:   localMaxima(negateGray(img), minDistance),
		Roughness: roughnessMap(img, window),
	}, nil
}

// localMaxima finds peaks with Chebyshev radius d: a candidate must be
// strictly greater than its eight immediate neighbors (so plateaus,
// including constant images, produce none) and at least as great as every
// pixel within the radius (clipped at the borders). Candidates within d of
// an already accepted peak are suppressed; since two surviving candidates in
// range can only be equal, raster order decides the tie, keeping the first.
func localMaxima(img *image.Gray, d int) []Point {
	w, h := grayDims(img)
	peaks := []Point{}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !isCandidate(img, x, y, d) {
				continue
			}
			suppressed := false
			for i := len(peaks) - 1; i >= 0; i-- {
				if chebyshev(peaks[i], x, y) <= d {
					suppressed = true
					break
				}
			}
			if !suppressed {
				peaks = append(peaks, Point{X: x, Y: y})
			}
		}
	}
	return peaks
}

func isCandidate(img *image.Gray, x, y, d int) bool {
	w, h := grayDims(img)
	v := img.Pix[y*img.Stride+x]
	for ny := clampIdx(y-1, h); ny <= clampIdx(y+1, h); ny++ {
		for nx := clampIdx(x-1, w); nx <= clampIdx(x+1, w); nx++ {
			if nx == x && ny == y {
				continue
			}
			if img.Pix[ny*img.Stride+nx] >= v {
				return false
			}
		}
	}
	y0, y1 := clampIdx(y-d, h), clampIdx(y+d, h)
	x0, x1 := clampIdx(x-d, w), clampIdx(x+d, w)
	for ny := y0; ny <= y1; ny++ {
		row := img.Pix[ny*img.Stride:]
		for nx := x0; nx <= x1; nx++ {
			if row[nx] > v {
				return false
			}
		}
	}
	return true
}

func chebyshev(p Point, x, y int) int {
	dx := p.X - x
	if dx < 0 {
		dx = -dx
	}
	dy := p.Y - y
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// roughnessMap computes the population standard deviation over a
// window×window neighborhood around every pixel, edge-replicated. Window
// sums are accumulated in integers, so a constant image yields exactly zero
// everywhere.
func roughnessMap(img *image.Gray, window int) *FloatMap {
	w, h := grayDims(img)
	r := window / 2

	// Horizontal sliding sums of v and v² with clamped sampling.
	rowSum := make([]int64, w*h)
	rowSq := make([]int64, w*h)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w]
		var s, sq int64
		for i := -r; i <= r; i++ {
			v := int64(row[clampIdx(i, w)])
			s += v
			sq += v * v
		}
		rowSum[y*w] = s
		rowSq[y*w] = sq
		for x := 1; x < w; x++ {
			add := int64(row[clampIdx(x+r, w)])
			sub := int64(row[clampIdx(x-r-1, w)])
			s += add - sub
			sq += add*add - sub*sub
			rowSum[y*w+x] = s
			rowSq[y*w+x] = sq
		}
	}

	// Vertical sliding over the row sums completes the square window.
	out := NewFloatMap(w, h)
	n := int64(window) * int64(window)
	colSum := make([]int64, w)
	colSq := make([]int64, w)
	for y := 0; y < h; y++ {
		if y == 0 {
			for x := 0; x < w; x++ {
				var s, sq int64
				for j := -r; j <= r; j++ {
					cy := clampIdx(j, h)
					s += rowSum[cy*w+x]
					sq += rowSq[cy*w+x]
				}
				colSum[x] = s
				colSq[x] = sq
			}
		} else {
			addY := clampIdx(y+r, h)
			subY := clampIdx(y-r-1, h)
			for x := 0; x < w; x++ {
				colSum[x] += rowSum[addY*w+x] - rowSum[subY*w+x]
				colSq[x] += rowSq[addY*w+x] - rowSq[subY*w+x]
			}
		}
		for x := 0; x < w; x++ {
			// n·Σv² − (Σv)² = n²·variance, exact in int64 for any
			// window that fits the validated parameter ranges.
			num := n*colSq[x] - colSum[x]*colSum[x]
			if num < 0 {
				num = 0
			}
			out.Data[y*w+x] = math.Sqrt(float64(num)) / float64(n)
		}
	}
	return out
}
