package analyzer

import (
	"fmt"
	"image"
	"math"

	apperrors "go-psr-analyzer/internal/errors"
)

// histBins is the number of intensity levels in every tile histogram.
const histBins = 256

// claheEnhancer implements contrast-limited adaptive histogram equalization.
// The image is partitioned into a tileSize×tileSize grid, each tile gets a
// clip-limited equalization lookup table, and per-pixel outputs blend the
// four nearest tile tables bilinearly to avoid block seams.
type claheEnhancer struct{}

// NewEnhancer creates the CLAHE enhancer.
func NewEnhancer() Enhancer {
	return &claheEnhancer{}
}

func (e *claheEnhancer) Enhance(img *image.Gray, clipLimit float64, tileSize int) (*image.Gray, error) {
	if err := validateGray("enhance", img); err != nil {
		return nil, err
	}
	w, h := grayDims(img)
	if clipLimit <= 0 {
		return nil, apperrors.NewConfigurationError("clahe_clip_limit",
			fmt.Sprintf("clip limit %.3f must be positive", clipLimit))
	}
	if tileSize <= 0 {
		return nil, apperrors.NewConfigurationError("clahe_tile_size",
			fmt.Sprintf("tile grid %d must be positive", tileSize))
	}
	if tileSize > w || tileSize > h {
		return nil, apperrors.NewConfigurationError("clahe_tile_size",
			fmt.Sprintf("tile grid %d exceeds image dimensions %dx%d", tileSize, w, h))
	}

	grid := newTileGrid(w, h, tileSize)
	luts := make([][]uint8, tileSize*tileSize)
	for ty := 0; ty < tileSize; ty++ {
		for tx := 0; tx < tileSize; tx++ {
			x0, x1 := grid.spanX(tx)
			y0, y1 := grid.spanY(ty)
			luts[ty*tileSize+tx] = buildTileLUT(img, x0, y0, x1, y1, clipLimit)
		}
	}

	// Per-axis interpolation tables: for every coordinate, the lower tile
	// index and the blend fraction toward the next tile center.
	leftTile, fracX := grid.blendTableX()
	topTile, fracY := grid.blendTableY()

	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		ty, fy := topTile[y], fracY[y]
		tyNext := ty
		if ty+1 < tileSize {
			tyNext = ty + 1
		}
		for x := 0; x < w; x++ {
			tx, fx := leftTile[x], fracX[x]
			txNext := tx
			if tx+1 < tileSize {
				txNext = tx + 1
			}
			v := img.Pix[y*img.Stride+x]
			top := (1-fx)*float64(luts[ty*tileSize+tx][v]) + fx*float64(luts[ty*tileSize+txNext][v])
			bottom := (1-fx)*float64(luts[tyNext*tileSize+tx][v]) + fx*float64(luts[tyNext*tileSize+txNext][v])
			out.Pix[y*out.Stride+x] = uint8(math.Round((1-fy)*top + fy*bottom))
		}
	}
	return out, nil
}

// buildTileLUT histograms one tile, clips each bin at
// clipLimit·tilePixels/histBins (never below one count), spreads the clipped
// mass evenly over all bins, and maps the cumulative distribution onto
// 0–255. Clipping and redistribution work in fractional counts so that tiles
// of different sizes holding the same content produce the same table; the
// remainder tiles along the bottom and right edges would otherwise seam.
func buildTileLUT(img *image.Gray, x0, y0, x1, y1 int, clipLimit float64) []uint8 {
	var hist [histBins]float64
	for y := y0; y < y1; y++ {
		row := img.Pix[y*img.Stride+x0 : y*img.Stride+x1]
		for _, v := range row {
			hist[v]++
		}
	}
	pixels := float64((x1 - x0) * (y1 - y0))

	limit := clipLimit * pixels / histBins
	if limit < 1 {
		limit = 1
	}
	clipped := 0.0
	for i, n := range hist {
		if n > limit {
			clipped += n - limit
			hist[i] = limit
		}
	}
	bonus := clipped / histBins

	lut := make([]uint8, histBins)
	scale := 255.0 / pixels
	cdf := 0.0
	for i, n := range hist {
		cdf += n + bonus
		lut[i] = uint8(math.Round(cdf * scale))
	}
	return lut
}

// tileGrid holds the tile partition of an image: equal base tiles with the
// last row/column absorbing remainder pixels.
type tileGrid struct {
	w, h  int
	tiles int
	baseW int
	baseH int
}

func newTileGrid(w, h, tiles int) tileGrid {
	return tileGrid{w: w, h: h, tiles: tiles, baseW: w / tiles, baseH: h / tiles}
}

func (g tileGrid) spanX(tx int) (int, int) {
	x0 := tx * g.baseW
	if tx == g.tiles-1 {
		return x0, g.w
	}
	return x0, x0 + g.baseW
}

func (g tileGrid) spanY(ty int) (int, int) {
	y0 := ty * g.baseH
	if ty == g.tiles-1 {
		return y0, g.h
	}
	return y0, y0 + g.baseH
}

func (g tileGrid) centerX(tx int) float64 {
	x0, x1 := g.spanX(tx)
	return float64(x0+x1-1) / 2
}

func (g tileGrid) centerY(ty int) float64 {
	y0, y1 := g.spanY(ty)
	return float64(y0+y1-1) / 2
}

// blendTableX precomputes, for every x, the tile whose center lies at or
// left of x and the fraction toward the next center. Coordinates outside the
// center lattice clamp to the border tiles.
func (g tileGrid) blendTableX() ([]int, []float64) {
	idx := make([]int, g.w)
	frac := make([]float64, g.w)
	for x := 0; x < g.w; x++ {
		idx[x], frac[x] = blendAt(float64(x), g.tiles, g.centerX)
	}
	return idx, frac
}

func (g tileGrid) blendTableY() ([]int, []float64) {
	idx := make([]int, g.h)
	frac := make([]float64, g.h)
	for y := 0; y < g.h; y++ {
		idx[y], frac[y] = blendAt(float64(y), g.tiles, g.centerY)
	}
	return idx, frac
}

func blendAt(pos float64, tiles int, center func(int) float64) (int, float64) {
	if tiles == 1 || pos <= center(0) {
		return 0, 0
	}
	if pos >= center(tiles-1) {
		return tiles - 1, 0
	}
	for t := 0; t < tiles-1; t++ {
		lo, hi := center(t), center(t+1)
		if pos >= lo && pos < hi {
			return t, (pos - lo) / (hi - lo)
		}
	}
	return tiles - 1, 0
}
