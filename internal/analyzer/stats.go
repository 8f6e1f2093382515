package analyzer

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/stat"

	apperrors "go-psr-analyzer/internal/errors"
)

// statsCalculator summarizes a run. Intensity metrics are taken over the
// original image; the enhanced image and every mask only have to agree on
// dimensions.
type statsCalculator struct{}

// NewStatsCalculator creates the stats aggregator.
func NewStatsCalculator() StatsCalculator {
	return &statsCalculator{}
}

func (s *statsCalculator) ComputeStats(original, enhanced *image.Gray, masks map[Method]*Mask) (*StatRecord, error) {
	if err := validateGray("compute_stats", original); err != nil {
		return nil, err
	}
	w, h := grayDims(original)
	if enhanced != nil {
		ew, eh := grayDims(enhanced)
		if ew != w || eh != h {
			return nil, apperrors.NewDimensionError("compute_stats",
				fmt.Sprintf("enhanced image %dx%d does not match original %dx%d", ew, eh, w, h))
		}
	}
	for m, mask := range masks {
		if mask.Width != w || mask.Height != h {
			return nil, apperrors.NewDimensionError("compute_stats",
				fmt.Sprintf("%s mask %dx%d does not match original %dx%d", m, mask.Width, mask.Height, w, h))
		}
	}

	data := make([]float64, 0, w*h)
	min, max := original.Pix[0], original.Pix[0]
	for y := 0; y < h; y++ {
		row := original.Pix[y*original.Stride : y*original.Stride+w]
		for _, v := range row {
			data = append(data, float64(v))
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}

	mean := stat.Mean(data, nil)
	// Population variance, matching the raw-units convention of the
	// roughness map.
	variance := stat.MomentAbout(2, data, mean, nil)

	record := &StatRecord{
		MeanIntensity:   roundTo(mean, 4),
		StdIntensity:    roundTo(math.Sqrt(variance), 4),
		MinIntensity:    float64(min),
		MaxIntensity:    float64(max),
		DynamicRange:    float64(max) - float64(min),
		CoveragePercent: make(map[Method]float64, len(masks)),
		Degenerate:      min == max,
	}
	total := float64(w * h)
	for m, mask := range masks {
		record.CoveragePercent[m] = roundTo(float64(mask.Count())/total*100, 2)
	}
	return record, nil
}

// roundTo rounds v to the given number of decimal places for report
// stability.
func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
