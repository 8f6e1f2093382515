package analyzer

import "image"

// Enhancer produces a contrast-enhanced copy of an intensity image.
type Enhancer interface {
	Enhance(img *image.Gray, clipLimit float64, tileSize int) (*image.Gray, error)
}

// ShadowDetector runs the independent PSR detection methods over the
// enhanced image. Each method returns a fresh mask and never mutates its
// input.
type ShadowDetector interface {
	DetectBasic(img *image.Gray, threshold int) (*Mask, error)
	DetectAdaptive(img *image.Gray, blockSize int, c float64) (*Mask, error)
	DetectEdges(img *image.Gray, sigma float64) (*Mask, error)
}

// TerrainAnalyzer extracts peaks, valleys and the roughness map.
type TerrainAnalyzer interface {
	AnalyzeTerrain(img *image.Gray, minDistance, window int) (*FeatureSet, error)
}

// StatsCalculator summarizes a run over the original image and the masks.
type StatsCalculator interface {
	ComputeStats(original, enhanced *image.Gray, masks map[Method]*Mask) (*StatRecord, error)
}

// Pipeline sequences enhancement, detection, terrain analysis and statistics
// into one report.
type Pipeline interface {
	Run(img *image.Gray, params Params) (*AnalysisReport, error)
	RunSelection(img *image.Gray, params Params, sel Selection) (*AnalysisReport, error)
}
