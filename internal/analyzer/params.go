package analyzer

import (
	"fmt"

	apperrors "go-psr-analyzer/internal/errors"
)

// Params holds every tunable of the analysis pipeline. JSON names match the
// public API. All values are validated once, before any stage runs; the
// pipeline never clamps an out-of-range value silently.
//
// Valid ranges:
//
//	ClipLimit        (0, 100]        histogram clip factor
//	TileSize         [1, 64]         CLAHE tile grid per axis
//	BasicThreshold   [0, 255]        fixed shadow threshold
//	AdaptiveBlock    [3, 101], odd   adaptive local-mean window side
//	AdaptiveC        [0, 20]         adaptive mean offset
//	EdgeSigma        (0, 10]         gaussian std for edge smoothing
//	PeakMinDistance  [5, 50]         chebyshev radius between peaks
//	RoughnessWindow  [3, 99], odd    roughness window side
type Params struct {
	ClipLimit       float64 `json:"clahe_clip_limit"`
	TileSize        int     `json:"clahe_tile_size"`
	BasicThreshold  int     `json:"basic_threshold"`
	AdaptiveBlock   int     `json:"adaptive_block_size"`
	AdaptiveC       float64 `json:"adaptive_c"`
	EdgeSigma       float64 `json:"edge_sigma"`
	PeakMinDistance int     `json:"peak_min_distance"`
	RoughnessWindow int     `json:"roughness_size"`
}

// DefaultParams returns the documented defaults. The returned value is a
// fresh copy; callers may modify it freely.
func DefaultParams() Params {
	return Params{
		ClipLimit:       2.0,
		TileSize:        8,
		BasicThreshold:  50,
		AdaptiveBlock:   11,
		AdaptiveC:       2.0,
		EdgeSigma:       1.0,
		PeakMinDistance: 20,
		RoughnessWindow: 5,
	}
}

// Validate checks every parameter against its documented range, in field
// order, and returns a configuration error for the first violation.
func (p Params) Validate() error {
	if p.ClipLimit <= 0 || p.ClipLimit > 100 {
		return apperrors.NewConfigurationError("clahe_clip_limit",
			fmt.Sprintf("clip limit %.3f outside (0, 100]", p.ClipLimit))
	}
	if p.TileSize < 1 || p.TileSize > 64 {
		return apperrors.NewConfigurationError("clahe_tile_size",
			fmt.Sprintf("tile grid %d outside [1, 64]", p.TileSize))
	}
	if p.BasicThreshold < 0 || p.BasicThreshold > 255 {
		return apperrors.NewConfigurationError("basic_threshold",
			fmt.Sprintf("threshold %d outside [0, 255]", p.BasicThreshold))
	}
	if p.AdaptiveBlock < 3 || p.AdaptiveBlock > 101 {
		return apperrors.NewConfigurationError("adaptive_block_size",
			fmt.Sprintf("block size %d outside [3, 101]", p.AdaptiveBlock))
	}
	if p.AdaptiveBlock%2 == 0 {
		return apperrors.NewConfigurationError("adaptive_block_size",
			fmt.Sprintf("block size %d must be odd", p.AdaptiveBlock))
	}
	if p.AdaptiveC < 0 || p.AdaptiveC > 20 {
		return apperrors.NewConfigurationError("adaptive_c",
			fmt.Sprintf("constant %.3f outside [0, 20]", p.AdaptiveC))
	}
	if p.EdgeSigma <= 0 || p.EdgeSigma > 10 {
		return apperrors.NewConfigurationError("edge_sigma",
			fmt.Sprintf("sigma %.3f outside (0, 10]", p.EdgeSigma))
	}
	if p.PeakMinDistance < 5 || p.PeakMinDistance > 50 {
		return apperrors.NewConfigurationError("peak_min_distance",
			fmt.Sprintf("distance %d outside [5, 50]", p.PeakMinDistance))
	}
	if p.RoughnessWindow < 3 || p.RoughnessWindow > 99 {
		return apperrors.NewConfigurationError("roughness_size",
			fmt.Sprintf("window %d outside [3, 99]", p.RoughnessWindow))
	}
	if p.RoughnessWindow%2 == 0 {
		return apperrors.NewConfigurationError("roughness_size",
			fmt.Sprintf("window %d must be odd", p.RoughnessWindow))
	}
	return nil
}

// Selection names the pipeline stages a run should execute. Enhancement
// always runs; detectors and the terrain stage are individually selectable
// for preview responsiveness. Selecting a subset never changes the numeric
// output of the stages that do run.
type Selection struct {
	Basic    bool
	Adaptive bool
	Edges    bool
	Terrain  bool
}

// FullSelection selects every stage.
func FullSelection() Selection {
	return Selection{Basic: true, Adaptive: true, Edges: true, Terrain: true}
}

// SelectMethod returns a selection running only the given detection method.
func SelectMethod(m Method) Selection {
	switch m {
	case MethodBasic:
		return Selection{Basic: true}
	case MethodAdaptive:
		return Selection{Adaptive: true}
	case MethodEdges:
		return Selection{Edges: true}
	default:
		return Selection{}
	}
}
