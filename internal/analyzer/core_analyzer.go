package analyzer

import "image"

// corePipeline wires the stages together and owns the fixed execution
// order: enhance → detect (three independent methods) → terrain → stats.
// It holds no state across runs; every run works on freshly allocated
// images, so concurrent runs need no locking.
type corePipeline struct {
	enhancer Enhancer
	detector ShadowDetector
	terrain  TerrainAnalyzer
	stats    StatsCalculator
}

// NewPipeline creates a pipeline with the standard stage implementations.
func NewPipeline() Pipeline {
	return &corePipeline{
		enhancer: NewEnhancer(),
		detector: NewShadowDetector(),
		terrain:  NewTerrainAnalyzer(),
		stats:    NewStatsCalculator(),
	}
}

// Run executes every stage and assembles the full report.
func (p *corePipeline) Run(img *image.Gray, params Params) (*AnalysisReport, error) {
	return p.RunSelection(img, params, FullSelection())
}

// RunSelection executes the selected stages. Parameters are validated in
// full before any stage runs, so an invalid configuration rejects the whole
// run with no partial work. Detectors run independently on the same enhanced
// image; leaving one out never changes another's output.
func (p *corePipeline) RunSelection(img *image.Gray, params Params, sel Selection) (*AnalysisReport, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := validateGray("run_analysis", img); err != nil {
		return nil, err
	}

	original := cloneGray(img)
	enhanced, err := p.enhancer.Enhance(original, params.ClipLimit, params.TileSize)
	if err != nil {
		return nil, err
	}

	masks := make(map[Method]*Mask, 3)
	if sel.Basic {
		mask, err := p.detector.DetectBasic(enhanced, params.BasicThreshold)
		if err != nil {
			return nil, err
		}
		masks[MethodBasic] = mask
	}
	if sel.Adaptive {
		mask, err := p.detector.DetectAdaptive(enhanced, params.AdaptiveBlock, params.AdaptiveC)
		if err != nil {
			return nil, err
		}
		masks[MethodAdaptive] = mask
	}
	if sel.Edges {
		mask, err := p.detector.DetectEdges(enhanced, params.EdgeSigma)
		if err != nil {
			return nil, err
		}
		masks[MethodEdges] = mask
	}

	var features *FeatureSet
	if sel.Terrain {
		features, err = p.terrain.AnalyzeTerrain(enhanced, params.PeakMinDistance, params.RoughnessWindow)
		if err != nil {
			return nil, err
		}
	}

	stats, err := p.stats.ComputeStats(original, enhanced, masks)
	if err != nil {
		return nil, err
	}

	return &AnalysisReport{
		Original: original,
		Enhanced: enhanced,
		Masks:    masks,
		Features: features,
		Stats:    stats,
		Params:   params,
	}, nil
}
