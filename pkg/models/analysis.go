package models

// Parameters is the request patch form of the pipeline configuration.
// Absent fields keep the documented defaults, so clients only send what they
// want to change.
type Parameters struct {
	ClaheClipLimit    *float64 `json:"clahe_clip_limit,omitempty"`
	ClaheTileSize     *int     `json:"clahe_tile_size,omitempty"`
	BasicThreshold    *int     `json:"basic_threshold,omitempty"`
	AdaptiveBlockSize *int     `json:"adaptive_block_size,omitempty"`
	AdaptiveC         *float64 `json:"adaptive_c,omitempty"`
	EdgeSigma         *float64 `json:"edge_sigma,omitempty"`
	PeakMinDistance   *int     `json:"peak_min_distance,omitempty"`
	RoughnessSize     *int     `json:"roughness_size,omitempty"`
}

// ParameterValues echoes the effective configuration a run used, with every
// field populated.
type ParameterValues struct {
	ClaheClipLimit    float64 `json:"clahe_clip_limit"`
	ClaheTileSize     int     `json:"clahe_tile_size"`
	BasicThreshold    int     `json:"basic_threshold"`
	AdaptiveBlockSize int     `json:"adaptive_block_size"`
	AdaptiveC         float64 `json:"adaptive_c"`
	EdgeSigma         float64 `json:"edge_sigma"`
	PeakMinDistance   int     `json:"peak_min_distance"`
	RoughnessSize     int     `json:"roughness_size"`
}

// ParameterRange documents the accepted interval for one parameter.
type ParameterRange struct {
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	MinOpen     bool    `json:"min_open,omitempty"`
	RequiresOdd bool    `json:"requires_odd,omitempty"`
}

// Point is an image coordinate in the response payload.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Statistics summarizes one analysis run. Intensity metrics describe the
// original image; coverage describes each detection method that ran.
type Statistics struct {
	MeanIntensity   float64            `json:"mean_intensity"`
	StdIntensity    float64            `json:"std_intensity"`
	MinIntensity    float64            `json:"min_intensity"`
	MaxIntensity    float64            `json:"max_intensity"`
	DynamicRange    float64            `json:"dynamic_range"`
	CoveragePercent map[string]float64 `json:"coverage_percent"`
	Degenerate      bool               `json:"degenerate,omitempty"`
}

// StatisticsRow is one metric of the tabular statistics export.
type StatisticsRow struct {
	Metric string  `json:"metric"`
	Value  float64 `json:"value"`
}

// TerrainSummary aggregates the terrain stage output.
type TerrainSummary struct {
	PeakCount     int     `json:"peak_count"`
	ValleyCount   int     `json:"valley_count"`
	MeanRoughness float64 `json:"mean_roughness"`
	MaxRoughness  float64 `json:"max_roughness"`
	Peaks         []Point `json:"peaks"`
	Valleys       []Point `json:"valleys"`
}

// LandingIssue is one failed or marginal landing-safety criterion.
type LandingIssue struct {
	Type        string  `json:"type"`
	Message     string  `json:"message"`
	Severity    string  `json:"severity"`
	ActualValue float64 `json:"actual_value"`
	Threshold   float64 `json:"threshold"`
}

// LandingAssessment grades the analyzed region as a candidate landing site.
// Landable is false when any issue has error severity.
type LandingAssessment struct {
	Grade    string         `json:"grade"`
	Score    int            `json:"score"`
	Landable bool           `json:"landable"`
	Issues   []LandingIssue `json:"issues"`
}

// ImageMetadata describes the resolved source image.
type ImageMetadata struct {
	Source        string `json:"source"`
	ContentType   string `json:"content_type,omitempty"`
	ContentLength int64  `json:"content_length,omitempty"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Format        string `json:"format,omitempty"`
}
