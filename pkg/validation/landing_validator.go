package validation

// LandingThresholds defines configurable thresholds for landing-site
// assessment. Each criterion has an unsafe limit and a lower warning limit.
type LandingThresholds struct {
	// Mean local roughness (standard deviation units)
	MaxMeanRoughness  float64
	WarnMeanRoughness float64

	// Shadow coverage from the basic detector, in percent
	MaxShadowCoverage  float64
	WarnShadowCoverage float64

	// Edge coverage from the edge detector, in percent
	MaxEdgeDensity  float64
	WarnEdgeDensity float64

	// Detected peaks per 10000 pixels
	MaxPeakDensity  float64
	WarnPeakDensity float64
}

// DefaultLandingThresholds returns the default landing thresholds
func DefaultLandingThresholds() LandingThresholds {
	return LandingThresholds{
		MaxMeanRoughness:   50.0,
		WarnMeanRoughness:  25.0,
		MaxShadowCoverage:  60.0,
		WarnShadowCoverage: 40.0,
		MaxEdgeDensity:     30.0,
		WarnEdgeDensity:    15.0,
		MaxPeakDensity:     20.0,
		WarnPeakDensity:    10.0,
	}
}

// LandingValidator scores analysis results against landing-site criteria
type LandingValidator struct {
	thresholds LandingThresholds
}

// NewLandingValidator creates a landing validator with default thresholds
func NewLandingValidator() *LandingValidator {
	return &LandingValidator{
		thresholds: DefaultLandingThresholds(),
	}
}

// NewLandingValidatorWithThresholds creates a landing validator with custom thresholds
func NewLandingValidatorWithThresholds(thresholds LandingThresholds) *LandingValidator {
	return &LandingValidator{
		thresholds: thresholds,
	}
}

// LandingIssue represents one degraded or failed landing criterion
type LandingIssue struct {
	Type        string  `json:"type"`
	Message     string  `json:"message"`
	Severity    string  `json:"severity"` // "error", "warning"
	ActualValue float64 `json:"actual_value,omitempty"`
	Threshold   float64 `json:"threshold,omitempty"`
}

// TerrainMetrics carries the analysis numbers the landing assessment scores
type TerrainMetrics struct {
	MeanRoughness  float64
	MaxRoughness   float64
	ShadowCoverage float64 // percent, basic detector
	EdgeCoverage   float64 // percent, edge detector
	PeakCount      int
	Width          int
	Height         int
}

// PeakDensity returns detected peaks per 10000 pixels.
func (m TerrainMetrics) PeakDensity() float64 {
	pixels := m.Width * m.Height
	if pixels == 0 {
		return 0
	}
	return float64(m.PeakCount) / float64(pixels) * 10000
}

// Validate scores the metrics against every landing criterion. Values above
// the unsafe limit produce an error issue, values above the warning limit a
// warning; values at or below the warning limit pass.
func (lv *LandingValidator) Validate(metrics TerrainMetrics) []LandingIssue {
	var issues []LandingIssue

	issues = appendBandIssue(issues, "terrain_roughness", metrics.MeanRoughness,
		lv.thresholds.WarnMeanRoughness, lv.thresholds.MaxMeanRoughness,
		"Terrain roughness is too high for a safe landing.",
		"Terrain roughness is elevated; expect a degraded touchdown margin.")

	issues = appendBandIssue(issues, "shadow_coverage", metrics.ShadowCoverage,
		lv.thresholds.WarnShadowCoverage, lv.thresholds.MaxShadowCoverage,
		"Permanently shadowed area dominates the site.",
		"Large permanently shadowed area; solar power will be limited.")

	issues = appendBandIssue(issues, "edge_density", metrics.EdgeCoverage,
		lv.thresholds.WarnEdgeDensity, lv.thresholds.MaxEdgeDensity,
		"Edge density indicates heavily cratered or fractured terrain.",
		"Elevated edge density; the site borders rough structures.")

	issues = appendBandIssue(issues, "peak_density", metrics.PeakDensity(),
		lv.thresholds.WarnPeakDensity, lv.thresholds.MaxPeakDensity,
		"Too many local peaks for a safe descent corridor.",
		"Several local peaks near the site; approach planning required.")

	return issues
}

// appendBandIssue classifies value against a warn/unsafe band.
func appendBandIssue(issues []LandingIssue, criterion string, value, warn, unsafe float64, errMsg, warnMsg string) []LandingIssue {
	switch {
	case value > unsafe:
		return append(issues, LandingIssue{
			Type:        criterion,
			Message:     errMsg,
			Severity:    "error",
			ActualValue: value,
			Threshold:   unsafe,
		})
	case value > warn:
		return append(issues, LandingIssue{
			Type:        criterion,
			Message:     warnMsg,
			Severity:    "warning",
			ActualValue: value,
			Threshold:   warn,
		})
	default:
		return issues
	}
}

// HasCriticalIssues checks if there are any critical (error severity) issues
func (lv *LandingValidator) HasCriticalIssues(issues []LandingIssue) bool {
	for _, issue := range issues {
		if issue.Severity == "error" {
			return true
		}
	}
	return false
}

// Score converts the issue list into a 0-100 suitability score
func (lv *LandingValidator) Score(issues []LandingIssue) int {
	score := 100
	for _, issue := range issues {
		switch issue.Severity {
		case "error":
			score -= 25
		case "warning":
			score -= 10
		}
	}
	if score < 0 {
		score = 0
	}
	return score
}

// Grade maps a suitability score onto the A-F scale
func (lv *LandingValidator) Grade(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}
