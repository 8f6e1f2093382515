package validation

import "testing"

func safeMetrics() TerrainMetrics {
	return TerrainMetrics{
		MeanRoughness:  10.0,
		MaxRoughness:   22.0,
		ShadowCoverage: 12.5,
		EdgeCoverage:   0.0,
		PeakCount:      4,
		Width:          100,
		Height:         100,
	}
}

func TestValidateSafeSiteHasNoIssues(t *testing.T) {
	lv := NewLandingValidator()
	issues := lv.Validate(safeMetrics())
	if len(issues) != 0 {
		t.Fatalf("Expected no issues for a safe site, got %v", issues)
	}
	if lv.HasCriticalIssues(issues) {
		t.Error("Expected no critical issues")
	}
	if score := lv.Score(issues); score != 100 {
		t.Errorf("Score = %d, want 100", score)
	}
	if grade := lv.Grade(lv.Score(issues)); grade != "A" {
		t.Errorf("Grade = %s, want A", grade)
	}
}

func TestValidateUnsafeRoughnessAndEdges(t *testing.T) {
	lv := NewLandingValidator()
	metrics := safeMetrics()
	metrics.MeanRoughness = 100.0
	metrics.EdgeCoverage = 60.0

	issues := lv.Validate(metrics)
	if len(issues) != 2 {
		t.Fatalf("Expected 2 issues, got %d: %v", len(issues), issues)
	}

	byType := map[string]LandingIssue{}
	for _, issue := range issues {
		byType[issue.Type] = issue
	}
	rough, ok := byType["terrain_roughness"]
	if !ok || rough.Severity != "error" {
		t.Errorf("Expected terrain_roughness error, got %+v", rough)
	}
	if rough.ActualValue != 100.0 || rough.Threshold != 50.0 {
		t.Errorf("terrain_roughness values = %v/%v, want 100/50", rough.ActualValue, rough.Threshold)
	}
	edges, ok := byType["edge_density"]
	if !ok || edges.Severity != "error" {
		t.Errorf("Expected edge_density error, got %+v", edges)
	}

	if !lv.HasCriticalIssues(issues) {
		t.Error("Expected critical issues")
	}
	if score := lv.Score(issues); score != 50 {
		t.Errorf("Score = %d, want 50", score)
	}
	if grade := lv.Grade(lv.Score(issues)); grade != "F" {
		t.Errorf("Grade = %s, want F", grade)
	}
}

func TestValidateWarningBandKeepsSiteLandable(t *testing.T) {
	lv := NewLandingValidator()
	metrics := safeMetrics()
	metrics.MeanRoughness = 30.0  // between warn (25) and unsafe (50)
	metrics.ShadowCoverage = 45.0 // between warn (40) and unsafe (60)

	issues := lv.Validate(metrics)
	if len(issues) != 2 {
		t.Fatalf("Expected 2 warnings, got %d: %v", len(issues), issues)
	}
	for _, issue := range issues {
		if issue.Severity != "warning" {
			t.Errorf("Expected warning severity, got %+v", issue)
		}
	}
	if lv.HasCriticalIssues(issues) {
		t.Error("Warnings alone should not be critical")
	}
	if score := lv.Score(issues); score != 80 {
		t.Errorf("Score = %d, want 80", score)
	}
	if grade := lv.Grade(lv.Score(issues)); grade != "B" {
		t.Errorf("Grade = %s, want B", grade)
	}
}

func TestValidateThresholdBoundariesPass(t *testing.T) {
	lv := NewLandingValidator()
	metrics := safeMetrics()
	// Values exactly at the warning limit do not trigger issues.
	metrics.MeanRoughness = 25.0
	metrics.ShadowCoverage = 40.0
	metrics.EdgeCoverage = 15.0

	if issues := lv.Validate(metrics); len(issues) != 0 {
		t.Errorf("Expected boundary values to pass, got %v", issues)
	}
}

func TestPeakDensity(t *testing.T) {
	m := TerrainMetrics{PeakCount: 30, Width: 100, Height: 100}
	if got := m.PeakDensity(); got != 30.0 {
		t.Errorf("PeakDensity = %v, want 30 per 10000 px", got)
	}
	empty := TerrainMetrics{PeakCount: 5}
	if got := empty.PeakDensity(); got != 0 {
		t.Errorf("PeakDensity on empty image = %v, want 0", got)
	}
}

func TestPeakDensityTriggersIssues(t *testing.T) {
	lv := NewLandingValidator()
	metrics := safeMetrics()
	metrics.PeakCount = 250 // 25 per 10000 px, above unsafe (20)

	issues := lv.Validate(metrics)
	if len(issues) != 1 || issues[0].Type != "peak_density" || issues[0].Severity != "error" {
		t.Fatalf("Expected one peak_density error, got %v", issues)
	}
}

func TestScoreFloorsAtZero(t *testing.T) {
	lv := NewLandingValidator()
	issues := []LandingIssue{
		{Severity: "error"}, {Severity: "error"}, {Severity: "error"},
		{Severity: "error"}, {Severity: "warning"}, {Severity: "warning"},
	}
	if score := lv.Score(issues); score != 0 {
		t.Errorf("Score = %d, want 0", score)
	}
}

func TestGradeBands(t *testing.T) {
	lv := NewLandingValidator()
	tests := []struct {
		score int
		want  string
	}{
		{100, "A"}, {90, "A"}, {89, "B"}, {80, "B"},
		{79, "C"}, {70, "C"}, {69, "D"}, {60, "D"}, {59, "F"}, {0, "F"},
	}
	for _, tt := range tests {
		if got := lv.Grade(tt.score); got != tt.want {
			t.Errorf("Grade(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestCustomThresholds(t *testing.T) {
	thresholds := DefaultLandingThresholds()
	thresholds.MaxMeanRoughness = 5.0
	thresholds.WarnMeanRoughness = 2.0
	lv := NewLandingValidatorWithThresholds(thresholds)

	metrics := safeMetrics() // MeanRoughness 10 now exceeds the custom limit
	issues := lv.Validate(metrics)
	found := false
	for _, issue := range issues {
		if issue.Type == "terrain_roughness" && issue.Severity == "error" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected terrain_roughness error under custom thresholds, got %v", issues)
	}
}
