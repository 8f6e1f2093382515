package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"go-psr-analyzer/internal/analyzer"
	"go-psr-analyzer/internal/render"
	"go-psr-analyzer/pkg/models"
	"go-psr-analyzer/pkg/validation"
)

// ReportBuilder maps pipeline reports onto the transport payloads: response
// DTOs, rendered panels and export artifacts.
type ReportBuilder struct {
	renderer render.Renderer
	landing  *validation.LandingValidator
}

// NewReportBuilder creates a report builder over the given renderer and
// landing validator.
func NewReportBuilder(renderer render.Renderer, landing *validation.LandingValidator) *ReportBuilder {
	return &ReportBuilder{
		renderer: renderer,
		landing:  landing,
	}
}

// methodKey maps an internal detector name onto its wire name. The basic
// detector is exposed as "threshold", matching its panel.
func methodKey(m analyzer.Method) string {
	if m == analyzer.MethodBasic {
		return "threshold"
	}
	return string(m)
}

// MergeParameters overlays a request patch onto the base configuration.
func MergeParameters(base analyzer.Params, patch *models.Parameters) analyzer.Params {
	if patch == nil {
		return base
	}
	if patch.ClaheClipLimit != nil {
		base.ClipLimit = *patch.ClaheClipLimit
	}
	if patch.ClaheTileSize != nil {
		base.TileSize = *patch.ClaheTileSize
	}
	if patch.BasicThreshold != nil {
		base.BasicThreshold = *patch.BasicThreshold
	}
	if patch.AdaptiveBlockSize != nil {
		base.AdaptiveBlock = *patch.AdaptiveBlockSize
	}
	if patch.AdaptiveC != nil {
		base.AdaptiveC = *patch.AdaptiveC
	}
	if patch.EdgeSigma != nil {
		base.EdgeSigma = *patch.EdgeSigma
	}
	if patch.PeakMinDistance != nil {
		base.PeakMinDistance = *patch.PeakMinDistance
	}
	if patch.RoughnessSize != nil {
		base.RoughnessWindow = *patch.RoughnessSize
	}
	return base
}

// ParameterValues echoes the effective configuration of a run.
func ParameterValues(p analyzer.Params) models.ParameterValues {
	return models.ParameterValues{
		ClaheClipLimit:    p.ClipLimit,
		ClaheTileSize:     p.TileSize,
		BasicThreshold:    p.BasicThreshold,
		AdaptiveBlockSize: p.AdaptiveBlock,
		AdaptiveC:         p.AdaptiveC,
		EdgeSigma:         p.EdgeSigma,
		PeakMinDistance:   p.PeakMinDistance,
		RoughnessSize:     p.RoughnessWindow,
	}
}

// ParameterRanges documents the accepted interval per parameter, keyed by
// JSON name.
func ParameterRanges() map[string]models.ParameterRange {
	return map[string]models.ParameterRange{
		"clahe_clip_limit":    {Min: 0, Max: 100, MinOpen: true},
		"clahe_tile_size":     {Min: 1, Max: 64},
		"basic_threshold":     {Min: 0, Max: 255},
		"adaptive_block_size": {Min: 3, Max: 101, RequiresOdd: true},
		"adaptive_c":          {Min: 0, Max: 20},
		"edge_sigma":          {Min: 0, Max: 10, MinOpen: true},
		"peak_min_distance":   {Min: 5, Max: 50},
		"roughness_size":      {Min: 3, Max: 99, RequiresOdd: true},
	}
}

// Statistics converts the pipeline record into the transport statistics.
func Statistics(rec *analyzer.StatRecord) models.Statistics {
	out := models.Statistics{
		MeanIntensity: rec.MeanIntensity,
		StdIntensity:  rec.StdIntensity,
		MinIntensity:  rec.MinIntensity,
		MaxIntensity:  rec.MaxIntensity,
		DynamicRange:  rec.DynamicRange,
		Degenerate:    rec.Degenerate,
	}
	if len(rec.CoveragePercent) > 0 {
		out.CoveragePercent = make(map[string]float64, len(rec.CoveragePercent))
		for m, cov := range rec.CoveragePercent {
			out.CoveragePercent[methodKey(m)] = cov
		}
	}
	return out
}

// StatisticsRows flattens the transport statistics into the tabular export,
// coverage rows in canonical method order.
func StatisticsRows(stats models.Statistics) []models.StatisticsRow {
	rows := []models.StatisticsRow{
		{Metric: "mean_intensity", Value: stats.MeanIntensity},
		{Metric: "std_intensity", Value: stats.StdIntensity},
		{Metric: "min_intensity", Value: stats.MinIntensity},
		{Metric: "max_intensity", Value: stats.MaxIntensity},
		{Metric: "dynamic_range", Value: stats.DynamicRange},
	}
	for _, m := range analyzer.AllMethods() {
		key := methodKey(m)
		if cov, ok := stats.CoveragePercent[key]; ok {
			rows = append(rows, models.StatisticsRow{Metric: key + "_coverage_percent", Value: cov})
		}
	}
	return rows
}

// TerrainSummary aggregates the terrain stage output; nil when the stage did
// not run.
func TerrainSummary(features *analyzer.FeatureSet) *models.TerrainSummary {
	if features == nil || features.Roughness == nil {
		return nil
	}
	_, maxRough := features.Roughness.MinMax()
	summary := &models.TerrainSummary{
		PeakCount:     len(features.Peaks),
		ValleyCount:   len(features.Valleys),
		MeanRoughness: round4(stat.Mean(features.Roughness.Data, nil)),
		MaxRoughness:  round4(maxRough),
		Peaks:         make([]models.Point, len(features.Peaks)),
		Valleys:       make([]models.Point, len(features.Valleys)),
	}
	for i, p := range features.Peaks {
		summary.Peaks[i] = models.Point{X: p.X, Y: p.Y}
	}
	for i, p := range features.Valleys {
		summary.Valleys[i] = models.Point{X: p.X, Y: p.Y}
	}
	return summary
}

// LandingAssessment scores the report against the landing criteria; nil when
// the report lacks the terrain stage.
func (b *ReportBuilder) LandingAssessment(report *analyzer.AnalysisReport) *models.LandingAssessment {
	if report.Features == nil || report.Features.Roughness == nil || report.Stats == nil {
		return nil
	}

	metrics := validation.TerrainMetrics{
		PeakCount: len(report.Features.Peaks),
		Width:     report.Original.Bounds().Dx(),
		Height:    report.Original.Bounds().Dy(),
	}
	metrics.MeanRoughness = stat.Mean(report.Features.Roughness.Data, nil)
	_, metrics.MaxRoughness = report.Features.Roughness.MinMax()
	metrics.ShadowCoverage = report.Stats.CoveragePercent[analyzer.MethodBasic]
	metrics.EdgeCoverage = report.Stats.CoveragePercent[analyzer.MethodEdges]

	issues := b.landing.Validate(metrics)
	score := b.landing.Score(issues)

	assessment := &models.LandingAssessment{
		Grade:    b.landing.Grade(score),
		Score:    score,
		Landable: !b.landing.HasCriticalIssues(issues),
		Issues:   make([]models.LandingIssue, len(issues)),
	}
	for i, issue := range issues {
		assessment.Issues[i] = models.LandingIssue{
			Type:        issue.Type,
			Message:     issue.Message,
			Severity:    issue.Severity,
			ActualValue: issue.ActualValue,
			Threshold:   issue.Threshold,
		}
	}
	return assessment
}

// Panels renders every panel of a full report concurrently and returns them
// base64-encoded, keyed by panel name.
func (b *ReportBuilder) Panels(ctx context.Context, report *analyzer.AnalysisReport) (map[string]string, error) {
	panels := render.AllPanels()
	encoded := make([]string, len(panels))

	g, gctx := errgroup.WithContext(ctx)
	for i, panel := range panels {
		i, panel := i, panel
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, err := b.encodePanel(panel, report)
			if err != nil {
				return err
			}
			encoded[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(panels))
	for i, panel := range panels {
		out[string(panel)] = encoded[i]
	}
	return out, nil
}

func (b *ReportBuilder) encodePanel(panel render.Panel, report *analyzer.AnalysisReport) (string, error) {
	img, err := b.renderer.RenderPanel(panel, report)
	if err != nil {
		return "", err
	}
	data, err := render.EncodePNG(img)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// BuildAnalyzeResponse assembles the full analysis payload.
func (b *ReportBuilder) BuildAnalyzeResponse(ctx context.Context, imageRef string, meta models.ImageMetadata, report *analyzer.AnalysisReport, elapsed time.Duration, omitPanels bool) (*models.AnalyzeResponse, error) {
	response := &models.AnalyzeResponse{
		ImageRef:          imageRef,
		Timestamp:         time.Now().UTC().Format(time.RFC3339),
		ProcessingTimeSec: elapsed.Seconds(),
		ImageMetadata:     meta,
		Parameters:        ParameterValues(report.Params),
		Statistics:        Statistics(report.Stats),
		Terrain:           TerrainSummary(report.Features),
		LandingAssessment: b.LandingAssessment(report),
	}

	if !omitPanels {
		panels, err := b.Panels(ctx, report)
		if err != nil {
			return nil, err
		}
		response.Visualizations = panels
	}
	return response, nil
}

// BuildPreviewResponse assembles a single-panel payload from a subset run.
func (b *ReportBuilder) BuildPreviewResponse(imageRef string, panel render.Panel, report *analyzer.AnalysisReport, elapsed time.Duration) (*models.PreviewResponse, error) {
	encoded, err := b.encodePanel(panel, report)
	if err != nil {
		return nil, err
	}

	response := &models.PreviewResponse{
		Panel:             string(panel),
		ImageRef:          imageRef,
		Timestamp:         time.Now().UTC().Format(time.RFC3339),
		ProcessingTimeSec: elapsed.Seconds(),
		Visualization:     encoded,
	}
	if report.Stats != nil {
		stats := Statistics(report.Stats)
		response.Statistics = &stats
	}
	return response, nil
}

// exportStatistics is the statistics.json artifact layout.
type exportStatistics struct {
	Statistics models.Statistics         `json:"statistics"`
	Rows       []models.StatisticsRow    `json:"rows"`
	Terrain    *models.TerrainSummary    `json:"terrain,omitempty"`
	Landing    *models.LandingAssessment `json:"landing_assessment,omitempty"`
	Parameters models.ParameterValues    `json:"parameters"`
}

// BuildExportArtifacts renders the captioned composite PNG and the
// statistics.json document for a full report.
func (b *ReportBuilder) BuildExportArtifacts(report *analyzer.AnalysisReport) (composite []byte, statsJSON []byte, err error) {
	img, err := render.BuildComposite(b.renderer, report)
	if err != nil {
		return nil, nil, err
	}
	composite, err = render.EncodePNG(img)
	if err != nil {
		return nil, nil, err
	}

	stats := Statistics(report.Stats)
	doc := exportStatistics{
		Statistics: stats,
		Rows:       StatisticsRows(stats),
		Terrain:    TerrainSummary(report.Features),
		Landing:    b.LandingAssessment(report),
		Parameters: ParameterValues(report.Params),
	}
	statsJSON, err = json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal statistics: %w", err)
	}
	return composite, statsJSON, nil
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
