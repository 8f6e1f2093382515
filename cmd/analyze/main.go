package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"text/tabwriter"

	_ "golang.org/x/image/webp"

	"go-psr-analyzer/internal/analyzer"
	"go-psr-analyzer/internal/render"
	"go-psr-analyzer/internal/repository"
	"go-psr-analyzer/pkg/services"
	"go-psr-analyzer/pkg/validation"
)

func main() {
	defaults := analyzer.DefaultParams()

	input := flag.String("input", "", "path to the source image (png, jpeg or webp)")
	outDir := flag.String("out", ".", "directory for the analysis artifacts")
	clipLimit := flag.Float64("clip-limit", defaults.ClipLimit, "CLAHE clip limit")
	tileSize := flag.Int("tile-size", defaults.TileSize, "CLAHE tile grid per axis")
	threshold := flag.Int("threshold", defaults.BasicThreshold, "basic shadow threshold")
	adaptiveBlock := flag.Int("adaptive-block", defaults.AdaptiveBlock, "adaptive threshold window (odd)")
	adaptiveC := flag.Float64("adaptive-c", defaults.AdaptiveC, "adaptive threshold offset")
	edgeSigma := flag.Float64("edge-sigma", defaults.EdgeSigma, "gaussian sigma for edge detection")
	peakDistance := flag.Int("peak-distance", defaults.PeakMinDistance, "minimum distance between peaks")
	roughnessSize := flag.Int("roughness-size", defaults.RoughnessWindow, "roughness window (odd)")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "psr-analyze: -input is required")
		flag.Usage()
		os.Exit(2)
	}

	params := analyzer.Params{
		ClipLimit:       *clipLimit,
		TileSize:        *tileSize,
		BasicThreshold:  *threshold,
		AdaptiveBlock:   *adaptiveBlock,
		AdaptiveC:       *adaptiveC,
		EdgeSigma:       *edgeSigma,
		PeakMinDistance: *peakDistance,
		RoughnessWindow: *roughnessSize,
	}

	if err := run(*input, *outDir, params); err != nil {
		fmt.Fprintf(os.Stderr, "psr-analyze: %v\n", err)
		os.Exit(1)
	}
}

func run(input, outDir string, params analyzer.Params) error {
	f, err := os.Open(input)
	if err != nil {
		return err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", input, err)
	}
	gray := repository.ToGray(src)

	report, err := analyzer.NewPipeline().Run(gray, params)
	if err != nil {
		return err
	}

	builder := services.NewReportBuilder(render.NewRenderer(), validation.NewLandingValidator())
	composite, statsJSON, err := builder.BuildExportArtifacts(report)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	imagePath := filepath.Join(outDir, "analysis_result.png")
	statsPath := filepath.Join(outDir, "statistics.json")
	if err := os.WriteFile(imagePath, composite, 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(statsPath, statsJSON, 0o644); err != nil {
		return err
	}

	printReport(report, builder)
	fmt.Printf("\nwrote %s\nwrote %s\n", imagePath, statsPath)
	return nil
}

func printReport(report *analyzer.AnalysisReport, builder *services.ReportBuilder) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, row := range services.StatisticsRows(services.Statistics(report.Stats)) {
		fmt.Fprintf(w, "%s\t%.2f\n", row.Metric, row.Value)
	}
	if summary := services.TerrainSummary(report.Features); summary != nil {
		fmt.Fprintf(w, "peak_count\t%d\n", summary.PeakCount)
		fmt.Fprintf(w, "valley_count\t%d\n", summary.ValleyCount)
		fmt.Fprintf(w, "mean_roughness\t%.4f\n", summary.MeanRoughness)
		fmt.Fprintf(w, "max_roughness\t%.4f\n", summary.MaxRoughness)
	}
	w.Flush()

	if assessment := builder.LandingAssessment(report); assessment != nil {
		fmt.Printf("\nlanding grade %s (score %d, landable %t)\n",
			assessment.Grade, assessment.Score, assessment.Landable)
		for _, issue := range assessment.Issues {
			fmt.Printf("  [%s] %s\n", issue.Severity, issue.Message)
		}
	}
}
