package render

import (
	"image"

	"go-psr-analyzer/internal/analyzer"
	apperrors "go-psr-analyzer/internal/errors"
)

// Panel identifies one renderable view of an analysis report.
type Panel string

const (
	PanelOriginal  Panel = "original"
	PanelEnhanced  Panel = "enhanced"
	PanelThreshold Panel = "threshold"
	PanelAdaptive  Panel = "adaptive"
	PanelEdges     Panel = "edges"
	PanelRoughness Panel = "roughness"
)

// AllPanels returns every panel in composite display order.
func AllPanels() []Panel {
	return []Panel{PanelOriginal, PanelEnhanced, PanelThreshold, PanelAdaptive, PanelEdges, PanelRoughness}
}

// ParsePanel maps a request path segment to a panel.
func ParsePanel(s string) (Panel, error) {
	p := Panel(s)
	for _, known := range AllPanels() {
		if p == known {
			return p, nil
		}
	}
	return "", apperrors.NewConfigurationError("panel", "unknown panel "+s)
}

// Caption returns the label drawn above the panel in composites.
func (p Panel) Caption() string {
	switch p {
	case PanelOriginal:
		return "Original Image"
	case PanelEnhanced:
		return "Enhanced (CLAHE)"
	case PanelThreshold:
		return "Basic Threshold PSR"
	case PanelAdaptive:
		return "Adaptive Threshold PSR"
	case PanelEdges:
		return "Edge Detection"
	case PanelRoughness:
		return "Surface Roughness"
	default:
		return string(p)
	}
}

// Selection returns the pipeline stages the panel needs.
func (p Panel) Selection() analyzer.Selection {
	switch p {
	case PanelThreshold:
		return analyzer.Selection{Basic: true}
	case PanelAdaptive:
		return analyzer.Selection{Adaptive: true}
	case PanelEdges:
		return analyzer.Selection{Edges: true}
	case PanelRoughness:
		return analyzer.Selection{Terrain: true}
	default:
		return analyzer.Selection{}
	}
}

// Renderer turns analysis reports into display images.
type Renderer interface {
	RenderPanel(panel Panel, report *analyzer.AnalysisReport) (*image.NRGBA, error)
}

type renderFunc func(*analyzer.AnalysisReport) (*image.NRGBA, error)

// panelRenderer dispatches panels through a fixed registry.
type panelRenderer struct {
	registry map[Panel]renderFunc
	viridis  Palette
}

// NewRenderer creates the standard panel renderer.
func NewRenderer() Renderer {
	r := &panelRenderer{viridis: ViridisPalette()}
	r.registry = map[Panel]renderFunc{
		PanelOriginal:  r.renderOriginal,
		PanelEnhanced:  r.renderEnhanced,
		PanelThreshold: r.maskPanel(analyzer.MethodBasic, HotPalette()),
		PanelAdaptive:  r.maskPanel(analyzer.MethodAdaptive, HotPalette()),
		PanelEdges:     r.maskPanel(analyzer.MethodEdges, GrayPalette()),
		PanelRoughness: r.renderRoughness,
	}
	return r
}

func (r *panelRenderer) RenderPanel(panel Panel, report *analyzer.AnalysisReport) (*image.NRGBA, error) {
	fn, ok := r.registry[panel]
	if !ok {
		return nil, apperrors.NewConfigurationError("panel", "unknown panel "+string(panel))
	}
	if report == nil {
		return nil, apperrors.NewProcessingError("no report to render", nil)
	}
	return fn(report)
}

func (r *panelRenderer) renderOriginal(report *analyzer.AnalysisReport) (*image.NRGBA, error) {
	if report.Original == nil {
		return nil, apperrors.NewProcessingError("report has no original image", nil)
	}
	return grayToNRGBA(report.Original), nil
}

func (r *panelRenderer) renderEnhanced(report *analyzer.AnalysisReport) (*image.NRGBA, error) {
	if report.Enhanced == nil {
		return nil, apperrors.NewProcessingError("report has no enhanced image", nil)
	}
	return grayToNRGBA(report.Enhanced), nil
}

// maskPanel builds a renderer that paints the method's binary mask through
// the palette: detections at the top of the ramp, background at the bottom.
func (r *panelRenderer) maskPanel(method analyzer.Method, palette Palette) renderFunc {
	return func(report *analyzer.AnalysisReport) (*image.NRGBA, error) {
		mask, ok := report.Masks[method]
		if !ok {
			return nil, apperrors.NewProcessingError("report has no "+string(method)+" mask", nil)
		}
		lo, hi := palette.At(0), palette.At(1)
		out := image.NewNRGBA(image.Rect(0, 0, mask.Width, mask.Height))
		for y := 0; y < mask.Height; y++ {
			for x := 0; x < mask.Width; x++ {
				c := lo
				if mask.At(x, y) {
					c = hi
				}
				i := out.PixOffset(x, y)
				out.Pix[i+0] = c.R
				out.Pix[i+1] = c.G
				out.Pix[i+2] = c.B
				out.Pix[i+3] = 255
			}
		}
		return out, nil
	}
}

// renderRoughness paints the roughness map through the viridis table,
// normalized to the map's own min/max range.
func (r *panelRenderer) renderRoughness(report *analyzer.AnalysisReport) (*image.NRGBA, error) {
	if report.Features == nil || report.Features.Roughness == nil {
		return nil, apperrors.NewProcessingError("report has no roughness map", nil)
	}
	rough := report.Features.Roughness
	lo, hi := rough.MinMax()
	span := hi - lo
	lut := r.viridis.Table()

	out := image.NewNRGBA(image.Rect(0, 0, rough.Width, rough.Height))
	for y := 0; y < rough.Height; y++ {
		for x := 0; x < rough.Width; x++ {
			t := 0.0
			if span > 0 {
				t = (rough.At(x, y) - lo) / span
			}
			c := lut[int(t*255+0.5)]
			i := out.PixOffset(x, y)
			out.Pix[i+0] = c.R
			out.Pix[i+1] = c.G
			out.Pix[i+2] = c.B
			out.Pix[i+3] = 255
		}
	}
	return out, nil
}

func grayToNRGBA(img *image.Gray) *image.NRGBA {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := img.Pix[y*img.Stride+x]
			i := out.PixOffset(x, y)
			out.Pix[i+0] = v
			out.Pix[i+1] = v
			out.Pix[i+2] = v
			out.Pix[i+3] = 255
		}
	}
	return out
}
