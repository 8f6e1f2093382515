package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"go-psr-analyzer/internal/analyzer"
	apperrors "go-psr-analyzer/internal/errors"
)

const (
	compositeMargin = 8
	captionHeight   = 18
)

var (
	compositeBG = color.NRGBA{R: 26, G: 26, B: 46, A: 255}
	captionInk  = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// BuildComposite renders every panel of a full report into a captioned
// 2x3 grid: original, enhanced and basic threshold on top, adaptive, edges
// and roughness below.
func BuildComposite(r Renderer, report *analyzer.AnalysisReport) (*image.NRGBA, error) {
	if report == nil || report.Original == nil {
		return nil, apperrors.NewProcessingError("no report to compose", nil)
	}
	w := report.Original.Bounds().Dx()
	h := report.Original.Bounds().Dy()
	cellH := captionHeight + h

	canvas := imaging.New(3*w+4*compositeMargin, 2*cellH+3*compositeMargin, compositeBG)
	for i, panel := range AllPanels() {
		cell, err := r.RenderPanel(panel, report)
		if err != nil {
			return nil, err
		}
		col, row := i%3, i/3
		x := compositeMargin + col*(w+compositeMargin)
		y := compositeMargin + row*(cellH+compositeMargin)
		drawCaption(canvas, panel.Caption(), x, w, y+12)
		canvas = imaging.Paste(canvas, cell, image.Pt(x, y+captionHeight))
	}
	return canvas, nil
}

// drawCaption centers text over a cell of width w whose left edge is x.
func drawCaption(dst *image.NRGBA, text string, x, w, baseline int) {
	textW := len(text) * basicfont.Face7x13.Advance
	cx := x
	if w > textW {
		cx = x + (w-textW)/2
	}
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(captionInk),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(cx, baseline),
	}
	d.DrawString(text)
}

// EncodePNG serializes an image for transport and artifact export.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, apperrors.NewProcessingError("failed to encode png", err)
	}
	return buf.Bytes(), nil
}
