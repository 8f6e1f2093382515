package render

import (
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Palette maps a normalized sample in [0, 1] to a display color by blending
// between fixed anchor stops in Lab space.
type Palette struct {
	name  string
	stops []colorful.Color
}

// At returns the palette color for t, clamped to [0, 1].
func (p Palette) At(t float64) color.NRGBA {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	n := len(p.stops)
	if n == 1 {
		return toNRGBA(p.stops[0])
	}
	scaled := t * float64(n-1)
	i := int(scaled)
	if i >= n-1 {
		return toNRGBA(p.stops[n-1])
	}
	blended := p.stops[i].BlendLab(p.stops[i+1], scaled-float64(i)).Clamped()
	return toNRGBA(blended)
}

// Table quantizes the palette into a 256-entry lookup table.
func (p Palette) Table() [256]color.NRGBA {
	var lut [256]color.NRGBA
	for i := range lut {
		lut[i] = p.At(float64(i) / 255)
	}
	return lut
}

// Name identifies the palette in logs and export metadata.
func (p Palette) Name() string {
	return p.name
}

func toNRGBA(c colorful.Color) color.NRGBA {
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// HotPalette runs black through red and yellow to white. Shadow masks are
// drawn with it so detections read as heat.
func HotPalette() Palette {
	return Palette{
		name: "hot",
		stops: []colorful.Color{
			mustHex("#000000"),
			mustHex("#ff0000"),
			mustHex("#ffff00"),
			mustHex("#ffffff"),
		},
	}
}

// ViridisPalette is the perceptually uniform ramp used for the roughness
// heatmap.
func ViridisPalette() Palette {
	return Palette{
		name: "viridis",
		stops: []colorful.Color{
			mustHex("#440154"),
			mustHex("#3b528b"),
			mustHex("#21918c"),
			mustHex("#5ec962"),
			mustHex("#fde725"),
		},
	}
}

// GrayPalette maps [0, 1] onto the plain grayscale ramp.
func GrayPalette() Palette {
	return Palette{
		name: "gray",
		stops: []colorful.Color{
			mustHex("#000000"),
			mustHex("#ffffff"),
		},
	}
}
