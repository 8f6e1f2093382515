package analyzer

import "image"

// Method identifies one of the independent shadow-detection methods.
type Method string

const (
	MethodBasic    Method = "basic"
	MethodAdaptive Method = "adaptive"
	MethodEdges    Method = "edges"
)

// AllMethods returns the detection methods in their canonical order.
func AllMethods() []Method {
	return []Method{MethodBasic, MethodAdaptive, MethodEdges}
}

// Point is an image coordinate, x column and y row.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Mask is a width×height grid of binary shadow classifications produced by a
// single detection method. A true cell means the pixel was classified as
// shadowed (PSR).
type Mask struct {
	Width  int
	Height int
	Bits   []bool
}

// NewMask creates an all-false mask of the given dimensions.
func NewMask(width, height int) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Bits:   make([]bool, width*height),
	}
}

// At reports the classification at (x, y).
func (m *Mask) At(x, y int) bool {
	return m.Bits[y*m.Width+x]
}

// Set stores the classification at (x, y).
func (m *Mask) Set(x, y int, v bool) {
	m.Bits[y*m.Width+x] = v
}

// Count returns the number of true cells.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// Clone returns an independent copy of the mask.
func (m *Mask) Clone() *Mask {
	out := NewMask(m.Width, m.Height)
	copy(out.Bits, m.Bits)
	return out
}

// FloatMap is a width×height grid of float64 samples used for planes that do
// not fit the 0–255 intensity range, such as the roughness map.
type FloatMap struct {
	Width  int
	Height int
	Data   []float64
}

// NewFloatMap creates a zero-filled float map of the given dimensions.
func NewFloatMap(width, height int) *FloatMap {
	return &FloatMap{
		Width:  width,
		Height: height,
		Data:   make([]float64, width*height),
	}
}

// At returns the sample at (x, y).
func (f *FloatMap) At(x, y int) float64 {
	return f.Data[y*f.Width+x]
}

// Set stores the sample at (x, y).
func (f *FloatMap) Set(x, y int, v float64) {
	f.Data[y*f.Width+x] = v
}

// MinMax returns the smallest and largest sample. A zero-sized map reports
// (0, 0).
func (f *FloatMap) MinMax() (float64, float64) {
	if len(f.Data) == 0 {
		return 0, 0
	}
	lo, hi := f.Data[0], f.Data[0]
	for _, v := range f.Data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// FeatureSet is the terrain analyzer's output: peak and valley coordinates in
// raster detection order, plus the roughness map in raw standard-deviation
// units.
type FeatureSet struct {
	Peaks     []Point
	Valleys   []Point
	Roughness *FloatMap
}

// StatRecord summarizes one analysis run. The intensity metrics describe the
// original image; the coverage percentages describe each method's mask.
type StatRecord struct {
	MeanIntensity float64 `json:"mean_intensity"`
	StdIntensity  float64 `json:"std_intensity"`
	MinIntensity  float64 `json:"min_intensity"`
	MaxIntensity  float64 `json:"max_intensity"`
	DynamicRange  float64 `json:"dynamic_range"`

	// CoveragePercent maps each detection method that ran to the percentage
	// of pixels it classified as shadowed, rounded to two decimals.
	CoveragePercent map[Method]float64 `json:"coverage_percent"`

	// Degenerate marks a zero-dynamic-range input. Degenerate runs produce
	// well-defined empty masks and zero roughness rather than failing.
	Degenerate bool `json:"degenerate,omitempty"`
}

// StatRow is one metric row of the tabular export.
type StatRow struct {
	Metric string  `json:"metric"`
	Value  float64 `json:"value"`
}

// Rows flattens the record into ordered rows for tabular export. Coverage
// rows appear in canonical method order and only for methods that ran.
func (s *StatRecord) Rows() []StatRow {
	rows := []StatRow{
		{Metric: "mean_intensity", Value: s.MeanIntensity},
		{Metric: "std_intensity", Value: s.StdIntensity},
		{Metric: "min_intensity", Value: s.MinIntensity},
		{Metric: "max_intensity", Value: s.MaxIntensity},
		{Metric: "dynamic_range", Value: s.DynamicRange},
	}
	for _, m := range AllMethods() {
		if cov, ok := s.CoveragePercent[m]; ok {
			rows = append(rows, StatRow{Metric: string(m) + "_coverage_percent", Value: cov})
		}
	}
	return rows
}

// AnalysisReport aggregates everything one run produced. It is constructed
// once per run, owned by the caller, and never mutated afterwards. Reports
// carry no timestamps so that identical input and parameters reproduce an
// identical report.
type AnalysisReport struct {
	Original *image.Gray
	Enhanced *image.Gray
	Masks    map[Method]*Mask
	Features *FeatureSet
	Stats    *StatRecord
	Params   Params
}
