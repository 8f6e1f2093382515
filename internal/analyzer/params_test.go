package analyzer

import (
	"errors"
	"testing"

	apperrors "go-psr-analyzer/internal/errors"
)

func TestDefaultParamsAreValid(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("defaults failed validation: %v", err)
	}
}

func TestValidateRejectsOutOfRangeValues(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Params)
		wantParam string
	}{
		{"zero clip limit", func(p *Params) { p.ClipLimit = 0 }, "clahe_clip_limit"},
		{"clip limit above ceiling", func(p *Params) { p.ClipLimit = 100.5 }, "clahe_clip_limit"},
		{"zero tile size", func(p *Params) { p.TileSize = 0 }, "clahe_tile_size"},
		{"tile size above ceiling", func(p *Params) { p.TileSize = 65 }, "clahe_tile_size"},
		{"negative threshold", func(p *Params) { p.BasicThreshold = -1 }, "basic_threshold"},
		{"threshold above ceiling", func(p *Params) { p.BasicThreshold = 256 }, "basic_threshold"},
		{"block size below floor", func(p *Params) { p.AdaptiveBlock = 1 }, "adaptive_block_size"},
		{"even block size", func(p *Params) { p.AdaptiveBlock = 10 }, "adaptive_block_size"},
		{"block size above ceiling", func(p *Params) { p.AdaptiveBlock = 103 }, "adaptive_block_size"},
		{"negative adaptive c", func(p *Params) { p.AdaptiveC = -0.1 }, "adaptive_c"},
		{"adaptive c above ceiling", func(p *Params) { p.AdaptiveC = 20.1 }, "adaptive_c"},
		{"zero sigma", func(p *Params) { p.EdgeSigma = 0 }, "edge_sigma"},
		{"sigma above ceiling", func(p *Params) { p.EdgeSigma = 10.1 }, "edge_sigma"},
		{"distance below floor", func(p *Params) { p.PeakMinDistance = 4 }, "peak_min_distance"},
		{"distance above ceiling", func(p *Params) { p.PeakMinDistance = 51 }, "peak_min_distance"},
		{"window below floor", func(p *Params) { p.RoughnessWindow = 1 }, "roughness_size"},
		{"even window", func(p *Params) { p.RoughnessWindow = 6 }, "roughness_size"},
		{"window above ceiling", func(p *Params) { p.RoughnessWindow = 101 }, "roughness_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := DefaultParams()
			tt.mutate(&params)
			err := params.Validate()
			var appErr *apperrors.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.Type != apperrors.ErrorTypeConfiguration {
				t.Errorf("error type = %q, want configuration", appErr.Type)
			}
			if appErr.Details != tt.wantParam {
				t.Errorf("reported parameter = %q, want %q", appErr.Details, tt.wantParam)
			}
		})
	}
}

func TestValidateAcceptsBoundaryValues(t *testing.T) {
	params := Params{
		ClipLimit:       100,
		TileSize:        64,
		BasicThreshold:  255,
		AdaptiveBlock:   101,
		AdaptiveC:       20,
		EdgeSigma:       10,
		PeakMinDistance: 50,
		RoughnessWindow: 99,
	}
	if err := params.Validate(); err != nil {
		t.Errorf("upper boundary values rejected: %v", err)
	}
	params = Params{
		ClipLimit:       0.001,
		TileSize:        1,
		BasicThreshold:  0,
		AdaptiveBlock:   3,
		AdaptiveC:       0,
		EdgeSigma:       0.001,
		PeakMinDistance: 5,
		RoughnessWindow: 3,
	}
	if err := params.Validate(); err != nil {
		t.Errorf("lower boundary values rejected: %v", err)
	}
}

func TestSelectMethodRunsSingleStage(t *testing.T) {
	tests := []struct {
		method Method
		want   Selection
	}{
		{MethodBasic, Selection{Basic: true}},
		{MethodAdaptive, Selection{Adaptive: true}},
		{MethodEdges, Selection{Edges: true}},
		{Method("unknown"), Selection{}},
	}
	for _, tt := range tests {
		if got := SelectMethod(tt.method); got != tt.want {
			t.Errorf("SelectMethod(%q) = %+v, want %+v", tt.method, got, tt.want)
		}
	}
}
