package analyzer

import (
	"testing"

	apperrors "go-psr-analyzer/internal/errors"
)

func TestDetectBasicCoverageMonotonicInThreshold(t *testing.T) {
	d := NewShadowDetector()
	img := noiseGray(80, 80, 31)
	prev := -1.0
	for _, threshold := range []int{0, 10, 50, 100, 180, 255} {
		mask, err := d.DetectBasic(img, threshold)
		if err != nil {
			t.Fatalf("DetectBasic(%d) failed: %v", threshold, err)
		}
		cov := coveragePercent(mask)
		if cov < prev {
			t.Errorf("coverage decreased from %.2f to %.2f at threshold %d", prev, cov, threshold)
		}
		prev = cov
	}
}

func TestDetectBasicBlackSquareCoverage(t *testing.T) {
	d := NewShadowDetector()
	mask, err := d.DetectBasic(squareOnWhite(100, 100, 45, 45, 10), 50)
	if err != nil {
		t.Fatalf("DetectBasic failed: %v", err)
	}
	if got := mask.Count(); got != 100 {
		t.Errorf("expected exactly the 100 square pixels, got %d", got)
	}
	if cov := coveragePercent(mask); cov != 1.0 {
		t.Errorf("expected 1.0%% coverage, got %.4f%%", cov)
	}
}

func TestDetectBasicUniformImageAllFalse(t *testing.T) {
	d := NewShadowDetector()
	// No threshold at or below the uniform value classifies anything.
	for _, threshold := range []int{0, 50, 128} {
		mask, err := d.DetectBasic(constantGray(60, 60, 128), threshold)
		if err != nil {
			t.Fatalf("DetectBasic(%d) failed: %v", threshold, err)
		}
		if mask.Count() != 0 {
			t.Errorf("threshold %d flagged %d cells on a uniform image", threshold, mask.Count())
		}
	}
}

func TestDetectBasicRejectsBadThreshold(t *testing.T) {
	d := NewShadowDetector()
	img := constantGray(10, 10, 128)
	for _, threshold := range []int{-1, 256} {
		if _, err := d.DetectBasic(img, threshold); !apperrors.IsType(err, apperrors.ErrorTypeConfiguration) {
			t.Errorf("threshold %d: expected configuration error, got %v", threshold, err)
		}
	}
}

func TestDetectAdaptiveUniformImageAllFalse(t *testing.T) {
	d := NewShadowDetector()
	tests := []struct {
		name string
		c    float64
	}{
		{"zero constant", 0},
		{"default constant", 2},
		{"max constant", 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mask, err := d.DetectAdaptive(constantGray(64, 64, 128), 11, tt.c)
			if err != nil {
				t.Fatalf("DetectAdaptive failed: %v", err)
			}
			if mask.Count() != 0 {
				t.Errorf("flagged %d cells on a uniform image", mask.Count())
			}
		})
	}
}

func TestDetectAdaptiveMarksSquareInterior(t *testing.T) {
	d := NewShadowDetector()
	mask, err := d.DetectAdaptive(squareOnWhite(100, 100, 45, 45, 10), 11, 2)
	if err != nil {
		t.Fatalf("DetectAdaptive failed: %v", err)
	}
	if mask.Count() == 0 {
		t.Fatal("expected shadow cells around the dark square, got none")
	}
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			if mask.At(x, y) && (x < 45 || x >= 55 || y < 45 || y >= 55) {
				t.Fatalf("cell (%d,%d) outside the dark square was flagged", x, y)
			}
		}
	}
}

func TestDetectAdaptiveRejectsBadConfiguration(t *testing.T) {
	d := NewShadowDetector()
	img := constantGray(50, 50, 128)
	tests := []struct {
		name  string
		block int
		c     float64
	}{
		{"even block", 10, 2},
		{"block below minimum", 1, 2},
		{"negative constant", 11, -1},
		{"constant beyond range", 11, 21},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := d.DetectAdaptive(img, tt.block, tt.c); !apperrors.IsType(err, apperrors.ErrorTypeConfiguration) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestDetectAdaptiveRejectsOversizedBlock(t *testing.T) {
	d := NewShadowDetector()
	if _, err := d.DetectAdaptive(constantGray(9, 9, 128), 11, 2); !apperrors.IsType(err, apperrors.ErrorTypeDimension) {
		t.Errorf("expected dimension error, got %v", err)
	}
}
