package imaging

import (
	"errors"
	"math"
	"testing"
)

func TestSigmaClippedStats_Constant(t *testing.T) {
	p := NewPlane(10, 10)
	for i := range p.Data {
		p.Data[i] = 500
	}

	st, err := SigmaClippedStats(p, DefaultClipOptions())
	if err != nil {
		t.Fatalf("SigmaClippedStats failed: %v", err)
	}
	if st.Mean != 500 || st.Median != 500 || st.StdDev != 0 {
		t.Errorf("got mean=%v median=%v std=%v, want 500, 500, 0", st.Mean, st.Median, st.StdDev)
	}
	if st.Kept != 100 || st.Total != 100 {
		t.Errorf("Kept/Total: got %d/%d, want 100/100", st.Kept, st.Total)
	}
}

func TestSigmaClippedStats_RejectsOutliers(t *testing.T) {
	// Alternating 99/101 background with a few very bright pixels
	p := NewPlane(20, 20)
	for i := range p.Data {
		if i%2 == 0 {
			p.Data[i] = 99
		} else {
			p.Data[i] = 101
		}
	}
	p.Data[5] = 10000
	p.Data[77] = 25000
	p.Data[12] = 15000
	p.Data[300] = 40000

	st, err := SigmaClippedStats(p, DefaultClipOptions())
	if err != nil {
		t.Fatalf("SigmaClippedStats failed: %v", err)
	}

	if st.Median != 100 {
		t.Errorf("Median: got %v, want 100", st.Median)
	}
	if math.Abs(st.Mean-100) > 0.05 {
		t.Errorf("Mean: got %v, want ~100", st.Mean)
	}
	if math.Abs(st.StdDev-1) > 0.01 {
		t.Errorf("StdDev: got %v, want ~1", st.StdDev)
	}
	if st.Kept != 396 {
		t.Errorf("Kept: got %d, want 396", st.Kept)
	}
	if st.Iterations < 2 {
		t.Errorf("Iterations: got %d, want at least 2", st.Iterations)
	}
}

func TestSigmaClippedStats_IgnoresNonFinite(t *testing.T) {
	p, _ := NewPlaneFromData(5, 1, []float64{1, math.NaN(), 3, math.Inf(1), 2})

	st, err := SigmaClippedStats(p, DefaultClipOptions())
	if err != nil {
		t.Fatalf("SigmaClippedStats failed: %v", err)
	}
	if st.Median != 2 {
		t.Errorf("Median: got %v, want 2", st.Median)
	}
	if st.Kept != 3 || st.Total != 5 {
		t.Errorf("Kept/Total: got %d/%d, want 3/5", st.Kept, st.Total)
	}
}

func TestSigmaClippedStats_NoFinitePixels(t *testing.T) {
	p, _ := NewPlaneFromData(2, 1, []float64{math.NaN(), math.Inf(-1)})

	_, err := SigmaClippedStats(p, DefaultClipOptions())
	if !errors.Is(err, ErrNoFinitePixels) {
		t.Errorf("expected ErrNoFinitePixels, got %v", err)
	}
}

func TestSigmaClippedStats_MaxIters(t *testing.T) {
	p := NewPlane(50, 1)
	for i := range p.Data {
		p.Data[i] = float64(i * i)
	}

	st, err := SigmaClippedStats(p, ClipOptions{SigmaLower: 1, SigmaUpper: 1, MaxIters: 1})
	if err != nil {
		t.Fatalf("SigmaClippedStats failed: %v", err)
	}
	if st.Iterations != 1 {
		t.Errorf("Iterations: got %d, want 1", st.Iterations)
	}
}

func TestSortedMedian(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want float64
	}{
		{"odd", []float64{1, 2, 9}, 2},
		{"even", []float64{1, 2, 4, 9}, 3},
		{"single", []float64{7}, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sortedMedian(tt.in); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if !math.IsNaN(sortedMedian(nil)) {
		t.Error("median of empty slice should be NaN")
	}
}
