package stats

import (
	"math"
	"testing"
)

func TestPercentile_BoundsEqualMinMax(t *testing.T) {
	values := []float64{42.5, -3, 17, 0, 99.9, -28}

	if got := Percentile(values, 0); got != -28 {
		t.Errorf("expected 0th percentile -28, got %f", got)
	}
	if got := Percentile(values, 100); got != 99.9 {
		t.Errorf("expected 100th percentile 99.9, got %f", got)
	}
}

func TestPercentile_MonotoneInP(t *testing.T) {
	values := []float64{5, 1, 9, 3, 7, 2, 8}

	prev := math.Inf(-1)
	for p := 0.0; p <= 100; p += 5 {
		got := Percentile(values, p)
		if got < prev {
			t.Fatalf("percentile decreased at p=%f: %f < %f", p, got, prev)
		}
		prev = got
	}
}

func TestPercentile_LinearInterpolation(t *testing.T) {
	// rank = (4-1) * 50 / 100 = 1.5 → halfway between 2 and 3
	values := []float64{1, 2, 3, 4}

	if got := Percentile(values, 50); got != 2.5 {
		t.Errorf("expected median 2.5, got %f", got)
	}
}

func TestPercentile_Degenerate(t *testing.T) {
	if got := Percentile(nil, 50); got != 0 {
		t.Errorf("expected 0 for empty input, got %f", got)
	}
	if got := Percentile([]float64{7}, 95); got != 7 {
		t.Errorf("expected single value 7, got %f", got)
	}
}

func TestPercentile_DoesNotMutateInput(t *testing.T) {
	values := []float64{3, 1, 2}
	Percentile(values, 50)

	if values[0] != 3 || values[1] != 1 || values[2] != 2 {
		t.Errorf("input was reordered: %v", values)
	}
}

func TestStddevSample(t *testing.T) {
	// Sample variance of {2, 4, 4, 4, 5, 5, 7, 9} with n-1 denominator:
	// mean = 5, sumSq = 32, 32/7 ≈ 4.5714
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	got := StddevSample(values)
	want := math.Sqrt(32.0 / 7.0)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("expected stddev %f, got %f", want, got)
	}
}

func TestStddevSample_TooFewSamples(t *testing.T) {
	if got := StddevSample([]float64{5}); got != 0 {
		t.Errorf("expected 0 for single sample, got %f", got)
	}
}

func TestMean_Empty(t *testing.T) {
	if got := Mean(nil); got != 0 {
		t.Errorf("expected 0 for empty input, got %f", got)
	}
}

func TestMin(t *testing.T) {
	if got := Min([]float64{3, -2, 8}); got != -2 {
		t.Errorf("expected -2, got %f", got)
	}
	if got := Min(nil); got != 0 {
		t.Errorf("expected 0 for empty input, got %f", got)
	}
}

func TestMax(t *testing.T) {
	if got := Max([]float64{3, -2, 8}); got != 8 {
		t.Errorf("expected 8, got %f", got)
	}
	if got := Max(nil); got != 0 {
		t.Errorf("expected 0 for empty input, got %f", got)
	}
}
