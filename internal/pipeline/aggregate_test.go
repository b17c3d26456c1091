package pipeline

import (
	"math"
	"reflect"
	"testing"
)

func TestAggregateEmpty(t *testing.T) {
	got := aggregate(nil, DefaultLeadChunkWeight)
	if got == nil || len(got) != 0 {
		t.Errorf("aggregate(nil) = %v, expected empty vector", got)
	}
}

func TestAggregateSingleVector(t *testing.T) {
	tests := []struct {
		name string
		vec  []float32
	}{
		{name: "unit vector", vec: []float32{0, 1, 0}},
		{name: "arbitrary values", vec: []float32{0.25, -0.5, 0.75, 1.5}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := aggregate([][]float32{test.vec}, DefaultLeadChunkWeight)
			if !reflect.DeepEqual(got, test.vec) {
				t.Errorf("aggregate single = %v, expected exactly %v", got, test.vec)
			}
		})
	}
}

func TestAggregateTwoVectors(t *testing.T) {
	// Per-channel expectation: (1.2*x + y) / 2.2.
	const h = 6
	x, y := float32(0.5), float32(-0.25)

	a := make([]float32, h)
	b := make([]float32, h)
	for j := 0; j < h; j++ {
		a[j] = x
		b[j] = y
	}

	got := aggregate([][]float32{a, b}, DefaultLeadChunkWeight)
	want := (1.2*float64(x) + float64(y)) / 2.2

	if len(got) != h {
		t.Fatalf("aggregate length = %d, expected %d", len(got), h)
	}
	for j, val := range got {
		if math.Abs(float64(val)-want) > 1e-6 {
			t.Errorf("aggregate[%d] = %v, expected %v", j, val, want)
		}
	}
}

func TestAggregateWeightSum(t *testing.T) {
	// Three identical unit-direction vectors must aggregate to themselves:
	// (w + 1 + 1) * v / (w + 2) = v for any lead weight.
	v := []float32{0.6, 0.8}
	got := aggregate([][]float32{v, v, v}, DefaultLeadChunkWeight)

	for j := range v {
		if math.Abs(float64(got[j]-v[j])) > 1e-6 {
			t.Errorf("aggregate[%d] = %v, expected %v", j, got[j], v[j])
		}
	}
}

func TestAggregateCustomLeadWeight(t *testing.T) {
	a := []float32{1}
	b := []float32{0}

	// Lead weight 3: (3*1 + 0) / 4 = 0.75.
	got := aggregate([][]float32{a, b}, 3.0)
	if math.Abs(float64(got[0])-0.75) > 1e-6 {
		t.Errorf("aggregate with lead weight 3 = %v, expected 0.75", got[0])
	}
}

func TestAggregateNormBound(t *testing.T) {
	// The weighted mean of unit vectors has norm at most 1, and below 1
	// when the vectors are not parallel.
	a := []float32{1, 0}
	b := []float32{0, 1}

	got := aggregate([][]float32{a, b}, DefaultLeadChunkWeight)
	n := norm(got)
	if n >= 1.0 {
		t.Errorf("aggregate norm = %v, expected < 1 for non-parallel inputs", n)
	}
	if n == 0 {
		t.Error("aggregate norm unexpectedly zero")
	}
}
