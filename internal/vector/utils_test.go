package vector

import (
	"math"
	"reflect"
	"testing"
)

func TestFloat32SliceToBytes(t *testing.T) {
	tests := []struct {
		name  string
		input []float32
	}{
		{
			name:  "empty slice",
			input: []float32{},
		},
		{
			name:  "single value",
			input: []float32{1.0},
		},
		{
			name:  "multiple values",
			input: []float32{1.0, 2.0, 3.0, 4.0, 5.0},
		},
		{
			name:  "negative values",
			input: []float32{-1.0, -2.0, -3.0, -4.0, -5.0},
		},
		{
			name:  "mixed values",
			input: []float32{-1.0, 0.0, 1.0, 3.14, -2.718},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			// Convert to bytes
			data, err := Float32SliceToBytes(test.input)
			if err != nil {
				t.Errorf("Float32SliceToBytes(%v) error: %v", test.input, err)
				return
			}

			// Convert back to float32 slice
			floats, err := BytesToFloat32Slice(data)
			if err != nil {
				t.Errorf("BytesToFloat32Slice(%v) error: %v", data, err)
				return
			}

			// Verify the result matches the input
			if !reflect.DeepEqual(test.input, floats) {
				t.Errorf("Expected %v, got %v", test.input, floats)
			}
		})
	}
}

func TestNorm(t *testing.T) {
	tests := []struct {
		name     string
		input    []float32
		expected float64
	}{
		{
			name:     "zero vector",
			input:    []float32{0, 0, 0},
			expected: 0,
		},
		{
			name:     "unit vector",
			input:    []float32{1, 0, 0},
			expected: 1,
		},
		{
			name:     "3-4-5 triangle",
			input:    []float32{3, 4},
			expected: 5,
		},
		{
			name:     "empty vector",
			input:    []float32{},
			expected: 0,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := Norm(test.input)
			if math.Abs(got-test.expected) > 1e-9 {
				t.Errorf("Norm(%v) = %v, expected %v", test.input, got, test.expected)
			}
		})
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float64
		wantErr  bool
	}{
		{
			name:     "identical vectors",
			a:        []float32{1.0, 2.0, 3.0},
			b:        []float32{1.0, 2.0, 3.0},
			expected: 1.0,
			wantErr:  false,
		},
		{
			name:     "orthogonal vectors",
			a:        []float32{1.0, 0.0, 0.0},
			b:        []float32{0.0, 1.0, 0.0},
			expected: 0.0,
			wantErr:  false,
		},
		{
			name:     "opposite vectors",
			a:        []float32{1.0, 2.0, 3.0},
			b:        []float32{-1.0, -2.0, -3.0},
			expected: -1.0,
			wantErr:  false,
		},
		{
			name:    "dimension mismatch",
			a:       []float32{1.0, 2.0},
			b:       []float32{1.0, 2.0, 3.0},
			wantErr: true,
		},
		{
			name:    "zero vector",
			a:       []float32{0.0, 0.0, 0.0},
			b:       []float32{1.0, 2.0, 3.0},
			wantErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := CosineSimilarity(test.a, test.b)
			if test.wantErr {
				if err == nil {
					t.Errorf("CosineSimilarity(%v, %v) expected error, got nil", test.a, test.b)
				}
				return
			}
			if err != nil {
				t.Errorf("CosineSimilarity(%v, %v) error: %v", test.a, test.b, err)
				return
			}
			if math.Abs(got-test.expected) > 1e-6 {
				t.Errorf("CosineSimilarity(%v, %v) = %v, expected %v", test.a, test.b, got, test.expected)
			}
		})
	}
}
