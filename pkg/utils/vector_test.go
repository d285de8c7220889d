package utils

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float64
	}{
		{
			name:     "identical vectors",
			a:        []float32{1, 0, 0},
			b:        []float32{1, 0, 0},
			expected: 1.0,
		},
		{
			name:     "opposite vectors",
			a:        []float32{1, 0, 0},
			b:        []float32{-1, 0, 0},
			expected: -1.0,
		},
		{
			name:     "orthogonal vectors",
			a:        []float32{1, 0, 0},
			b:        []float32{0, 1, 0},
			expected: 0.0,
		},
		{
			name:     "mismatched lengths",
			a:        []float32{1, 0},
			b:        []float32{1, 0, 0},
			expected: 0.0,
		},
		{
			name:     "zero magnitude",
			a:        []float32{0, 0, 0},
			b:        []float32{1, 0, 0},
			expected: 0.0,
		},
		{
			name:     "empty vectors",
			a:        nil,
			b:        nil,
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCosineDistanceRange(t *testing.T) {
	t.Parallel()

	if d := CosineDistance([]float32{1, 0}, []float32{1, 0}); math.Abs(d) > 1e-9 {
		t.Errorf("identical vectors: distance = %v, want 0", d)
	}
	if d := CosineDistance([]float32{1, 0}, []float32{0, 1}); math.Abs(d-1) > 1e-9 {
		t.Errorf("orthogonal vectors: distance = %v, want 1", d)
	}
	if d := CosineDistance([]float32{1, 0}, []float32{-1, 0}); math.Abs(d-2) > 1e-9 {
		t.Errorf("opposite vectors: distance = %v, want 2", d)
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	result := Normalize([]float32{3, 4})
	if result == nil {
		t.Fatal("Normalize() returned nil for valid input")
	}
	if mag := Magnitude(result); math.Abs(mag-1) > 1e-6 {
		t.Errorf("normalized magnitude = %v, want 1", mag)
	}

	if Normalize(nil) != nil {
		t.Error("Normalize(nil) should return nil")
	}
	if Normalize([]float32{0, 0}) != nil {
		t.Error("Normalize of zero vector should return nil")
	}
}

func TestTopKByScore(t *testing.T) {
	t.Parallel()

	items := []ScoredItem[string]{
		{Item: "c", Score: 0.3},
		{Item: "a", Score: 0.9},
		{Item: "d", Score: 0.1},
		{Item: "b", Score: 0.7},
	}

	top := TopKByScore(items, 2)
	if len(top) != 2 {
		t.Fatalf("len = %d, want 2", len(top))
	}
	if top[0].Item != "a" || top[1].Item != "b" {
		t.Errorf("top items = %v, %v; want a, b", top[0].Item, top[1].Item)
	}

	if got := TopKByScore(items, 10); len(got) != len(items) {
		t.Errorf("k beyond len: got %d items, want %d", len(got), len(items))
	}
	if got := TopKByScore(items, 0); got != nil {
		t.Errorf("k=0: got %v, want nil", got)
	}
}

func TestTopKIndicesByScore(t *testing.T) {
	t.Parallel()

	indices := TopKIndicesByScore([]float64{0.2, 0.9, 0.5}, 2)
	if len(indices) != 2 || indices[0] != 1 || indices[1] != 2 {
		t.Errorf("indices = %v, want [1 2]", indices)
	}
}
