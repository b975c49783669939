package store

import (
	"math"
	"testing"
)

func TestVectorRoundTrip(t *testing.T) {
	in := []float32{0.25, -1.5, 3.75, 0}
	out, err := decodeVector(encodeVector(in))
	if err != nil {
		t.Fatalf("decodeVector: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("length = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("element %d = %f, want %f", i, out[i], in[i])
		}
	}
}

func TestDecodeVectorRejectsTruncatedBlob(t *testing.T) {
	blob := encodeVector([]float32{1, 2})
	if _, err := decodeVector(blob[:len(blob)-1]); err == nil {
		t.Fatal("expected error for truncated blob")
	}
}

func TestCosineSimilarity(t *testing.T) {
	same, err := cosineSimilarity([]float32{1, 0}, []float32{2, 0})
	if err != nil {
		t.Fatalf("cosineSimilarity: %v", err)
	}
	if math.Abs(same-1) > 1e-9 {
		t.Errorf("parallel vectors score = %f, want 1", same)
	}

	orth, err := cosineSimilarity([]float32{1, 0}, []float32{0, 1})
	if err != nil {
		t.Fatalf("cosineSimilarity: %v", err)
	}
	if math.Abs(orth) > 1e-9 {
		t.Errorf("orthogonal vectors score = %f, want 0", orth)
	}

	if _, err := cosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}); err == nil {
		t.Fatal("expected error for dimension mismatch")
	}
}
