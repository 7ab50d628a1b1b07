package reranker

import (
	"bytes"
	"testing"
)

func TestWriteWeightsSkipsZerosAndOmitsUnitWeights(t *testing.T) {
	var buf bytes.Buffer
	w := []float64{0, 1, 2.5, 0, -1}
	if err := WriteWeights(&buf, w); err != nil {
		t.Fatalf("WriteWeights: %v", err)
	}
	got := buf.String()
	want := "1\n2=2.5\n4=-1\n"
	if got != want {
		t.Fatalf("WriteWeights output = %q, want %q", got, want)
	}
}

func TestReadWeightsRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	w := []float64{0, 1, 2.5, 0, -1}
	if err := WriteWeights(&buf, w); err != nil {
		t.Fatalf("WriteWeights: %v", err)
	}
	got, err := ReadWeights(&buf, len(w))
	if err != nil {
		t.Fatalf("ReadWeights: %v", err)
	}
	for i := range w {
		if got[i] != w[i] {
			t.Fatalf("round trip mismatch at %d: got %v, want %v", i, got[i], w[i])
		}
	}
}
