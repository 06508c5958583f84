package embedding_test

import (
	"errors"
	"math"
	"testing"

	"github.com/mnemo-mcp/mnemo/internal/embedding"
)

func TestVectorBytesRoundTrip(t *testing.T) {
	v := []float32{0, 1, -1, 0.5, float32(math.Pi), -3.25e-7, math.MaxFloat32, math.SmallestNonzeroFloat32}

	decoded, err := embedding.BytesToVector(embedding.VectorToBytes(v))
	if err != nil {
		t.Fatalf("BytesToVector error: %v", err)
	}
	if len(decoded) != len(v) {
		t.Fatalf("len = %d, want %d", len(decoded), len(v))
	}
	for i := range v {
		if decoded[i] != v[i] {
			t.Errorf("slot %d: got %v, want %v", i, decoded[i], v[i])
		}
	}
}

func TestVectorToBytes_Length(t *testing.T) {
	b := embedding.VectorToBytes(make([]float32, 384))
	if len(b) != 384*4 {
		t.Errorf("len = %d, want %d", len(b), 384*4)
	}
	if got := embedding.VectorToBytes(nil); len(got) != 0 {
		t.Errorf("nil vector encoded to %d bytes, want 0", len(got))
	}
}

func TestBytesToVector_RejectsTruncatedData(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 7, 9} {
		_, err := embedding.BytesToVector(make([]byte, n))
		if err == nil {
			t.Fatalf("BytesToVector(%d bytes) should fail", n)
		}
		var corrupt *embedding.CorruptionError
		if !errors.As(err, &corrupt) {
			t.Errorf("error for %d bytes = %T, want *CorruptionError", n, err)
		}
	}
}

func TestBytesToVector_EmptyIsValid(t *testing.T) {
	v, err := embedding.BytesToVector(nil)
	if err != nil {
		t.Fatalf("BytesToVector(nil) error: %v", err)
	}
	if len(v) != 0 {
		t.Errorf("len = %d, want 0", len(v))
	}
}
