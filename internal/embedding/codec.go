package embedding

import (
	"encoding/binary"
	"fmt"
	"math"
)

// CorruptionError reports stored vector bytes that cannot be decoded.
// It is a distinct type so callers can refuse to silently default —
// a defaulted vector would quietly corrupt similarity results.
type CorruptionError struct {
	Detail string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("embedding: corrupt vector data: %s", e.Detail)
}

// VectorToBytes encodes v as concatenated little-endian IEEE-754 32-bit
// floats, the on-disk format for the embeddings side table.
func VectorToBytes(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// BytesToVector decodes the little-endian float32 encoding produced by
// VectorToBytes. A byte length that is not a multiple of 4 is a
// CorruptionError.
func BytesToVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, &CorruptionError{Detail: fmt.Sprintf("byte length %d is not a multiple of 4", len(b))}
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}
