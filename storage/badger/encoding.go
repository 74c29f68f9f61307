package badger

import (
	"encoding/binary"
	"fmt"
	"math"
)

// encodeVector serializes a vector as a raw little-endian sequence of IEEE
// 754 float32 values, no length prefix. The dimension is the value length
// divided by four, so a mismatched row is detectable from its size alone.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeVector deserializes a value produced by encodeVector.
func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("corrupt vector value: length %d is not a multiple of 4", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}

// cosineSimilarity computes the normalized dot product of two equal-length
// vectors in the range -1..1. A zero-magnitude operand, or any NaN in the
// computation, yields 0 rather than propagating.
func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		va, vb := float64(a[i]), float64(b[i])
		dot += va * vb
		normA += va * va
		normB += vb * vb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(sim) {
		return 0
	}
	return float32(sim)
}
