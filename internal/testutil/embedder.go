package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
)

// vectorDim matches the width of the vector columns in the schema.
const vectorDim = 384

// HashVector derives a deterministic unit-scale vector from text. Equal
// inputs map to equal vectors, distinct inputs land far apart, so
// nearest-neighbor ordering in tests is stable without a real model.
func HashVector(text string) []float32 {
	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, vectorDim)
	for i := range vec {
		word := binary.BigEndian.Uint32(sum[(i*4)%len(sum) : (i*4)%len(sum)+4])
		// Rotate by position so the 32-byte digest fills 384 dimensions
		// without repeating a fixed 8-value cycle.
		word = word ^ uint32(i)*2654435761
		vec[i] = float32(word%2000)/1000 - 1
	}
	return vec
}

// MockEmbedder is a deterministic Embedder for tests. Fixed mappings
// take precedence over hash vectors so tests can pin exact distances.
type MockEmbedder struct {
	Fixed map[string][]float32
	Err   error
}

// Embed returns the fixed vector for text when one is registered, the
// hash vector otherwise.
func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if vec, ok := m.Fixed[text]; ok {
		return vec, nil
	}
	return HashVector(text), nil
}
