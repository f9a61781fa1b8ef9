package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"

	"golang.org/x/text/unicode/norm"
)

// LocalEngine derives a deterministic pseudo-embedding from the SHA-256
// hash of NFC-normalized text, expanded to Dimensions floats by re-hashing
// with an incrementing counter. It has no semantic meaning but gives the
// vector store and edge engine something stable to index and compare
// against when no external embedding endpoint is configured — the
// embedder's analogue of vectorstore.Memory as the always-available
// fallback behind Select.
type LocalEngine struct {
	dimensions int
}

// NewLocalEngine returns a LocalEngine producing vectors of the given
// dimensionality (default 64 if dims <= 0).
func NewLocalEngine(dims int) *LocalEngine {
	if dims <= 0 {
		dims = 64
	}
	return &LocalEngine{dimensions: dims}
}

func (l *LocalEngine) Dimensions() int { return l.dimensions }

func (l *LocalEngine) Embed(_ context.Context, text string) ([]float32, error) {
	normalized := norm.NFC.String(text)
	out := make([]float32, l.dimensions)

	block := 0
	var digest [32]byte
	for i := 0; i < l.dimensions; i++ {
		if i%8 == 0 {
			digest = sha256.Sum256(append([]byte(normalized), byte(block)))
			block++
		}
		offset := (i % 8) * 4
		bits := binary.BigEndian.Uint32(digest[offset : offset+4])
		out[i] = float32(bits%20000)/10000 - 1 // roughly [-1, 1)
	}
	return out, nil
}

// Select returns an HTTPEngine when endpoint is non-empty, otherwise a
// LocalEngine of the given dimensionality.
func Select(endpoint string, dimensions int) Engine {
	if endpoint == "" {
		return NewLocalEngine(dimensions)
	}
	return NewHTTPEngine(Config{Endpoint: endpoint, Dimensions: dimensions})
}
