// Package hashing implements a deterministic, dependency-free Embedder
// using feature hashing over word unigrams and bigrams. It needs no model
// server, which makes it suitable for offline indexing, smoke runs and
// tests.
package hashing

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/papercomputeco/marquee/pkg/embeddings"
)

const (
	// DefaultDimensions matches the default model server embedder so
	// stores can be swapped between the two.
	DefaultDimensions = 384

	// ModelName identifies vectors produced by this embedder.
	ModelName = "hashing-bow-v1"

	// emptyFeature is hashed for inputs without any tokens.
	emptyFeature = "\x00empty"
)

// Embedder maps text to L2-normalized hashed bag-of-words vectors.
type Embedder struct {
	dimensions uint
}

// NewEmbedder creates a hashing embedder. Zero dimensions selects
// DefaultDimensions.
func NewEmbedder(dimensions uint) *Embedder {
	if dimensions == 0 {
		dimensions = DefaultDimensions
	}
	return &Embedder{dimensions: dimensions}
}

// Embed converts texts into vectors. It never fails; blank input maps to a
// fixed unit vector.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *Embedder) vector(text string) []float32 {
	v := make([]float32, e.dimensions)

	tokens := tokenize(text)
	if len(tokens) == 0 {
		e.add(v, emptyFeature, 1)
		return v
	}

	for i, tok := range tokens {
		e.add(v, tok, 1)
		if i > 0 {
			e.add(v, tokens[i-1]+" "+tok, 0.5)
		}
	}

	normalize(v)
	return v
}

// add hashes a feature into a bucket, using a second hash bit for the sign
// so collisions tend to cancel instead of pile up.
func (e *Embedder) add(v []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()

	bucket := sum % uint64(e.dimensions)
	if sum>>63 == 1 {
		weight = -weight
	}
	v[bucket] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		// Every feature cancelled out.
		v[0] = 1
		return
	}

	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
}

// Dimensions returns the vector size.
func (e *Embedder) Dimensions() uint {
	return e.dimensions
}

// Model returns ModelName.
func (e *Embedder) Model() string {
	return ModelName
}

// Close is a no-op.
func (e *Embedder) Close() error {
	return nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
