package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/papercomputeco/marquee/pkg/vector"
)

// MockEmbedder is a test embedder that returns predictable embeddings
type MockEmbedder struct {
	// Embeddings maps input text to the vector returned for it.
	Embeddings map[string][]float32

	// Default is returned for text missing from Embeddings.
	Default []float32

	// FailOn causes Embed to return an error when any input text matches
	FailOn string

	// ModelName is reported by Model.
	ModelName string

	mu    sync.Mutex
	calls [][]string
}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		Embeddings: make(map[string][]float32),
		Default:    []float32{0.1, 0.2, 0.3},
		ModelName:  "mock-embedder",
	}
}

func (m *MockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]string(nil), texts...))
	m.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, text := range texts {
		if m.FailOn != "" && text == m.FailOn {
			return nil, fmt.Errorf("%w: mock embedding failure for: %s", vector.ErrEmbedding, text)
		}

		if emb, ok := m.Embeddings[text]; ok {
			out[i] = emb
			continue
		}
		out[i] = m.Default
	}
	return out, nil
}

// Calls returns the batches passed to Embed, in call order.
func (m *MockEmbedder) Calls() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]string(nil), m.calls...)
}

func (m *MockEmbedder) Dimensions() uint {
	return uint(len(m.Default))
}

func (m *MockEmbedder) Model() string {
	return m.ModelName
}

func (m *MockEmbedder) Close() error {
	return nil
}
