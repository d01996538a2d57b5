package testutils

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/papercomputeco/marquee/pkg/vector"
)

// MockVectorDriver is an in-memory vector driver with exact cosine search.
type MockVectorDriver struct {
	// Results, when non-nil, is returned by Query in place of a search.
	Results []vector.QueryResult

	// FailUpsertOn causes the Nth Upsert call (1-based) to fail.
	FailUpsertOn int

	// Err is returned by every operation when set.
	Err error

	mu          sync.RWMutex
	documents   map[string]vector.Document
	upsertCalls int
	closed      bool
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		documents: make(map[string]vector.Document),
	}
}

func (m *MockVectorDriver) Upsert(_ context.Context, docs []vector.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}

	m.upsertCalls++
	if m.FailUpsertOn == m.upsertCalls {
		return vector.ErrStoreUnavailable
	}

	if err := vector.ValidateBatch(docs, 0); err != nil {
		return err
	}

	for _, doc := range docs {
		m.documents[doc.ID] = doc
	}
	return nil
}

func (m *MockVectorDriver) Query(_ context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if topK <= 0 {
		topK = vector.DefaultTopK
	}

	if m.Results != nil {
		if len(m.Results) < topK {
			return m.Results, nil
		}
		return m.Results[:topK], nil
	}

	results := make([]vector.QueryResult, 0, len(m.documents))
	for _, doc := range m.documents {
		results = append(results, vector.QueryResult{
			Document: doc,
			Distance: vector.CosineDistance(embedding, doc.Embedding),
		})
	}

	slices.SortFunc(results, func(a, b vector.QueryResult) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		}
		return strings.Compare(a.ID, b.ID)
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (m *MockVectorDriver) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return 0, m.Err
	}
	return len(m.documents), nil
}

func (m *MockVectorDriver) IDs(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}

	ids := make([]string, 0, len(m.documents))
	for id := range m.documents {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *MockVectorDriver) Get(_ context.Context, ids []string) ([]vector.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}

	docs := make([]vector.Document, 0, len(ids))
	for _, id := range ids {
		if doc, ok := m.documents[id]; ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (m *MockVectorDriver) Delete(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	for _, id := range ids {
		delete(m.documents, id)
	}
	return nil
}

// UpsertCalls returns how many times Upsert was called.
func (m *MockVectorDriver) UpsertCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.upsertCalls
}

// Closed reports whether Close was called.
func (m *MockVectorDriver) Closed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

func (m *MockVectorDriver) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

var _ vector.Driver = (*MockVectorDriver)(nil)
