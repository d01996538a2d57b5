package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	manifestFile = "index.json"
)

// IndexManifest records the last completed indexing run against the
// configured vector store.
type IndexManifest struct {
	Collection    string    `json:"collection"`
	VectorStore   string    `json:"vector_store"`
	EmbeddingProv string    `json:"embedding_provider"`
	Model         string    `json:"model"`
	Dimensions    uint      `json:"dimensions"`
	CatalogPath   string    `json:"catalog_path,omitempty"`
	Items         int       `json:"items"`
	IndexedAt     time.Time `json:"indexed_at"`
}

// SameEmbedding reports whether vectors recorded in m were produced by the
// given model and dimensions.
func (m *IndexManifest) SameEmbedding(model string, dimensions uint) bool {
	return m.Model == model && m.Dimensions == dimensions
}

// LoadManifest loads the manifest from a target .marquee/index.json.
// Returns nil, nil if no manifest exists.
func (m *Manager) LoadManifest(overrideDir string) (*IndexManifest, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return nil, nil
	}

	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading index manifest: %w", err)
	}

	manifest := &IndexManifest{}
	if err := json.Unmarshal(data, manifest); err != nil {
		return nil, fmt.Errorf("parsing index manifest: %w", err)
	}

	return manifest, nil
}

// SaveManifest persists the manifest to a target .marquee/index.json,
// creating ~/.marquee/ if no directory exists yet.
func (m *Manager) SaveManifest(manifest *IndexManifest, overrideDir string) error {
	if manifest == nil {
		return errors.New("cannot save nil index manifest")
	}

	dir, err := m.Ensure(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling index manifest: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, manifestFile), data, 0o600); err != nil {
		return fmt.Errorf("writing index manifest: %w", err)
	}

	return nil
}

// ClearManifest removes the manifest file. Returns nil if it doesn't exist.
func (m *Manager) ClearManifest(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil || dir == "" {
		return err
	}

	if err := os.Remove(filepath.Join(dir, manifestFile)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing index manifest: %w", err)
	}

	return nil
}
