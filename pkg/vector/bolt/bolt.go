// Package bolt provides an embedded vector driver backed by a bbolt file.
//
// Vectors are persisted in bbolt and mirrored in memory; queries are exact
// brute-force cosine scans, which is plenty for catalogs in the tens of
// thousands of items.
package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/papercomputeco/marquee/pkg/vector"
)

// DefaultCollectionName is the bucket used when no collection is configured.
const DefaultCollectionName = "movies"

// Config holds configuration for the bbolt driver.
type Config struct {
	// Path is the bbolt database file. It is created if missing.
	Path string

	// CollectionName is the bucket holding this collection's entries.
	CollectionName string

	// Dimensions, when non-zero, is enforced on every write and query.
	Dimensions uint
}

// Driver implements vector.Driver on top of bbolt.
type Driver struct {
	db         *bbolt.DB
	bucket     []byte
	dimensions uint
	logger     *slog.Logger

	mu      sync.RWMutex
	entries map[string]vector.Document
}

// storedDocument is the on-disk JSON form of an entry.
type storedDocument struct {
	Vector   []float32       `json:"v"`
	Content  string          `json:"c,omitempty"`
	Metadata vector.Metadata `json:"m"`
}

// NewDriver opens (or creates) the bbolt file and loads the collection.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	if c.Path == "" {
		return nil, errors.New("bolt database path is required")
	}

	collection := c.CollectionName
	if collection == "" {
		collection = DefaultCollectionName
	}

	db, err := bbolt.Open(c.Path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: opening bolt database %s: %v", vector.ErrStoreUnavailable, c.Path, err)
	}

	d := &Driver{
		db:         db,
		bucket:     []byte(collection),
		dimensions: c.Dimensions,
		logger:     logger,
		entries:    make(map[string]vector.Document),
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(d.bucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: creating bucket %q: %v", vector.ErrStoreUnavailable, collection, err)
	}

	if err := d.load(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: loading vectors: %v", vector.ErrStoreUnavailable, err)
	}

	logger.Info("bolt vector driver initialized",
		"path", c.Path,
		"collection", collection,
		"entries", len(d.entries),
	)

	return d, nil
}

func (d *Driver) load() error {
	return d.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(d.bucket).ForEach(func(k, v []byte) error {
			var stored storedDocument
			if err := json.Unmarshal(v, &stored); err != nil {
				return fmt.Errorf("decoding entry %q: %w", k, err)
			}
			d.entries[string(k)] = vector.Document{
				ID:        string(k),
				Embedding: stored.Vector,
				Content:   stored.Content,
				Metadata:  stored.Metadata,
			}
			return nil
		})
	})
}

// Upsert writes the batch in one bbolt transaction. The in-memory mirror is
// only updated after the transaction commits.
func (d *Driver) Upsert(_ context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	if err := vector.ValidateBatch(docs, d.dimensions); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	err := d.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(d.bucket)
		for _, doc := range docs {
			data, err := json.Marshal(storedDocument{
				Vector:   doc.Embedding,
				Content:  doc.Content,
				Metadata: doc.Metadata,
			})
			if err != nil {
				return fmt.Errorf("encoding document %s: %w", doc.ID, err)
			}
			if err := b.Put([]byte(doc.ID), data); err != nil {
				return fmt.Errorf("writing document %s: %w", doc.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, doc := range docs {
		d.entries[doc.ID] = doc
	}

	d.logger.Debug("upserted documents to bolt",
		"count", len(docs),
	)

	return nil
}

// Query scans every entry and returns the topK nearest by cosine distance.
// Ties are broken by ID so results are deterministic.
func (d *Driver) Query(_ context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = vector.DefaultTopK
	}

	if err := vector.CheckQuery(embedding, d.dimensions); err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	results := make([]vector.QueryResult, 0, len(d.entries))
	for _, doc := range d.entries {
		results = append(results, vector.QueryResult{
			Document: doc,
			Distance: vector.CosineDistance(embedding, doc.Embedding),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ID < results[j].ID
	})

	if len(results) > topK {
		results = results[:topK]
	}

	d.logger.Debug("queried bolt",
		"results", len(results),
	)

	return results, nil
}

// Count returns the number of stored documents.
func (d *Driver) Count(_ context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries), nil
}

// IDs returns every stored document ID.
func (d *Driver) IDs(_ context.Context) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids := make([]string, 0, len(d.entries))
	for id := range d.entries {
		ids = append(ids, id)
	}
	return ids, nil
}

// Get retrieves documents by their IDs.
func (d *Driver) Get(_ context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	docs := make([]vector.Document, 0, len(ids))
	for _, id := range ids {
		if doc, ok := d.entries[id]; ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// Delete removes documents by their IDs.
func (d *Driver) Delete(_ context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	err := d.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(d.bucket)
		for _, id := range ids {
			if err := b.Delete([]byte(id)); err != nil {
				return fmt.Errorf("deleting document %s: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, id := range ids {
		delete(d.entries, id)
	}
	return nil
}

// Close releases the bbolt file lock.
func (d *Driver) Close() error {
	return d.db.Close()
}
