// Package engine implements semantic indexing and retrieval over a catalog:
// items are embedded in batches and upserted into a vector store, and free
// text queries are answered with their nearest neighbors.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/papercomputeco/marquee/pkg/catalog"
	"github.com/papercomputeco/marquee/pkg/embeddings"
	"github.com/papercomputeco/marquee/pkg/eventstream"
	"github.com/papercomputeco/marquee/pkg/eventstream/nop"
	"github.com/papercomputeco/marquee/pkg/vector"
)

const (
	// DefaultCollection is the collection name used when none is configured.
	DefaultCollection = "movies"

	// DefaultBatchSize bounds the items held in memory per indexing step.
	DefaultBatchSize = 512

	// fallback values for missing result metadata
	notAvailable = "N/A"
)

// Config holds engine settings that are not tied to a collaborator.
type Config struct {
	// Collection is the name reported by Stats and on events.
	Collection string
}

// Engine ties an Embedder to a vector Driver.
//
// Recommend and Stats are safe for concurrent use. Index runs are
// serialized within one Engine; running several processes against one
// store at once is not coordinated.
type Engine struct {
	collection string
	embedder   embeddings.Embedder
	driver     vector.Driver
	publisher  eventstream.Publisher
	progress   func(done, total int)
	batchSize  int
	logger     *slog.Logger

	indexMu sync.Mutex
	state   atomic.Int32
}

// New creates an Engine. The driver must already be open.
func New(cfg Config, embedder embeddings.Embedder, driver vector.Driver, logger *slog.Logger, opts ...Option) (*Engine, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if driver == nil {
		return nil, errors.New("vector driver is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	collection := cfg.Collection
	if collection == "" {
		collection = DefaultCollection
	}

	e := &Engine{
		collection: collection,
		embedder:   embedder,
		driver:     driver,
		publisher:  nop.NewPublisher(),
		batchSize:  DefaultBatchSize,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// State returns the indexing state of the most recent run.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Index embeds items and upserts them in order-preserving batches.
//
// If the store already holds entries and force is false, nothing is
// written. A forced run over a populated store also deletes stored ids
// that are not in items, once every batch has been committed. Each batch is committed before the next is embedded, so a
// failure leaves earlier batches in place and the current one unwritten.
// Because a non-forced rerun skips any populated store, recovering from a
// partial run requires force.
func (e *Engine) Index(ctx context.Context, items []catalog.Item, force bool) (*IndexResult, error) {
	e.indexMu.Lock()
	defer e.indexMu.Unlock()

	start := time.Now()

	existing, err := e.driver.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting entries: %w", err)
	}

	if existing > 0 && !force {
		e.logger.Info("collection already populated, skipping index",
			"collection", e.collection,
			"existing", existing,
		)
		e.state.Store(int32(Indexed))

		result := &IndexResult{Skipped: true, TotalItems: existing, Duration: time.Since(start)}
		e.publishCompleted(ctx, result, force)
		return result, nil
	}

	prev := State(e.state.Swap(int32(Indexing)))
	total := len(items)
	batchCount := (total + e.batchSize - 1) / e.batchSize

	e.logger.Info("indexing catalog",
		"collection", e.collection,
		"items", total,
		"batches", batchCount,
		"batch_size", e.batchSize,
		"forced", force,
	)

	result := &IndexResult{}
	for b := range batchCount {
		lo := b * e.batchSize
		hi := min(lo+e.batchSize, total)

		if err := e.indexBatch(ctx, items[lo:hi]); err != nil {
			// Earlier batches stay committed. A populated store from a
			// previous run is still searchable.
			if prev == Indexed && !force {
				e.state.Store(int32(Indexed))
			} else {
				e.state.Store(int32(NotIndexed))
			}
			return nil, fmt.Errorf("indexing batch %d of %d: %w", b+1, batchCount, err)
		}

		result.Batches++
		result.Indexed = hi

		e.logger.Debug("indexed batch",
			"batch", b+1,
			"of", batchCount,
			"size", hi-lo,
		)

		if e.progress != nil {
			e.progress(hi, total)
		}
		e.publishBatch(ctx, b, batchCount, hi-lo, hi, total)
	}

	if force && existing > 0 {
		removed, err := e.removeStale(ctx, items)
		if err != nil {
			e.state.Store(int32(NotIndexed))
			return nil, fmt.Errorf("removing stale entries: %w", err)
		}
		result.Removed = removed
	}

	count, err := e.driver.Count(ctx)
	if err != nil {
		e.state.Store(int32(NotIndexed))
		return nil, fmt.Errorf("counting entries: %w", err)
	}

	result.TotalItems = count
	result.Duration = time.Since(start)
	e.state.Store(int32(Indexed))

	e.logger.Info("indexed catalog",
		"collection", e.collection,
		"indexed", result.Indexed,
		"removed", result.Removed,
		"total_items", count,
		"duration", result.Duration,
	)

	e.publishCompleted(ctx, result, force)
	return result, nil
}

func (e *Engine) indexBatch(ctx context.Context, items []catalog.Item) error {
	ids := make([]string, len(items))
	texts := make([]string, len(items))
	metadatas := make([]vector.Metadata, len(items))

	for i := range items {
		item := items[i]
		item.EnsureSoup()

		ids[i] = item.ID
		texts[i] = item.Soup
		metadatas[i] = vector.Metadata{
			Title:      item.Title,
			CleanTitle: item.CleanTitle,
			Year:       item.Year,
			Genres:     item.Genres,
			Tags:       item.Tags,
		}
	}

	vectors, err := e.embedder.Embed(ctx, texts)
	if err != nil {
		return embeddingError(err)
	}

	docs, err := vector.Zip(ids, vectors, texts, metadatas)
	if err != nil {
		return err
	}

	if err := vector.ValidateBatch(docs, e.embedder.Dimensions()); err != nil {
		return err
	}

	return e.driver.Upsert(ctx, docs)
}

// removeStale deletes stored entries whose id is not in items.
func (e *Engine) removeStale(ctx context.Context, items []catalog.Item) (int, error) {
	stored, err := e.driver.IDs(ctx)
	if err != nil {
		return 0, err
	}

	keep := make(map[string]struct{}, len(items))
	for i := range items {
		keep[items[i].ID] = struct{}{}
	}

	var stale []string
	for _, id := range stored {
		if _, ok := keep[id]; !ok {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	if err := e.driver.Delete(ctx, stale); err != nil {
		return 0, err
	}

	e.logger.Debug("removed stale entries",
		"collection", e.collection,
		"count", len(stale),
	)
	return len(stale), nil
}

// Recommend embeds query once and returns up to n nearest items, nearest
// first. Callers validate query and n; fewer than n results is not an
// error.
func (e *Engine) Recommend(ctx context.Context, query string, n int) ([]Recommendation, error) {
	vectors, err := e.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, embeddingError(err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: expected 1 query vector, got %d", vector.ErrEmbedding, len(vectors))
	}

	hits, err := e.driver.Query(ctx, vectors[0], n)
	if err != nil {
		return nil, fmt.Errorf("querying vector store: %w", err)
	}

	recs := make([]Recommendation, len(hits))
	for i, hit := range hits {
		// score is derived from the reported distance so the two always agree
		d := round4(hit.Distance)
		recs[i] = Recommendation{
			ID:       hit.ID,
			Title:    orNotAvailable(hit.Metadata.Title),
			Year:     orNotAvailable(hit.Metadata.Year),
			Genres:   orNotAvailable(hit.Metadata.Genres),
			Tags:     hit.Metadata.Tags,
			Score:    round4(1 - d),
			Distance: d,
		}
	}

	e.logger.Debug("recommended",
		"n", n,
		"results", len(recs),
	)

	return recs, nil
}

// Stats reports the collection's size and the configured model. The vector
// dimension comes from the embedder, so it is known for an empty store.
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	count, err := e.driver.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting entries: %w", err)
	}

	return &Stats{
		Collection: e.collection,
		TotalItems: count,
		Model:      e.embedder.Model(),
		VectorDim:  e.embedder.Dimensions(),
	}, nil
}

// Close releases the embedder, driver and publisher.
func (e *Engine) Close() error {
	return errors.Join(
		e.embedder.Close(),
		e.driver.Close(),
		e.publisher.Close(),
	)
}

func (e *Engine) publishBatch(ctx context.Context, index, count, size, done, total int) {
	err := e.publisher.PublishBatchIndexed(ctx, &eventstream.BatchIndexedEvent{
		Envelope:   eventstream.NewEnvelope(eventstream.EventTypeBatchIndexed),
		Source:     e.source(),
		BatchIndex: index,
		BatchCount: count,
		BatchSize:  size,
		Indexed:    done,
		Total:      total,
	})
	if err != nil {
		e.logger.Warn("could not publish batch event", "error", err)
	}
}

func (e *Engine) publishCompleted(ctx context.Context, r *IndexResult, force bool) {
	err := e.publisher.PublishIndexCompleted(ctx, &eventstream.IndexCompletedEvent{
		Envelope:   eventstream.NewEnvelope(eventstream.EventTypeIndexCompleted),
		Source:     e.source(),
		Skipped:    r.Skipped,
		Forced:     force,
		Indexed:    r.Indexed,
		TotalItems: r.TotalItems,
		DurationMs: r.Duration.Milliseconds(),
	})
	if err != nil {
		e.logger.Warn("could not publish completion event", "error", err)
	}
}

func (e *Engine) source() eventstream.IndexSource {
	return eventstream.IndexSource{
		Collection: e.collection,
		Model:      e.embedder.Model(),
	}
}

// embeddingError ensures embedder failures carry vector.ErrEmbedding.
func embeddingError(err error) error {
	if errors.Is(err, vector.ErrEmbedding) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", vector.ErrEmbedding, err)
}

func orNotAvailable(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

func round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}
