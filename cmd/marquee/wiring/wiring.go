// Package wiring builds a recommendation engine and its collaborators from
// resolved marquee configuration. It is shared by the index and serve
// commands.
package wiring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/papercomputeco/marquee/cmd/marquee/storepath"
	"github.com/papercomputeco/marquee/pkg/config"
	"github.com/papercomputeco/marquee/pkg/dotdir"
	embeddingutils "github.com/papercomputeco/marquee/pkg/embeddings/utils"
	"github.com/papercomputeco/marquee/pkg/engine"
	"github.com/papercomputeco/marquee/pkg/eventstream"
	"github.com/papercomputeco/marquee/pkg/eventstream/kafka"
	"github.com/papercomputeco/marquee/pkg/eventstream/nop"
	vectorutils "github.com/papercomputeco/marquee/pkg/vector/utils"
)

// QdrantAPIKeyEnv names the environment variable read for a Qdrant API key.
const QdrantAPIKeyEnv = "QDRANT_API_KEY"

// Event stream providers.
const (
	EventStreamNone  = "none"
	EventStreamKafka = "kafka"
)

// Built is an engine along with the resolved settings it was built from.
type Built struct {
	Engine *engine.Engine

	// VectorTarget is the resolved store target (a file path for file
	// backed providers).
	VectorTarget string

	// Model and Dimensions are reported by the embedder.
	Model      string
	Dimensions uint
}

// Manifest describes the index the engine writes, for recording in the
// .marquee/ directory after a successful run.
func (b *Built) Manifest(cfg *config.Config, items int) *dotdir.IndexManifest {
	return &dotdir.IndexManifest{
		Collection:    cfg.VectorStore.Collection,
		VectorStore:   cfg.VectorStore.Provider,
		EmbeddingProv: cfg.Embedding.Provider,
		Model:         b.Model,
		Dimensions:    b.Dimensions,
		CatalogPath:   cfg.Catalog.Path,
		Items:         items,
		IndexedAt:     time.Now().UTC(),
	}
}

// NewEngine creates the embedder, vector driver and event publisher named
// by cfg and wires them into an engine. Everything created is released if
// a later step fails.
func NewEngine(ctx context.Context, cfg *config.Config, configDir string, logger *slog.Logger, opts ...engine.Option) (*Built, error) {
	target, err := storepath.Resolve(cfg.VectorStore.Provider, cfg.VectorStore.Target, configDir)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    cfg.Embedding.Target,
		Model:        cfg.Embedding.Model,
		Dimensions:   cfg.Embedding.Dimensions,
		APIKeyEnv:    cfg.Embedding.APIKeyEnv,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	driver, err := vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
		ProviderType:   cfg.VectorStore.Provider,
		Target:         target,
		CollectionName: cfg.VectorStore.Collection,
		Dimensions:     embedder.Dimensions(),
		APIKey:         os.Getenv(QdrantAPIKeyEnv),
		Logger:         logger,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("creating vector driver: %w", err), embedder.Close())
	}

	publisher, err := NewPublisher(cfg.EventStream, logger)
	if err != nil {
		return nil, errors.Join(err, driver.Close(), embedder.Close())
	}

	opts = append([]engine.Option{
		engine.WithBatchSize(int(cfg.Indexing.BatchSize)),
		engine.WithPublisher(publisher),
	}, opts...)

	eng, err := engine.New(engine.Config{Collection: cfg.VectorStore.Collection}, embedder, driver, logger, opts...)
	if err != nil {
		return nil, errors.Join(err, publisher.Close(), driver.Close(), embedder.Close())
	}

	logger.Info("engine ready",
		"vector_store", cfg.VectorStore.Provider,
		"target", target,
		"collection", cfg.VectorStore.Collection,
		"embedding_provider", cfg.Embedding.Provider,
		"model", embedder.Model(),
		"dimensions", embedder.Dimensions(),
	)

	return &Built{
		Engine:       eng,
		VectorTarget: target,
		Model:        embedder.Model(),
		Dimensions:   embedder.Dimensions(),
	}, nil
}

// NewPublisher returns the indexing event publisher for c.
func NewPublisher(c config.EventStreamConfig, logger *slog.Logger) (eventstream.Publisher, error) {
	switch c.Provider {
	case "", EventStreamNone:
		return nop.NewPublisher(), nil
	case EventStreamKafka:
		p, err := kafka.NewPublisher(kafka.Config{
			Brokers: c.Brokers,
			Topic:   c.Topic,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported event stream provider: %s", c.Provider)
	}
}
