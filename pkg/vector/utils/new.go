// Package vectorutils builds a vector.Driver from provider settings.
package vectorutils

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/papercomputeco/marquee/pkg/vector"
	"github.com/papercomputeco/marquee/pkg/vector/bolt"
	"github.com/papercomputeco/marquee/pkg/vector/chroma"
	"github.com/papercomputeco/marquee/pkg/vector/pgvector"
	"github.com/papercomputeco/marquee/pkg/vector/qdrant"
	"github.com/papercomputeco/marquee/pkg/vector/sqlitevec"
)

// Supported vector store providers.
const (
	ProviderSQLite   = "sqlite"
	ProviderChroma   = "chroma"
	ProviderQdrant   = "qdrant"
	ProviderPgvector = "pgvector"
	ProviderBolt     = "bolt"
)

// Providers lists every supported provider name.
var Providers = []string{ProviderSQLite, ProviderChroma, ProviderQdrant, ProviderPgvector, ProviderBolt}

type NewVectorDriverOpts struct {
	ProviderType string

	// Target is a file path for sqlite and bolt, a URL for chroma, a
	// host:port or URL for qdrant and a connection string for pgvector.
	Target string

	CollectionName string
	Dimensions     uint

	// APIKey is passed to providers that accept one (qdrant).
	APIKey string

	Logger *slog.Logger
}

func NewVectorDriver(ctx context.Context, o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case ProviderSQLite:
		if err := ensureParentDir(o.Target); err != nil {
			return nil, err
		}
		return sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:         o.Target,
			Dimensions:     o.Dimensions,
			CollectionName: o.CollectionName,
		}, o.Logger)
	case ProviderBolt:
		if err := ensureParentDir(o.Target); err != nil {
			return nil, err
		}
		return bolt.NewDriver(bolt.Config{
			Path:           o.Target,
			CollectionName: o.CollectionName,
			Dimensions:     o.Dimensions,
		}, o.Logger)
	case ProviderChroma:
		return chroma.NewDriver(chroma.Config{
			URL:            o.Target,
			CollectionName: o.CollectionName,
		}, o.Logger)
	case ProviderQdrant:
		return qdrant.NewDriver(ctx, qdrant.Config{
			Target:         o.Target,
			APIKey:         o.APIKey,
			CollectionName: o.CollectionName,
			Dimensions:     o.Dimensions,
		}, o.Logger)
	case ProviderPgvector:
		return pgvector.NewDriver(ctx, pgvector.Config{
			ConnString:     o.Target,
			CollectionName: o.CollectionName,
			Dimensions:     o.Dimensions,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}

// ensureParentDir creates the directory holding a file-backed store.
func ensureParentDir(path string) error {
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %v", vector.ErrStoreUnavailable, dir, err)
	}
	return nil
}
