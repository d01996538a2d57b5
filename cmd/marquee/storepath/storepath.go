// Package storepath resolves where a vector store lives.
package storepath

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/papercomputeco/marquee/pkg/dotdir"
	vectorutils "github.com/papercomputeco/marquee/pkg/vector/utils"
)

// File names used for file-backed providers inside the .marquee/ directory.
const (
	SQLiteFile = "vectors.db"
	BoltFile   = "vectors.bolt"
)

// Resolve returns the target for the given vector store provider.
//
// File-backed providers (sqlite, bolt) fall back to a file in the resolved
// .marquee/ directory when target is empty, creating ~/.marquee if neither a
// local nor a home directory exists yet. Network providers require a target.
func Resolve(provider, target, configDir string) (string, error) {
	target = strings.TrimSpace(target)
	if target != "" {
		return target, nil
	}

	var file string
	switch provider {
	case vectorutils.ProviderSQLite:
		file = SQLiteFile
	case vectorutils.ProviderBolt:
		file = BoltFile
	case vectorutils.ProviderChroma, vectorutils.ProviderQdrant, vectorutils.ProviderPgvector:
		return "", fmt.Errorf("vector store target is required for provider %q; pass --vector-store-target", provider)
	default:
		return "", fmt.Errorf("unknown vector store provider: %q", provider)
	}

	dir, err := dotdir.NewManager().Ensure(configDir)
	if err != nil {
		return "", fmt.Errorf("resolving .marquee directory: %w", err)
	}

	return filepath.Join(dir, file), nil
}

// Exists reports whether a file-backed store already exists at path.
func Exists(provider, path string) bool {
	if provider != vectorutils.ProviderSQLite && provider != vectorutils.ProviderBolt {
		return true
	}
	_, err := os.Stat(path)
	return err == nil
}
