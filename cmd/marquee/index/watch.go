package indexcmder

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/papercomputeco/marquee/cmd/marquee/wiring"
	"github.com/papercomputeco/marquee/pkg/catalog"
	"github.com/papercomputeco/marquee/pkg/cliui"
	"github.com/papercomputeco/marquee/pkg/config"
)

// watchDebounce collapses the burst of events an editor or ETL job emits
// while rewriting the catalog into one re-index.
const watchDebounce = 500 * time.Millisecond

// watchCatalog re-indexes with force whenever the catalog file is written
// or replaced, until ctx is cancelled. A catalog that fails to load or
// index is reported and the previous index is left serving.
func (c *indexCommander) watchCatalog(ctx context.Context, cfg *config.Config, built *wiring.Built, progress *progress) error {
	path, err := filepath.Abs(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("resolving catalog path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating catalog watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so atomic renames over the file are seen.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching catalog dir: %w", err)
	}

	fmt.Fprintf(c.out, "  %s\n", cliui.DimStyle.Render("Watching "+path+" for changes (Ctrl+C to stop)"))

	var (
		timer   *time.Timer
		trigger <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			c.logger.Debug("catalog changed", "path", path, "op", event.Op.String())

			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			trigger = timer.C

		case <-trigger:
			trigger = nil
			c.reindex(ctx, cfg, built, path, progress)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("catalog watcher error: %w", err)
		}
	}
}

func (c *indexCommander) reindex(ctx context.Context, cfg *config.Config, built *wiring.Built, path string, progress *progress) {
	items, err := catalog.LoadFile(path)
	if err != nil {
		fmt.Fprintf(c.out, "  %s Reloading catalog: %v\n", cliui.FailMark, err)
		return
	}

	if err := c.index(ctx, cfg, built, items, true, progress); err != nil {
		c.logger.Error("re-index failed", "error", err)
	}
}
