// Package servecmder provides the serve command, which runs the
// recommendation API server on top of the indexed collection.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/marquee/api"
	"github.com/papercomputeco/marquee/cmd/marquee/wiring"
	"github.com/papercomputeco/marquee/pkg/catalog"
	"github.com/papercomputeco/marquee/pkg/config"
	"github.com/papercomputeco/marquee/pkg/logger"
)

const serveLongDesc string = `Run the Marquee recommendation API server.

On startup the catalog is indexed into the vector store unless the
collection already holds entries, then the server answers:

  GET  /ping                    Health check
  GET  /stats                   Collection stats
  GET  /v1/recommend?query=&n=  Recommendations
  POST /v1/recommend            Recommendations ({"query", "n_results"})
  /mcp                          MCP endpoint with recommend and stats tools

Use --no-index to serve an existing collection without reading the catalog.`

const serveShortDesc string = "Run the recommendation API server"

const shutdownTimeout = 10 * time.Second

var serveFlags = []string{
	config.FlagCatalog,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagCollection,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagBatchSize,
	config.FlagAPIListen,
	config.FlagEventStreamProv,
	config.FlagEventBrokers,
	config.FlagEventTopic,
}

type serveCommander struct {
	flags     flagValues
	noIndex   bool
	debug     bool
	configDir string

	logger *slog.Logger
}

type flagValues struct {
	catalog, vsProvider, vsTarget, collection string
	embProvider, embTarget, embModel          string
	embDims, batchSize                        uint
	listen                                    string
	eventProvider, eventBrokers, eventTopic   string
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, config.Registry, serveFlags)

			cmder.logger = logger.New(
				logger.WithDebug(cmder.debug),
				logger.WithPretty(true),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return cmder.run(ctx, config.FromViper(v))
		},
	}

	f := &cmder.flags
	config.AddStringFlag(cmd, config.Registry, config.FlagCatalog, &f.catalog)
	config.AddStringFlag(cmd, config.Registry, config.FlagVectorStoreProv, &f.vsProvider)
	config.AddStringFlag(cmd, config.Registry, config.FlagVectorStoreTgt, &f.vsTarget)
	config.AddStringFlag(cmd, config.Registry, config.FlagCollection, &f.collection)
	config.AddStringFlag(cmd, config.Registry, config.FlagEmbeddingProv, &f.embProvider)
	config.AddStringFlag(cmd, config.Registry, config.FlagEmbeddingTgt, &f.embTarget)
	config.AddStringFlag(cmd, config.Registry, config.FlagEmbeddingModel, &f.embModel)
	config.AddUintFlag(cmd, config.Registry, config.FlagEmbeddingDims, &f.embDims)
	config.AddUintFlag(cmd, config.Registry, config.FlagBatchSize, &f.batchSize)
	config.AddStringFlag(cmd, config.Registry, config.FlagAPIListen, &f.listen)
	config.AddStringFlag(cmd, config.Registry, config.FlagEventStreamProv, &f.eventProvider)
	config.AddStringFlag(cmd, config.Registry, config.FlagEventBrokers, &f.eventBrokers)
	config.AddStringFlag(cmd, config.Registry, config.FlagEventTopic, &f.eventTopic)

	cmd.Flags().BoolVar(&cmder.noIndex, "no-index", false, "Serve the existing collection without indexing the catalog")

	return cmd
}

func (c *serveCommander) run(ctx context.Context, cfg *config.Config) error {
	built, err := c.prepare(ctx, cfg)
	if err != nil {
		return err
	}
	defer built.Engine.Close()

	server, err := api.NewServer(api.Config{
		ListenAddr:  cfg.API.Listen,
		Recommender: built.Engine,
	}, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		c.logger.Info("received signal, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// prepare builds the engine and makes sure the collection is indexed. The
// catalog is only read when the collection is empty.
func (c *serveCommander) prepare(ctx context.Context, cfg *config.Config) (*wiring.Built, error) {
	built, err := wiring.NewEngine(ctx, cfg, c.configDir, c.logger)
	if err != nil {
		return nil, err
	}

	if !c.noIndex {
		if err := c.ensureIndexed(ctx, cfg, built); err != nil {
			return nil, errors.Join(err, built.Engine.Close())
		}
	}

	stats, err := built.Engine.Stats(ctx)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("reading collection stats: %w", err), built.Engine.Close())
	}
	if stats.TotalItems == 0 {
		c.logger.Warn("collection is empty, recommendations will return no results",
			"collection", stats.Collection,
			"hint", "run marquee index",
		)
	}

	return built, nil
}

func (c *serveCommander) ensureIndexed(ctx context.Context, cfg *config.Config, built *wiring.Built) error {
	stats, err := built.Engine.Stats(ctx)
	if err != nil {
		return err
	}
	if stats.TotalItems > 0 {
		c.logger.Info("serving existing collection",
			"collection", stats.Collection,
			"items", stats.TotalItems,
		)
		return nil
	}

	items, err := catalog.LoadFile(cfg.Catalog.Path)
	if err != nil {
		return err
	}

	result, err := built.Engine.Index(ctx, items, false)
	if err != nil {
		return err
	}
	c.logger.Info("indexed catalog on startup", "items", result.Indexed)
	return nil
}
