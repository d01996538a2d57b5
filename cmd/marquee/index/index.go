// Package indexcmder provides the index command, which embeds the movie
// catalog into the configured vector store.
package indexcmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/marquee/cmd/marquee/wiring"
	"github.com/papercomputeco/marquee/pkg/catalog"
	"github.com/papercomputeco/marquee/pkg/cliui"
	"github.com/papercomputeco/marquee/pkg/config"
	"github.com/papercomputeco/marquee/pkg/dotdir"
	"github.com/papercomputeco/marquee/pkg/engine"
	"github.com/papercomputeco/marquee/pkg/logger"
)

const indexLongDesc string = `Embed the movie catalog into the vector store.

Reads the processed catalog CSV, embeds each movie's text in batches and
upserts the vectors with their metadata. If the collection already holds
entries the run is skipped unless --force is given.

With --watch the command keeps running and re-indexes (forced) whenever the
catalog file is rewritten. With --smoke a query is run against the fresh
index and the top matches are printed.

Examples:
  marquee index
  marquee index --force --catalog data/processed/processed_movies.csv
  marquee index --smoke "sad robot in space"
  marquee index --watch --embedding-provider hashing`

const indexShortDesc string = "Embed the catalog into the vector store"

const smokeResults = 5

// indexFlags are the registry keys bound by the index command.
var indexFlags = []string{
	config.FlagCatalog,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagCollection,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagBatchSize,
	config.FlagEventStreamProv,
	config.FlagEventBrokers,
	config.FlagEventTopic,
}

type indexCommander struct {
	flags     flagValues
	force     bool
	watch     bool
	smoke     string
	debug     bool
	configDir string

	out    io.Writer
	logger *slog.Logger
}

// flagValues holds the registry flag targets. Values are read back through
// viper so only explicitly set flags override the config file.
type flagValues struct {
	catalog, vsProvider, vsTarget, collection string
	embProvider, embTarget, embModel          string
	embDims, batchSize                        uint
	eventProvider, eventBrokers, eventTopic   string
}

func NewIndexCmd() *cobra.Command {
	cmder := &indexCommander{}

	cmd := &cobra.Command{
		Use:   "index",
		Short: indexShortDesc,
		Long:  indexLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			cmder.out = cmd.OutOrStdout()

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, config.Registry, indexFlags)

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
	config.AddStringFlag(cmd, config.Registry, config.FlagEventStreamProv, &f.eventProvider)
	config.AddStringFlag(cmd, config.Registry, config.FlagEventBrokers, &f.eventBrokers)
	config.AddStringFlag(cmd, config.Registry, config.FlagEventTopic, &f.eventTopic)

	cmd.Flags().BoolVarP(&cmder.force, "force", "f", false, "Re-embed the whole catalog even if the collection is populated")
	cmd.Flags().BoolVarP(&cmder.watch, "watch", "w", false, "Keep running and re-index when the catalog file changes")
	cmd.Flags().StringVar(&cmder.smoke, "smoke", "", "Run this query against the index after indexing")

	return cmd
}

func (c *indexCommander) run(ctx context.Context, cfg *config.Config) error {
	c.logger = logger.New(
		logger.WithDebug(c.debug),
		logger.WithPretty(true),
		logger.WithWriter(os.Stderr),
	)

	var items []catalog.Item
	err := cliui.Step(c.out, "Loading catalog "+cfg.Catalog.Path, func() error {
		var err error
		items, err = catalog.LoadFile(cfg.Catalog.Path)
		return err
	})
	if err != nil {
		return err
	}

	progress := newProgress(c.out)
	built, err := wiring.NewEngine(ctx, cfg, c.configDir, c.logger, engine.WithProgress(progress.update))
	if err != nil {
		return err
	}
	defer built.Engine.Close()

	c.checkManifest(built)

	if err := c.index(ctx, cfg, built, items, c.force, progress); err != nil {
		return err
	}

	if c.smoke != "" {
		if err := c.runSmoke(ctx, built.Engine); err != nil {
			return err
		}
	}

	if c.watch {
		return c.watchCatalog(ctx, cfg, built, progress)
	}
	return nil
}

// checkManifest warns when the store was last written by a different
// embedding model, since mixing vectors from two models ruins ranking.
func (c *indexCommander) checkManifest(built *wiring.Built) {
	manifest, err := dotdir.NewManager().LoadManifest(c.configDir)
	if err != nil {
		c.logger.Warn("could not read index manifest", "error", err)
		return
	}
	if manifest == nil || manifest.SameEmbedding(built.Model, built.Dimensions) {
		return
	}

	fmt.Fprintf(c.out, "  %s Collection was indexed with %s (%d dims), now using %s (%d dims)\n",
		cliui.WarnMark,
		cliui.ValueStyle.Render(manifest.Model), manifest.Dimensions,
		cliui.ValueStyle.Render(built.Model), built.Dimensions,
	)
	if !c.force {
		fmt.Fprintf(c.out, "  %s\n", cliui.DimStyle.Render("Pass --force to re-embed the catalog with the new model."))
	}
}

func (c *indexCommander) index(ctx context.Context, cfg *config.Config, built *wiring.Built, items []catalog.Item, force bool, progress *progress) error {
	progress.reset()
	result, err := built.Engine.Index(ctx, items, force)
	progress.finish()
	if err != nil {
		fmt.Fprintf(c.out, "  %s Indexing failed\n", cliui.FailMark)
		return err
	}

	if result.Skipped {
		fmt.Fprintf(c.out, "  %s Collection %s already holds %d items, skipped (use --force to re-index)\n",
			cliui.SuccessMark,
			cliui.ValueStyle.Render(cfg.VectorStore.Collection),
			result.TotalItems,
		)
		return nil
	}

	fmt.Fprintf(c.out, "  %s Indexed %d items in %d batches %s\n",
		cliui.SuccessMark,
		result.Indexed,
		result.Batches,
		cliui.DimStyle.Render("("+cliui.FormatDuration(result.Duration)+")"),
	)
	if result.Removed > 0 {
		fmt.Fprintf(c.out, "  %s Removed %d items no longer in the catalog\n", cliui.SuccessMark, result.Removed)
	}

	if err := dotdir.NewManager().SaveManifest(built.Manifest(cfg, result.TotalItems), c.configDir); err != nil {
		c.logger.Warn("could not write index manifest", "error", err)
	}
	return nil
}

func (c *indexCommander) runSmoke(ctx context.Context, eng *engine.Engine) error {
	recs, err := eng.Recommend(ctx, c.smoke, smokeResults)
	if err != nil {
		return fmt.Errorf("smoke query: %w", err)
	}

	fmt.Fprintf(c.out, "\n  %s %s\n\n", cliui.TitleStyle.Render("Smoke test:"), c.smoke)
	for i, r := range recs {
		fmt.Fprintf(c.out, "  %2d. %s %s  %s\n",
			i+1,
			r.Title,
			cliui.DimStyle.Render("("+r.Year+")"),
			cliui.ScoreStyle.Render(fmt.Sprintf("%.4f", r.Score)),
		)
	}
	fmt.Fprintln(c.out)
	return nil
}

// progress renders a progress bar for one indexing run at a time. It
// stays silent when out is not a terminal.
type progress struct {
	out     io.Writer
	enabled bool
	bar     *progressbar.ProgressBar
}

func newProgress(out io.Writer) *progress {
	return &progress{out: out, enabled: isTerminal(out)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *progress) reset() {
	p.bar = nil
}

func (p *progress) update(done, total int) {
	if !p.enabled {
		return
	}
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowBytes(false),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription("[cyan]Indexing[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}
	_ = p.bar.Set(done)
}

func (p *progress) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
		fmt.Fprintln(p.out)
	}
}
