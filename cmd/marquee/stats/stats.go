// Package statscmder provides the stats command, which reports on the
// indexed collection.
package statscmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/marquee/pkg/cliui"
	"github.com/papercomputeco/marquee/pkg/config"
	"github.com/papercomputeco/marquee/pkg/dotdir"
	"github.com/papercomputeco/marquee/pkg/engine"
)

const statsLongDesc string = `Show stats for the indexed collection.

Queries a running Marquee API server for the live collection stats and
prints the manifest recorded by the last "marquee index" run.

Use --local to skip the API and print only the manifest.

Examples:
  marquee stats
  marquee stats --local
  marquee stats --api-target http://localhost:8081`

const statsShortDesc string = "Show collection stats"

const requestTimeout = 10 * time.Second

const keyWidth = 12

type statsCommander struct {
	apiTarget string
	local     bool
	configDir string
	out       io.Writer
}

func NewStatsCmd() *cobra.Command {
	cmder := &statsCommander{}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: statsShortDesc,
		Long:  statsLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, config.Registry, []string{config.FlagAPITarget})
			cmder.apiTarget = v.GetString("client.api_target")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Registry, config.FlagAPITarget, &cmder.apiTarget)
	cmd.Flags().BoolVar(&cmder.local, "local", false, "Only show the local index manifest")

	return cmd
}

func (c *statsCommander) run(ctx context.Context) error {
	manifest, err := dotdir.NewManager().LoadManifest(c.configDir)
	if err != nil {
		return err
	}
	c.printManifest(manifest)

	if c.local {
		return nil
	}

	stats, err := StatsAPI(ctx, c.apiTarget)
	if err != nil {
		fmt.Fprintf(c.out, "  %s %s\n\n", cliui.FailMark, cliui.DimStyle.Render("API unavailable"))
		return err
	}

	fmt.Fprintf(c.out, "%s %s\n\n", cliui.TitleStyle.Render("Live collection"), cliui.DimStyle.Render(c.apiTarget))
	c.line("collection", stats.Collection)
	c.line("items", strconv.Itoa(stats.TotalItems))
	c.line("model", stats.Model)
	c.line("dimensions", strconv.FormatUint(uint64(stats.VectorDim), 10))
	fmt.Fprintln(c.out)

	if manifest != nil && manifest.Items != stats.TotalItems {
		fmt.Fprintf(c.out, "  %s Live count differs from the last local index run (%d)\n\n",
			cliui.WarnMark, manifest.Items)
	}
	return nil
}

func (c *statsCommander) printManifest(m *dotdir.IndexManifest) {
	fmt.Fprintf(c.out, "\n%s\n\n", cliui.TitleStyle.Render("Last index run"))
	if m == nil {
		fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("No index manifest found. Run marquee index."))
		return
	}

	c.line("collection", m.Collection)
	c.line("store", m.VectorStore)
	c.line("embedding", m.EmbeddingProv+" / "+m.Model)
	c.line("dimensions", strconv.FormatUint(uint64(m.Dimensions), 10))
	c.line("catalog", m.CatalogPath)
	c.line("items", strconv.Itoa(m.Items))
	c.line("indexed at", m.IndexedAt.Local().Format(time.DateTime))
	fmt.Fprintln(c.out)
}

func (c *statsCommander) line(key, value string) {
	fmt.Fprintln(c.out, cliui.KeyValue(key, keyWidth, value))
}

// StatsAPI fetches collection stats from the marquee API.
func StatsAPI(ctx context.Context, apiTarget string) (*engine.Stats, error) {
	u, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	u.Path = "/stats"

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating stats request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Marquee API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stats request failed (HTTP %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var stats engine.Stats
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("failed to parse stats response: %w", err)
	}
	return &stats, nil
}
