// Package recommendcmder provides the recommend command, a client for the
// marquee API's recommendation endpoint.
package recommendcmder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/marquee/api/recommend"
	"github.com/papercomputeco/marquee/pkg/cliui"
	"github.com/papercomputeco/marquee/pkg/config"
	"github.com/papercomputeco/marquee/pkg/engine"
	"github.com/papercomputeco/marquee/pkg/utils"
)

var (
	rankStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	queryStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	genreStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

const maxTagsLen = 60

const requestTimeout = 60 * time.Second

type recommendCommander struct {
	query     string
	n         int
	quiet     bool
	apiTarget string
	out       io.Writer
}

const recommendLongDesc string = `Get movie recommendations from a running Marquee API server.

Describe what you want to watch in plain language; the closest movies in the
indexed catalog are returned with their similarity scores.

Use --quiet to print only movie ids, one per line.

Examples:
  marquee recommend "sad robot in space"
  marquee recommend "feel-good heist with a twist" -n 5
  marquee recommend "90s courtroom drama" --api-target http://localhost:8081`

const recommendShortDesc string = "Get movie recommendations"

func NewRecommendCmd() *cobra.Command {
	cmder := &recommendCommander{}

	cmd := &cobra.Command{
		Use:   "recommend <query>",
		Short: recommendShortDesc,
		Long:  recommendLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, config.Registry, []string{config.FlagAPITarget})
			cmder.apiTarget = v.GetString("client.api_target")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Registry, config.FlagAPITarget, &cmder.apiTarget)
	cmd.Flags().IntVarP(&cmder.n, "results", "n", recommend.DefaultResults,
		fmt.Sprintf("Number of recommendations (1-%d)", recommend.MaxResults))
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Output only movie ids, one per line")

	return cmd
}

func (c *recommendCommander) run(ctx context.Context) error {
	resp, err := RecommendAPI(ctx, c.apiTarget, c.query, c.n)
	if err != nil {
		return err
	}

	if c.quiet {
		for _, r := range resp.Results {
			fmt.Fprintln(c.out, r.ID)
		}
		return nil
	}

	if len(resp.Results) == 0 {
		fmt.Fprintln(c.out, "No recommendations found. Is the catalog indexed?")
		return nil
	}

	fmt.Fprintf(c.out, "\n%s %s\n\n",
		headerStyle.Render("Recommendations for:"),
		queryStyle.Render(fmt.Sprintf("%q", resp.Query)),
	)
	for i, r := range resp.Results {
		c.printResult(i+1, r)
	}
	return nil
}

func (c *recommendCommander) printResult(rank int, r engine.Recommendation) {
	fmt.Fprintf(c.out, "  %s  %s %s  %s\n",
		rankStyle.Render(fmt.Sprintf("#%d", rank)),
		cliui.TitleStyle.Render(r.Title),
		cliui.DimStyle.Render("("+r.Year+")"),
		cliui.ScoreStyle.Render(fmt.Sprintf("score: %.4f", r.Score)),
	)
	fmt.Fprintf(c.out, "      %s\n", genreStyle.Render(r.Genres))
	if tags := strings.TrimSpace(r.Tags); tags != "" && tags != "N/A" {
		fmt.Fprintf(c.out, "      %s\n", cliui.DimStyle.Render(utils.Truncate(tags, maxTagsLen)))
	}
	fmt.Fprintln(c.out)
}

// RecommendAPI posts a recommendation request to the marquee API and
// returns the parsed response.
func RecommendAPI(ctx context.Context, apiTarget, query string, n int) (*recommend.Response, error) {
	u, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	u.Path = "/v1/recommend"

	body, err := json.Marshal(recommend.Request{Query: query, NResults: &n})
	if err != nil {
		return nil, fmt.Errorf("encoding recommend request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating recommend request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Marquee API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recommend request failed (HTTP %d): %s", resp.StatusCode, errorMessage(data))
	}

	var out recommend.Response
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse recommend response: %w", err)
	}
	return &out, nil
}

// errorMessage extracts the error field of an API error body, falling back
// to the raw body.
func errorMessage(data []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(data))
}
