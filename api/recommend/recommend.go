// Package recommend provides the request and response shapes for
// recommendation queries along with their validation. It is shared by the
// REST endpoints and the MCP server tool.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/papercomputeco/marquee/pkg/engine"
)

const (
	// DefaultResults is used when a request does not set n_results.
	DefaultResults = 10

	// MaxResults bounds n_results.
	MaxResults = 50

	// MinQueryLength is the minimum query length in characters after trimming.
	MinQueryLength = 2
)

// ErrInvalidRequest marks requests rejected before reaching the engine.
var ErrInvalidRequest = errors.New("invalid request")

// Recommender is the engine surface the boundary needs.
type Recommender interface {
	Recommend(ctx context.Context, query string, n int) ([]engine.Recommendation, error)
	Stats(ctx context.Context) (*engine.Stats, error)
}

// Request is a recommendation query.
type Request struct {
	Query string `json:"query"`

	// NResults is optional; nil means DefaultResults.
	NResults *int `json:"n_results,omitempty"`
}

// Response carries the ranked results. NResults is the number of results
// actually returned, which may be less than requested.
type Response struct {
	Query    string                  `json:"query"`
	NResults int                     `json:"n_results"`
	Results  []engine.Recommendation `json:"results"`
}

// Validate trims the query and resolves the result count, returning an
// ErrInvalidRequest-wrapped error for out of range input.
func (r *Request) Validate() (string, int, error) {
	query := strings.TrimSpace(r.Query)
	if utf8.RuneCountInString(query) < MinQueryLength {
		return "", 0, fmt.Errorf("%w: query must be at least %d characters", ErrInvalidRequest, MinQueryLength)
	}

	n := DefaultResults
	if r.NResults != nil {
		n = *r.NResults
	}
	if n < 1 || n > MaxResults {
		return "", 0, fmt.Errorf("%w: n_results must be between 1 and %d", ErrInvalidRequest, MaxResults)
	}

	return query, n, nil
}

// Recommend validates req and runs it against rec.
func Recommend(ctx context.Context, rec Recommender, req Request, logger *slog.Logger) (*Response, error) {
	query, n, err := req.Validate()
	if err != nil {
		return nil, err
	}

	logger.Debug("recommend request",
		"query", query,
		"n", n,
	)

	results, err := rec.Recommend(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("recommending: %w", err)
	}
	if results == nil {
		results = []engine.Recommendation{}
	}

	return &Response{
		Query:    query,
		NResults: len(results),
		Results:  results,
	}, nil
}
