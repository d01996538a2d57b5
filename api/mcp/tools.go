package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/marquee/api/recommend"
	"github.com/papercomputeco/marquee/pkg/engine"
)

var (
	recommendToolName    = "recommend"
	recommendDescription = "Recommend movies for a natural-language description (e.g. \"sad robot falling in love\"). Returns the closest catalog entries ranked by semantic similarity, with title, year, genres, tags and a similarity score."

	statsToolName    = "stats"
	statsDescription = "Report the indexed movie collection: its name, number of entries, embedding model and vector dimension."
)

// RecommendInput represents the input arguments for the recommend tool.
type RecommendInput struct {
	Query    string `json:"query" jsonschema:"natural-language description of the movie to find"`
	NResults int    `json:"n_results,omitempty" jsonschema:"number of results to return, 1 to 50 (default: 10)"`
}

// StatsInput is the empty input of the stats tool.
type StatsInput struct{}

// handleRecommend processes a recommend request.
func (s *Server) handleRecommend(ctx context.Context, _ *mcp.CallToolRequest, input RecommendInput) (*mcp.CallToolResult, recommend.Response, error) {
	req := recommend.Request{Query: input.Query}
	if input.NResults != 0 {
		req.NResults = &input.NResults
	}

	output, err := recommend.Recommend(ctx, s.config.Recommender, req, s.config.Logger)
	if err != nil {
		s.config.Logger.Error("MCP recommend failed", "error", err)
		return errorResult(fmt.Sprintf("Recommend failed: %v", err)), recommend.Response{}, nil
	}

	result, err := jsonResult(output)
	if err != nil {
		s.config.Logger.Error("failed to marshal recommend output", "error", err)
		return errorResult(fmt.Sprintf("Failed to serialize results: %v", err)), recommend.Response{}, nil
	}

	return result, *output, nil
}

// handleStats reports collection stats.
func (s *Server) handleStats(ctx context.Context, _ *mcp.CallToolRequest, _ StatsInput) (*mcp.CallToolResult, engine.Stats, error) {
	stats, err := s.config.Recommender.Stats(ctx)
	if err != nil {
		s.config.Logger.Error("MCP stats failed", "error", err)
		return errorResult(fmt.Sprintf("Stats failed: %v", err)), engine.Stats{}, nil
	}

	result, err := jsonResult(stats)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to serialize stats: %v", err)), engine.Stats{}, nil
	}

	return result, *stats, nil
}

// jsonResult wraps v as a text block. Tools returning structured content
// also return it serialized for clients that only read text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}, nil
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}
