package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/marquee/api/recommend"
)

// ErrorResponse is the body returned for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is returned by the root health check.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

const notConfiguredMsg = "recommendation engine is not configured"

// handleRoot confirms the API is alive.
func (s *Server) handleRoot(c *fiber.Ctx) error {
	return c.JSON(StatusResponse{
		Status:  "ok",
		Message: "marquee recommendation engine is running",
	})
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleStats returns collection stats.
func (s *Server) handleStats(c *fiber.Ctx) error {
	if s.config.Recommender == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: notConfiguredMsg})
	}

	stats, err := s.config.Recommender.Stats(c.Context())
	if err != nil {
		s.logger.Error("stats failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to read collection stats"})
	}

	return c.JSON(stats)
}

// handleRecommendGet handles GET /v1/recommend requests.
// Query parameters:
//   - query (required): natural-language description, at least 2 characters
//   - n (optional, default 10): number of results, 1 to 50
func (s *Server) handleRecommendGet(c *fiber.Ctx) error {
	req := recommend.Request{Query: c.Query("query")}

	if nStr := c.Query("n"); nStr != "" {
		n, err := strconv.Atoi(nStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "n must be an integer"})
		}
		req.NResults = &n
	}

	return s.recommend(c, req)
}

// handleRecommendPost handles POST /v1/recommend with a JSON body of
// {"query": "...", "n_results": 5}.
func (s *Server) handleRecommendPost(c *fiber.Ctx) error {
	var req recommend.Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	return s.recommend(c, req)
}

func (s *Server) recommend(c *fiber.Ctx, req recommend.Request) error {
	if s.config.Recommender == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: notConfiguredMsg})
	}

	output, err := recommend.Recommend(c.Context(), s.config.Recommender, req, s.logger)
	switch {
	case errors.Is(err, recommend.ErrInvalidRequest):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	case err != nil:
		s.logger.Error("recommend failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to compute recommendations"})
	}

	return c.JSON(output)
}
