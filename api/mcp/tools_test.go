package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/marquee/api/recommend"
	"github.com/papercomputeco/marquee/pkg/engine"
	"github.com/papercomputeco/marquee/pkg/logger"
	testutils "github.com/papercomputeco/marquee/pkg/utils/test"
	"github.com/papercomputeco/marquee/pkg/vector"
)

var _ = Describe("tools", func() {
	var (
		ctx    context.Context
		server *Server
		driver *testutils.MockVectorDriver
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = testutils.NewMockVectorDriver()

		eng, err := engine.New(engine.Config{Collection: "movies"}, testutils.NewMockEmbedder(), driver, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		server, err = NewServer(Config{Recommender: eng, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())
	})

	textOf := func(result *mcp.CallToolResult) string {
		Expect(result.Content).To(HaveLen(1))
		text, ok := result.Content[0].(*mcp.TextContent)
		Expect(ok).To(BeTrue())
		return text.Text
	}

	Describe("handleRecommend", func() {
		It("returns structured and text output", func() {
			driver.Results = []vector.QueryResult{
				{Document: vector.Document{ID: "1", Metadata: vector.Metadata{Title: "WALL·E", Year: "2008"}}, Distance: 0.25},
			}

			result, output, err := server.handleRecommend(ctx, nil, RecommendInput{Query: "sad robot", NResults: 3})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())
			Expect(output.Query).To(Equal("sad robot"))
			Expect(output.NResults).To(Equal(1))
			Expect(output.Results[0].Title).To(Equal("WALL·E"))
			Expect(output.Results[0].Score).To(Equal(0.75))

			var decoded recommend.Response
			Expect(json.Unmarshal([]byte(textOf(result)), &decoded)).To(Succeed())
			Expect(decoded).To(Equal(output))
		})

		It("reports validation failures as tool errors", func() {
			result, _, err := server.handleRecommend(ctx, nil, RecommendInput{Query: "x"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
			Expect(textOf(result)).To(ContainSubstring("at least 2 characters"))
		})

		It("reports out of range result counts as tool errors", func() {
			result, _, err := server.handleRecommend(ctx, nil, RecommendInput{Query: "robots", NResults: 500})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
		})

		It("reports store failures as tool errors", func() {
			driver.Err = errors.New("store down")

			result, _, err := server.handleRecommend(ctx, nil, RecommendInput{Query: "robots"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
			Expect(textOf(result)).To(ContainSubstring("store down"))
		})
	})

	Describe("handleStats", func() {
		It("returns collection stats", func() {
			result, output, err := server.handleStats(ctx, nil, StatsInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())
			Expect(output).To(Equal(engine.Stats{
				Collection: "movies",
				TotalItems: 0,
				Model:      "mock-embedder",
				VectorDim:  3,
			}))
			Expect(textOf(result)).To(ContainSubstring(`"collection":"movies"`))
		})

		It("reports count failures as tool errors", func() {
			driver.Err = errors.New("store down")

			result, _, err := server.handleStats(ctx, nil, StatsInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
		})
	})
})
