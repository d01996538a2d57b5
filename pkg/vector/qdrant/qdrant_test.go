package qdrant

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/marquee/pkg/logger"
	"github.com/papercomputeco/marquee/pkg/vector"
)

var _ = Describe("Driver", func() {
	Describe("NewDriver", func() {
		It("requires a target", func() {
			_, err := NewDriver(context.Background(), Config{Dimensions: 4}, logger.Nop())
			Expect(err).To(MatchError(ContainSubstring("qdrant target is required")))
		})

		It("requires dimensions", func() {
			_, err := NewDriver(context.Background(), Config{Target: "localhost"}, logger.Nop())
			Expect(err).To(MatchError(ContainSubstring("dimensions must be greater than 0")))
		})
	})

	Describe("parseTarget", func() {
		DescribeTable("splits targets",
			func(target, host string, port int, tls bool) {
				h, p, t, err := parseTarget(target)
				Expect(err).NotTo(HaveOccurred())
				Expect(h).To(Equal(host))
				Expect(p).To(Equal(port))
				Expect(t).To(Equal(tls))
			},
			Entry("bare host", "localhost", "localhost", DefaultPort, false),
			Entry("host and port", "qdrant:7000", "qdrant", 7000, false),
			Entry("http url", "http://qdrant:6334", "qdrant", 6334, false),
			Entry("https url without port", "https://cloud.example.com", "cloud.example.com", DefaultPort, true),
		)

		It("rejects a non-numeric port", func() {
			_, _, _, err := parseTarget("qdrant:abc")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("pointID", func() {
		It("is deterministic per catalog id", func() {
			Expect(pointID("42").GetUuid()).To(Equal(pointID("42").GetUuid()))
			Expect(pointID("42").GetUuid()).NotTo(Equal(pointID("43").GetUuid()))
		})
	})

	Describe("documentFromPayload", func() {
		It("restores the catalog id, content and metadata", func() {
			doc := documentFromPayload(qdrant.NewValueMap(map[string]any{
				"doc_id":  "7",
				"content": "sad robot in space",
				"title":   "WALL-E",
				"year":    "2008",
			}))

			Expect(doc.ID).To(Equal("7"))
			Expect(doc.Content).To(Equal("sad robot in space"))
			Expect(doc.Metadata).To(Equal(vector.Metadata{Title: "WALL-E", Year: "2008"}))
		})
	})

	Describe("Interface compliance", func() {
		It("should implement vector.Driver interface", func() {
			var _ vector.Driver = (*Driver)(nil)
		})
	})
})
