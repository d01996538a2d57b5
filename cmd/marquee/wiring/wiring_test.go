package wiring_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/marquee/cmd/marquee/wiring"
	"github.com/papercomputeco/marquee/pkg/catalog"
	"github.com/papercomputeco/marquee/pkg/config"
	"github.com/papercomputeco/marquee/pkg/eventstream/kafka"
	"github.com/papercomputeco/marquee/pkg/eventstream/nop"
	"github.com/papercomputeco/marquee/pkg/logger"
)

var _ = Describe("NewEngine", func() {
	var (
		ctx context.Context
		cfg *config.Config
		dir string
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir = GinkgoT().TempDir()

		var err error
		cfg, err = config.PresetConfig("hashing")
		Expect(err).NotTo(HaveOccurred())
		cfg.VectorStore.Provider = "bolt"
	})

	It("builds a working engine on a file store in the config dir", func() {
		built, err := wiring.NewEngine(ctx, cfg, dir, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(built.Engine.Close)

		Expect(built.VectorTarget).To(Equal(filepath.Join(dir, "vectors.bolt")))
		Expect(built.Model).To(Equal("hashing-bow-v1"))
		Expect(built.Dimensions).To(Equal(uint(384)))

		result, err := built.Engine.Index(ctx, []catalog.Item{
			{ID: "1", Title: "WALL·E", Soup: "sad robot space drama"},
			{ID: "2", Title: "Good Boy", Soup: "funny talking dog comedy"},
		}, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.TotalItems).To(Equal(2))

		recs, err := built.Engine.Recommend(ctx, "sad robot space drama", 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(recs[0].ID).To(Equal("1"))
	})

	It("describes the index in a manifest", func() {
		built, err := wiring.NewEngine(ctx, cfg, dir, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(built.Engine.Close)

		m := built.Manifest(cfg, 7)
		Expect(m.Collection).To(Equal("movies"))
		Expect(m.VectorStore).To(Equal("bolt"))
		Expect(m.EmbeddingProv).To(Equal("hashing"))
		Expect(m.Items).To(Equal(7))
		Expect(m.SameEmbedding("hashing-bow-v1", 384)).To(BeTrue())
		Expect(m.IndexedAt.IsZero()).To(BeFalse())
	})

	It("rejects unknown embedding providers", func() {
		cfg.Embedding.Provider = "word2vec"

		_, err := wiring.NewEngine(ctx, cfg, dir, logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("creating embedder")))
	})

	It("requires a target for network stores", func() {
		cfg.VectorStore.Provider = "chroma"

		_, err := wiring.NewEngine(ctx, cfg, dir, logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("target is required")))
	})

	It("rejects unknown event stream providers", func() {
		cfg.EventStream.Provider = "nats"

		_, err := wiring.NewEngine(ctx, cfg, dir, logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("unsupported event stream provider")))
	})
})

var _ = Describe("NewPublisher", func() {
	It("returns a nop publisher by default", func() {
		p, err := wiring.NewPublisher(config.EventStreamConfig{Provider: "none"}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(BeAssignableToTypeOf(&nop.Publisher{}))
	})

	It("returns a kafka publisher when brokers are set", func() {
		p, err := wiring.NewPublisher(config.EventStreamConfig{
			Provider: "kafka",
			Brokers:  []string{"localhost:9092"},
			Topic:    "marquee.index",
		}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(BeAssignableToTypeOf(&kafka.Publisher{}))
		Expect(p.Close()).To(Succeed())
	})

	It("requires kafka brokers", func() {
		_, err := wiring.NewPublisher(config.EventStreamConfig{Provider: "kafka"}, logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("broker")))
	})
})
