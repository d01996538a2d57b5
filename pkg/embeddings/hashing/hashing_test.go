package hashing_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/marquee/pkg/embeddings/hashing"
	"github.com/papercomputeco/marquee/pkg/vector"
)

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

var _ = Describe("Embedder", func() {
	var (
		ctx context.Context
		e   *hashing.Embedder
	)

	BeforeEach(func() {
		ctx = context.Background()
		e = hashing.NewEmbedder(64)
	})

	It("defaults to 384 dimensions", func() {
		Expect(hashing.NewEmbedder(0).Dimensions()).To(Equal(uint(384)))
		Expect(e.Model()).To(Equal(hashing.ModelName))
	})

	It("returns one unit vector per input in order", func() {
		vectors, err := e.Embed(ctx, []string{"sad robot", "", "   "})
		Expect(err).NotTo(HaveOccurred())
		Expect(vectors).To(HaveLen(3))
		for _, v := range vectors {
			Expect(v).To(HaveLen(64))
			Expect(norm(v)).To(BeNumerically("~", 1, 1e-5))
		}
	})

	It("returns an empty result for an empty batch", func() {
		vectors, err := e.Embed(ctx, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(vectors).To(BeEmpty())
	})

	It("is deterministic and case-insensitive", func() {
		a, _ := e.Embed(ctx, []string{"Sad Robot!"})
		b, _ := e.Embed(ctx, []string{"sad robot"})
		Expect(a).To(Equal(b))
	})

	It("places overlapping texts closer than unrelated ones", func() {
		vectors, err := hashing.NewEmbedder(384).Embed(ctx, []string{
			"lonely robot in space",
			"sad robot in space",
			"romantic comedy wedding",
		})
		Expect(err).NotTo(HaveOccurred())

		near := vector.CosineDistance(vectors[0], vectors[1])
		far := vector.CosineDistance(vectors[0], vectors[2])
		Expect(near).To(BeNumerically("<", far))
	})

	It("honors cancellation", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := e.Embed(cancelled, []string{"x"})
		Expect(err).To(MatchError(context.Canceled))
	})
})
