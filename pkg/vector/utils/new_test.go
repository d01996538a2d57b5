package vectorutils_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/marquee/pkg/logger"
	"github.com/papercomputeco/marquee/pkg/vector/bolt"
	"github.com/papercomputeco/marquee/pkg/vector/sqlitevec"
	vectorutils "github.com/papercomputeco/marquee/pkg/vector/utils"
)

var _ = Describe("NewVectorDriver", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("builds a sqlite-vec driver and creates its directory", func() {
		path := filepath.Join(GinkgoT().TempDir(), "nested", "vectors.db")

		driver, err := vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
			ProviderType: vectorutils.ProviderSQLite,
			Target:       path,
			Dimensions:   4,
			Logger:       logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
		defer driver.Close()

		Expect(driver).To(BeAssignableToTypeOf(&sqlitevec.Driver{}))
		Expect(path).To(BeAnExistingFile())
	})

	It("builds a bolt driver", func() {
		driver, err := vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
			ProviderType: vectorutils.ProviderBolt,
			Target:       filepath.Join(GinkgoT().TempDir(), "vectors.bolt"),
			Dimensions:   4,
			Logger:       logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
		defer driver.Close()

		Expect(driver).To(BeAssignableToTypeOf(&bolt.Driver{}))
	})

	It("rejects unknown providers", func() {
		_, err := vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
			ProviderType: "faiss",
			Logger:       logger.Nop(),
		})
		Expect(err).To(MatchError(ContainSubstring("unsupported vector store provider: faiss")))
	})
})
