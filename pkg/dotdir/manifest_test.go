package dotdir_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/marquee/pkg/dotdir"
)

var _ = Describe("dotdir.Manager manifest", func() {
	var tmpDir string
	var m *dotdir.Manager

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		m = dotdir.NewManager()
	})

	It("returns nil when no manifest exists", func() {
		manifest, err := m.LoadManifest(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(manifest).To(BeNil())
	})

	It("round-trips a manifest", func() {
		indexedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		Expect(m.SaveManifest(&dotdir.IndexManifest{
			Collection:    "movies",
			VectorStore:   "sqlite",
			EmbeddingProv: "ollama",
			Model:         "all-minilm",
			Dimensions:    384,
			Items:         9742,
			IndexedAt:     indexedAt,
		}, tmpDir)).To(Succeed())

		manifest, err := m.LoadManifest(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(manifest.Items).To(Equal(9742))
		Expect(manifest.IndexedAt.Equal(indexedAt)).To(BeTrue())
		Expect(manifest.SameEmbedding("all-minilm", 384)).To(BeTrue())
		Expect(manifest.SameEmbedding("nomic-embed-text", 768)).To(BeFalse())
	})

	It("returns error for invalid JSON", func() {
		Expect(os.WriteFile(filepath.Join(tmpDir, "index.json"), []byte("not json"), 0o600)).To(Succeed())

		manifest, err := m.LoadManifest(tmpDir)
		Expect(err).To(HaveOccurred())
		Expect(manifest).To(BeNil())
	})

	It("refuses to save nil", func() {
		Expect(m.SaveManifest(nil, tmpDir)).To(MatchError("cannot save nil index manifest"))
	})

	It("clears the manifest, tolerating a missing file", func() {
		Expect(m.SaveManifest(&dotdir.IndexManifest{Model: "m"}, tmpDir)).To(Succeed())
		Expect(m.ClearManifest(tmpDir)).To(Succeed())
		Expect(filepath.Join(tmpDir, "index.json")).NotTo(BeAnExistingFile())
		Expect(m.ClearManifest(tmpDir)).To(Succeed())
	})
})
