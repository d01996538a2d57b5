package storepath_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/marquee/cmd/marquee/storepath"
)

var _ = Describe("Resolve", func() {
	var (
		homeDir string
		cwdDir  string
	)

	BeforeEach(func() {
		homeDir = GinkgoT().TempDir()
		cwdDir = GinkgoT().TempDir()

		origCwd, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			Expect(os.Chdir(origCwd)).To(Succeed())
		})

		GinkgoT().Setenv("HOME", homeDir)
		Expect(os.Chdir(cwdDir)).To(Succeed())
	})

	It("returns an explicit target unchanged", func() {
		path, err := storepath.Resolve("sqlite", " /tmp/custom.db ", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("/tmp/custom.db"))
	})

	It("uses the override directory for sqlite", func() {
		override := filepath.Join(cwdDir, "cfg")

		path, err := storepath.Resolve("sqlite", "", override)
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(filepath.Join(override, storepath.SQLiteFile)))
	})

	It("prefers a local .marquee directory", func() {
		Expect(os.Mkdir(filepath.Join(cwdDir, ".marquee"), 0o755)).To(Succeed())

		cwd, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		path, err := storepath.Resolve("bolt", "", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(filepath.Join(cwd, ".marquee", storepath.BoltFile)))
	})

	It("creates ~/.marquee when no directory exists", func() {
		path, err := storepath.Resolve("sqlite", "", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(filepath.Join(homeDir, ".marquee", storepath.SQLiteFile)))
		Expect(filepath.Join(homeDir, ".marquee")).To(BeADirectory())
	})

	It("requires a target for network providers", func() {
		for _, provider := range []string{"chroma", "qdrant", "pgvector"} {
			_, err := storepath.Resolve(provider, "", "")
			Expect(err).To(MatchError(ContainSubstring("target is required")))
		}
	})

	It("rejects unknown providers", func() {
		_, err := storepath.Resolve("faiss", "", "")
		Expect(err).To(MatchError(ContainSubstring("unknown vector store provider")))
	})
})

var _ = Describe("Exists", func() {
	It("checks the file for file-backed providers", func() {
		path := filepath.Join(GinkgoT().TempDir(), "vectors.db")
		Expect(storepath.Exists("sqlite", path)).To(BeFalse())

		Expect(os.WriteFile(path, []byte("x"), 0o600)).To(Succeed())
		Expect(storepath.Exists("sqlite", path)).To(BeTrue())
	})

	It("assumes network stores exist", func() {
		Expect(storepath.Exists("qdrant", "localhost:6334")).To(BeTrue())
	})
})
