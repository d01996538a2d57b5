package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/marquee/pkg/dotdir"
)

// isolate moves into an empty working directory with an empty HOME.
func isolate(tmpDir string) string {
	emptyDir := filepath.Join(tmpDir, "empty")
	Expect(os.Mkdir(emptyDir, 0o755)).To(Succeed())

	origDir, err := os.Getwd()
	Expect(err).NotTo(HaveOccurred())
	Expect(os.Chdir(emptyDir)).To(Succeed())
	DeferCleanup(func() { os.Chdir(origDir) })

	GinkgoT().Setenv("HOME", emptyDir)
	return emptyDir
}

var _ = Describe("dotdir", func() {
	var tmpDir string
	var m *dotdir.Manager

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-test-*")
		Expect(err).NotTo(HaveOccurred())

		// Resolve symlinks so paths match filepath.Abs results
		// (e.g. on macOS /var -> /private/var).
		tmpDir, err = filepath.EvalSymlinks(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		m = dotdir.NewManager()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("Target", func() {
		It("creates the override directory if it doesn't exist", func() {
			dir := filepath.Join(tmpDir, "newdir")
			result, err := m.Target(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(dir))
			Expect(dir).To(BeADirectory())
		})

		It("returns the override dir even when a local .marquee dir exists", func() {
			Expect(os.Mkdir(filepath.Join(tmpDir, ".marquee"), 0o755)).To(Succeed())

			origDir, err := os.Getwd()
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Chdir(tmpDir)).To(Succeed())
			DeferCleanup(func() { os.Chdir(origDir) })

			overrideDir := filepath.Join(tmpDir, "override")
			result, err := m.Target(overrideDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(overrideDir))
		})

		It("returns the local .marquee dir when it exists and no override is provided", func() {
			local := filepath.Join(tmpDir, ".marquee")
			Expect(os.Mkdir(local, 0o755)).To(Succeed())

			origDir, err := os.Getwd()
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Chdir(tmpDir)).To(Succeed())
			DeferCleanup(func() { os.Chdir(origDir) })

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(local))
		})

		It("returns the home .marquee dir when only that exists", func() {
			home := isolate(tmpDir)
			Expect(os.Mkdir(filepath.Join(home, ".marquee"), 0o755)).To(Succeed())

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(home, ".marquee")))
		})

		It("returns empty string when no directory exists and no override is provided", func() {
			home := isolate(tmpDir)

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(BeEmpty())
			Expect(filepath.Join(home, ".marquee")).NotTo(BeADirectory())
		})
	})

	Describe("Ensure", func() {
		It("creates ~/.marquee when nothing resolves", func() {
			home := isolate(tmpDir)

			result, err := m.Ensure("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(home, ".marquee")))
			Expect(result).To(BeADirectory())
		})
	})
})
