package catalog_test

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/marquee/pkg/catalog"
)

const processed = `movieId,title,clean_title,year,genres_clean,tags,soup
1,Toy Story (1995),Toy Story,1995,Adventure Animation Children,pixar fun,Toy Story Adventure Animation Children pixar fun
2,"Heat, The (1995)","Heat, The",1995,Action Crime,,
3,Untitled,Untitled,Unknown,,,
`

var _ = Describe("BuildSoup", func() {
	It("joins non-empty parts with single spaces", func() {
		Expect(catalog.BuildSoup("Heat", "", "Action Crime", " ")).To(Equal("Heat Action Crime"))
		Expect(catalog.BuildSoup()).To(Equal(""))
	})
})

var _ = Describe("Load", func() {
	It("reads every row in order", func() {
		items, err := catalog.Load(strings.NewReader(processed))
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(HaveLen(3))

		Expect(items[0]).To(Equal(catalog.Item{
			ID:         "1",
			Title:      "Toy Story (1995)",
			CleanTitle: "Toy Story",
			Year:       "1995",
			Genres:     "Adventure Animation Children",
			Tags:       "pixar fun",
			Soup:       "Toy Story Adventure Animation Children pixar fun",
		}))
		Expect(items[1].Title).To(Equal("Heat, The (1995)"))
		Expect(items[2].Year).To(Equal(catalog.UnknownYear))
	})

	It("rebuilds a missing soup from title, genres and tags", func() {
		items, err := catalog.Load(strings.NewReader(processed))
		Expect(err).NotTo(HaveOccurred())
		Expect(items[1].Tags).To(BeEmpty())
		Expect(items[1].Soup).To(Equal("Heat, The Action Crime"))
		Expect(items[2].Soup).To(Equal("Untitled"))
	})

	It("treats NaN markers as empty", func() {
		items, err := catalog.Load(strings.NewReader("movieId,clean_title,tags,soup\n9,Alien,NaN,nan\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(items[0].Tags).To(BeEmpty())
		Expect(items[0].Soup).To(Equal("Alien"))
	})

	It("matches columns by name", func() {
		items, err := catalog.Load(strings.NewReader("soup,movieId\nrobots,5\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(Equal([]catalog.Item{{ID: "5", Soup: "robots"}}))
	})

	It("requires the id column", func() {
		_, err := catalog.Load(strings.NewReader("title,soup\nx,y\n"))
		Expect(err).To(MatchError(catalog.ErrMissingColumn))
	})

	It("rejects empty and duplicate ids", func() {
		_, err := catalog.Load(strings.NewReader("movieId,soup\n,x\n"))
		Expect(err).To(MatchError(ContainSubstring("empty movieId")))

		_, err = catalog.Load(strings.NewReader("movieId,soup\n1,x\n1,y\n"))
		Expect(err).To(MatchError(ContainSubstring(`duplicate movieId "1"`)))
	})

	It("returns no items for a header-only file", func() {
		items, err := catalog.Load(strings.NewReader("movieId,soup\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(BeEmpty())
	})
})

var _ = Describe("LoadFile", func() {
	It("reads from disk", func() {
		path := filepath.Join(GinkgoT().TempDir(), "processed_movies.csv")
		Expect(os.WriteFile(path, []byte(processed), 0o600)).To(Succeed())

		items, err := catalog.LoadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(HaveLen(3))
	})

	It("reports a missing file", func() {
		_, err := catalog.LoadFile(filepath.Join(GinkgoT().TempDir(), "nope.csv"))
		Expect(err).To(MatchError(os.ErrNotExist))
	})
})
