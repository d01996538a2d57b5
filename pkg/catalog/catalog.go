// Package catalog holds the catalog records produced by the upstream ETL
// step and reads them from its CSV output.
package catalog

import "strings"

// UnknownYear is the year the ETL step writes when a title carries none.
const UnknownYear = "Unknown"

// Item is one catalog entry. ID is the join key between the catalog and
// the vector index. Soup is the text that gets embedded.
type Item struct {
	ID         string
	Title      string
	CleanTitle string
	Year       string
	Genres     string
	Tags       string
	Soup       string
}

// BuildSoup joins the non-empty parts with single spaces.
func BuildSoup(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// EnsureSoup fills an empty Soup from the clean title, genres and tags.
func (i *Item) EnsureSoup() {
	if strings.TrimSpace(i.Soup) == "" {
		i.Soup = BuildSoup(i.CleanTitle, i.Genres, i.Tags)
	}
}
