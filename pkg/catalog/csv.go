package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Column names in the ETL output.
const (
	ColumnID         = "movieId"
	ColumnTitle      = "title"
	ColumnCleanTitle = "clean_title"
	ColumnYear       = "year"
	ColumnGenres     = "genres_clean"
	ColumnTags       = "tags"
	ColumnSoup       = "soup"
)

// ErrMissingColumn is returned when a required column is absent from the header.
var ErrMissingColumn = errors.New("missing required column")

// naValues are the spellings the ETL tooling uses for missing values.
var naValues = map[string]bool{
	"":    true,
	"nan": true,
	"NaN": true,
}

// LoadFile reads a catalog CSV from disk.
func LoadFile(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()

	items, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	return items, nil
}

// Load reads catalog items from CSV with a header row. Columns are matched
// by name and may appear in any order; only movieId is required. Missing
// text values become empty strings and an empty soup is rebuilt from the
// other fields. Row order is preserved.
func Load(r io.Reader) ([]Item, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s (empty file)", ErrMissingColumn, ColumnID)
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	if _, ok := columns[ColumnID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnID)
	}

	field := func(record []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		v := strings.TrimSpace(record[i])
		if naValues[v] {
			return ""
		}
		return v
	}

	var (
		items []Item
		seen  = make(map[string]int)
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading record: %w", err)
		}

		line, _ := reader.FieldPos(0)

		item := Item{
			ID:         field(record, ColumnID),
			Title:      field(record, ColumnTitle),
			CleanTitle: field(record, ColumnCleanTitle),
			Year:       field(record, ColumnYear),
			Genres:     field(record, ColumnGenres),
			Tags:       field(record, ColumnTags),
			Soup:       field(record, ColumnSoup),
		}

		if item.ID == "" {
			return nil, fmt.Errorf("line %d: empty %s", line, ColumnID)
		}
		if prev, dup := seen[item.ID]; dup {
			return nil, fmt.Errorf("line %d: duplicate %s %q (first seen on line %d)", line, ColumnID, item.ID, prev)
		}
		seen[item.ID] = line

		item.EnsureSoup()
		items = append(items, item)
	}

	return items, nil
}
