package engine

import "time"

// State is the indexing state of the catalog.
type State int32

const (
	NotIndexed State = iota
	Indexing
	Indexed
)

func (s State) String() string {
	switch s {
	case NotIndexed:
		return "not_indexed"
	case Indexing:
		return "indexing"
	case Indexed:
		return "indexed"
	default:
		return "unknown"
	}
}

// Recommendation is one ranked result for a query.
type Recommendation struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Year   string `json:"year"`
	Genres string `json:"genres"`
	Tags   string `json:"tags"`

	// Score is 1 - distance rounded to 4 places. It goes negative for
	// vectors pointing away from the query.
	Score    float64 `json:"score"`
	Distance float64 `json:"distance"`
}

// Stats describes the indexed collection.
type Stats struct {
	Collection string `json:"collection"`
	TotalItems int    `json:"total_items"`
	Model      string `json:"model"`
	VectorDim  uint   `json:"vector_dim"`
}

// IndexResult summarizes an indexing run.
type IndexResult struct {
	// Skipped is true when the store was already populated and the run
	// was not forced. Nothing was written.
	Skipped bool

	// Indexed is the number of items embedded and upserted by this run.
	Indexed int

	// Batches is the number of batches committed.
	Batches int

	// Removed is the number of stored entries deleted by a forced run
	// because their ids are no longer in the catalog.
	Removed int

	// TotalItems is the store's count when the run finished.
	TotalItems int

	Duration time.Duration
}
