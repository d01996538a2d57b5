// Package vector provides interfaces and implementations for vector storage.
//
// Every driver stores one entry per document ID and answers nearest neighbor
// queries under cosine distance (1 - cosine similarity), nearest first.
package vector

import "context"

// Metadata is the fixed set of catalog fields round-tripped through the index.
type Metadata struct {
	Title      string `json:"title"`
	CleanTitle string `json:"clean_title"`
	Year       string `json:"year"`
	Genres     string `json:"genres"`
	Tags       string `json:"tags"`
}

// Document represents a stored item with its embedding, source text and metadata.
type Document struct {
	// ID is the unique, stable identifier of the document (the catalog item id).
	ID string

	// Embedding is the vector representation of Content.
	Embedding []float32

	// Content is the text that was embedded, retained for debugging and re-ranking.
	Content string

	// Metadata holds the catalog fields returned with query results.
	Metadata Metadata
}

// QueryResult represents a single nearest neighbor hit.
type QueryResult struct {
	Document

	// Distance is the raw cosine distance between the query and the document.
	// Lower is closer.
	Distance float64
}

// Driver handles storage and retrieval of vector embeddings.
type Driver interface {
	// Upsert stores documents with their embeddings. A document whose ID
	// already exists is fully replaced. A batch is written all-or-nothing.
	Upsert(ctx context.Context, docs []Document) error

	// Query finds the topK nearest documents to the given embedding, ordered
	// by increasing distance. Fewer than topK results are returned when the
	// store holds fewer documents.
	Query(ctx context.Context, embedding []float32, topK int) ([]QueryResult, error)

	// Count returns the number of distinct document IDs currently stored.
	Count(ctx context.Context) (int, error)

	// IDs returns the ID of every stored document, in no particular order.
	IDs(ctx context.Context) ([]string, error)

	// Get retrieves documents by their IDs. Unknown IDs are skipped.
	Get(ctx context.Context, ids []string) ([]Document, error)

	// Delete removes documents by their IDs.
	Delete(ctx context.Context, ids []string) error

	// Close releases any resources held by the driver.
	Close() error
}

// DefaultTopK is used by drivers when a non-positive topK is requested.
const DefaultTopK = 10
