// Package embeddings defines the text embedding capability used to place
// catalog items and queries in a shared vector space.
package embeddings

import "context"

// Embedder provides text embedding capabilities.
type Embedder interface {
	// Embed converts texts into vector embeddings, one per input and in
	// input order. An empty input yields an empty result. Empty or
	// whitespace-only strings still produce a well-formed vector.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the fixed length of every vector this embedder returns.
	Dimensions() uint

	// Model identifies the embedding model.
	Model() string

	// Close releases any resources held by the embedder.
	Close() error
}
