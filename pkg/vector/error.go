package vector

import "errors"

var (
	// ErrNotFound is returned when a document is not found in the vector store.
	ErrNotFound = errors.New("document not found")

	// ErrEmbedding is returned when embedding generation fails.
	ErrEmbedding = errors.New("embedding failed")

	// ErrStoreUnavailable is returned when the persistent backing of a vector
	// store cannot be opened or created.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrValidation is returned when a batch is malformed. Nothing is written.
	ErrValidation = errors.New("invalid vector batch")
)
