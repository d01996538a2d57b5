package vector

import (
	"fmt"
	"math"
)

// Zip assembles positionally matched ids, vectors, documents and metadatas
// into Documents. All four slices must have the same length.
func Zip(ids []string, vectors [][]float32, contents []string, metadatas []Metadata) ([]Document, error) {
	n := len(ids)
	if len(vectors) != n || len(contents) != n || len(metadatas) != n {
		return nil, fmt.Errorf("%w: length mismatch: ids=%d vectors=%d documents=%d metadatas=%d",
			ErrValidation, n, len(vectors), len(contents), len(metadatas))
	}

	docs := make([]Document, n)
	for i := range ids {
		docs[i] = Document{
			ID:        ids[i],
			Embedding: vectors[i],
			Content:   contents[i],
			Metadata:  metadatas[i],
		}
	}
	return docs, nil
}

// ValidateBatch checks a batch before any write is attempted: ids must be
// non-empty and unique within the batch, and every embedding must have the
// same non-zero length. When dimensions is non-zero it must match exactly.
func ValidateBatch(docs []Document, dimensions uint) error {
	seen := make(map[string]struct{}, len(docs))
	want := int(dimensions)

	for i, doc := range docs {
		if doc.ID == "" {
			return fmt.Errorf("%w: document at position %d has an empty id", ErrValidation, i)
		}
		if _, dup := seen[doc.ID]; dup {
			return fmt.Errorf("%w: duplicate id %q in batch", ErrValidation, doc.ID)
		}
		seen[doc.ID] = struct{}{}

		if len(doc.Embedding) == 0 {
			return fmt.Errorf("%w: document %q has an empty embedding", ErrValidation, doc.ID)
		}
		if want == 0 {
			want = len(doc.Embedding)
		}
		if len(doc.Embedding) != want {
			return fmt.Errorf("%w: document %q has dimension %d, expected %d",
				ErrValidation, doc.ID, len(doc.Embedding), want)
		}
	}

	return nil
}

// CheckQuery validates a query embedding against the configured dimensions.
func CheckQuery(embedding []float32, dimensions uint) error {
	if len(embedding) == 0 {
		return fmt.Errorf("%w: empty query embedding", ErrValidation)
	}
	if dimensions != 0 && len(embedding) != int(dimensions) {
		return fmt.Errorf("%w: query has dimension %d, expected %d", ErrValidation, len(embedding), dimensions)
	}
	return nil
}

// CosineDistance returns 1 - cosine similarity of a and b. A zero vector has
// no direction, so its similarity to anything is taken as 0 (distance 1).
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return 1
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 1
	}

	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
