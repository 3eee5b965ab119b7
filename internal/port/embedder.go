package port

import "context"

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// VectorStore searches the embedding vectors of a built index. Vectors are
// written only through IndexStore.BuildIndex.
type VectorStore interface {
	// Search finds the k nearest vectors to the query.
	Search(query []float32, k int) ([]VectorResult, error)

	// Count returns the number of vectors in the store.
	Count() (int, error)
}

// VectorResult represents a search result.
type VectorResult struct {
	ID     string    // Chunk ID
	Score  float64   // Cosine similarity (higher is better)
	Vector []float32 // Stored vector, needed for diversity selection
}
