package port

import (
	"context"

	"docqa/internal/domain"
)

// Retriever defines the interface for searching indexed content.
type Retriever interface {
	// Search returns up to k chunks relevant to the query.
	Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error)
}

// DiversityReranker selects k results from a candidate pool.
type DiversityReranker interface {
	Rerank(candidates []domain.ScoredChunk, k int) []domain.ScoredChunk
}
