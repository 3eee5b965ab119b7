package usecase

import (
	"context"
	"fmt"
	"strings"

	"docqa/internal/domain"
	"docqa/internal/port"
)

// RetrieveUseCase handles search and retrieval operations.
type RetrieveUseCase struct {
	retriever port.Retriever
	k         int
}

// NewRetrieveUseCase creates a new retrieve use case returning at most k chunks.
func NewRetrieveUseCase(retriever port.Retriever, k int) *RetrieveUseCase {
	if k <= 0 {
		k = 4
	}
	return &RetrieveUseCase{
		retriever: retriever,
		k:         k,
	}
}

// Retrieve searches for chunks matching the query. A corpus smaller than k
// yields fewer results, not an error.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, query string) ([]domain.ScoredChunk, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is empty")
	}
	return u.retriever.Search(ctx, query, u.k)
}

// ScoredChunkResult is a simplified result for CLI output.
type ScoredChunkResult struct {
	Index int     `json:"index"`
	Page  int     `json:"page"`
	Start int     `json:"start"`
	End   int     `json:"end"`
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

// ToResults converts scored chunks for display.
func ToResults(chunks []domain.ScoredChunk) []ScoredChunkResult {
	results := make([]ScoredChunkResult, 0, len(chunks))
	for _, c := range chunks {
		results = append(results, ScoredChunkResult{
			Index: c.Chunk.Index,
			Page:  c.Chunk.Page,
			Start: c.Chunk.Start,
			End:   c.Chunk.End,
			Score: c.Score,
			Text:  c.Chunk.Text,
		})
	}
	return results
}
