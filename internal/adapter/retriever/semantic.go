package retriever

import (
	"context"
	"fmt"

	"docqa/internal/domain"
	"docqa/internal/port"
)

var _ port.Retriever = (*SemanticRetriever)(nil)

// SemanticRetriever embeds the query, takes the fetchK nearest chunks and
// lets the reranker pick the final k.
type SemanticRetriever struct {
	vectorStore port.VectorStore
	embedder    port.Embedder
	chunkStore  port.IndexStore
	reranker    port.DiversityReranker
	fetchK      int
	minScore    float64
}

type Option func(*SemanticRetriever)

// WithReranker replaces plain top-k with diversity-aware selection.
func WithReranker(reranker port.DiversityReranker) Option {
	return func(r *SemanticRetriever) { r.reranker = reranker }
}

// WithFetchK sets the candidate pool size handed to the reranker.
func WithFetchK(fetchK int) Option {
	return func(r *SemanticRetriever) { r.fetchK = fetchK }
}

// WithMinScore drops candidates whose cosine relevance is below minScore.
func WithMinScore(minScore float64) Option {
	return func(r *SemanticRetriever) { r.minScore = minScore }
}

func NewSemanticRetriever(
	vectorStore port.VectorStore,
	embedder port.Embedder,
	chunkStore port.IndexStore,
	opts ...Option,
) *SemanticRetriever {
	r := &SemanticRetriever{
		vectorStore: vectorStore,
		embedder:    embedder,
		chunkStore:  chunkStore,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *SemanticRetriever) Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	if r.vectorStore == nil || r.embedder == nil {
		return nil, fmt.Errorf("semantic search not available: embeddings not configured")
	}
	if k <= 0 {
		return nil, nil
	}

	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedding returned empty result")
	}

	fetch := k
	if r.reranker != nil && r.fetchK > k {
		fetch = r.fetchK
	}

	results, err := r.vectorStore.Search(embeddings[0], fetch)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	candidates := make([]domain.ScoredChunk, 0, len(results))
	for _, result := range results {
		if r.minScore > 0 && result.Score < r.minScore {
			continue
		}
		chunk, err := r.chunkStore.GetChunk(result.ID)
		if err != nil {
			return nil, fmt.Errorf("index is inconsistent: %w", err)
		}
		candidates = append(candidates, domain.ScoredChunk{
			Chunk:  chunk,
			Score:  result.Score,
			Vector: result.Vector,
		})
	}

	if r.reranker == nil {
		if len(candidates) > k {
			candidates = candidates[:k]
		}
		return candidates, nil
	}
	return r.reranker.Rerank(candidates, k), nil
}
