package retriever

import (
	"docqa/internal/adapter/store"
	"docqa/internal/domain"
	"docqa/internal/port"
)

var _ port.DiversityReranker = (*MMRReranker)(nil)

// MMRReranker implements Maximal Marginal Relevance for result diversification.
type MMRReranker struct {
	lambda         float64
	dedupThreshold float64
}

// NewMMRReranker creates a new MMR reranker. lambda weighs relevance against
// novelty (1 = relevance only). A positive dedupThreshold drops candidates
// whose similarity to an already selected chunk exceeds it.
func NewMMRReranker(lambda, dedupThreshold float64) *MMRReranker {
	if lambda < 0 {
		lambda = 0
	}
	if lambda > 1 {
		lambda = 1
	}
	return &MMRReranker{
		lambda:         lambda,
		dedupThreshold: dedupThreshold,
	}
}

// Rerank selects up to k candidates greedily.
// MMR(c) = λ * relevance(c) - (1-λ) * max_similarity(c, selected)
// Relevance is the candidate's Score (cosine to the query); similarity
// between candidates is the cosine of their vectors.
func (r *MMRReranker) Rerank(candidates []domain.ScoredChunk, k int) []domain.ScoredChunk {
	if len(candidates) == 0 || k <= 0 {
		return nil
	}

	if k > len(candidates) {
		k = len(candidates)
	}

	selected := make([]domain.ScoredChunk, 0, k)
	remaining := make([]domain.ScoredChunk, len(candidates))
	copy(remaining, candidates)

	for len(selected) < k && len(remaining) > 0 {
		bestIdx := -1
		bestMMR := 0.0

		for i, candidate := range remaining {
			maxSim := 0.0
			for j, sel := range selected {
				sim := store.CosineSimilarity(candidate.Vector, sel.Vector)
				if j == 0 || sim > maxSim {
					maxSim = sim
				}
			}

			if r.dedupThreshold > 0 && len(selected) > 0 && maxSim > r.dedupThreshold {
				continue
			}

			mmr := r.lambda*candidate.Score - (1-r.lambda)*maxSim
			if bestIdx == -1 || mmr > bestMMR {
				bestMMR = mmr
				bestIdx = i
			}
		}

		if bestIdx == -1 {
			// Everything left duplicates something already selected.
			break
		}

		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}
