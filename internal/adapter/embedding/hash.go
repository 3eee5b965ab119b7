package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	"docqa/internal/adapter/analyzer"
	"docqa/internal/port"
)

var _ port.Embedder = (*HashEmbedder)(nil)

// HashEmbedder maps terms into a fixed number of signed buckets (feature
// hashing) and L2-normalises the result. It needs no model download or
// corpus preparation, and the same text always yields the same vector.
type HashEmbedder struct {
	dimension int
	tokenizer *analyzer.Tokenizer
}

func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = 384
	}
	return &HashEmbedder{
		dimension: dimension,
		tokenizer: analyzer.NewTokenizer(true),
	}
}

func (e *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		embeddings[i] = e.embed(text)
	}
	return embeddings, nil
}

func (e *HashEmbedder) embed(text string) []float32 {
	vec := make([]float32, e.dimension)
	tokens := e.tokenizer.Tokenize(text)

	for i, token := range tokens {
		e.add(vec, token, 1.0)
		if i > 0 {
			e.add(vec, tokens[i-1]+" "+token, 0.5)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

func (e *HashEmbedder) add(vec []float32, term string, weight float32) {
	h := fnv.New64a()
	h.Write([]byte(term))
	sum := h.Sum64()

	bucket := int(sum % uint64(e.dimension))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	vec[bucket] += weight
}

func (e *HashEmbedder) Dimension() int {
	return e.dimension
}

// ModelName includes the dimension because vectors of different widths are
// not comparable.
func (e *HashEmbedder) ModelName() string {
	return fmt.Sprintf("hash-%d", e.dimension)
}
