package store

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"docqa/internal/port"

	"go.etcd.io/bbolt"
)

// BoltVectorStore implements VectorStore over the vectors bucket.
// Vectors are loaded once and searched brute force; a single document
// yields at most a few thousand chunks. The store is immutable after
// loading, so concurrent searches need no locking.
type BoltVectorStore struct {
	dimension int
	vectors   map[string][]float32
}

type storedVector struct {
	Vector []float32 `json:"v"`
}

// NewBoltVectorStore loads every stored vector from db.
func NewBoltVectorStore(db *bbolt.DB, dimension int) (*BoltVectorStore, error) {
	store := &BoltVectorStore{
		dimension: dimension,
		vectors:   make(map[string][]float32),
	}

	if err := store.loadVectors(db); err != nil {
		return nil, fmt.Errorf("failed to load vectors: %w", err)
	}

	return store, nil
}

func (s *BoltVectorStore) loadVectors(db *bbolt.DB) error {
	return db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		if b == nil {
			return nil
		}

		return b.ForEach(func(k, v []byte) error {
			var stored storedVector
			if err := json.Unmarshal(v, &stored); err != nil {
				return fmt.Errorf("corrupt vector %s: %w", k, err)
			}
			if len(stored.Vector) != s.dimension {
				return fmt.Errorf("vector %s has dimension %d, index declares %d", k, len(stored.Vector), s.dimension)
			}
			s.vectors[string(k)] = stored.Vector
			return nil
		})
	})
}

// Search finds the k nearest vectors to the query using cosine similarity.
func (s *BoltVectorStore) Search(query []float32, k int) ([]port.VectorResult, error) {
	return searchVectors(s.vectors, s.dimension, query, k)
}

// Count returns the number of vectors in the store.
func (s *BoltVectorStore) Count() (int, error) {
	return len(s.vectors), nil
}

// searchVectors ranks vectors by cosine similarity to query. Ties are broken
// by ID so results are stable across runs.
func searchVectors(vectors map[string][]float32, dimension int, query []float32, k int) ([]port.VectorResult, error) {
	if len(query) != dimension {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", dimension, len(query))
	}
	if len(vectors) == 0 || k <= 0 {
		return nil, nil
	}

	results := make([]port.VectorResult, 0, len(vectors))
	for id, vec := range vectors {
		results = append(results, port.VectorResult{
			ID:     id,
			Score:  CosineSimilarity(query, vec),
			Vector: vec,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// CosineSimilarity calculates the cosine similarity between two vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
