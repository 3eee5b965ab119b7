package memstore

import (
	"fmt"
	"sort"
	"sync"

	"docqa/internal/adapter/store"
	"docqa/internal/domain"
	"docqa/internal/port"
)

var _ port.IndexStore = (*MemoryStore)(nil)

// MemoryStore is an IndexStore that lives only as long as the process.
type MemoryStore struct {
	mu      sync.RWMutex
	info    *domain.IndexInfo
	chunks  map[string]domain.Chunk
	vectors map[string][]float32
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		chunks:  make(map[string]domain.Chunk),
		vectors: make(map[string][]float32),
	}
}

func (s *MemoryStore) BuildIndex(info domain.IndexInfo, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) == 0 {
		return domain.ErrEmptyIndex
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	info.SchemaVersion = store.CurrentSchemaVersion
	info.ChunkCount = len(chunks)
	if info.Dimension == 0 {
		info.Dimension = len(vectors[0])
	}

	newChunks := make(map[string]domain.Chunk, len(chunks))
	newVectors := make(map[string][]float32, len(chunks))
	for i, chunk := range chunks {
		if len(vectors[i]) != info.Dimension {
			return fmt.Errorf("vector dimension mismatch for chunk %s: expected %d, got %d", chunk.ID, info.Dimension, len(vectors[i]))
		}
		newChunks[chunk.ID] = chunk
		newVectors[chunk.ID] = vectors[i]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.info = &info
	s.chunks = newChunks
	s.vectors = newVectors
	return nil
}

func (s *MemoryStore) GetChunk(id string) (domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunk, ok := s.chunks[id]
	if !ok {
		return domain.Chunk{}, fmt.Errorf("chunk not found: %s", id)
	}
	return chunk, nil
}

func (s *MemoryStore) ListChunks() ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks := make([]domain.Chunk, 0, len(s.chunks))
	for _, chunk := range s.chunks {
		chunks = append(chunks, chunk)
	}
	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].Index < chunks[j].Index
	})
	return chunks, nil
}

func (s *MemoryStore) GetIndexInfo() (domain.IndexInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.info == nil {
		return domain.IndexInfo{}, domain.ErrNoIndex
	}
	return *s.info, nil
}

func (s *MemoryStore) Vectors() (port.VectorStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.info == nil {
		return nil, domain.ErrNoIndex
	}
	return &vectorView{store: s, dimension: s.info.Dimension}, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// vectorView exposes the store's vectors through port.VectorStore.
type vectorView struct {
	store     *MemoryStore
	dimension int
}

func (v *vectorView) Search(query []float32, k int) ([]port.VectorResult, error) {
	if len(query) != v.dimension {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", v.dimension, len(query))
	}
	if k <= 0 {
		return nil, nil
	}

	v.store.mu.RLock()
	defer v.store.mu.RUnlock()

	results := make([]port.VectorResult, 0, len(v.store.vectors))
	for id, vec := range v.store.vectors {
		results = append(results, port.VectorResult{
			ID:     id,
			Score:  store.CosineSimilarity(query, vec),
			Vector: vec,
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

func (v *vectorView) Count() (int, error) {
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	return len(v.store.vectors), nil
}
