package port

import "docqa/internal/domain"

// IndexStore persists the chunks and vectors of the single workspace index.
type IndexStore interface {
	// BuildIndex writes chunks, their vectors and the index metadata in one transaction.
	BuildIndex(info domain.IndexInfo, chunks []domain.Chunk, vectors [][]float32) error

	GetChunk(id string) (domain.Chunk, error)

	ListChunks() ([]domain.Chunk, error)

	GetIndexInfo() (domain.IndexInfo, error)

	// Vectors returns a searchable view over the stored vectors.
	Vectors() (VectorStore, error)

	Close() error
}

// IndexBackend owns the single index location of a workspace.
type IndexBackend interface {
	// Create returns an empty, writable store, replacing nothing by itself.
	Create() (IndexStore, error)

	// Open returns the existing index or domain.ErrNoIndex.
	Open() (IndexStore, error)

	// Remove discards the persisted index. Removing nothing is not an error.
	Remove() error
}
