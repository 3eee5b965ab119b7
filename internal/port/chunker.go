package port

import "docqa/internal/domain"

type Chunker interface {
	Chunk(doc domain.Document, segments []domain.Segment) ([]domain.Chunk, error)
}
