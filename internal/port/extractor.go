package port

import (
	"context"

	"docqa/internal/domain"
)

// Extractor turns a document into page-ordered text segments.
type Extractor interface {
	Extract(ctx context.Context, doc domain.Document) ([]domain.Segment, error)
}
