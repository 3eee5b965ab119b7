package store

import (
	"fmt"

	"docqa/internal/domain"
	"docqa/internal/port"
)

// CurrentSchemaVersion is the current schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

// CheckCompatibility reports whether an index described by info can be
// queried with embedder. Vectors from a different model or width are not
// comparable, so any mismatch means the document must be ingested again.
func CheckCompatibility(info domain.IndexInfo, embedder port.Embedder) error {
	if info.SchemaVersion > CurrentSchemaVersion {
		return fmt.Errorf("index created by newer version (v%d > v%d)", info.SchemaVersion, CurrentSchemaVersion)
	}
	if info.SchemaVersion < CurrentSchemaVersion {
		return fmt.Errorf("index schema v%d is no longer supported, ingest the document again", info.SchemaVersion)
	}
	if info.EmbeddingModel != embedder.ModelName() {
		return fmt.Errorf("%w: index built with %q, configured %q", domain.ErrModelMismatch, info.EmbeddingModel, embedder.ModelName())
	}
	if info.Dimension != embedder.Dimension() {
		return fmt.Errorf("%w: index dimension %d, embedder dimension %d", domain.ErrModelMismatch, info.Dimension, embedder.Dimension())
	}
	return nil
}
