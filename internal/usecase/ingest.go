package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"docqa/internal/adapter/fs"
	"docqa/internal/domain"
	"docqa/internal/port"
)

// Stage names a step of ingestion for progress reporting.
type Stage string

const (
	StageExtract Stage = "extract"
	StageChunk   Stage = "chunk"
	StageEmbed   Stage = "embed"
	StageIndex   Stage = "index"
)

// ProgressFunc receives progress updates. total is 0 when unknown.
type ProgressFunc func(stage Stage, done, total int)

// IngestUseCase turns one PDF into the workspace index:
// read → extract → chunk → embed → build.
type IngestUseCase struct {
	matcher   *fs.Matcher
	extractor port.Extractor
	chunker   port.Chunker
	embedder  port.Embedder
	backend   port.IndexBackend
	batchSize int
	logger    *slog.Logger
}

// NewIngestUseCase creates a new ingest use case.
func NewIngestUseCase(
	matcher *fs.Matcher,
	extractor port.Extractor,
	chunker port.Chunker,
	embedder port.Embedder,
	backend port.IndexBackend,
	batchSize int,
	logger *slog.Logger,
) *IngestUseCase {
	if batchSize <= 0 {
		batchSize = 32
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestUseCase{
		matcher:   matcher,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		backend:   backend,
		batchSize: batchSize,
		logger:    logger,
	}
}

// IngestResult contains the results of an ingestion.
type IngestResult struct {
	Document string
	Pages    int
	Chunks   int
	Info     domain.IndexInfo
	Duration time.Duration
}

// Read validates and loads the document at path without touching the index.
func (u *IngestUseCase) Read(path string) (domain.Document, error) {
	return u.matcher.ReadDocument(path)
}

// Ingest reads the document at path and indexes it with IngestDocument.
// A path that cannot be read leaves the existing index untouched.
func (u *IngestUseCase) Ingest(ctx context.Context, path string, progress ProgressFunc) (port.IndexStore, *IngestResult, error) {
	doc, err := u.Read(path)
	if err != nil {
		return nil, nil, err
	}
	return u.IngestDocument(ctx, doc, progress)
}

// IngestDocument replaces the workspace index with one built from doc. The
// previous index is removed first, so a failed ingestion leaves no index
// behind. On success the returned store is open and owned by the caller.
func (u *IngestUseCase) IngestDocument(ctx context.Context, doc domain.Document, progress ProgressFunc) (port.IndexStore, *IngestResult, error) {
	if progress == nil {
		progress = func(Stage, int, int) {}
	}
	started := time.Now()

	if err := u.backend.Remove(); err != nil {
		return nil, nil, err
	}

	log := u.logger.With("document", doc.Name, "doc_id", doc.ID)

	progress(StageExtract, 0, 0)
	segments, err := u.extractor.Extract(ctx, doc)
	if err != nil {
		return nil, nil, err
	}
	progress(StageExtract, len(segments), len(segments))
	log.Debug("extracted text", "pages", len(segments))

	progress(StageChunk, 0, 0)
	chunks, err := u.chunker.Chunk(doc, segments)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to chunk %s: %w", doc.Name, err)
	}
	if len(chunks) == 0 {
		return nil, nil, fmt.Errorf("%s: %w", doc.Name, domain.ErrEmptyIndex)
	}
	progress(StageChunk, len(chunks), len(chunks))
	log.Debug("chunked text", "chunks", len(chunks))

	vectors, err := u.embed(ctx, chunks, progress)
	if err != nil {
		return nil, nil, err
	}

	progress(StageIndex, 0, 1)
	info := domain.IndexInfo{
		EmbeddingModel: u.embedder.ModelName(),
		Dimension:      u.embedder.Dimension(),
		Source:         doc.Name,
		CreatedAt:      time.Now().UTC(),
	}

	store, err := u.backend.Create()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create index: %w", err)
	}
	if err := store.BuildIndex(info, chunks, vectors); err != nil {
		store.Close()
		u.backend.Remove()
		return nil, nil, fmt.Errorf("failed to build index: %w", err)
	}
	progress(StageIndex, 1, 1)

	info, err = store.GetIndexInfo()
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	result := &IngestResult{
		Document: doc.Name,
		Pages:    len(segments),
		Chunks:   len(chunks),
		Info:     info,
		Duration: time.Since(started),
	}
	log.Info("document indexed",
		"pages", result.Pages,
		"chunks", result.Chunks,
		"model", info.EmbeddingModel,
		"duration", result.Duration.Round(time.Millisecond),
	)
	return store, result, nil
}

// embed computes chunk vectors in batches so progress can be reported.
func (u *IngestUseCase) embed(ctx context.Context, chunks []domain.Chunk, progress ProgressFunc) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))
	progress(StageEmbed, 0, len(chunks))

	for i := 0; i < len(chunks); i += u.batchSize {
		end := i + u.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		texts := make([]string, 0, end-i)
		for _, c := range chunks[i:end] {
			texts = append(texts, c.Text)
		}

		batch, err := u.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunks %d-%d: %w", i, end-1, err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(batch), len(texts))
		}
		for j, vec := range batch {
			if len(vec) != u.embedder.Dimension() {
				return nil, fmt.Errorf("chunk %d: embedding dimension %d, expected %d", i+j, len(vec), u.embedder.Dimension())
			}
		}

		vectors = append(vectors, batch...)
		progress(StageEmbed, len(vectors), len(chunks))
	}

	return vectors, nil
}
