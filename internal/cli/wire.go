package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"docqa/config"
	"docqa/internal/adapter/cache"
	"docqa/internal/adapter/chunker"
	"docqa/internal/adapter/embedding"
	"docqa/internal/adapter/extractor"
	"docqa/internal/adapter/fs"
	"docqa/internal/adapter/llm"
	"docqa/internal/adapter/memstore"
	"docqa/internal/adapter/store"
	"docqa/internal/domain"
	"docqa/internal/port"
	"docqa/internal/usecase"
)

func newEmbedder(c config.EmbeddingConfig) (port.Embedder, error) {
	switch c.Provider {
	case "ollama", "":
		e := embedding.NewOllamaEmbedder(c.Model, c.BaseURL, c.Dimension, c.BatchSize)
		e.SetRateLimit(c.RequestsPerSecond, c.Burst)
		return e, nil
	case "openai":
		e, err := embedding.NewOpenAIEmbedder(c.APIKeyEnv, c.Model, c.BaseURL, c.BatchSize)
		if err != nil {
			return nil, err
		}
		e.SetRateLimit(c.RequestsPerSecond, c.Burst)
		return e, nil
	case "hash":
		return embedding.NewHashEmbedder(c.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", c.Provider)
	}
}

func newLLM(c config.LLMConfig) (port.LLM, error) {
	lc := llm.Config{
		BaseURL:     c.BaseURL,
		Model:       c.Model,
		Temperature: c.Temperature,
		NumCtx:      c.NumCtx,
		Timeout:     c.Timeout,
	}
	switch c.Provider {
	case "ollama", "":
		return llm.NewOllamaLLM(lc), nil
	case "openai":
		lc.APIKey = os.Getenv(c.APIKeyEnv)
		if lc.APIKey == "" {
			return nil, fmt.Errorf("API key not found. Set %s environment variable", c.APIKeyEnv)
		}
		m, err := llm.NewOpenAILLM(lc)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", c.Provider)
	}
}

func newExtractor(c config.IngestConfig) (port.Extractor, error) {
	switch c.Extractor {
	case "native", "":
		return extractor.NewPDFExtractor(), nil
	case "pdftotext":
		return extractor.NewPopplerExtractor(nil), nil
	default:
		return nil, fmt.Errorf("unsupported extractor: %s", c.Extractor)
	}
}

func newBackend(c *config.Config, root string) port.IndexBackend {
	if c.Workspace.InMemory {
		return memstore.NewBackend()
	}
	return store.NewDiskBackend(c.IndexDir(root))
}

// buildPipeline assembles a pipeline from configuration and loads any
// existing index. The caller must Close it.
func buildPipeline(ctx context.Context, c *config.Config, root string, log *slog.Logger) (*usecase.Pipeline, error) {
	embedder, err := newEmbedder(c.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	model, err := newLLM(c.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm: %w", err)
	}
	ext, err := newExtractor(c.Ingest)
	if err != nil {
		return nil, err
	}

	backend := newBackend(c, root)
	ingest := usecase.NewIngestUseCase(
		fs.NewMatcher(c.Ingest.Accept),
		ext,
		chunker.NewRecursiveChunker(c.Chunk.Size, c.Chunk.Overlap),
		embedder,
		backend,
		c.Embedding.BatchSize,
		log,
	)

	p := usecase.NewPipeline(usecase.PipelineDeps{
		Ingest:   ingest,
		Backend:  backend,
		Embedder: embedder,
		LLM:      model,
		Cache:    cache.NewQueryCache(c.Retrieve.CacheSize, c.Retrieve.CacheTTL),
		Logger:   log,
	}, usecase.PipelineConfig{
		K:              c.Retrieve.K,
		FetchK:         c.Retrieve.FetchK,
		LambdaMult:     c.Retrieve.LambdaMult,
		DedupThreshold: c.Retrieve.DedupThreshold,
		MinScore:       c.Retrieve.MinScore,
		Answer: usecase.AnswerConfig{
			NumCtx:        c.LLM.NumCtx,
			ReserveTokens: c.LLM.ReserveTokens,
			Timeout:       c.LLM.Timeout,
		},
	})

	if err := p.Open(ctx); err != nil {
		if errors.Is(err, domain.ErrModelMismatch) {
			return nil, fmt.Errorf("%w\nRun 'docqa ingest <file.pdf>' again or restore the previous embedding settings", err)
		}
		return nil, err
	}
	return p, nil
}

// openReadyPipeline is buildPipeline for commands that need an index.
func openReadyPipeline(ctx context.Context) (*usecase.Pipeline, error) {
	p, err := buildPipeline(ctx, GetConfig(), GetRootDir(), logger)
	if err != nil {
		return nil, err
	}
	if p.Status().State != domain.StateReady {
		p.Close()
		return nil, fmt.Errorf("%w. Run 'docqa ingest <file.pdf>' first", domain.ErrNoIndex)
	}
	return p, nil
}
