package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"docqa/internal/adapter/analyzer"
	"docqa/internal/adapter/cache"
	"docqa/internal/adapter/retriever"
	"docqa/internal/adapter/store"
	"docqa/internal/domain"
	"docqa/internal/port"
)

// PipelineConfig holds the retrieval and generation settings of a pipeline.
type PipelineConfig struct {
	K              int
	FetchK         int
	LambdaMult     float64
	DedupThreshold float64
	MinScore       float64
	Answer         AnswerConfig
}

// Pipeline is the document QA state machine:
//
//	EMPTY → INDEXING → READY → (reset) → EMPTY
//
// A failed ingestion returns to EMPTY. Queries are only accepted in READY
// and run one at a time.
type Pipeline struct {
	mu      sync.RWMutex
	queryMu sync.Mutex

	state    domain.State
	store    port.IndexStore
	info     domain.IndexInfo
	answerer *AnswerUseCase

	ingest    *IngestUseCase
	backend   port.IndexBackend
	embedder  port.Embedder
	llm       port.LLM
	cache     *cache.QueryCache
	tokenizer *analyzer.Tokenizer
	cfg       PipelineConfig
	logger    *slog.Logger
}

// PipelineDeps are the collaborators a pipeline is assembled from.
type PipelineDeps struct {
	Ingest   *IngestUseCase
	Backend  port.IndexBackend
	Embedder port.Embedder
	LLM      port.LLM
	Cache    *cache.QueryCache // optional
	Logger   *slog.Logger
}

func NewPipeline(deps PipelineDeps, cfg PipelineConfig) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		state:     domain.StateEmpty,
		ingest:    deps.Ingest,
		backend:   deps.Backend,
		embedder:  deps.Embedder,
		llm:       deps.LLM,
		cache:     deps.Cache,
		tokenizer: analyzer.NewTokenizer(false),
		cfg:       cfg,
		logger:    logger,
	}
}

// Status describes the pipeline for collaborators.
type Status struct {
	State domain.State
	Info  *domain.IndexInfo
}

// Open loads a previously persisted index. No index is not an error: the
// pipeline simply stays EMPTY. An index built with a different embedding
// model is rejected.
func (p *Pipeline) Open(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == domain.StateIndexing {
		return domain.ErrBusy
	}
	p.releaseLocked()

	s, err := p.backend.Open()
	if errors.Is(err, domain.ErrNoIndex) {
		p.logger.Debug("no existing index")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}

	info, err := s.GetIndexInfo()
	if err != nil {
		s.Close()
		return err
	}
	if err := store.CheckCompatibility(info, p.embedder); err != nil {
		s.Close()
		return err
	}
	if err := p.activateLocked(s, info); err != nil {
		s.Close()
		return err
	}

	p.logger.Info("index loaded", "source", info.Source, "chunks", info.ChunkCount, "model", info.EmbeddingModel)
	return nil
}

// Ingest indexes the document at path, replacing any previous index. A path
// that is missing or not an accepted document is rejected before the current
// index is released, so the pipeline keeps its state.
func (p *Pipeline) Ingest(ctx context.Context, path string, progress ProgressFunc) (*IngestResult, error) {
	p.mu.Lock()
	if p.state == domain.StateIndexing {
		p.mu.Unlock()
		return nil, domain.ErrBusy
	}
	doc, err := p.ingest.Read(path)
	if err != nil {
		p.mu.Unlock()
		return nil, err
	}
	p.releaseLocked()
	p.state = domain.StateIndexing
	p.mu.Unlock()

	s, result, err := p.ingest.IngestDocument(ctx, doc, progress)

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		p.state = domain.StateEmpty
		p.logger.Warn("ingestion failed", "path", path, "error", err)
		return nil, err
	}
	if err := p.activateLocked(s, result.Info); err != nil {
		s.Close()
		p.state = domain.StateEmpty
		return nil, err
	}
	return result, nil
}

// Answer answers query from the indexed document and records the exchange
// in session, which may be nil.
func (p *Pipeline) Answer(ctx context.Context, session *domain.Session, query string) (string, error) {
	answer, err := p.AnswerWithSources(ctx, session, query)
	if err != nil {
		return "", err
	}
	return answer.Text, nil
}

// AnswerWithSources is Answer that also returns the context chunks used.
func (p *Pipeline) AnswerWithSources(ctx context.Context, session *domain.Session, query string) (*domain.Answer, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if err := p.readyLocked(); err != nil {
		return nil, err
	}

	p.queryMu.Lock()
	defer p.queryMu.Unlock()

	answer, err := p.answerer.Answer(ctx, query)
	if err != nil {
		return nil, err
	}

	if session != nil {
		session.Append(domain.RoleUser, query)
		session.Append(domain.RoleAssistant, answer.Text)
	}
	return answer, nil
}

// Retrieve returns the chunks a query would be answered from.
func (p *Pipeline) Retrieve(ctx context.Context, query string) ([]domain.ScoredChunk, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if err := p.readyLocked(); err != nil {
		return nil, err
	}

	p.queryMu.Lock()
	defer p.queryMu.Unlock()
	return p.answerer.retrieve.Retrieve(ctx, query)
}

// Prompt renders the prompt that Answer would send to the model.
func (p *Pipeline) Prompt(ctx context.Context, query string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if err := p.readyLocked(); err != nil {
		return "", err
	}

	p.queryMu.Lock()
	defer p.queryMu.Unlock()
	prompt, _, err := p.answerer.Prompt(ctx, query)
	return prompt, err
}

// Reset discards the index and the session history.
func (p *Pipeline) Reset(session *domain.Session) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == domain.StateIndexing {
		return domain.ErrBusy
	}
	p.releaseLocked()
	if session != nil {
		session.Clear()
	}
	if err := p.backend.Remove(); err != nil {
		return err
	}

	p.logger.Info("workspace reset")
	return nil
}

// Status reports the current state and, when READY, the index metadata.
func (p *Pipeline) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	status := Status{State: p.state}
	if p.state == domain.StateReady {
		info := p.info
		status.Info = &info
	}
	return status
}

// Close releases the index handle. The persisted index is kept.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == domain.StateIndexing {
		return domain.ErrBusy
	}
	return p.releaseLocked()
}

func (p *Pipeline) readyLocked() error {
	switch p.state {
	case domain.StateReady:
		return nil
	case domain.StateIndexing:
		return fmt.Errorf("%w: %w", domain.ErrNotReady, domain.ErrBusy)
	default:
		return domain.ErrNotReady
	}
}

// activateLocked wires the retrieval chain over s and moves to READY.
func (p *Pipeline) activateLocked(s port.IndexStore, info domain.IndexInfo) error {
	vectors, err := s.Vectors()
	if err != nil {
		return fmt.Errorf("failed to load vectors: %w", err)
	}

	var r port.Retriever = retriever.NewSemanticRetriever(
		vectors,
		p.embedder,
		s,
		retriever.WithReranker(retriever.NewMMRReranker(p.cfg.LambdaMult, p.cfg.DedupThreshold)),
		retriever.WithFetchK(p.cfg.FetchK),
		retriever.WithMinScore(p.cfg.MinScore),
	)
	if p.cache != nil {
		p.cache.Invalidate()
		r = cache.NewCachedRetriever(r, p.cache)
	}

	p.answerer = NewAnswerUseCase(
		NewRetrieveUseCase(r, p.cfg.K),
		NewPackUseCase(p.tokenizer),
		p.tokenizer,
		p.llm,
		p.cfg.Answer,
		p.logger,
	)
	p.store = s
	p.info = info
	p.state = domain.StateReady
	return nil
}

// releaseLocked closes the current index handle and returns to EMPTY.
func (p *Pipeline) releaseLocked() error {
	var err error
	if p.store != nil {
		err = p.store.Close()
	}
	if p.cache != nil {
		p.cache.Invalidate()
	}
	p.store = nil
	p.answerer = nil
	p.info = domain.IndexInfo{}
	p.state = domain.StateEmpty
	return err
}
