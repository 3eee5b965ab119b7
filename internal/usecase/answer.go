package usecase

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"docqa/internal/adapter/analyzer"
	"docqa/internal/domain"
	"docqa/internal/port"
)

// FallbackAnswer is what the model is told to reply when the context does
// not contain the answer.
const FallbackAnswer = "I could not find this information in the document."

//go:embed templates/answer_prompt.txt
var answerPromptTemplate string

var answerPrompt = template.Must(template.New("answer").Parse(answerPromptTemplate))

type promptData struct {
	Context  string
	Question string
	Fallback string
}

// AnswerConfig bounds prompt size and generation time.
type AnswerConfig struct {
	NumCtx        int
	ReserveTokens int
	Timeout       time.Duration
}

// AnswerUseCase retrieves context for a question and asks the model.
type AnswerUseCase struct {
	retrieve  *RetrieveUseCase
	packer    *PackUseCase
	tokenizer *analyzer.Tokenizer
	llm       port.LLM
	cfg       AnswerConfig
	logger    *slog.Logger
}

// NewAnswerUseCase creates a new answer use case.
func NewAnswerUseCase(
	retrieve *RetrieveUseCase,
	packer *PackUseCase,
	tokenizer *analyzer.Tokenizer,
	llm port.LLM,
	cfg AnswerConfig,
	logger *slog.Logger,
) *AnswerUseCase {
	if cfg.NumCtx <= 0 {
		cfg.NumCtx = 4096
	}
	if cfg.ReserveTokens < 0 || cfg.ReserveTokens >= cfg.NumCtx {
		cfg.ReserveTokens = cfg.NumCtx / 8
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerUseCase{
		retrieve:  retrieve,
		packer:    packer,
		tokenizer: tokenizer,
		llm:       llm,
		cfg:       cfg,
		logger:    logger,
	}
}

// Prompt retrieves and packs context for query and renders the final prompt.
func (u *AnswerUseCase) Prompt(ctx context.Context, query string) (string, domain.PackedContext, error) {
	chunks, err := u.retrieve.Retrieve(ctx, query)
	if err != nil {
		return "", domain.PackedContext{}, err
	}

	query = strings.TrimSpace(query)
	overhead, err := render(promptData{Question: query, Fallback: FallbackAnswer})
	if err != nil {
		return "", domain.PackedContext{}, err
	}
	budget := u.cfg.NumCtx - u.cfg.ReserveTokens - u.tokenizer.CountTokens(overhead)

	packed := u.packer.Pack(chunks, budget)
	if packed.Dropped > 0 || packed.Truncated {
		u.logger.Debug("context trimmed to fit model window",
			"dropped", packed.Dropped,
			"truncated", packed.Truncated,
			"budget", budget,
		)
	}

	prompt, err := render(promptData{Context: packed.Text, Question: query, Fallback: FallbackAnswer})
	if err != nil {
		return "", domain.PackedContext{}, err
	}
	return prompt, packed, nil
}

// Answer produces a single-shot answer grounded in the retrieved context.
// The model call is bounded by the configured timeout.
func (u *AnswerUseCase) Answer(ctx context.Context, query string) (*domain.Answer, error) {
	prompt, packed, err := u.Prompt(ctx, query)
	if err != nil {
		return nil, err
	}

	if u.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.cfg.Timeout)
		defer cancel()
	}

	started := time.Now()
	text, err := u.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generation with %s failed: %w", u.llm.ModelName(), err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyAnswer
	}

	u.logger.Debug("answer generated",
		"model", u.llm.ModelName(),
		"context_chunks", len(packed.Chunks),
		"context_tokens", packed.UsedTokens,
		"duration", time.Since(started).Round(time.Millisecond),
	)

	return &domain.Answer{Text: text, Sources: packed.Chunks}, nil
}

func render(data promptData) (string, error) {
	var buf bytes.Buffer
	if err := answerPrompt.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}
