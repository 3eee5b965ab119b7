package usecase

import (
	"strings"
	"unicode/utf8"

	"docqa/internal/adapter/analyzer"
	"docqa/internal/domain"
)

// ContextSeparator is placed between chunks in the prompt context.
const ContextSeparator = "\n\n---\n\n"

// PackUseCase fits retrieved chunks into a token budget.
type PackUseCase struct {
	tokenizer *analyzer.Tokenizer
	sepTokens int
}

// NewPackUseCase creates a new pack use case.
func NewPackUseCase(tokenizer *analyzer.Tokenizer) *PackUseCase {
	// The separator has no words, so CountTokens would call it free.
	sepTokens := (utf8.RuneCountInString(ContextSeparator) + 3) / 4
	if n := tokenizer.CountTokens(ContextSeparator); n > sepTokens {
		sepTokens = n
	}
	return &PackUseCase{
		tokenizer: tokenizer,
		sepTokens: sepTokens,
	}
}

// Pack admits chunks in retrieval order while the joined context stays
// within budget. Later chunks that do not fit are dropped; a first chunk
// that alone exceeds the budget is cut short instead, so a non-empty
// retrieval never produces an empty context.
func (u *PackUseCase) Pack(chunks []domain.ScoredChunk, budget int) domain.PackedContext {
	packed := domain.PackedContext{
		Budget: budget,
		Chunks: make([]domain.ScoredChunk, 0, len(chunks)),
	}
	if len(chunks) == 0 || budget <= 0 {
		packed.Dropped = len(chunks)
		return packed
	}

	texts := make([]string, 0, len(chunks))
	used := 0

	for i, c := range chunks {
		cost := u.tokenizer.CountTokens(c.Chunk.Text)
		if i > 0 {
			cost += u.sepTokens
		}

		if used+cost > budget {
			if i == 0 {
				c.Chunk.Text = u.truncate(c.Chunk.Text, budget)
				cost = u.tokenizer.CountTokens(c.Chunk.Text)
				packed.Truncated = true
			} else {
				packed.Dropped = len(chunks) - i
				break
			}
		}

		packed.Chunks = append(packed.Chunks, c)
		texts = append(texts, c.Chunk.Text)
		used += cost
	}

	packed.Text = strings.Join(texts, ContextSeparator)
	packed.UsedTokens = used
	return packed
}

// truncate returns the longest rune prefix of text whose estimated token
// count fits the budget.
func (u *PackUseCase) truncate(text string, budget int) string {
	runes := []rune(text)
	lo, hi := 0, len(runes)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if u.tokenizer.CountTokens(string(runes[:mid])) <= budget {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return string(runes[:lo])
}
