package port

import "context"

// LLM represents a language model for text generation.
type LLM interface {
	// Generate produces a single, non-streamed completion for the prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}
