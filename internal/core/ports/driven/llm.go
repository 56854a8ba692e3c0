package driven

import (
	"context"
)

// LLMService provides language model completions for answer synthesis
type LLMService interface {
	// Complete sends a single prompt and returns the model's text output.
	// No retry is performed here; retry/backoff policy belongs to the
	// provider's client.
	Complete(ctx context.Context, prompt string) (string, error)

	// Model returns the model name being used
	Model() string

	// Ping verifies the LLM service is available
	Ping(ctx context.Context) error

	// Close releases resources held by the LLM service
	Close() error
}
