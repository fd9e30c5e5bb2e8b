package providers

import (
	"context"
	"fmt"
	"time"
)

// Provider is the interface all grammar-correction LLM providers implement.
// A Provider performs exactly one bounded network call per Complete
// invocation; retry policy, if any, belongs to the caller.
type Provider interface {
	// Complete sends a single prompt and returns the raw text response.
	Complete(ctx context.Context, prompt string) (string, error)

	// Name returns the provider identifier (e.g. "groq", "gemini").
	Name() string
}

// defaultTimeout bounds every provider HTTP call.
const defaultTimeout = 30 * time.Second

// HTTPError is returned when a provider responds with a non-200 status.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Body)
}
