// Package llm provides the inference gateway: two backend clients, one for
// completion-style endpoints and one for chat-style endpoints, behind a single
// Generate contract. Which backend serves a deployment is decided once at
// configuration time.
package llm

import (
	"context"

	"github.com/askdb/askdb/internal/prompt"
)

// Generator produces raw model output for an assembled prompt.
// Implementations do not retry; retry policy belongs to the caller.
type Generator interface {
	Generate(ctx context.Context, p prompt.Prompt) (string, error)
}
