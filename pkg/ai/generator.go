package ai

import (
	"context"
	"errors"
)

// Chat roles understood by every provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one role-tagged message in a completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatGenerator completes a role-tagged message sequence with generated text.
// All LLM providers (Gemini, OpenAI-compatible) implement this interface.
type ChatGenerator interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}

// StructuredCompleter is an optional capability: a single-prompt completion
// constrained to JSON output with a schema hint. Used for parameter
// inference.
type StructuredCompleter interface {
	CompleteJSON(ctx context.Context, prompt string, schema map[string]any) (string, error)
}

// ErrNotInitialized is returned by providers constructed without a
// credential. The service stays constructible; every call fails fast.
var ErrNotInitialized = errors.New("ai provider not initialized: missing api key")
