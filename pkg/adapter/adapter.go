package adapter

import "context"

// Adapter defines the interface for LLM provider backends.
type Adapter interface {
	// Generate sends a prompt, with optional conversation history, to the
	// model and returns the response.
	Generate(ctx context.Context, model string, prompt string, history []Message) (*Response, error)

	// Name returns the adapter's identifier.
	Name() string

	// Models returns the list of supported models.
	Models() []string
}

// Roles for conversation history messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
