// Package llm asks a chat model for a short spoken answer to a transcript.
package llm

import (
	"context"
	"fmt"
	"net/http"

	"hark/config"
)

// FallbackText is spoken when the model cannot be reached.
const FallbackText = "Sorry, I could not process your request."

// Request is one single-turn completion.
type Request struct {
	Model      string
	Precontext string
	Prompt     string
}

type Completer interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// New builds the completer named in cfg on top of the shared HTTP client.
func New(cfg config.CompletionConfig, client *http.Client) (Completer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s completion needs an API key", cfg.Provider)
	}
	switch cfg.Provider {
	case "openai":
		return NewOpenAI(cfg, client), nil
	case "anthropic":
		return NewAnthropic(cfg, client), nil
	}
	return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
}
