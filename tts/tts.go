// Package tts turns response text into playable audio (WAV or MP3 bytes).
package tts

import (
	"context"
	"fmt"
	"net/http"

	"hark/config"
)

type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, text string) ([]byte, error)
	Close() error
}

// New builds the synthesizer named in cfg. The Google client opens its own
// gRPC connection; httpClient is used by HTTP providers only.
func New(ctx context.Context, cfg config.SynthesisConfig, httpClient *http.Client) (Synthesizer, error) {
	switch cfg.Provider {
	case "google":
		return NewGoogle(ctx, cfg)
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai synthesis needs an API key")
		}
		return NewOpenAI(cfg, httpClient), nil
	}
	return nil, fmt.Errorf("unknown synthesis provider %q", cfg.Provider)
}
