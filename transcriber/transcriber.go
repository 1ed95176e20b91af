// Package transcriber converts recorded speech to text through a hosted
// Whisper-compatible API.
package transcriber

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"hark/config"
)

// ErrNoSpeech is returned when the provider answers but hears nothing.
var ErrNoSpeech = errors.New("no speech detected")

type NetworkMetrics struct {
	DNS         time.Duration
	ConnWait    time.Duration
	TCP         time.Duration
	TLS         time.Duration
	ReqHeaders  time.Duration
	ReqBody     time.Duration
	TTFB        time.Duration
	Download    time.Duration
	Total       time.Duration
	ConnReused  bool
	TLSProtocol string
}

func (m *NetworkMetrics) Sum() time.Duration {
	return m.ConnWait + m.DNS + m.TCP + m.TLS + m.ReqHeaders + m.ReqBody + m.TTFB + m.Download
}

func firstNonEmpty(h http.Header, keys ...string) string {
	for _, k := range keys {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return "?"
}

type Result struct {
	Text         string
	Metrics      *NetworkMetrics
	RateLimit    string
	NoSpeechProb float64
	Duration     float64
}

// Transcriber uploads one encoded clip and returns its text.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, audio []byte, format string) (*Result, error)
}

// New selects the provider named in cfg. client carries the shared pool and
// proxy settings.
func New(cfg config.TranscriptionConfig, client *http.Client) (Transcriber, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s transcription needs an API key", cfg.Provider)
	}
	traced := NewTracedClient(client)
	switch cfg.Provider {
	case "openai":
		return NewOpenAI(cfg, traced), nil
	case "groq":
		return NewGroq(cfg, traced), nil
	}
	return nil, fmt.Errorf("unknown transcription provider %q", cfg.Provider)
}
