package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"hark/config"
)

const (
	groqBaseURL      = "https://api.groq.com/openai/v1"
	groqDefaultModel = "whisper-large-v3-turbo"
)

type Groq struct {
	client *TracedClient
	apiURL string
	apiKey string
	model  string
	lang   string
}

func NewGroq(cfg config.TranscriptionConfig, client *TracedClient) *Groq {
	base := cfg.BaseURL
	if base == "" {
		base = groqBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = groqDefaultModel
	}
	return &Groq{
		client: client,
		apiURL: strings.TrimRight(base, "/") + "/audio/transcriptions",
		apiKey: cfg.APIKey,
		model:  model,
		lang:   cfg.Language,
	}
}

func (g *Groq) Name() string { return "groq" }

func (g *Groq) Warm() { g.client.Warm(g.apiURL) }

type groqResponse struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
	Segments []struct {
		NoSpeechProb float64 `json:"no_speech_prob"`
	} `json:"segments"`
}

func (g *Groq) Transcribe(ctx context.Context, audioData []byte, format string) (*Result, error) {
	form, contentType, err := buildForm(audioData, uploadForm{
		model:    g.model,
		format:   format,
		language: g.lang,
		response: "verbose_json",
	})
	if err != nil {
		return nil, err
	}

	resp, err := upload(ctx, g.client, "groq", g.apiURL, g.apiKey, form, contentType)
	if err != nil {
		return nil, err
	}

	var gResp groqResponse
	if err := json.Unmarshal(resp.Body, &gResp); err != nil {
		return nil, fmt.Errorf("groq response parse error: %w", err)
	}

	var noSpeechProb float64
	for _, seg := range gResp.Segments {
		noSpeechProb = max(noSpeechProb, seg.NoSpeechProb)
	}

	remaining := firstNonEmpty(resp.Header, "x-ratelimit-remaining-requests")
	limit := firstNonEmpty(resp.Header, "x-ratelimit-limit-requests")

	return &Result{
		Text:         gResp.Text,
		Metrics:      resp.Metrics,
		RateLimit:    remaining + "/" + limit,
		NoSpeechProb: noSpeechProb,
		Duration:     gResp.Duration,
	}, nil
}
