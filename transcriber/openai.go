package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"hark/config"
)

const (
	openaiBaseURL      = "https://api.openai.com/v1"
	openaiDefaultModel = "whisper-1"
)

type OpenAI struct {
	client *TracedClient
	apiURL string
	apiKey string
	model  string
	lang   string
}

func NewOpenAI(cfg config.TranscriptionConfig, client *TracedClient) *OpenAI {
	base := cfg.BaseURL
	if base == "" {
		base = openaiBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openaiDefaultModel
	}
	return &OpenAI{
		client: client,
		apiURL: strings.TrimRight(base, "/") + "/audio/transcriptions",
		apiKey: cfg.APIKey,
		model:  model,
		lang:   cfg.Language,
	}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Warm() { o.client.Warm(o.apiURL) }

func (o *OpenAI) Transcribe(ctx context.Context, audioData []byte, format string) (*Result, error) {
	form, contentType, err := buildForm(audioData, uploadForm{
		model:    o.model,
		format:   format,
		language: o.lang,
		response: "json",
	})
	if err != nil {
		return nil, err
	}

	resp, err := upload(ctx, o.client, "openai", o.apiURL, o.apiKey, form, contentType)
	if err != nil {
		return nil, err
	}

	var oResp struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(resp.Body, &oResp); err != nil {
		return nil, fmt.Errorf("openai response parse error: %w", err)
	}

	remaining := firstNonEmpty(resp.Header, "x-ratelimit-remaining-requests")
	limit := firstNonEmpty(resp.Header, "x-ratelimit-limit-requests")

	return &Result{
		Text:      oResp.Text,
		Metrics:   resp.Metrics,
		RateLimit: remaining + "/" + limit,
	}, nil
}
