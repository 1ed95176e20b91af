package tts

import (
	"context"
	"errors"
	"fmt"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	tts "cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"

	"hark/config"
)

// Google synthesizes LINEAR16 WAV with a neutral voice.
type Google struct {
	client      *texttospeech.Client
	voice       *tts.VoiceSelectionParams
	audioConfig *tts.AudioConfig
}

func NewGoogle(ctx context.Context, cfg config.SynthesisConfig) (*Google, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("google tts client: %w", err)
	}

	lang := cfg.Language
	if lang == "" {
		lang = "en-US"
	}
	return &Google{
		client: client,
		voice: &tts.VoiceSelectionParams{
			LanguageCode: lang,
			Name:         cfg.Voice,
			SsmlGender:   tts.SsmlVoiceGender_NEUTRAL,
		},
		audioConfig: &tts.AudioConfig{
			AudioEncoding: tts.AudioEncoding_LINEAR16,
		},
	}, nil
}

func (g *Google) Name() string { return "google" }

func (g *Google) Synthesize(ctx context.Context, text string) ([]byte, error) {
	req := &tts.SynthesizeSpeechRequest{
		Input: &tts.SynthesisInput{
			InputSource: &tts.SynthesisInput_Text{Text: text},
		},
		Voice:       g.voice,
		AudioConfig: g.audioConfig,
	}
	resp, err := g.client.SynthesizeSpeech(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("google tts: %w", err)
	}
	if len(resp.AudioContent) == 0 {
		return nil, errors.New("google tts returned no audio")
	}
	return resp.AudioContent, nil
}

func (g *Google) Close() error { return g.client.Close() }
