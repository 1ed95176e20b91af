package tts

import (
	"context"
	"sync"
)

// FakeSynthesizer returns fixed audio bytes and records the texts it got.
type FakeSynthesizer struct {
	Audio []byte
	Err   error

	mu    sync.Mutex
	texts []string
}

func NewFake(audio []byte, err error) *FakeSynthesizer {
	return &FakeSynthesizer{Audio: audio, Err: err}
}

func (f *FakeSynthesizer) Name() string { return "fake" }

func (f *FakeSynthesizer) Synthesize(_ context.Context, text string) ([]byte, error) {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Audio, nil
}

func (f *FakeSynthesizer) Texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

func (f *FakeSynthesizer) Close() error { return nil }
