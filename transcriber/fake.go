package transcriber

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// FakeTranscriber returns a canned transcript and remembers what it was sent.
type FakeTranscriber struct {
	text  string
	err   error
	delay time.Duration

	mu      sync.Mutex
	calls   int
	formats []string
}

func NewFake(text string, err error) *FakeTranscriber {
	return &FakeTranscriber{text: text, err: err}
}

// WithDelay makes each call block for d or until ctx is done.
func (f *FakeTranscriber) WithDelay(d time.Duration) *FakeTranscriber {
	f.delay = d
	return f
}

func (f *FakeTranscriber) Name() string { return "fake" }

func (f *FakeTranscriber) Transcribe(ctx context.Context, audio []byte, format string) (*Result, error) {
	f.mu.Lock()
	f.calls++
	f.formats = append(f.formats, format)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, fmt.Errorf("fake transcriber error: %w", f.err)
	}
	return &Result{Text: f.text, Metrics: &NetworkMetrics{Total: 10 * time.Millisecond}}, nil
}

func (f *FakeTranscriber) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *FakeTranscriber) Formats() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.formats...)
}
