package llm

import (
	"context"
	"sync"
)

// FakeCompleter answers every request with a fixed reply or error.
type FakeCompleter struct {
	Reply string
	Err   error

	mu       sync.Mutex
	requests []Request
}

func NewFake(reply string, err error) *FakeCompleter {
	return &FakeCompleter{Reply: reply, Err: err}
}

func (f *FakeCompleter) Name() string { return "fake" }

func (f *FakeCompleter) Complete(_ context.Context, req Request) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	return f.Reply, nil
}

func (f *FakeCompleter) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.requests...)
}
