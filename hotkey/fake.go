package hotkey

import (
	"sync"
	"time"
)

// FakeSource is a Source driven by test code.
type FakeSource struct {
	events chan Event
	mu     sync.Mutex
	keys   []string
	closed bool
}

func NewFake() *FakeSource {
	return &FakeSource{events: make(chan Event, eventBuffer)}
}

func (f *FakeSource) Register(keys []string) error {
	keys, err := checkKeys(keys)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.keys = keys
	f.mu.Unlock()
	return nil
}

func (f *FakeSource) Unregister() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.events)
	}
}

func (f *FakeSource) Events() <-chan Event { return f.events }

func (f *FakeSource) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keys...)
}

func (f *FakeSource) Send(ev Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.events <- ev
}

func (f *FakeSource) Press(key string) {
	f.Send(Event{Key: Normalize(key), Down: true, At: time.Now()})
}

func (f *FakeSource) Release(key string) {
	f.Send(Event{Key: Normalize(key), Down: false, At: time.Now()})
}
