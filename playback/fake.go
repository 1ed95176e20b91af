package playback

import (
	"sync"
	"time"
)

// FakeBackend pulls one chunk per ChunkDelay and keeps what it received.
type FakeBackend struct {
	ChunkDelay time.Duration

	mu       sync.Mutex
	samples  []int16
	rate     int
	channels int
	plays    int
	closed   bool
}

func NewFakeBackend(chunkDelay time.Duration) *FakeBackend {
	return &FakeBackend{ChunkDelay: chunkDelay}
}

func (f *FakeBackend) Play(rate, channels int, next func([]int16) int) error {
	f.mu.Lock()
	f.plays++
	f.rate, f.channels = rate, channels
	f.mu.Unlock()

	buf := make([]int16, ChunkFrames*channels)
	for {
		n := next(buf)
		if n == 0 {
			return nil
		}
		f.mu.Lock()
		f.samples = append(f.samples, buf[:n]...)
		f.mu.Unlock()
		if f.ChunkDelay > 0 {
			time.Sleep(f.ChunkDelay)
		}
	}
}

func (f *FakeBackend) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *FakeBackend) Samples() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.samples)
}

func (f *FakeBackend) Plays() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.plays
}

func (f *FakeBackend) Format() (rate, channels int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rate, f.channels
}

func (f *FakeBackend) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
