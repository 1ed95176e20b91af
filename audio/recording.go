package audio

import (
	"sync"
	"time"
)

// Recording is one finalized capture owned by a slot. It is consumed exactly
// once; the consumer calls Discard when it no longer needs the samples.
type Recording struct {
	ID         string
	Slot       int
	SampleRate int
	Started    time.Time
	Stopped    time.Time

	mu        sync.Mutex
	samples   []int16
	discarded bool
}

func newRecording(id string, slot int, samples []int16, started, stopped time.Time) *Recording {
	return &Recording{
		ID:         id,
		Slot:       slot,
		SampleRate: SampleRate,
		Started:    started,
		Stopped:    stopped,
		samples:    samples,
	}
}

// NewRecording builds a Recording from already captured samples.
func NewRecording(id string, slot int, samples []int16) *Recording {
	now := time.Now()
	d := time.Duration(len(samples)) * time.Second / SampleRate
	return newRecording(id, slot, samples, now.Add(-d), now)
}

// Samples returns the captured PCM. It is nil after Discard.
func (r *Recording) Samples() []int16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.samples
}

// Frames returns the number of captured samples.
func (r *Recording) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}

// Duration is the audio length derived from the sample count.
func (r *Recording) Duration() time.Duration {
	return time.Duration(r.Frames()) * time.Second / time.Duration(r.SampleRate)
}

// Discard releases the sample buffer. Safe to call more than once.
func (r *Recording) Discard() {
	r.mu.Lock()
	r.samples = nil
	r.discarded = true
	r.mu.Unlock()
}

func (r *Recording) Discarded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.discarded
}
