// Package playback plays synthesized responses and lets any hotkey cut them
// short.
package playback

import (
	"sync"
	"sync/atomic"

	"hark/log"
)

// ChunkFrames is the granularity at which an interrupt is observed.
const ChunkFrames = 1024

// Backend writes PCM to an output device. Play pulls samples from next until
// it returns 0 and blocks until the pulled audio has been handed off.
type Backend interface {
	Play(rate, channels int, next func(buf []int16) int) error
	Close()
}

type session struct {
	stop atomic.Bool
	done chan struct{}
}

// Controller owns the output device. At most one response plays at a time;
// starting a new one interrupts the current one first.
type Controller struct {
	backend  Backend
	playMu   sync.Mutex
	mu       sync.Mutex
	cur      *session
	onChange atomic.Pointer[func(playing bool)]
}

func NewController(b Backend) *Controller {
	return &Controller{backend: b}
}

// OnChange registers a callback fired when playback starts or ends.
func (c *Controller) OnChange(fn func(playing bool)) {
	c.onChange.Store(&fn)
}

func (c *Controller) notify(playing bool) {
	if fn := c.onChange.Load(); fn != nil {
		(*fn)(playing)
	}
}

// Play decodes data (WAV or MP3) and starts playing it in the background.
func (c *Controller) Play(data []byte) error {
	clip, err := Decode(data)
	if err != nil {
		return err
	}

	c.playMu.Lock()
	defer c.playMu.Unlock()

	c.Interrupt()
	c.Wait()

	s := &session{done: make(chan struct{})}
	c.mu.Lock()
	c.cur = s
	c.mu.Unlock()
	c.notify(true)

	go c.run(s, clip.Samples, clip.SampleRate, clip.Channels)
	return nil
}

func (c *Controller) run(s *session, samples []int16, rate, channels int) {
	defer func() {
		c.mu.Lock()
		if c.cur == s {
			c.cur = nil
		}
		c.mu.Unlock()
		close(s.done)
		c.notify(false)
	}()

	chunk := ChunkFrames * channels
	pos := 0
	next := func(buf []int16) int {
		if s.stop.Load() || pos >= len(samples) {
			return 0
		}
		n := copy(buf[:min(len(buf), chunk)], samples[pos:])
		pos += n
		return n
	}

	if err := c.backend.Play(rate, channels, next); err != nil {
		log.Errorf("playback: %v", err)
	}
	if s.stop.Load() {
		log.Info("playback interrupted")
	}
}

// Interrupt stops the current playback within one chunk. It does not wait
// and is safe to call when nothing is playing.
func (c *Controller) Interrupt() {
	c.mu.Lock()
	if c.cur != nil {
		c.cur.stop.Store(true)
	}
	c.mu.Unlock()
}

func (c *Controller) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur != nil
}

// Wait blocks until the current playback, if any, has ended.
func (c *Controller) Wait() {
	c.mu.Lock()
	s := c.cur
	c.mu.Unlock()
	if s != nil {
		<-s.done
	}
}

// Close interrupts playback, waits for it and releases the backend.
func (c *Controller) Close() {
	c.Interrupt()
	c.Wait()
	c.backend.Close()
}
