package engine

import (
	"context"
	"sync"
	"time"

	"hark/audio"
	"hark/beep"
	"hark/config"
	"hark/log"
)

const (
	DefaultGrace    = 500 * time.Millisecond
	DefaultDebounce = 200 * time.Millisecond
)

// Capture is the microphone as the coordinator sees it.
type Capture interface {
	Start(slot int) error
	Stop() *audio.Recording
}

// Interrupter stops in-flight playback without waiting.
type Interrupter interface {
	Interrupt()
}

// Processor consumes a finished recording. Run blocks until the result has
// been delivered.
type Processor interface {
	Run(ctx context.Context, rec *audio.Recording, slot config.Slot)
}

type Cues interface {
	Play(c beep.Cue)
}

// Coordinator owns the capture token. At most one slot holds it; grants and
// releases are serialized through mu.
type Coordinator struct {
	mu      sync.Mutex
	holder  int
	free    chan struct{} // closed while no slot holds the token
	closed  bool
	capture Capture
	player  Interrupter
	proc    Processor
	cues    Cues
	grace   time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	runs   sync.WaitGroup
}

// CoordinatorConfig carries the collaborators. Player and Cues are optional.
type CoordinatorConfig struct {
	Capture   Capture
	Player    Interrupter
	Processor Processor
	Cues      Cues
	// Grace is the delay between a stop request and the end of capture.
	// Zero means DefaultGrace.
	Grace time.Duration
}

func NewCoordinator(ctx context.Context, cfg CoordinatorConfig) *Coordinator {
	grace := cfg.Grace
	if grace == 0 {
		grace = DefaultGrace
	}
	ctx, cancel := context.WithCancel(ctx)
	free := make(chan struct{})
	close(free)
	return &Coordinator{
		free:    free,
		capture: cfg.Capture,
		player:  cfg.Player,
		proc:    cfg.Processor,
		cues:    cfg.Cues,
		grace:   grace,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Holder returns the slot holding the token, or 0.
func (c *Coordinator) Holder() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.holder
}

// Interrupt stops playback of a previous answer.
func (c *Coordinator) Interrupt() {
	if c.player != nil {
		c.player.Interrupt()
	}
}

// RequestActivate grants the token to slot if it is free and starts capture.
// When capture fails to start the token is released and the error returned.
func (c *Coordinator) RequestActivate(slot int) (ActivateResult, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Denied, nil
	}
	if c.holder != 0 {
		holder := c.holder
		c.mu.Unlock()
		log.Infof("slot %d: another hotkey is active (slot %d)", slot, holder)
		log.SlotEvent(slot, "denied")
		return Denied, nil
	}
	c.holder = slot
	c.free = make(chan struct{})
	c.Interrupt()
	if err := c.capture.Start(slot); err != nil {
		c.release()
		c.mu.Unlock()
		log.Errorf("slot %d: capture start: %v", slot, err)
		c.cue(beep.Error)
		return Failed, err
	}
	c.mu.Unlock()

	log.SlotEvent(slot, "granted")
	c.cue(beep.Start)
	return Granted, nil
}

// RequestDeactivate ends the holder's capture after the grace delay and hands
// the recording to the processor on its own goroutine. onDone runs once the
// slot may accept a new activation: after the pipeline run, or immediately
// when nothing was captured. It is not called for NotHolder.
func (c *Coordinator) RequestDeactivate(slot config.Slot, onDone func()) DeactivateResult {
	c.mu.Lock()
	if c.holder != slot.ID {
		c.mu.Unlock()
		return NotHolder
	}
	c.mu.Unlock()

	select {
	case <-time.After(c.grace):
	case <-c.ctx.Done():
	}

	c.mu.Lock()
	if c.holder != slot.ID {
		// Close already stopped the capture.
		c.mu.Unlock()
		onDone()
		return Confirmed
	}
	rec := c.capture.Stop()
	c.release()
	c.mu.Unlock()
	c.cue(beep.Stop)

	if rec == nil {
		log.Infof("slot %d: no audio captured", slot.ID)
		log.SlotEvent(slot.ID, "empty")
		onDone()
		return Confirmed
	}
	log.RecordingDone(slot.ID, rec.Frames(), rec.Duration().Seconds())

	c.runs.Add(1)
	go func() {
		defer c.runs.Done()
		defer onDone()
		c.proc.Run(c.ctx, rec, slot)
	}()
	return Confirmed
}

// release frees the token. Callers hold mu.
func (c *Coordinator) release() {
	c.holder = 0
	close(c.free)
}

// WhenIdle runs start once no slot holds the token. start runs under the
// token lock, so a grant cannot open the microphone while playback is being
// started; the grant interrupts it afterwards instead. After Close, start is
// skipped.
func (c *Coordinator) WhenIdle(ctx context.Context, start func() error) error {
	logged := false
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			log.Info("shutting down, answer not played")
			return nil
		}
		if c.holder == 0 {
			defer c.mu.Unlock()
			return start()
		}
		holder, free := c.holder, c.free
		c.mu.Unlock()

		if !logged {
			log.Infof("answer waiting for slot %d to finish recording", holder)
			logged = true
		}
		select {
		case <-free:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Coordinator) cue(cue beep.Cue) {
	if c.cues != nil {
		c.cues.Play(cue)
	}
}

// Close stops any capture in progress, refuses further activations and waits
// for pipeline runs to finish.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	if c.holder != 0 {
		holder := c.holder
		if rec := c.capture.Stop(); rec != nil {
			log.Warnf("slot %d: shutdown dropped %d frames (%.1fs) of audio", holder, rec.Frames(), rec.Duration().Seconds())
			rec.Discard()
		} else {
			log.Infof("slot %d: shutdown stopped an empty capture", holder)
		}
		c.release()
	}
	c.mu.Unlock()
	c.runs.Wait()
	c.cancel()
}
