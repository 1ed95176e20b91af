package engine

import (
	"context"
	"time"

	"hark/config"
	"hark/hotkey"
)

// Engine routes key events to the slot channels.
type Engine struct {
	coord    *Coordinator
	channels map[string]*Channel
	order    []*Channel
}

type Options struct {
	// Debounce is the minimum spacing of toggle presses. Zero means
	// DefaultDebounce.
	Debounce time.Duration
	Sink     EventSink
}

// New builds one channel per enabled slot.
func New(slots []config.Slot, coord *Coordinator, opts Options) *Engine {
	if opts.Debounce == 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Sink == nil {
		opts.Sink = nopSink{}
	}
	e := &Engine{coord: coord, channels: make(map[string]*Channel)}
	for _, s := range slots {
		if !s.Enabled() {
			continue
		}
		ch := newChannel(s, coord, opts.Sink, opts.Debounce)
		e.channels[hotkey.Normalize(s.Key)] = ch
		e.order = append(e.order, ch)
	}
	return e
}

// Keys returns the bound key names in slot order.
func (e *Engine) Keys() []string {
	keys := make([]string, len(e.order))
	for i, ch := range e.order {
		keys[i] = hotkey.Normalize(ch.slot.Key)
	}
	return keys
}

func (e *Engine) Channels() []*Channel { return e.order }

// Channel returns the channel of slot id, or nil.
func (e *Engine) Channel(id int) *Channel {
	for _, ch := range e.order {
		if ch.slot.ID == id {
			return ch
		}
	}
	return nil
}

// Dispatch routes ev to its channel. Any key-down of a bound key first cuts
// off a playing answer.
func (e *Engine) Dispatch(ev hotkey.Event) {
	ch, ok := e.channels[ev.Key]
	if !ok {
		return
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	if ev.Down {
		e.coord.Interrupt()
		ch.Press(at)
	} else {
		ch.Release(at)
	}
}

// Run dispatches events until ctx is done or events is closed.
func (e *Engine) Run(ctx context.Context, events <-chan hotkey.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			e.Dispatch(ev)
		}
	}
}

// Close stops the channel workers, then the coordinator.
func (e *Engine) Close() {
	for _, ch := range e.order {
		ch.Close()
	}
	e.coord.Close()
}
