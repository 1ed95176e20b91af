package engine

import (
	"sync"
	"time"

	"hark/config"
	"hark/log"
)

type keyRequest struct {
	down bool
	at   time.Time
}

// Channel is the per-slot state machine. Key events are queued and handled
// in order on the channel's own goroutine, so the grace delay of one slot
// never holds up the dispatcher or another slot.
type Channel struct {
	slot     config.Slot
	coord    *Coordinator
	sink     EventSink
	debounce time.Duration

	mu         sync.Mutex
	state      State
	keyDown    bool
	lastToggle time.Time
	pending    []keyRequest

	wake chan struct{}
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

func newChannel(slot config.Slot, coord *Coordinator, sink EventSink, debounce time.Duration) *Channel {
	ch := &Channel{
		slot:     slot,
		coord:    coord,
		sink:     sink,
		debounce: debounce,
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go ch.worker()
	return ch
}

func (ch *Channel) Slot() config.Slot { return ch.slot }

func (ch *Channel) State() State {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.state
}

// KeyDown reports whether the bound key is currently held.
func (ch *Channel) KeyDown() bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.keyDown
}

// Press queues a key-down observed at at.
func (ch *Channel) Press(at time.Time) { ch.enqueue(keyRequest{down: true, at: at}) }

// Release queues a key-up observed at at.
func (ch *Channel) Release(at time.Time) { ch.enqueue(keyRequest{down: false, at: at}) }

func (ch *Channel) enqueue(r keyRequest) {
	ch.mu.Lock()
	ch.pending = append(ch.pending, r)
	ch.mu.Unlock()
	select {
	case ch.wake <- struct{}{}:
	default:
	}
}

func (ch *Channel) worker() {
	defer close(ch.done)
	for {
		select {
		case <-ch.quit:
			return
		case <-ch.wake:
		}
		for {
			ch.mu.Lock()
			if len(ch.pending) == 0 {
				ch.mu.Unlock()
				break
			}
			r := ch.pending[0]
			ch.pending = ch.pending[1:]
			ch.mu.Unlock()

			if ch.slot.Mode == config.ModeHold {
				ch.handleHold(r)
			} else {
				ch.handleToggle(r)
			}
		}
	}
}

func (ch *Channel) handleHold(r keyRequest) {
	ch.mu.Lock()
	if r.down {
		if ch.keyDown {
			ch.mu.Unlock()
			return
		}
		ch.keyDown = true
		st := ch.state
		ch.mu.Unlock()

		switch st {
		case Idle:
			ch.activate()
		case Processing:
			ch.reject()
		}
		return
	}

	ch.keyDown = false
	st := ch.state
	ch.mu.Unlock()
	if st == Recording {
		ch.deactivate()
	}
}

func (ch *Channel) handleToggle(r keyRequest) {
	ch.mu.Lock()
	if !r.down {
		ch.keyDown = false
		ch.mu.Unlock()
		return
	}
	// Auto-repeat while the key is still held is not a new press.
	if ch.keyDown {
		ch.mu.Unlock()
		return
	}
	ch.keyDown = true
	if !ch.lastToggle.IsZero() && r.at.Sub(ch.lastToggle) < ch.debounce {
		ch.mu.Unlock()
		log.Infof("slot %d: toggle debounced", ch.slot.ID)
		log.SlotEvent(ch.slot.ID, "debounced")
		return
	}
	st := ch.state
	if st != Processing {
		ch.lastToggle = r.at
	}
	ch.mu.Unlock()

	switch st {
	case Idle:
		ch.activate()
	case Recording:
		ch.deactivate()
	case Processing:
		ch.reject()
	}
}

func (ch *Channel) activate() {
	res, err := ch.coord.RequestActivate(ch.slot.ID)
	switch res {
	case Granted:
		ch.setState(Recording)
	case Denied:
		ch.sink.Denied(ch.slot.ID)
	case Failed:
		ch.sink.Error(ch.slot.ID, err)
	}
}

func (ch *Channel) deactivate() {
	ch.setState(Processing)
	if ch.coord.RequestDeactivate(ch.slot, func() { ch.setState(Idle) }) == NotHolder {
		log.Warnf("slot %d: stop requested without holding the microphone", ch.slot.ID)
		ch.setState(Idle)
	}
}

func (ch *Channel) reject() {
	log.Infof("slot %d: still processing, activation rejected", ch.slot.ID)
	log.SlotEvent(ch.slot.ID, "rejected")
}

func (ch *Channel) setState(st State) {
	ch.mu.Lock()
	ch.state = st
	ch.mu.Unlock()
	log.SlotEvent(ch.slot.ID, st.String())
	ch.sink.SlotState(ch.slot.ID, st)
}

// Close stops the worker. Queued events are dropped.
func (ch *Channel) Close() {
	ch.once.Do(func() { close(ch.quit) })
	<-ch.done
}
