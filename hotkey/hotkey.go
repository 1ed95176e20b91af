// Package hotkey delivers global key press and release events for the
// configured slot keys.
package hotkey

import "time"

// Event is a single transition of a registered key. Auto-repeat arrives as
// additional Down events without an intervening Up.
type Event struct {
	Key  string
	Down bool
	At   time.Time
}

func (e Event) String() string {
	if e.Down {
		return e.Key + " down"
	}
	return e.Key + " up"
}

// Source watches a set of keys globally.
type Source interface {
	Register(keys []string) error
	Unregister()
	Events() <-chan Event
}

const eventBuffer = 64

func emit(ch chan<- Event, ev Event, done <-chan struct{}) {
	select {
	case ch <- ev:
	case <-done:
	}
}
