//go:build !linux

package hotkey

import (
	"fmt"
	"sync"
	"time"

	"golang.design/x/hotkey"
)

type xSource struct {
	events chan Event
	hks    []*hotkey.Hotkey
	done   chan struct{}
	once   sync.Once
}

func New() Source {
	return &xSource{
		events: make(chan Event, eventBuffer),
		done:   make(chan struct{}),
	}
}

func (s *xSource) Register(keys []string) error {
	keys, err := checkKeys(keys)
	if err != nil {
		return err
	}
	for _, k := range keys {
		hk := hotkey.New(nil, keyCodes[k])
		if err := hk.Register(); err != nil {
			s.Unregister()
			return fmt.Errorf("registering %s: %w", k, err)
		}
		s.hks = append(s.hks, hk)
		go s.forward(k, hk)
	}
	return nil
}

func (s *xSource) forward(name string, hk *hotkey.Hotkey) {
	for {
		select {
		case <-s.done:
			return
		case <-hk.Keydown():
			emit(s.events, Event{Key: name, Down: true, At: time.Now()}, s.done)
		case <-hk.Keyup():
			emit(s.events, Event{Key: name, Down: false, At: time.Now()}, s.done)
		}
	}
}

func (s *xSource) Unregister() {
	s.once.Do(func() {
		close(s.done)
		for _, hk := range s.hks {
			hk.Unregister()
		}
	})
}

func (s *xSource) Events() <-chan Event {
	return s.events
}

func Diagnose() (string, error) {
	return fmt.Sprintf("hotkey support available (%d keys)", len(keyCodes)), nil
}
