// Package engine maps hotkey events to recording sessions. Each slot runs a
// small state machine; a coordinator hands out the single capture token.
package engine

import "fmt"

type State int

const (
	Idle State = iota
	Recording
	Processing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Processing:
		return "processing"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type ActivateResult int

const (
	Granted ActivateResult = iota
	Denied
	Failed
)

func (r ActivateResult) String() string {
	switch r {
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("activate(%d)", int(r))
}

type DeactivateResult int

const (
	Confirmed DeactivateResult = iota
	NotHolder
)

// EventSink observes slot activity, typically to drive a status display.
type EventSink interface {
	SlotState(slot int, st State)
	Denied(slot int)
	Error(slot int, err error)
}

type nopSink struct{}

func (nopSink) SlotState(int, State) {}
func (nopSink) Denied(int)           {}
func (nopSink) Error(int, error)     {}
