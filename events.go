package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"hark/config"
	"hark/engine"
	"hark/log"
	"hark/pipeline"
)

// statusSink fans engine and pipeline events out to the display: the Bubble
// Tea program when the TUI is on, plain lines on stdout otherwise.
type statusSink struct {
	slots   []config.Slot
	useTUI  bool
	runs    atomic.Int64
	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
}

func newStatus(slots []config.Slot, useTUI bool) *statusSink {
	return &statusSink{slots: slots, useTUI: useTUI}
}

// start launches the TUI. Quitting it cancels the returned context.
func (s *statusSink) start(ctx context.Context, cancel context.CancelFunc, device string) context.Context {
	p := tea.NewProgram(newTUIModel(s.slots, device), tea.WithAltScreen(), tea.WithContext(ctx))
	s.mu.Lock()
	s.program = p
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		if _, err := p.Run(); err != nil && ctx.Err() == nil {
			log.Errorf("TUI error: %v", err)
		}
		cancel()
	}()
	return ctx
}

func (s *statusSink) stop() {
	s.mu.Lock()
	p, done := s.program, s.done
	s.mu.Unlock()
	if p == nil {
		return
	}
	p.Quit()
	<-done
}

func (s *statusSink) send(msg tea.Msg) bool {
	s.mu.Lock()
	p := s.program
	s.mu.Unlock()
	if p == nil {
		return false
	}
	p.Send(msg)
	return true
}

func (s *statusSink) Runs() int { return int(s.runs.Load()) }

func (s *statusSink) SlotState(slot int, st engine.State) {
	if !s.send(slotStateMsg{slot: slot, state: st}) && !s.useTUI {
		fmt.Printf("[%d] %s\n", slot, st)
	}
}

func (s *statusSink) Denied(slot int) {
	if !s.send(deniedMsg{slot: slot}) && !s.useTUI {
		fmt.Printf("[%d] another hotkey is active\n", slot)
	}
}

func (s *statusSink) Error(slot int, err error) {
	if !s.send(slotErrorMsg{slot: slot, text: err.Error()}) && !s.useTUI {
		fmt.Printf("[%d] error: %v\n", slot, err)
	}
}

func (s *statusSink) Result(slot int, r pipeline.Result) {
	s.runs.Add(1)
	if s.send(resultMsg{slot: slot, res: r}) || s.useTUI {
		return
	}
	switch r.Kind {
	case pipeline.ClipboardText:
		fmt.Printf("[%d] copied: %s\n", slot, r.Text)
	case pipeline.SpokenResponse:
		fmt.Printf("[%d] you: %s\n[%d] answer: %s\n", slot, r.Transcript, slot, r.Text)
	}
}

func (s *statusSink) Failed(slot int, err error) {
	s.runs.Add(1)
	s.Error(slot, err)
}

func (s *statusSink) Level(level float64) { s.send(levelMsg(level)) }

func (s *statusSink) Playing(playing bool) {
	if !s.send(playingMsg(playing)) && !s.useTUI && playing {
		fmt.Println("speaking (press any hotkey to stop)")
	}
}
