package main

import (
	"strings"
	"testing"

	"hark/config"
	"hark/engine"
	"hark/pipeline"
)

func testModel() tuiModel {
	cfg := config.Default()
	m := newTUIModel(cfg.EnabledSlots(), "fake mic")
	m.width = 80
	return m
}

func update(m tuiModel, msg any) tuiModel {
	next, _ := m.Update(msg)
	return next.(tuiModel)
}

func TestTUISlotStates(t *testing.T) {
	m := testModel()
	m = update(m, slotStateMsg{slot: 1, state: engine.Recording})
	if !strings.Contains(m.View(), "REC") {
		t.Error("recording slot not shown")
	}
	m = update(m, slotStateMsg{slot: 1, state: engine.Processing})
	if !strings.Contains(m.View(), "processing") {
		t.Error("processing slot not shown")
	}
	m = update(m, slotStateMsg{slot: 9, state: engine.Recording})
	if m.row(9) != nil {
		t.Error("unknown slot created a row")
	}
}

func TestTUIResults(t *testing.T) {
	m := testModel()
	m = update(m, resultMsg{slot: 2, res: pipeline.Result{Kind: pipeline.ClipboardText, Text: "buy milk"}})
	m = update(m, resultMsg{slot: 1, res: pipeline.Result{Kind: pipeline.SpokenResponse, Transcript: "what time", Text: "Noon."}})
	view := m.View()
	for _, want := range []string{"buy milk", "[copied]", "> what time", "Noon."} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m = update(m, slotErrorMsg{slot: 2, text: "transcription failed"})
	if r := m.row(2); !r.failed || r.last != "transcription failed" {
		t.Errorf("row 2 = %+v", *r)
	}
}

func TestTUIPlayingAndDenied(t *testing.T) {
	m := testModel()
	m = update(m, playingMsg(true))
	m = update(m, deniedMsg{slot: 3})
	view := m.View()
	if !strings.Contains(view, "speaking") {
		t.Error("playback indicator missing")
	}
	if !strings.Contains(view, "another hotkey is active") {
		t.Error("denial notice missing")
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("the quick brown fox jumps over the lazy dog", 10)
	for _, l := range lines {
		if len(l) > 10 {
			t.Errorf("line %q exceeds width", l)
		}
	}
	if strings.Join(lines, " ") != "the quick brown fox jumps over the lazy dog" {
		t.Errorf("wrap lost words: %q", lines)
	}
}

func TestRedact(t *testing.T) {
	if got := redact("sk-1234567890abcd"); got != "sk-1****abcd" {
		t.Errorf("redact = %q", got)
	}
	if redact("") != "" || redact("short") != "****" {
		t.Error("short keys not fully masked")
	}
}
