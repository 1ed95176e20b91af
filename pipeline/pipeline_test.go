package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"hark/audio"
	"hark/beep"
	"hark/config"
	"hark/history"
	"hark/llm"
	"hark/transcriber"
	"hark/tts"
)

type fakeClipboard struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (f *fakeClipboard) Copy(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.texts = append(f.texts, text)
	return nil
}

type fakePlayer struct {
	played [][]byte
}

func (f *fakePlayer) Play(a []byte) error {
	f.played = append(f.played, a)
	return nil
}

type fakeCues struct {
	cues []beep.Cue
}

func (f *fakeCues) Play(c beep.Cue) { f.cues = append(f.cues, c) }

type fakeReporter struct {
	results []Result
	errs    []error
}

func (f *fakeReporter) Result(_ int, r Result) { f.results = append(f.results, r) }
func (f *fakeReporter) Failed(_ int, err error) { f.errs = append(f.errs, err) }

type fakeHistory struct {
	entries []history.Entry
}

func (f *fakeHistory) Record(_ context.Context, e history.Entry) error {
	f.entries = append(f.entries, e)
	return nil
}

type rig struct {
	p      *Pipeline
	tr     *transcriber.FakeTranscriber
	llm    *llm.FakeCompleter
	tts    *tts.FakeSynthesizer
	clip   *fakeClipboard
	player *fakePlayer
	cues   *fakeCues
	rep    *fakeReporter
	hist   *fakeHistory
}

func newRig(transcript string, trErr error) *rig {
	r := &rig{
		tr:     transcriber.NewFake(transcript, trErr),
		llm:    llm.NewFake("Hello! It is noon.", nil),
		tts:    tts.NewFake([]byte("RIFF-speech"), nil),
		clip:   &fakeClipboard{},
		player: &fakePlayer{},
		cues:   &fakeCues{},
		rep:    &fakeReporter{},
		hist:   &fakeHistory{},
	}
	r.p = &Pipeline{
		Transcriber: transcriber.NewBatch(r.tr, "wav"),
		Completer:   r.llm,
		Synthesizer: r.tts,
		Clipboard:   r.clip,
		Player:      r.player,
		Cues:        r.cues,
		Reporter:    r.rep,
		History:     r.hist,
	}
	return r
}

func recording(slot int) *audio.Recording {
	return audio.NewRecording("rec", slot, make([]int16, 16000))
}

var (
	clipSlot = config.Slot{ID: 2, Key: "F10", Mode: config.ModeToggle, Sink: config.SinkClipboard}
	llmSlot  = config.Slot{ID: 1, Key: "F9", Mode: config.ModeHold, Sink: config.SinkLLM,
		Model: "gpt-4o", Precontext: config.DefaultPrecontext}
)

func TestClipboardSinkNeverCompletes(t *testing.T) {
	r := newRig("buy milk", nil)
	rec := recording(2)

	res, err := r.p.Process(context.Background(), rec, clipSlot)
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != ClipboardText || res.Text != "buy milk" {
		t.Errorf("result = %+v", res)
	}
	if len(r.llm.Requests()) != 0 || len(r.tts.Texts()) != 0 {
		t.Error("clipboard sink reached completion or synthesis")
	}
	if !rec.Discarded() {
		t.Error("recording not discarded after transcription")
	}
}

func TestLLMSinkSpeaksAnswer(t *testing.T) {
	r := newRig("what time is it", nil)

	res, err := r.p.Process(context.Background(), recording(1), llmSlot)
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != SpokenResponse || res.Fallback {
		t.Errorf("result = %+v", res)
	}
	if res.Text != "It is noon." {
		t.Errorf("text = %q, greeting not stripped", res.Text)
	}
	reqs := r.llm.Requests()
	if len(reqs) != 1 || reqs[0].Model != "gpt-4o" || reqs[0].Prompt != "what time is it" || reqs[0].Precontext != config.DefaultPrecontext {
		t.Errorf("requests = %+v", reqs)
	}
	if texts := r.tts.Texts(); len(texts) != 1 || texts[0] != "It is noon." {
		t.Errorf("synthesized = %v", texts)
	}
	if string(res.Audio) != "RIFF-speech" {
		t.Errorf("audio = %q", res.Audio)
	}
}

func TestCompletionFailureUsesFallback(t *testing.T) {
	r := newRig("what time is it", nil)
	r.llm.Err = errors.New("503")

	res, err := r.p.Process(context.Background(), recording(1), llmSlot)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Fallback || res.Text != llm.FallbackText {
		t.Errorf("result = %+v", res)
	}
	if texts := r.tts.Texts(); len(texts) != 1 || texts[0] != llm.FallbackText {
		t.Errorf("fallback not synthesized: %v", texts)
	}
}

func TestTranscriptionFailure(t *testing.T) {
	r := newRig("", errors.New("timeout"))
	rec := recording(1)

	_, err := r.p.Process(context.Background(), rec, llmSlot)
	if !errors.Is(err, ErrTranscription) {
		t.Fatalf("err = %v, want ErrTranscription", err)
	}
	if len(r.llm.Requests()) != 0 {
		t.Error("completion ran after failed transcription")
	}
	if !rec.Discarded() {
		t.Error("recording not discarded after failed transcription")
	}
}

func TestEmptyTranscriptIsTranscriptionError(t *testing.T) {
	r := newRig("  ", nil)
	_, err := r.p.Process(context.Background(), recording(2), clipSlot)
	if !errors.Is(err, ErrTranscription) || !errors.Is(err, transcriber.ErrNoSpeech) {
		t.Errorf("err = %v", err)
	}
}

func TestSynthesisFailure(t *testing.T) {
	r := newRig("hi there", nil)
	r.tts.Err = errors.New("quota")
	_, err := r.p.Process(context.Background(), recording(1), llmSlot)
	if !errors.Is(err, ErrSynthesis) {
		t.Errorf("err = %v, want ErrSynthesis", err)
	}
}

func TestRunDeliversClipboard(t *testing.T) {
	r := newRig("note to self", nil)
	r.p.Run(context.Background(), recording(2), clipSlot)

	if len(r.clip.texts) != 1 || r.clip.texts[0] != "note to self" {
		t.Errorf("clipboard = %v", r.clip.texts)
	}
	if len(r.cues.cues) != 1 || r.cues.cues[0] != beep.Clipboard {
		t.Errorf("cues = %v", r.cues.cues)
	}
	if len(r.rep.results) != 1 || len(r.rep.errs) != 0 {
		t.Errorf("reporter = %+v", r.rep)
	}
	if len(r.player.played) != 0 {
		t.Error("clipboard run started playback")
	}
	if len(r.hist.entries) != 1 || r.hist.entries[0].Transcript != "note to self" || r.hist.entries[0].AudioMs != 1000 {
		t.Errorf("history = %+v", r.hist.entries)
	}
}

func TestRunDeliversSpeech(t *testing.T) {
	r := newRig("weather", nil)
	r.p.Run(context.Background(), recording(1), llmSlot)

	if len(r.player.played) != 1 {
		t.Fatalf("played %d clips", len(r.player.played))
	}
	if len(r.clip.texts) != 0 {
		t.Error("llm run wrote the clipboard")
	}
	if len(r.hist.entries) != 1 || r.hist.entries[0].Response != "It is noon." {
		t.Errorf("history = %+v", r.hist.entries)
	}
}

type fakeGate struct {
	calls int
	err   error
}

func (g *fakeGate) WhenIdle(_ context.Context, start func() error) error {
	g.calls++
	if g.err != nil {
		return g.err
	}
	return start()
}

func TestRunSpeechGoesThroughGate(t *testing.T) {
	r := newRig("weather", nil)
	gate := &fakeGate{}
	r.p.Gate = gate
	r.p.Run(context.Background(), recording(1), llmSlot)
	if gate.calls != 1 || len(r.player.played) != 1 {
		t.Errorf("gate calls %d, played %d", gate.calls, len(r.player.played))
	}

	r = newRig("buy milk", nil)
	r.p.Gate = gate
	r.p.Run(context.Background(), recording(2), clipSlot)
	if gate.calls != 1 {
		t.Error("clipboard delivery waited on the gate")
	}
}

func TestRunGateCancelled(t *testing.T) {
	r := newRig("weather", nil)
	r.p.Gate = &fakeGate{err: context.Canceled}
	r.p.Run(context.Background(), recording(1), llmSlot)
	if len(r.player.played) != 0 || len(r.rep.errs) != 1 {
		t.Fatalf("played %d, errors %v", len(r.player.played), r.rep.errs)
	}
	if !errors.Is(r.rep.errs[0], context.Canceled) {
		t.Errorf("err = %v", r.rep.errs[0])
	}
}

func TestRunReportsFailure(t *testing.T) {
	r := newRig("", errors.New("dns"))
	r.p.Run(context.Background(), recording(1), llmSlot)

	if len(r.rep.results) != 0 || len(r.rep.errs) != 1 {
		t.Fatalf("reporter = %+v", r.rep)
	}
	if len(r.cues.cues) != 1 || r.cues.cues[0] != beep.Error {
		t.Errorf("cues = %v", r.cues.cues)
	}
	if len(r.hist.entries) != 1 || !strings.Contains(r.hist.entries[0].Error, "transcription failed") {
		t.Errorf("history = %+v", r.hist.entries)
	}
}

func TestRunClipboardFailure(t *testing.T) {
	r := newRig("x", nil)
	r.clip.err = errors.New("no display")
	r.p.Run(context.Background(), recording(2), clipSlot)
	if len(r.rep.errs) != 1 || len(r.rep.results) != 0 {
		t.Errorf("reporter = %+v", r.rep)
	}
}
