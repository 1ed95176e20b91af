// Package pipeline turns a finished recording into a delivered result:
// transcript to the clipboard, or a spoken answer from the language model.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hark/audio"
	"hark/beep"
	"hark/config"
	"hark/history"
	"hark/llm"
	"hark/log"
)

var (
	ErrTranscription = errors.New("transcription failed")
	ErrCompletion    = errors.New("completion failed")
	ErrSynthesis     = errors.New("synthesis failed")
)

type Transcriber interface {
	Transcribe(ctx context.Context, rec *audio.Recording) (string, error)
}

type Completer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type Clipboard interface {
	Copy(text string) error
}

type Player interface {
	Play(audio []byte) error
}

type Cues interface {
	Play(c beep.Cue)
}

// Gate holds spoken answers back while the microphone is open.
type Gate interface {
	WhenIdle(ctx context.Context, start func() error) error
}

// Reporter receives the outcome of each run.
type Reporter interface {
	Result(slot int, r Result)
	Failed(slot int, err error)
}

type History interface {
	Record(ctx context.Context, e history.Entry) error
}

type Kind int

const (
	ClipboardText Kind = iota
	SpokenResponse
)

func (k Kind) String() string {
	if k == SpokenResponse {
		return "spoken"
	}
	return "clipboard"
}

// Result is what a run produced. Audio is set only for SpokenResponse.
type Result struct {
	Kind       Kind
	Transcript string
	Text       string
	Audio      []byte
	Fallback   bool
}

// Pipeline wires the providers and sinks. Completer and Synthesizer may be
// nil when no slot routes to the language model.
type Pipeline struct {
	Transcriber Transcriber
	Completer   Completer
	Synthesizer Synthesizer
	Clipboard   Clipboard
	Player      Player
	Cues        Cues
	Reporter    Reporter
	History     History
	// Gate is optional; without it answers play as soon as they are ready.
	Gate Gate
}

// Process transcribes rec and, for llm slots, completes and synthesizes the
// answer. The recording is discarded once transcription returns.
func (p *Pipeline) Process(ctx context.Context, rec *audio.Recording, slot config.Slot) (Result, error) {
	var m log.RunMetrics
	return p.process(ctx, rec, slot, &m)
}

func (p *Pipeline) process(ctx context.Context, rec *audio.Recording, slot config.Slot, m *log.RunMetrics) (Result, error) {
	*m = log.RunMetrics{Slot: slot.ID, Sink: string(slot.Sink), AudioS: rec.Duration().Seconds()}

	t0 := time.Now()
	transcript, err := p.Transcriber.Transcribe(ctx, rec)
	rec.Discard()
	m.TranscribeMs = ms(time.Since(t0))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrTranscription, err)
	}

	if slot.Sink != config.SinkLLM {
		return Result{Kind: ClipboardText, Transcript: transcript, Text: transcript}, nil
	}

	if p.Completer == nil || p.Synthesizer == nil {
		return Result{}, fmt.Errorf("%w: no language model configured", ErrCompletion)
	}

	res := Result{Kind: SpokenResponse, Transcript: transcript}

	t1 := time.Now()
	answer, err := p.Completer.Complete(ctx, llm.Request{
		Model:      slot.Model,
		Precontext: slot.Precontext,
		Prompt:     transcript,
	})
	m.CompleteMs = ms(time.Since(t1))
	if err == nil {
		answer = llm.Postprocess(answer)
	}
	if err != nil || answer == "" {
		if err == nil {
			err = errors.New("empty answer")
		}
		log.Warnf("slot %d: %v: %v, using fallback", slot.ID, ErrCompletion, err)
		answer = llm.FallbackText
		res.Fallback = true
		m.Fallback = true
	}
	res.Text = answer

	t2 := time.Now()
	speech, err := p.Synthesizer.Synthesize(ctx, answer)
	m.SynthesizeMs = ms(time.Since(t2))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrSynthesis, err)
	}
	res.Audio = speech
	return res, nil
}

// Run processes rec, delivers the result, records history and logs metrics.
// Failures play the error cue and reach the Reporter; they never panic or
// propagate.
func (p *Pipeline) Run(ctx context.Context, rec *audio.Recording, slot config.Slot) {
	start := time.Now()
	audioMs := rec.Duration().Milliseconds()

	var m log.RunMetrics
	res, err := p.process(ctx, rec, slot, &m)
	if err == nil {
		err = p.deliver(ctx, res)
	}

	m.TotalMs = ms(time.Since(start))
	log.PipelineMetrics(m)

	entry := history.Entry{
		Slot:       slot.ID,
		Sink:       string(slot.Sink),
		Transcript: res.Transcript,
		AudioMs:    audioMs,
		StartedAt:  start,
		FinishedAt: time.Now(),
	}
	if res.Kind == SpokenResponse {
		entry.Response = res.Text
	}

	if err != nil {
		log.Errorf("slot %d: %v", slot.ID, err)
		p.cue(beep.Error)
		if p.Reporter != nil {
			p.Reporter.Failed(slot.ID, err)
		}
		entry.Error = err.Error()
	} else if p.Reporter != nil {
		p.Reporter.Result(slot.ID, res)
	}

	if p.History != nil {
		if herr := p.History.Record(ctx, entry); herr != nil {
			log.Warnf("history: %v", herr)
		}
	}
}

func (p *Pipeline) deliver(ctx context.Context, res Result) error {
	switch res.Kind {
	case ClipboardText:
		if err := p.Clipboard.Copy(res.Text); err != nil {
			return fmt.Errorf("clipboard: %w", err)
		}
		p.cue(beep.Clipboard)
	case SpokenResponse:
		play := func() error { return p.Player.Play(res.Audio) }
		if p.Gate != nil {
			if err := p.Gate.WhenIdle(ctx, play); err != nil {
				return fmt.Errorf("playback: %w", err)
			}
		} else if err := play(); err != nil {
			return fmt.Errorf("playback: %w", err)
		}
	}
	return nil
}

func (p *Pipeline) cue(c beep.Cue) {
	if p.Cues != nil {
		p.Cues.Play(c)
	}
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
