// Package beep plays short generated tones that mark capture start and
// stop, clipboard delivery and failures.
package beep

import (
	"math"
	"sync"
	"sync/atomic"
)

// Cue names one of the feedback tones.
type Cue int

const (
	Start Cue = iota
	Stop
	Clipboard
	Error
)

func (c Cue) String() string {
	switch c {
	case Start:
		return "start"
	case Stop:
		return "stop"
	case Clipboard:
		return "clipboard"
	case Error:
		return "error"
	}
	return "unknown"
}

var disabled atomic.Bool

// Disable silences all cues for the rest of the process.
func Disable() { disabled.Store(true) }

const (
	sampleRate = 44100

	// Start beep: high pitch, short
	startFreq   = 1200
	startVolume = 0.5
	startDecay  = 60

	// Stop beep: medium pitch, slightly longer
	stopFreq   = 900
	stopVolume = 0.5
	stopDecay  = 40

	// Clipboard: two quick rising ticks
	clipLowFreq  = 1000
	clipHighFreq = 1500
	clipVolume   = 0.4
	clipDecay    = 80

	// Error beep: low pitch double-beep
	errorFreq   = 350
	errorVolume = 0.6
	errorDecay  = 30
)

var (
	cueSamples [Error + 1][]int16
	soundOnce  sync.Once
)

func generateSamples() {
	cueSamples[Start] = generateTick(sampleRate, startFreq, 0.05, startVolume, startDecay)
	cueSamples[Stop] = generateTick(sampleRate, stopFreq, 0.08, stopVolume, stopDecay)
	cueSamples[Clipboard] = concat(
		generateTick(sampleRate, clipLowFreq, 0.04, clipVolume, clipDecay),
		silence(sampleRate, 0.03),
		generateTick(sampleRate, clipHighFreq, 0.04, clipVolume, clipDecay),
	)
	cueSamples[Error] = generateDoubleBeep(sampleRate, errorFreq, 0.08, 0.05, errorVolume, errorDecay)
}

func generateTick(sampleRate int, freq float64, duration float64, volume float64, decay float64) []int16 {
	n := int(float64(sampleRate) * duration)
	samples := make([]int16, n)
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		envelope := math.Exp(-t * decay)
		samples[i] = int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
	}
	return samples
}

func silence(sampleRate int, duration float64) []int16 {
	return make([]int16, int(float64(sampleRate)*duration))
}

func generateDoubleBeep(sampleRate int, freq float64, beepDur float64, gapDur float64, volume float64, decay float64) []int16 {
	beep := generateTick(sampleRate, freq, beepDur, volume, decay)
	return concat(beep, silence(sampleRate, gapDur), beep)
}

func concat(parts ...[]int16) []int16 {
	var n int
	for _, p := range parts {
		n += len(p)
	}
	out := make([]int16, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Init generates the tones and opens the output device ahead of first use.
func Init() {
	soundOnce.Do(initSound)
}

// Play starts cue c without waiting for it to finish.
func Play(c Cue) {
	if disabled.Load() || c < Start || c > Error {
		return
	}
	soundOnce.Do(initSound)
	playCue(c)
}

// Player adapts the package-level cues to an injectable value.
type Player struct{}

func (Player) Play(c Cue) { Play(c) }
