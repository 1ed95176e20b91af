package beep

import "testing"

func TestGenerateTick(t *testing.T) {
	s := generateTick(sampleRate, 1000, 0.1, 0.5, 40)
	if len(s) != 4410 {
		t.Fatalf("len = %d, want 4410", len(s))
	}
	var peakHead, peakTail int16
	for _, v := range s[:441] {
		peakHead = max(peakHead, v)
	}
	for _, v := range s[len(s)-441:] {
		peakTail = max(peakTail, v)
	}
	if peakTail >= peakHead {
		t.Errorf("tone does not decay: head %d tail %d", peakHead, peakTail)
	}
}

func TestCueSamples(t *testing.T) {
	generateSamples()
	for c := Start; c <= Error; c++ {
		if len(cueSamples[c]) == 0 {
			t.Errorf("cue %s has no samples", c)
		}
	}
	beepLen := len(generateTick(sampleRate, errorFreq, 0.08, errorVolume, errorDecay))
	if got := len(cueSamples[Error]); got <= 2*beepLen {
		t.Errorf("error cue len %d, want two beeps plus a gap", got)
	}
}

func TestCueString(t *testing.T) {
	if Clipboard.String() != "clipboard" || Cue(42).String() != "unknown" {
		t.Error("unexpected cue names")
	}
}
