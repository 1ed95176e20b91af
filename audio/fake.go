package audio

import (
	"errors"
	"os"
	"sync"
	"time"

	"hark/encoder"
)

const fakeFrameSize = 1024

// FakeContext replays a fixed PCM buffer as if it came from a microphone.
type FakeContext struct {
	pcm      []int16
	realtime bool

	// Pad keeps delivering silence after the buffer is exhausted, like a live
	// microphone would.
	Pad bool
	// StartErr, when set, is returned by every capture's Start.
	StartErr error
}

// NewFakeContext loads a 16 kHz mono WAV file.
func NewFakeContext(wavPath string, realtime bool) (*FakeContext, error) {
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, err
	}
	clip, err := encoder.DecodeWAV(data)
	if err != nil {
		return nil, err
	}
	if clip.Channels != Channels || clip.SampleRate != SampleRate {
		return nil, errors.New("fake audio must be 16 kHz mono")
	}
	return &FakeContext{pcm: clip.Samples, realtime: realtime}, nil
}

// NewFakeContextFromSamples replays samples directly.
func NewFakeContextFromSamples(samples []int16, realtime bool) *FakeContext {
	return &FakeContext{pcm: samples, realtime: realtime}
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: "fake"}}, nil
}

func (f *FakeContext) Close() {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	return &FakeCapture{
		pcm:       f.pcm,
		realtime:  f.realtime,
		pad:       f.Pad,
		startErr:  f.StartErr,
		audioDone: make(chan struct{}),
	}, nil
}

type FakeCapture struct {
	pcm       []int16
	realtime  bool
	pad       bool
	startErr  error
	audioDone chan struct{}

	mu       sync.Mutex
	cb       DataCallback
	starts   int
	stopCh   chan struct{}
	feedDone chan struct{}
}

// AudioDone is closed once the whole buffer has been delivered.
func (f *FakeCapture) AudioDone() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.audioDone
}

// Starts counts successful Start calls.
func (f *FakeCapture) Starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) DeviceName() string { return "fake" }

func (f *FakeCapture) callback() DataCallback {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb
}

func (f *FakeCapture) feedChunk(cb DataCallback, pos int) int {
	end := min(pos+fakeFrameSize, len(f.pcm))
	cb(f.pcm[pos:end])
	return end
}

func (f *FakeCapture) Start() error {
	if f.startErr != nil {
		return f.startErr
	}

	f.mu.Lock()
	f.starts++
	f.stopCh = make(chan struct{})
	f.feedDone = make(chan struct{})
	audioDone := f.audioDone
	stopCh, feedDone := f.stopCh, f.feedDone
	f.mu.Unlock()

	silence := make([]int16, fakeFrameSize)

	if !f.realtime {
		if cb := f.callback(); cb != nil {
			for pos := 0; pos < len(f.pcm); {
				pos = f.feedChunk(cb, pos)
			}
		}
		close(audioDone)

		go func() {
			defer close(feedDone)
			if !f.pad {
				<-stopCh
				return
			}
			for {
				select {
				case <-stopCh:
					return
				case <-time.After(time.Millisecond):
				}
				if cb := f.callback(); cb != nil {
					cb(silence)
				}
			}
		}()
		return nil
	}

	interval := time.Duration(fakeFrameSize) * time.Second / SampleRate
	go func() {
		defer close(feedDone)
		pos := 0
		finished := false
		for {
			select {
			case <-stopCh:
				return
			default:
			}

			cb := f.callback()
			switch {
			case cb == nil:
			case pos < len(f.pcm):
				pos = f.feedChunk(cb, pos)
			default:
				if !finished {
					finished = true
					close(audioDone)
				}
				if f.pad {
					cb(silence)
				}
			}

			select {
			case <-stopCh:
				return
			case <-time.After(interval):
			}
		}
	}()
	return nil
}

func (f *FakeCapture) Stop() {
	f.mu.Lock()
	stopCh, feedDone := f.stopCh, f.feedDone
	f.mu.Unlock()
	if stopCh == nil {
		return
	}
	select {
	case <-stopCh:
	default:
		close(stopCh)
	}
	<-feedDone

	f.mu.Lock()
	select {
	case <-f.audioDone:
		f.audioDone = make(chan struct{}) // reset for replay
	default:
	}
	f.mu.Unlock()
}

func (f *FakeCapture) Close() {}
