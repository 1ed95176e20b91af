package audio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrDevice matches every DeviceError via errors.Is.
var ErrDevice = errors.New("audio device unavailable")

var (
	errNoDevice = errors.New("no capture device bound")
	errBusy     = errors.New("capture already running")
)

// DeviceError reports a capture device that could not be started.
type DeviceError struct {
	Device string
	Err    error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("audio device %s: %v", e.Device, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

func (e *DeviceError) Is(target error) bool { return target == ErrDevice }

// Recorder turns a continuous capture stream into discrete Recordings.
// Frames delivered by the device are queued until Stop drains them.
type Recorder struct {
	capture CaptureDevice

	mu      sync.Mutex
	active  bool
	slot    int
	started time.Time
	frames  [][]int16
	total   int
	onLevel func(level float64)
}

func NewRecorder(capture CaptureDevice) *Recorder {
	return &Recorder{capture: capture}
}

// OnLevel registers a callback receiving the RMS level of each captured frame.
func (r *Recorder) OnLevel(fn func(level float64)) {
	r.mu.Lock()
	r.onLevel = fn
	r.mu.Unlock()
}

func (r *Recorder) DeviceName() string {
	if r.capture == nil {
		return "none"
	}
	return r.capture.DeviceName()
}

// Active reports whether a capture is in progress.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Start begins capturing on behalf of slot.
func (r *Recorder) Start(slot int) error {
	if r.capture == nil {
		return &DeviceError{Device: "none", Err: errNoDevice}
	}

	r.mu.Lock()
	if r.active {
		r.mu.Unlock()
		return &DeviceError{Device: r.capture.DeviceName(), Err: errBusy}
	}
	r.active = true
	r.slot = slot
	r.started = time.Now()
	r.frames = nil
	r.total = 0
	r.mu.Unlock()

	r.capture.SetCallback(r.push)
	if err := r.capture.Start(); err != nil {
		r.capture.ClearCallback()
		r.mu.Lock()
		r.active = false
		r.mu.Unlock()
		return &DeviceError{Device: r.capture.DeviceName(), Err: err}
	}
	return nil
}

func (r *Recorder) push(samples []int16) {
	if len(samples) == 0 {
		return
	}
	frame := make([]int16, len(samples))
	copy(frame, samples)

	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return
	}
	r.frames = append(r.frames, frame)
	r.total += len(frame)
	onLevel := r.onLevel
	r.mu.Unlock()

	if onLevel != nil {
		onLevel(RMS(frame))
	}
}

// Stop ends the capture and returns the finalized Recording, or nil when no
// frames were captured.
func (r *Recorder) Stop() *Recording {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	r.capture.Stop()
	r.capture.ClearCallback()
	stopped := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = false
	frames, total := r.frames, r.total
	r.frames = nil
	r.total = 0
	if total == 0 {
		return nil
	}

	samples := make([]int16, 0, total)
	for _, f := range frames {
		samples = append(samples, f...)
	}
	return newRecording(uuid.NewString(), r.slot, samples, r.started, stopped)
}
