//go:build !linux

package playback

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gen2brain/malgo"
)

type malgoBackend struct {
	ctx      *malgo.AllocatedContext
	deviceID *malgo.DeviceID
}

// NewBackend opens a malgo context. A non-empty name selects the first
// playback device whose name contains it.
func NewBackend(name string) (Backend, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("malgo context: %w", err)
	}
	b := &malgoBackend{ctx: ctx}
	if name != "" {
		devices, err := ctx.Devices(malgo.Playback)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("malgo devices: %w", err)
		}
		for _, d := range devices {
			if strings.Contains(strings.ToLower(d.Name()), strings.ToLower(name)) {
				id := d.ID
				b.deviceID = &id
				break
			}
		}
		if b.deviceID == nil {
			b.Close()
			return nil, fmt.Errorf("output device %q not found", name)
		}
	}
	return b, nil
}

func (b *malgoBackend) Play(rate, channels int, next func([]int16) int) error {
	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatS16
	cfg.Playback.Channels = uint32(channels)
	cfg.SampleRate = uint32(rate)
	if b.deviceID != nil {
		cfg.Playback.DeviceID = b.deviceID.Pointer()
	}

	done := make(chan struct{})
	var once sync.Once
	var scratch []int16

	onData := func(out, _ []byte, frameCount uint32) {
		need := int(frameCount) * channels
		if cap(scratch) < need {
			scratch = make([]int16, need)
		}
		buf := scratch[:need]
		filled := 0
		for filled < need {
			n := next(buf[filled:])
			if n == 0 {
				break
			}
			filled += n
		}
		for i, s := range buf[:filled] {
			out[i*2] = byte(s)
			out[i*2+1] = byte(s >> 8)
		}
		clear(out[filled*2:])
		if filled < need {
			once.Do(func() { close(done) })
		}
	}

	dev, err := malgo.InitDevice(b.ctx.Context, cfg, malgo.DeviceCallbacks{Data: onData})
	if err != nil {
		return fmt.Errorf("malgo playback: %w", err)
	}
	defer dev.Uninit()
	if err := dev.Start(); err != nil {
		return fmt.Errorf("malgo start: %w", err)
	}
	<-done
	return nil
}

func (b *malgoBackend) Close() {
	b.ctx.Uninit()
	b.ctx.Free()
}
