//go:build linux

package playback

import (
	"fmt"

	"github.com/jfreymuth/pulse"
)

type pulseBackend struct {
	client *pulse.Client
	sink   *pulse.Sink
}

// NewBackend connects to PulseAudio. A non-empty sinkName selects that
// output; otherwise the server default is used.
func NewBackend(sinkName string) (Backend, error) {
	c, err := pulse.NewClient(pulse.ClientApplicationName("hark"))
	if err != nil {
		return nil, fmt.Errorf("pulse client: %w", err)
	}
	b := &pulseBackend{client: c}
	if sinkName != "" {
		s, err := c.SinkByID(sinkName)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("output device %q: %w", sinkName, err)
		}
		b.sink = s
	}
	return b, nil
}

func (b *pulseBackend) Play(rate, channels int, next func([]int16) int) error {
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		n := next(buf)
		if n == 0 {
			return 0, pulse.EndOfData
		}
		return n, nil
	})

	opts := []pulse.PlaybackOption{
		pulse.PlaybackSampleRate(rate),
		pulse.PlaybackLatency(0.05),
		pulse.PlaybackMediaName("response"),
	}
	if channels == 2 {
		opts = append(opts, pulse.PlaybackStereo)
	} else {
		opts = append(opts, pulse.PlaybackMono)
	}
	if b.sink != nil {
		opts = append(opts, pulse.PlaybackSink(b.sink))
	}

	stream, err := b.client.NewPlayback(reader, opts...)
	if err != nil {
		return fmt.Errorf("pulse playback: %w", err)
	}
	defer stream.Close()
	stream.Start()
	stream.Drain()
	return stream.Error()
}

func (b *pulseBackend) Close() {
	b.client.Close()
}
