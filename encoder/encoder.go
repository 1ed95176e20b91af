// Package encoder turns captured PCM into upload formats and decodes WAV
// payloads for playback.
package encoder

import (
	"fmt"
	"time"
)

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

// Clip is decoded interleaved PCM.
type Clip struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

// Frames returns the number of sample frames (samples per channel).
func (c *Clip) Frames() int {
	if c.Channels <= 0 {
		return len(c.Samples)
	}
	return len(c.Samples) / c.Channels
}

func (c *Clip) Duration() time.Duration {
	if c.SampleRate == 0 {
		return 0
	}
	return time.Duration(c.Frames()) * time.Second / time.Duration(c.SampleRate)
}

// Encoded is an upload-ready audio payload.
type Encoded struct {
	Data       []byte
	Format     string // file extension understood by the provider
	EncodeTime time.Duration
}

// Encode renders 16 kHz mono samples in the requested format ("wav" or "flac").
func Encode(format string, samples []int16) (*Encoded, error) {
	start := time.Now()
	var (
		data []byte
		err  error
	)
	switch format {
	case "wav":
		data, err = EncodeWAV(samples, SampleRate, Channels)
	case "flac":
		data, err = encodeFlac(samples)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return nil, err
	}
	return &Encoded{Data: data, Format: format, EncodeTime: time.Since(start)}, nil
}

func encodeFlac(samples []int16) ([]byte, error) {
	enc, err := NewFlac()
	if err != nil {
		return nil, err
	}
	for i := 0; i < len(samples); i += BlockSize {
		end := min(i+BlockSize, len(samples))
		if err := enc.EncodeBlock(samples[i:end]); err != nil {
			return nil, err
		}
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return enc.Bytes(), nil
}
