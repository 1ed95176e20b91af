package playback

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/faiface/beep/mp3"

	"hark/encoder"
)

// Decode accepts a RIFF/WAVE payload or an MP3 stream and returns 16-bit
// interleaved PCM.
func Decode(data []byte) (*encoder.Clip, error) {
	if len(data) < 4 {
		return nil, errors.New("audio payload too short")
	}
	if string(data[:4]) == "RIFF" {
		clip, err := encoder.DecodeWAV(data)
		if err != nil {
			return nil, fmt.Errorf("decoding wav: %w", err)
		}
		return clip, nil
	}
	return decodeMP3(data)
}

func decodeMP3(data []byte) (*encoder.Clip, error) {
	streamer, format, err := mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("decoding mp3: %w", err)
	}
	defer streamer.Close()

	channels := format.NumChannels
	if channels < 1 || channels > 2 {
		channels = 2
	}

	var samples []int16
	buf := make([][2]float64, 4096)
	for {
		n, ok := streamer.Stream(buf)
		for _, frame := range buf[:n] {
			samples = append(samples, toInt16(frame[0]))
			if channels == 2 {
				samples = append(samples, toInt16(frame[1]))
			}
		}
		if !ok {
			break
		}
	}
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("decoding mp3: %w", err)
	}

	return &encoder.Clip{
		Samples:    samples,
		SampleRate: int(format.SampleRate),
		Channels:   channels,
	}, nil
}

func toInt16(v float64) int16 {
	v = max(-1, min(1, v))
	return int16(v * 32767)
}
