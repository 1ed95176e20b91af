package transcriber

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hark/audio"
	"hark/encoder"
	"hark/log"
)

// Batch encodes a finished recording and uploads it in one request.
type Batch struct {
	T      Transcriber
	Format string
}

func NewBatch(t Transcriber, format string) *Batch {
	if format == "" {
		format = "wav"
	}
	return &Batch{T: t, Format: format}
}

// Transcribe returns the trimmed transcript of rec. An empty transcript is
// reported as ErrNoSpeech.
func (b *Batch) Transcribe(ctx context.Context, rec *audio.Recording) (string, error) {
	samples := rec.Samples()
	if len(samples) == 0 {
		return "", errors.New("recording has no audio")
	}

	enc, err := encoder.Encode(b.Format, samples)
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", b.Format, err)
	}

	res, err := b.T.Transcribe(ctx, enc.Data, enc.Format)
	if err != nil {
		return "", err
	}

	if m := res.Metrics; m != nil {
		log.TranscriptionMetrics(b.T.Name(), enc.Format, m.ConnReused, m.TLSProtocol,
			float64(len(enc.Data))/1024,
			float64(m.TTFB.Microseconds())/1000,
			float64(m.Total.Microseconds())/1000)
	}

	text := strings.TrimSpace(res.Text)
	if text == "" {
		return "", ErrNoSpeech
	}
	log.TranscriptionText(rec.Slot, text)
	return text, nil
}
