package transcriber

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"hark/audio"
	"hark/config"
	"hark/netx"
)

func TestNetworkMetricsSum(t *testing.T) {
	m := &NetworkMetrics{
		ConnWait:   10 * time.Millisecond,
		DNS:        20 * time.Millisecond,
		TCP:        30 * time.Millisecond,
		TLS:        40 * time.Millisecond,
		ReqHeaders: 5 * time.Millisecond,
		ReqBody:    15 * time.Millisecond,
		TTFB:       50 * time.Millisecond,
		Download:   25 * time.Millisecond,
	}
	got := m.Sum()
	want := 195 * time.Millisecond
	if got != want {
		t.Errorf("Sum() = %v, want %v", got, want)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	h := http.Header{}
	h.Set("X-Rate-Limit", "100")

	if got := firstNonEmpty(h, "X-Missing", "X-Rate-Limit"); got != "100" {
		t.Errorf("got %q, want %q", got, "100")
	}
	if got := firstNonEmpty(h, "X-A", "X-B"); got != "?" {
		t.Errorf("got %q, want %q", got, "?")
	}
}

func TestNewSelectsProvider(t *testing.T) {
	for _, tt := range []struct{ provider, want string }{
		{"openai", "openai"},
		{"groq", "groq"},
	} {
		tr, err := New(config.TranscriptionConfig{Provider: tt.provider, APIKey: "k"}, nil)
		if err != nil {
			t.Fatalf("New(%s): %v", tt.provider, err)
		}
		if tr.Name() != tt.want {
			t.Errorf("Name = %q, want %q", tr.Name(), tt.want)
		}
	}
	if _, err := New(config.TranscriptionConfig{Provider: "openai"}, nil); err == nil {
		t.Error("expected error without API key")
	}
	if _, err := New(config.TranscriptionConfig{Provider: "deepgram", APIKey: "k"}, nil); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestOpenAIUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model = %q", got)
		}
		if got := r.FormValue("language"); got != "en" {
			t.Errorf("language = %q", got)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("file: %v", err)
		}
		data, _ := io.ReadAll(f)
		if hdr.Filename != "audio.wav" || string(data) != "RIFFdata" {
			t.Errorf("file = %s %q", hdr.Filename, data)
		}
		w.Header().Set("x-ratelimit-remaining-requests", "99")
		w.Header().Set("x-ratelimit-limit-requests", "100")
		w.Write([]byte(`{"text":"turn on the lights"}`))
	}))
	defer srv.Close()

	o := NewOpenAI(config.TranscriptionConfig{APIKey: "sk-test", Language: "en", BaseURL: srv.URL + "/v1"}, NewTracedClient(srv.Client()))
	res, err := o.Transcribe(context.Background(), []byte("RIFFdata"), "wav")
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "turn on the lights" {
		t.Errorf("Text = %q", res.Text)
	}
	if res.RateLimit != "99/100" {
		t.Errorf("RateLimit = %q", res.RateLimit)
	}
	if res.Metrics == nil || res.Metrics.Total <= 0 {
		t.Error("missing metrics")
	}
}

func TestGroqRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		r.ParseMultipartForm(1 << 20)
		if got := r.FormValue("response_format"); got != "verbose_json" {
			t.Errorf("response_format = %q", got)
		}
		w.Write([]byte(`{"text":"hi","duration":1.5,"segments":[{"no_speech_prob":0.1},{"no_speech_prob":0.4}]}`))
	}))
	defer srv.Close()

	g := NewGroq(config.TranscriptionConfig{APIKey: "gsk", BaseURL: srv.URL}, NewTracedClient(srv.Client()))
	res, err := g.Transcribe(context.Background(), []byte("x"), "flac")
	if err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 2 {
		t.Errorf("hits = %d, want 2", hits.Load())
	}
	if res.NoSpeechProb != 0.4 || res.Duration != 1.5 {
		t.Errorf("result = %+v", res)
	}
}

func TestUploadDoesNotRetryAuthErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, `{"error":"invalid key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	o := NewOpenAI(config.TranscriptionConfig{APIKey: "bad", BaseURL: srv.URL}, NewTracedClient(srv.Client()))
	_, err := o.Transcribe(context.Background(), []byte("x"), "wav")
	var se *netx.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusUnauthorized {
		t.Fatalf("err = %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("hits = %d, want 1", hits.Load())
	}
}

func TestBatchTranscribe(t *testing.T) {
	fake := NewFake("  what time is it  ", nil)
	b := NewBatch(fake, "flac")
	rec := audio.NewRecording("r1", 2, make([]int16, 1600))

	text, err := b.Transcribe(context.Background(), rec)
	if err != nil {
		t.Fatal(err)
	}
	if text != "what time is it" {
		t.Errorf("text = %q", text)
	}
	if got := fake.Formats(); len(got) != 1 || got[0] != "flac" {
		t.Errorf("formats = %v", got)
	}
}

func TestBatchNoSpeech(t *testing.T) {
	b := NewBatch(NewFake("   ", nil), "")
	_, err := b.Transcribe(context.Background(), audio.NewRecording("r", 1, make([]int16, 100)))
	if !errors.Is(err, ErrNoSpeech) {
		t.Errorf("err = %v, want ErrNoSpeech", err)
	}
}

func TestBatchProviderError(t *testing.T) {
	boom := errors.New("boom")
	b := NewBatch(NewFake("", boom), "wav")
	_, err := b.Transcribe(context.Background(), audio.NewRecording("r", 1, make([]int16, 100)))
	if !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
	if !strings.Contains(err.Error(), "fake transcriber") {
		t.Errorf("err = %v", err)
	}
}

func TestBatchEmptyRecording(t *testing.T) {
	b := NewBatch(NewFake("x", nil), "wav")
	rec := audio.NewRecording("r", 1, make([]int16, 10))
	rec.Discard()
	if _, err := b.Transcribe(context.Background(), rec); err == nil {
		t.Error("expected error for discarded recording")
	}
}
