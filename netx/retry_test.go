package netx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

var fast = RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}

func TestWithRetryRecovers(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fast, func() error {
		calls++
		if calls < 3 {
			return &StatusError{Provider: "test", Code: http.StatusServiceUnavailable}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithRetryStopsOnClientError(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fast, func() error {
		calls++
		return &StatusError{Provider: "test", Code: http.StatusUnauthorized, Body: "bad key"}
	})
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusUnauthorized {
		t.Fatalf("err = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWithRetryGivesUp(t *testing.T) {
	calls := 0
	boom := errors.New("connection reset")
	err := WithRetry(context.Background(), fast, func() error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) || calls != 3 {
		t.Errorf("err = %v after %d calls", err, calls)
	}
}

func TestWithRetryHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	slow := RetryConfig{MaxAttempts: 5, InitialDelay: time.Hour, Multiplier: 1}
	err := WithRetry(ctx, slow, func() error { return errors.New("flaky") })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestIsRetryableHTTPStatus(t *testing.T) {
	for code, want := range map[int]bool{
		200: false, 400: false, 401: false, 404: false,
		408: true, 429: true, 500: true, 502: true, 503: true,
	} {
		if got := IsRetryableHTTPStatus(code); got != want {
			t.Errorf("IsRetryableHTTPStatus(%d) = %v", code, got)
		}
	}
}

func TestStatusErrorTruncatesBody(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	e := &StatusError{Provider: "openai", Code: 500, Body: string(long)}
	if n := len(e.Error()); n > 260 {
		t.Errorf("error message is %d bytes", n)
	}
}

func TestNewClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c, err := NewClient("", 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if c.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v", c.Timeout)
	}
	resp, err := c.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if _, err := NewClient("127.0.0.1:1080", time.Second); err != nil {
		t.Errorf("socks client: %v", err)
	}
}
