package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"hark/config"
	"hark/netx"
)

func TestPostprocess(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Hello! The time is 3pm. Have a great day!", "The time is 3pm."},
		{"Hi, it is raining in Paris.", "it is raining in Paris."},
		{"The capital is Tokyo.", "The capital is Tokyo."},
		{"This is a high hill.", "This is a high hill."},
		{"Thank you. Goodbye.", ""},
		{"  plain  ", "plain"},
	}
	for _, tt := range tests {
		if got := Postprocess(tt.in); got != tt.want {
			t.Errorf("Postprocess(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewSelectsProvider(t *testing.T) {
	c, err := New(config.CompletionConfig{Provider: "anthropic", APIKey: "k"}, nil)
	if err != nil || c.Name() != "anthropic" {
		t.Fatalf("anthropic: %v %v", c, err)
	}
	c, err = New(config.CompletionConfig{Provider: "openai", APIKey: "k"}, nil)
	if err != nil || c.Name() != "openai" {
		t.Fatalf("openai: %v %v", c, err)
	}
	if _, err := New(config.CompletionConfig{Provider: "openai"}, nil); err == nil {
		t.Error("expected missing key error")
	}
	if _, err := New(config.CompletionConfig{Provider: "llama", APIKey: "k"}, nil); err == nil {
		t.Error("expected unknown provider error")
	}
}

func TestOpenAIComplete(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		MaxTokens   int     `json:"max_tokens"`
		Temperature float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"  It is sunny.  "}}]}`))
	}))
	defer srv.Close()

	o := NewOpenAI(config.CompletionConfig{APIKey: "sk", BaseURL: srv.URL, MaxTokens: 150, Temperature: 0.7}, srv.Client())
	text, err := o.Complete(context.Background(), Request{Model: "gpt-4o", Precontext: "Be brief.", Prompt: "weather?"})
	if err != nil {
		t.Fatal(err)
	}
	if text != "It is sunny." {
		t.Errorf("text = %q", text)
	}
	if got.Model != "gpt-4o" || got.MaxTokens != 150 || got.Temperature != 0.7 {
		t.Errorf("request = %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[0].Content != "Be brief." {
		t.Errorf("messages = %+v", got.Messages)
	}
	if got.Messages[1].Role != "user" || got.Messages[1].Content != "weather?" {
		t.Errorf("user message = %+v", got.Messages[1])
	}
}

func TestOpenAIStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	o := NewOpenAI(config.CompletionConfig{APIKey: "sk", BaseURL: srv.URL}, srv.Client())
	_, err := o.Complete(context.Background(), Request{Model: "gpt-4o", Prompt: "x"})
	var se *netx.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusUnauthorized {
		t.Fatalf("err = %v", err)
	}
}

func TestAnthropicComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "ak" || r.Header.Get("anthropic-version") != "2023-06-01" {
			t.Errorf("headers = %v", r.Header)
		}
		var req anthropicRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.System != "Be brief." || req.MaxTokens != 150 || req.Messages[0].Content != "why?" {
			t.Errorf("request = %+v", req)
		}
		w.Write([]byte(`{"content":[{"type":"text","text":"Because."}]}`))
	}))
	defer srv.Close()

	a := NewAnthropic(config.CompletionConfig{APIKey: "ak", BaseURL: srv.URL}, srv.Client())
	text, err := a.Complete(context.Background(), Request{Model: "claude", Precontext: "Be brief.", Prompt: "why?"})
	if err != nil {
		t.Fatal(err)
	}
	if text != "Because." {
		t.Errorf("text = %q", text)
	}
}

func TestAnthropicEmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[]}`))
	}))
	defer srv.Close()

	a := NewAnthropic(config.CompletionConfig{APIKey: "ak", BaseURL: srv.URL}, srv.Client())
	if _, err := a.Complete(context.Background(), Request{Prompt: "x"}); err == nil {
		t.Error("expected error for empty content")
	}
}
