package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Slots) != 3 {
		t.Fatalf("got %d slots, want 3", len(cfg.Slots))
	}
	first := cfg.Slots[0]
	if first.ID != 1 || first.Key != "F9" || first.Mode != ModeHold || first.Sink != SinkLLM {
		t.Errorf("slot 1 = %+v", first)
	}
	if first.Model != DefaultModel || first.Precontext != DefaultPrecontext {
		t.Errorf("slot 1 model/precontext = %q/%q", first.Model, first.Precontext)
	}
	if cfg.Slots[2].ID != 3 || cfg.Slots[2].Sink != SinkClipboard {
		t.Errorf("slot 3 = %+v", cfg.Slots[2])
	}
	if cfg.Timeout != 60*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("HARK_TEST_KEY", "sk-from-env")
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
slots:
  - key: F5
    mode: Hold
    sink: llm
    model: gpt-4o-mini
completion:
  provider: openai
  api_key: ${HARK_TEST_KEY}
timeout: 15s
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Completion.APIKey != "sk-from-env" {
		t.Errorf("APIKey = %q", cfg.Completion.APIKey)
	}
	s := cfg.Slots[0]
	if s.Mode != ModeHold {
		t.Errorf("mode not normalized: %q", s.Mode)
	}
	if s.Precontext != DefaultPrecontext {
		t.Errorf("precontext default not applied: %q", s.Precontext)
	}
	if cfg.Completion.MaxTokens != 150 || cfg.Completion.Temperature != 0.7 {
		t.Errorf("completion defaults = %d/%v", cfg.Completion.MaxTokens, cfg.Completion.Temperature)
	}
	if cfg.Timeout != 15*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
}

func TestProviderKeyFromEnvironment(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk-test")
	cfg, err := Parse([]byte("slots: [{key: F1}]\ntranscription: {provider: groq}\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Transcription.APIKey != "gsk-test" {
		t.Errorf("APIKey = %q", cfg.Transcription.APIKey)
	}
}

func TestValidateErrors(t *testing.T) {
	for _, tt := range []struct {
		name, yaml, want string
	}{
		{"duplicate key", "slots: [{key: F9}, {key: f9}]", "bound to slots 1 and 2"},
		{"bad mode", "slots: [{key: F9, mode: press}]", "unknown mode"},
		{"bad sink", "slots: [{key: F9, sink: email}]", "unknown sink"},
		{"bad key", "slots: [{key: hyper}]", "unsupported key"},
		{"no keys", "slots: [{key: ''}]", "no slot has a key"},
		{"too many", "slots: [{key: F1}, {key: F2}, {key: F3}, {key: F4}]", "at most 3"},
		{"bad format", "slots: [{key: F1}]\ntranscription: {format: ogg}", "upload format"},
		{"bad synthesis", "slots: [{key: F1}]\nsynthesis: {provider: espeak}", "synthesis provider"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestDisabledSlotSkipped(t *testing.T) {
	cfg, err := Parse([]byte("slots: [{key: F9, sink: llm}, {key: ''}, {key: F11}]"))
	if err != nil {
		t.Fatal(err)
	}
	enabled := cfg.EnabledSlots()
	if len(enabled) != 2 {
		t.Fatalf("got %d enabled slots, want 2", len(enabled))
	}
	if enabled[1].ID != 3 {
		t.Errorf("third slot kept id %d, want 3", enabled[1].ID)
	}
	if !cfg.NeedsLLM() {
		t.Error("NeedsLLM should be true")
	}
}

func TestMarshalRedactsKeys(t *testing.T) {
	cfg := Default()
	cfg.Completion.APIKey = "sk-1234567890abcdef"
	out, err := cfg.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(out), "1234567890") {
		t.Errorf("api key leaked:\n%s", out)
	}
	if !strings.Contains(string(out), "sk-1****") {
		t.Errorf("redacted key missing:\n%s", out)
	}
	if cfg.Completion.APIKey != "sk-1234567890abcdef" {
		t.Error("Marshal mutated the config")
	}
}
