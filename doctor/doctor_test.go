package doctor

import (
	"testing"

	"hark/config"
)

func TestCheckProviders(t *testing.T) {
	cfg := config.Default()
	cfg.Transcription.APIKey = "sk-test"
	cfg.Completion.APIKey = "sk-test"
	if !checkProviders(cfg) {
		t.Error("expected pass with keys set")
	}

	cfg.Completion.APIKey = ""
	if checkProviders(cfg) {
		t.Error("expected failure without a completion key")
	}
}

func TestCheckProvidersClipboardOnly(t *testing.T) {
	cfg := config.Default()
	for i := range cfg.Slots {
		cfg.Slots[i].Sink = config.SinkClipboard
	}
	cfg.Transcription.APIKey = "sk-test"
	cfg.Completion.APIKey = ""
	if !checkProviders(cfg) {
		t.Error("completion key should not be required without llm slots")
	}
}

func TestCheckConfig(t *testing.T) {
	cfg := config.Default()
	if !checkConfig(cfg) {
		t.Error("default config should validate")
	}
	cfg.Slots[1].Key = cfg.Slots[0].Key
	if checkConfig(cfg) {
		t.Error("duplicate keys should fail")
	}
}
