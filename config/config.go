// Package config loads the per-session slot and provider configuration.
//
// A Config is an immutable snapshot: it is read once at startup and handed to
// the engine, the pipeline and the providers. Nothing writes it back.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"hark/hotkey"
)

// MaxSlots is the number of hotkey slots a session can bind.
const MaxSlots = 3

type Mode string

const (
	ModeHold   Mode = "hold"
	ModeToggle Mode = "toggle"
)

type Sink string

const (
	SinkClipboard Sink = "clipboard"
	SinkLLM       Sink = "llm"
)

const (
	DefaultModel      = "gpt-4o"
	DefaultPrecontext = "Provide a concise and helpful response."
)

// Slot is one hotkey binding. ID is assigned from the slot's position (1-based).
type Slot struct {
	ID         int    `yaml:"-"`
	Key        string `yaml:"key"`
	Mode       Mode   `yaml:"mode"`
	Sink       Sink   `yaml:"sink"`
	Model      string `yaml:"model,omitempty"`
	Precontext string `yaml:"precontext,omitempty"`
}

// Enabled reports whether the slot has a key bound.
func (s Slot) Enabled() bool { return s.Key != "" }

func (s Slot) String() string {
	return fmt.Sprintf("slot %d [%s %s -> %s]", s.ID, s.Key, s.Mode, s.Sink)
}

type TranscriptionConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model,omitempty"`
	Language string `yaml:"language,omitempty"`
	Format   string `yaml:"format"`
	APIKey   string `yaml:"api_key,omitempty"`
	BaseURL  string `yaml:"base_url,omitempty"`
}

type CompletionConfig struct {
	Provider    string  `yaml:"provider"`
	APIKey      string  `yaml:"api_key,omitempty"`
	BaseURL     string  `yaml:"base_url,omitempty"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

type SynthesisConfig struct {
	Provider        string `yaml:"provider"`
	Language        string `yaml:"language"`
	Voice           string `yaml:"voice,omitempty"`
	CredentialsFile string `yaml:"credentials_file,omitempty"`
	APIKey          string `yaml:"api_key,omitempty"`
	BaseURL         string `yaml:"base_url,omitempty"`
}

type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

type Config struct {
	Slots         []Slot              `yaml:"slots"`
	InputDevice   string              `yaml:"input_device,omitempty"`
	OutputDevice  string              `yaml:"output_device,omitempty"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Completion    CompletionConfig    `yaml:"completion"`
	Synthesis     SynthesisConfig     `yaml:"synthesis"`
	AutoPaste     bool                `yaml:"auto_paste"`
	Mute          bool                `yaml:"mute"`
	History       HistoryConfig       `yaml:"history"`
	Proxy         string              `yaml:"proxy,omitempty"`
	Timeout       time.Duration       `yaml:"timeout"`
}

// Default returns the configuration used when no file exists: F9 asks the
// language model and speaks the answer, F10 and F11 dictate to the clipboard.
func Default() *Config {
	c := &Config{
		Slots: []Slot{
			{Key: "F9", Mode: ModeHold, Sink: SinkLLM, Model: DefaultModel, Precontext: DefaultPrecontext},
			{Key: "F10", Mode: ModeToggle, Sink: SinkClipboard},
			{Key: "F11", Mode: ModeToggle, Sink: SinkClipboard},
		},
	}
	c.setDefaults()
	return c
}

// DefaultPath returns the OS-specific config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "hark", "config.yaml"), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, "hark", "config.yaml"), nil
	}
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	return filepath.Join(xdgConfig, "hark", "config.yaml"), nil
}

// Load reads path, expands ${VAR} references from the environment, applies
// defaults and validates the result. A missing file yields Default().
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config data.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Slots == nil {
		cfg.Slots = Default().Slots
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	for i := range c.Slots {
		s := &c.Slots[i]
		s.ID = i + 1
		if k := strings.TrimSpace(s.Key); k != "" {
			s.Key = hotkey.Normalize(k)
		} else {
			s.Key = ""
		}
		s.Mode = Mode(strings.ToLower(string(s.Mode)))
		s.Sink = Sink(strings.ToLower(string(s.Sink)))
		if s.Mode == "" {
			s.Mode = ModeToggle
		}
		if s.Sink == "" {
			s.Sink = SinkClipboard
		}
		if s.Sink == SinkLLM {
			if s.Model == "" {
				s.Model = DefaultModel
			}
			if s.Precontext == "" {
				s.Precontext = DefaultPrecontext
			}
		}
	}

	if c.Transcription.Provider == "" {
		c.Transcription.Provider = "openai"
	}
	if c.Transcription.Format == "" {
		c.Transcription.Format = "wav"
	}
	if c.Transcription.APIKey == "" {
		c.Transcription.APIKey = providerKey(c.Transcription.Provider)
	}

	if c.Completion.Provider == "" {
		c.Completion.Provider = "openai"
	}
	if c.Completion.MaxTokens == 0 {
		c.Completion.MaxTokens = 150
	}
	if c.Completion.Temperature == 0 {
		c.Completion.Temperature = 0.7
	}
	if c.Completion.APIKey == "" {
		c.Completion.APIKey = providerKey(c.Completion.Provider)
	}

	if c.Synthesis.Provider == "" {
		c.Synthesis.Provider = "google"
	}
	if c.Synthesis.Language == "" {
		c.Synthesis.Language = "en-US"
	}
	if c.Synthesis.CredentialsFile == "" && c.Synthesis.Provider == "google" {
		c.Synthesis.CredentialsFile = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	if c.Synthesis.APIKey == "" && c.Synthesis.Provider != "google" {
		c.Synthesis.APIKey = providerKey(c.Synthesis.Provider)
	}

	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
}

func providerKey(provider string) string {
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "groq":
		return os.Getenv("GROQ_API_KEY")
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	}
	return ""
}

// Validate checks slot bindings and provider selections.
func (c *Config) Validate() error {
	if len(c.Slots) > MaxSlots {
		return fmt.Errorf("config: %d slots configured, at most %d allowed", len(c.Slots), MaxSlots)
	}

	seen := make(map[string]int)
	enabled := 0
	for _, s := range c.Slots {
		if !s.Enabled() {
			continue
		}
		enabled++
		if !hotkey.Valid(s.Key) {
			return fmt.Errorf("config: slot %d: unsupported key %q", s.ID, s.Key)
		}
		key := s.Key
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("config: key %s bound to slots %d and %d", s.Key, prev, s.ID)
		}
		seen[key] = s.ID

		switch s.Mode {
		case ModeHold, ModeToggle:
		default:
			return fmt.Errorf("config: slot %d: unknown mode %q (use hold or toggle)", s.ID, s.Mode)
		}
		switch s.Sink {
		case SinkClipboard, SinkLLM:
		default:
			return fmt.Errorf("config: slot %d: unknown sink %q (use clipboard or llm)", s.ID, s.Sink)
		}
	}
	if enabled == 0 {
		return errors.New("config: no slot has a key bound")
	}

	switch c.Transcription.Provider {
	case "openai", "groq":
	default:
		return fmt.Errorf("config: unknown transcription provider %q", c.Transcription.Provider)
	}
	switch c.Transcription.Format {
	case "wav", "flac":
	default:
		return fmt.Errorf("config: unknown upload format %q (use wav or flac)", c.Transcription.Format)
	}
	switch c.Completion.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("config: unknown completion provider %q", c.Completion.Provider)
	}
	switch c.Synthesis.Provider {
	case "google", "openai":
	default:
		return fmt.Errorf("config: unknown synthesis provider %q", c.Synthesis.Provider)
	}
	return nil
}

// EnabledSlots returns the slots with a bound key, in slot order.
func (c *Config) EnabledSlots() []Slot {
	var out []Slot
	for _, s := range c.Slots {
		if s.Enabled() {
			out = append(out, s)
		}
	}
	return out
}

// NeedsLLM reports whether any enabled slot routes to the language model.
func (c *Config) NeedsLLM() bool {
	for _, s := range c.EnabledSlots() {
		if s.Sink == SinkLLM {
			return true
		}
	}
	return false
}

// Marshal renders the config as YAML, with API keys redacted.
func (c *Config) Marshal() ([]byte, error) {
	redacted := *c
	redacted.Slots = append([]Slot(nil), c.Slots...)
	redacted.Transcription.APIKey = redact(c.Transcription.APIKey)
	redacted.Completion.APIKey = redact(c.Completion.APIKey)
	redacted.Synthesis.APIKey = redact(c.Synthesis.APIKey)
	return yaml.Marshal(&redacted)
}

func redact(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****"
}
