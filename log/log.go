package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog        zerolog.Logger
	diagFile       *os.File
	transcribeFile *os.File
	logMu          sync.Mutex
	logReady       bool
	pid            int
	dir            string
)

// RunMetrics describes one pipeline run.
type RunMetrics struct {
	Slot         int
	Sink         string
	AudioS       float64
	TranscribeMs float64
	CompleteMs   float64
	SynthesizeMs float64
	TotalMs      float64
	Fallback     bool
}

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		return absFromWD(flagPath)
	}

	// Priority 2: HARK_LOG_PATH environment variable
	if envPath := os.Getenv("HARK_LOG_PATH"); envPath != "" {
		return absFromWD(envPath)
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func absFromWD(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	transcribePath := filepath.Join(dir, "transcribe_log.txt")
	transcribeFile, err = os.OpenFile(transcribePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05.000",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if transcribeFile != nil {
		transcribeFile.Close()
		transcribeFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if logReady {
		diagLog.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

// SlotEvent records a state change or arbitration outcome for one slot.
func SlotEvent(slot int, event string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("slot", slot).
		Str("event", event).
		Msg("slot")
}

func RecordingDone(slot int, samples int, audioS float64) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("slot", slot).
		Int("samples", samples).
		Float64("audio_s", audioS).
		Msg("recording")
}

func PipelineMetrics(m RunMetrics) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("slot", m.Slot).
		Str("sink", m.Sink).
		Float64("audio_s", m.AudioS).
		Float64("transcribe_ms", m.TranscribeMs).
		Float64("complete_ms", m.CompleteMs).
		Float64("synthesize_ms", m.SynthesizeMs).
		Float64("total_ms", m.TotalMs).
		Bool("fallback", m.Fallback).
		Msg("pipeline")
}

func TranscriptionMetrics(provider, format string, connReused bool, tlsProto string, uploadKB, ttfbMs, totalMs float64) {
	if !logReady {
		return
	}

	connStatus := "new"
	if connReused {
		connStatus = "reused"
	}

	ev := diagLog.Info().
		Str("provider", provider).
		Str("format", format).
		Str("conn", connStatus)
	if tlsProto != "" {
		ev = ev.Str("tls_proto", tlsProto)
	}
	ev.Float64("upload_kb", uploadKB).
		Float64("ttfb_ms", ttfbMs).
		Float64("total_ms", totalMs).
		Msg("transcription")
}

// TranscriptionText appends one line to transcribe_log.txt.
func TranscriptionText(slot int, text string) {
	if !logReady {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	if transcribeFile == nil {
		return
	}
	line := fmt.Sprintf("%s\t[%d]\tslot=%d\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, slot, text)
	transcribeFile.WriteString(line)
}

func SessionStart(slots int, transcription, completion, synthesis string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("slots", slots).
		Str("transcription", transcription).
		Str("completion", completion).
		Str("synthesis", synthesis).
		Msg("session_start")
}

func SessionEnd(runs int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("runs", runs).
		Msg("session_end")
}
