package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"hark/audio"
	"hark/beep"
	"hark/clipboard"
	"hark/config"
	"hark/doctor"
	"hark/engine"
	"hark/history"
	"hark/hotkey"
	"hark/llm"
	"hark/log"
	"hark/netx"
	"hark/pipeline"
	"hark/playback"
	"hark/shutdown"
	"hark/transcriber"
	"hark/tts"
)

var version = "dev"

type options struct {
	configPath   string
	envFile      string
	logPath      string
	device       string
	outputDevice string
	setup        bool
	doctor       bool
	tui          bool
	version      bool
	printConfig  bool
	history      int
	testWAV      string
}

func parseFlags() options {
	var o options
	flag.StringVarP(&o.configPath, "config", "c", "", "config file (default: OS-specific location)")
	flag.StringVarP(&o.envFile, "env", "e", ".env", "env file with provider keys")
	flag.StringVar(&o.logPath, "logpath", "", "log directory (default: OS-specific location, use ./ for current dir)")
	flag.StringVarP(&o.device, "device", "d", "", "microphone device name (overrides config)")
	flag.StringVar(&o.outputDevice, "output-device", "", "speaker device name (overrides config)")
	flag.BoolVar(&o.setup, "setup", false, "pick the microphone interactively")
	flag.BoolVar(&o.doctor, "doctor", false, "run system diagnostics and exit")
	flag.BoolVar(&o.tui, "tui", true, "show the status display")
	flag.BoolVarP(&o.version, "version", "v", false, "print version and exit")
	flag.BoolVar(&o.printConfig, "print-config", false, "print the effective configuration and exit")
	flag.IntVar(&o.history, "history", 0, "print the last N pipeline runs and exit")
	flag.StringVar(&o.testWAV, "test", "", "headless test mode: replay this WAV as the microphone, read key commands from stdin")
	flag.Parse()
	return o
}

func fatalf(format string, args ...any) {
	log.Errorf(format, args...)
	log.Close()
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func run() {
	opts := parseFlags()

	if opts.version {
		fmt.Printf("hark %s\n", version)
		return
	}

	// Missing .env is normal; keys may come from the environment.
	_ = godotenv.Load(opts.envFile)

	logPath, err := log.ResolveDir(opts.logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}
	initCrashLog()

	cfgPath := opts.configPath
	if cfgPath == "" {
		if cfgPath, err = config.DefaultPath(); err != nil {
			fatalf("locating config: %v", err)
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf("%v", err)
	}
	if opts.device != "" {
		cfg.InputDevice = opts.device
	}
	if opts.outputDevice != "" {
		cfg.OutputDevice = opts.outputDevice
	}

	switch {
	case opts.printConfig:
		printConfig(cfg)
		return
	case opts.doctor:
		os.Exit(doctor.Run(cfg))
	case opts.history > 0:
		os.Exit(printHistory(cfg, opts.history))
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()
	log.SessionStart(len(cfg.EnabledSlots()), cfg.Transcription.Provider, cfg.Completion.Provider, cfg.Synthesis.Provider)

	if cfg.Mute {
		beep.Disable()
	}

	if opts.testWAV != "" {
		os.Exit(runTestMode(cfg, opts.testWAV))
	}

	actx, err := audio.NewContext()
	if err != nil {
		fatalf("initializing audio: %v", err)
	}
	defer actx.Close()

	if opts.setup {
		devices, err := actx.Devices()
		if err != nil {
			fatalf("listing devices: %v", err)
		}
		dev, err := audio.SelectDevice(devices, "Select microphone")
		if err != nil {
			fatalf("device selection: %v", err)
		}
		cfg.InputDevice = dev.Name
	}

	dev, err := audio.FindDevice(actx, cfg.InputDevice)
	if err != nil {
		log.Warnf("%v, using system default", err)
		fmt.Fprintf(os.Stderr, "Warning: %v, using system default\n", err)
	}
	capture, err := actx.NewCapture(dev, audio.DefaultCaptureConfig)
	if err != nil {
		fatalf("opening microphone: %v", err)
	}
	defer capture.Close()

	backend, err := playback.NewBackend(cfg.OutputDevice)
	if err != nil {
		fatalf("opening speaker: %v", err)
	}
	player := playback.NewController(backend)
	defer player.Close()

	if cfg.AutoPaste {
		if err := clipboard.Init(); err != nil {
			log.Warnf("paste init: %v", err)
			fmt.Fprintf(os.Stderr, "Warning: paste init failed: %v\n", err)
		}
	}

	var store *history.Store
	if cfg.History.Enabled {
		if store, err = history.Open(historyPath(cfg)); err != nil {
			log.Warnf("history disabled: %v", err)
		} else {
			defer store.Close()
		}
	}

	ctx, stop := shutdown.Context(context.Background())
	defer stop()

	status := newStatus(cfg.EnabledSlots(), opts.tui)
	rec := audio.NewRecorder(capture)
	rec.OnLevel(status.Level)
	player.OnChange(status.Playing)

	p, closeProviders, err := buildPipeline(ctx, cfg, player, status, store)
	if err != nil {
		fatalf("%v", err)
	}
	defer closeProviders()

	coord := engine.NewCoordinator(context.Background(), engine.CoordinatorConfig{
		Capture:   rec,
		Player:    player,
		Processor: p,
		Cues:      beep.Player{},
	})
	p.Gate = coord
	eng := engine.New(cfg.Slots, coord, engine.Options{Sink: status})

	go beep.Init()

	src := hotkey.New()
	if err := src.Register(eng.Keys()); err != nil {
		fatalf("registering hotkeys: %v", err)
	}

	if opts.tui {
		ctx = status.start(ctx, stop, rec.DeviceName())
	} else {
		fmt.Printf("hark %s listening on %s\n", version, strings.Join(eng.Keys(), ", "))
	}

	if err := eng.Run(ctx, src.Events()); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorf("event loop: %v", err)
	}

	log.Info("shutting down")
	src.Unregister()
	player.Interrupt()
	eng.Close()
	status.stop()
	log.SessionEnd(status.Runs())
}

// buildPipeline creates the providers. The completion and synthesis clients
// are only built when a slot routes to the language model.
func buildPipeline(ctx context.Context, cfg *config.Config, player pipeline.Player, status *statusSink, store *history.Store) (*pipeline.Pipeline, func(), error) {
	client, err := netx.NewClient(cfg.Proxy, cfg.Timeout)
	if err != nil {
		return nil, nil, err
	}

	tr, err := transcriber.New(cfg.Transcription, client)
	if err != nil {
		return nil, nil, err
	}
	if w, ok := tr.(interface{ Warm() }); ok {
		go w.Warm()
	}

	p := &pipeline.Pipeline{
		Transcriber: transcriber.NewBatch(tr, cfg.Transcription.Format),
		Clipboard:   clipboard.NewSink(cfg.AutoPaste),
		Player:      player,
		Cues:        beep.Player{},
		Reporter:    status,
	}
	if store != nil {
		p.History = store
	}

	closeFn := func() {}
	if cfg.NeedsLLM() {
		comp, err := llm.New(cfg.Completion, client)
		if err != nil {
			return nil, nil, err
		}
		synth, err := tts.New(ctx, cfg.Synthesis, client)
		if err != nil {
			return nil, nil, err
		}
		p.Completer = comp
		p.Synthesizer = synth
		closeFn = func() { synth.Close() }
	}
	return p, closeFn, nil
}

func historyPath(cfg *config.Config) string {
	if cfg.History.Path != "" {
		return cfg.History.Path
	}
	return filepath.Join(log.Dir(), "history.db")
}

func printConfig(cfg *config.Config) {
	out := *cfg
	out.Transcription.APIKey = redact(out.Transcription.APIKey)
	out.Completion.APIKey = redact(out.Completion.APIKey)
	out.Synthesis.APIKey = redact(out.Synthesis.APIKey)
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	enc.Close()
}

func redact(key string) string {
	if len(key) <= 8 {
		if key == "" {
			return ""
		}
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}

func printHistory(cfg *config.Config, n int) int {
	store, err := history.Open(historyPath(cfg))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	entries, err := store.Recent(ctx, n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	for _, e := range entries {
		fmt.Printf("%s  slot %d  %-9s  %5.1fs  %s\n",
			e.StartedAt.Format("2006-01-02 15:04:05"), e.Slot, e.Sink,
			float64(e.AudioMs)/1000, e.Transcript)
		if e.Response != "" {
			fmt.Printf("%22s-> %s\n", "", e.Response)
		}
		if e.Error != "" {
			fmt.Printf("%22s!! %s\n", "", e.Error)
		}
	}
	return 0
}

func initCrashLog() {
	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(crashFile, debug.CrashOptions{})
}
