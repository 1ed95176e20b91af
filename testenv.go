package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"hark/audio"
	"hark/beep"
	"hark/clipboard"
	"hark/config"
	"hark/engine"
	"hark/hotkey"
	"hark/playback"
)

// idleSink wraps the status sink and signals every return to Idle, which is
// the end of a capture-and-pipeline cycle.
type idleSink struct {
	*statusSink
	idle chan struct{}
}

func (s idleSink) SlotState(slot int, st engine.State) {
	s.statusSink.SlotState(slot, st)
	if st != engine.Idle {
		return
	}
	select {
	case s.idle <- struct{}{}:
	default:
	}
}

// runTestMode drives the full engine from stdin with a WAV file standing in
// for the microphone and a silent speaker. Commands, one per line:
//
//	DOWN <key>, UP <key>   synthesize a key event
//	WAIT                   block until a slot returns to idle
//	WAIT_AUDIO_DONE        block until the WAV has been fully captured
//	SLEEP <ms>             pause the script
//	QUIT                   shut down cleanly
func runTestMode(cfg *config.Config, wavPath string) int {
	beep.Disable()

	if cfg.AutoPaste {
		if err := clipboard.Init(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: paste init failed: %v\n", err)
		}
	}

	fakeCtx, err := audio.NewFakeContext(wavPath, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
		return 1
	}
	capture, err := fakeCtx.NewCapture(nil, audio.DefaultCaptureConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating capture: %v\n", err)
		return 1
	}
	defer capture.Close()
	fakeCapture := capture.(*audio.FakeCapture)

	player := playback.NewController(playback.NewFakeBackend(0))
	defer player.Close()

	status := newStatus(cfg.EnabledSlots(), false)
	p, closeProviders, err := buildPipeline(context.Background(), cfg, player, status, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closeProviders()

	coord := engine.NewCoordinator(context.Background(), engine.CoordinatorConfig{
		Capture:   audio.NewRecorder(capture),
		Player:    player,
		Processor: p,
	})
	p.Gate = coord
	sink := idleSink{statusSink: status, idle: make(chan struct{}, 16)}
	eng := engine.New(cfg.Slots, coord, engine.Options{Sink: sink})

	src := hotkey.NewFake()
	if err := src.Register(eng.Keys()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		eng.Run(context.Background(), src.Events())
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch strings.ToUpper(fields[0]) {
		case "DOWN", "UP":
			if len(fields) < 2 {
				fmt.Fprintf(os.Stderr, "missing key in %q\n", scanner.Text())
				continue
			}
			src.Send(hotkey.Event{Key: hotkey.Normalize(fields[1]), Down: strings.EqualFold(fields[0], "DOWN"), At: time.Now()})
		case "WAIT":
			<-sink.idle
		case "WAIT_AUDIO_DONE":
			<-fakeCapture.AudioDone()
		case "SLEEP":
			if len(fields) > 1 {
				if ms, err := strconv.Atoi(fields[1]); err == nil {
					time.Sleep(time.Duration(ms) * time.Millisecond)
				}
			}
		case "QUIT":
			src.Unregister()
			<-loopDone
			eng.Close()
			return 0
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q\n", fields[0])
		}
	}
	src.Unregister()
	<-loopDone
	eng.Close()
	return 0
}
