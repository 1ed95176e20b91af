// Package doctor runs the -doctor diagnostics: one check per external
// dependency the engine needs at runtime.
package doctor

import (
	"context"
	"fmt"
	"os"
	"time"

	"hark/audio"
	"hark/clipboard"
	"hark/config"
	"hark/hotkey"
	"hark/shutdown"
)

type check struct {
	name string
	run  func(cfg *config.Config) bool
}

var checks = []check{
	{"Configuration", checkConfig},
	{"Keyboard access", checkKeyboard},
	{"Microphone capture", checkMicrophone},
	{"Provider credentials", checkProviders},
	{"Clipboard", checkClipboard},
}

// Run executes every check and returns an exit code (0=all pass, 1=any fail).
func Run(cfg *config.Config) int {
	resetTerminal()
	setupInterruptHandler()

	fmt.Println("hark doctor - system diagnostics")
	fmt.Println("================================")

	allPass := true
	for i, c := range checks {
		fmt.Println()
		fmt.Printf("[%d/%d] %s\n", i+1, len(checks), c.name)
		if !c.run(cfg) {
			allPass = false
		}
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func setupInterruptHandler() {
	ctx, stop := shutdown.Context(context.Background())
	go func() {
		<-ctx.Done()
		stop()
		fmt.Println("\nInterrupted")
		resetTerminal()
		os.Exit(1)
	}()
}

func checkConfig(cfg *config.Config) bool {
	if err := cfg.Validate(); err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	for _, s := range cfg.EnabledSlots() {
		fmt.Printf("  %s\n", s)
	}
	fmt.Println("  PASS: configuration is valid")
	return true
}

func checkKeyboard(cfg *config.Config) bool {
	msg, err := hotkey.Diagnose()
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	fmt.Printf("  PASS: %s\n", msg)
	return true
}

const micWindow = 2 * time.Second

func checkMicrophone(cfg *config.Config) bool {
	ctx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return false
	}
	defer ctx.Close()

	dev, err := audio.FindDevice(ctx, cfg.InputDevice)
	if err != nil {
		fmt.Printf("  Warning: %v, using system default\n", err)
	}
	capture, err := ctx.NewCapture(dev, audio.DefaultCaptureConfig)
	if err != nil {
		fmt.Printf("  FAIL: cannot open microphone: %v\n", err)
		return false
	}
	defer capture.Close()

	rec := audio.NewRecorder(capture)
	fmt.Printf("  Speak for %v (device: %s)...\n", micWindow, rec.DeviceName())
	if err := rec.Start(0); err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	time.Sleep(micWindow)
	r := rec.Stop()
	if r == nil {
		fmt.Println("  FAIL: no audio captured")
		return false
	}
	defer r.Discard()

	peak := audio.Peak(r.Samples())
	fmt.Printf("  Captured %.1fs, peak level %.2f\n", r.Duration().Seconds(), peak)
	if peak < 0.02 {
		fmt.Println("  FAIL: microphone appears silent (muted or wrong device?)")
		return false
	}
	fmt.Println("  PASS: microphone is capturing")
	return true
}

func checkProviders(cfg *config.Config) bool {
	ok := true
	need := func(what, provider, key string) {
		if key == "" {
			fmt.Printf("  FAIL: %s provider %q has no API key\n", what, provider)
			ok = false
			return
		}
		fmt.Printf("  %s: %s (key set)\n", what, provider)
	}

	need("transcription", cfg.Transcription.Provider, cfg.Transcription.APIKey)
	if cfg.NeedsLLM() {
		need("completion", cfg.Completion.Provider, cfg.Completion.APIKey)
		if cfg.Synthesis.Provider == "google" {
			if cfg.Synthesis.CredentialsFile == "" {
				fmt.Println("  synthesis: google (application default credentials)")
			} else {
				fmt.Printf("  synthesis: google (%s)\n", cfg.Synthesis.CredentialsFile)
			}
		} else {
			need("synthesis", cfg.Synthesis.Provider, cfg.Synthesis.APIKey)
		}
	}
	if ok {
		fmt.Println("  PASS: credentials present")
	}
	return ok
}

func checkClipboard(cfg *config.Config) bool {
	testStr := fmt.Sprintf("hark-doctor-%d", time.Now().UnixNano())

	type cbResult struct {
		readback string
		err      error
		phase    string
	}
	ch := make(chan cbResult, 1)
	go func() {
		prev, _ := clipboard.Read()
		defer clipboard.Copy(prev)
		if err := clipboard.Copy(testStr); err != nil {
			ch <- cbResult{err: err, phase: "write"}
			return
		}
		got, err := clipboard.Read()
		if err != nil {
			ch <- cbResult{err: err, phase: "read"}
			return
		}
		ch <- cbResult{readback: got}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			fmt.Printf("  FAIL: clipboard %s failed: %v\n", res.phase, res.err)
			return false
		}
		if res.readback != testStr {
			fmt.Printf("  FAIL: clipboard mismatch: wrote %q, got %q\n", testStr, res.readback)
			return false
		}
	case <-time.After(3 * time.Second):
		fmt.Println("  FAIL: clipboard timed out (clipboard tool hung - compositor not accessible?)")
		return false
	}
	fmt.Println("  clipboard write/read verified")

	if !cfg.AutoPaste {
		fmt.Println("  PASS: clipboard works (auto-paste disabled)")
		return true
	}
	msg, err := clipboard.Verify()
	if err != nil {
		fmt.Printf("  FAIL: auto-paste: %v\n", err)
		return false
	}
	fmt.Printf("  PASS: %s\n", msg)
	return true
}
