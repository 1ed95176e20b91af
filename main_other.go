//go:build !linux

package main

import (
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

// Global hotkey registration on macOS and Windows must happen on the main
// thread.
func main() {
	mainthread.Init(run)
}
