// Package clipboard delivers dictated text to the system clipboard and can
// paste it into the focused window.
package clipboard

import (
	"fmt"
	"time"

	cb "github.com/atotto/clipboard"
)

func Read() (string, error) {
	return cb.ReadAll()
}

func Copy(text string) error {
	return cb.WriteAll(text)
}

// pasteDelay lets the clipboard owner settle before the paste keystroke.
const pasteDelay = 50 * time.Millisecond

// Sink is the clipboard destination for transcripts.
type Sink struct {
	AutoPaste bool

	write func(string) error
	paste func() error
}

func NewSink(autoPaste bool) *Sink {
	return &Sink{AutoPaste: autoPaste, write: Copy, paste: Paste}
}

// Copy places text on the clipboard, then sends the paste shortcut when
// AutoPaste is set. A paste failure leaves the text on the clipboard.
func (s *Sink) Copy(text string) error {
	if err := s.write(text); err != nil {
		return fmt.Errorf("writing clipboard: %w", err)
	}
	if !s.AutoPaste {
		return nil
	}
	time.Sleep(pasteDelay)
	if err := s.paste(); err != nil {
		return fmt.Errorf("auto-paste: %w", err)
	}
	return nil
}
