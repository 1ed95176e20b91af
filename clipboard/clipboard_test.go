package clipboard

import (
	"errors"
	"testing"
)

func TestSinkCopyOnly(t *testing.T) {
	var got string
	pasted := false
	s := &Sink{
		write: func(text string) error { got = text; return nil },
		paste: func() error { pasted = true; return nil },
	}
	if err := s.Copy("take a note"); err != nil {
		t.Fatal(err)
	}
	if got != "take a note" {
		t.Errorf("clipboard = %q", got)
	}
	if pasted {
		t.Error("pasted without AutoPaste")
	}
}

func TestSinkAutoPaste(t *testing.T) {
	var order []string
	s := &Sink{
		AutoPaste: true,
		write:     func(string) error { order = append(order, "write"); return nil },
		paste:     func() error { order = append(order, "paste"); return nil },
	}
	if err := s.Copy("x"); err != nil {
		t.Fatal(err)
	}
	if len(order) != 2 || order[0] != "write" || order[1] != "paste" {
		t.Errorf("order = %v", order)
	}
}

func TestSinkErrors(t *testing.T) {
	boom := errors.New("no display")
	s := &Sink{
		AutoPaste: true,
		write:     func(string) error { return boom },
		paste:     func() error { t.Error("paste after failed write"); return nil },
	}
	if err := s.Copy("x"); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}

	s.write = func(string) error { return nil }
	s.paste = func() error { return boom }
	if err := s.Copy("x"); !errors.Is(err, boom) {
		t.Errorf("paste err = %v", err)
	}
}
