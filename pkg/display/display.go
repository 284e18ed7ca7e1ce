// Package display renders short status screens: the OLED on the device, a
// framed console view for development, or both.
package display

import (
	"errors"
	"sync"
)

// Display shows a few lines of text. Implementations are safe for
// concurrent use.
type Display interface {
	// ShowText shows a single line.
	ShowText(text string) error

	// ShowLines shows lines top to bottom; lines past the bottom edge are
	// dropped.
	ShowLines(lines ...string) error

	// ShowMode shows the mode label with an optional status line.
	ShowMode(label, status string) error

	Clear() error
	Close() error
}

// ModeLines is the layout used by ShowMode.
func ModeLines(label, status string) []string {
	lines := []string{"Mode: " + label}
	if status != "" {
		lines = append(lines, status)
	}
	return lines
}

// Nop discards everything.
type Nop struct{}

func (Nop) ShowText(string) error { return nil }
func (Nop) ShowLines(...string) error { return nil }
func (Nop) ShowMode(string, string) error { return nil }
func (Nop) Clear() error { return nil }
func (Nop) Close() error { return nil }

// Multi fans out to several displays. Every display is updated even if an
// earlier one fails; the errors are joined.
type Multi []Display

func (m Multi) each(fn func(Display) error) error {
	var errs []error
	for _, d := range m {
		if err := fn(d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) ShowText(text string) error {
	return m.each(func(d Display) error { return d.ShowText(text) })
}

func (m Multi) ShowLines(lines ...string) error {
	return m.each(func(d Display) error { return d.ShowLines(lines...) })
}

func (m Multi) ShowMode(label, status string) error {
	return m.each(func(d Display) error { return d.ShowMode(label, status) })
}

func (m Multi) Clear() error {
	return m.each(func(d Display) error { return d.Clear() })
}

func (m Multi) Close() error {
	return m.each(func(d Display) error { return d.Close() })
}

// Recorder keeps the last screen shown. It backs tests and the status
// command.
type Recorder struct {
	mu      sync.Mutex
	lines   []string
	history [][]string
}

func (r *Recorder) show(lines []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append([]string(nil), lines...)
	r.history = append(r.history, r.lines)
	return nil
}

func (r *Recorder) ShowText(text string) error { return r.show([]string{text}) }
func (r *Recorder) ShowLines(lines ...string) error { return r.show(lines) }
func (r *Recorder) ShowMode(label, status string) error { return r.show(ModeLines(label, status)) }
func (r *Recorder) Clear() error { return r.show(nil) }
func (r *Recorder) Close() error { return nil }

// Lines returns the current screen.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// History returns every screen shown so far, oldest first.
func (r *Recorder) History() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.history...)
}
