package cli

import (
	"strings"

	"github.com/haivivi/echomemo/pkg/buffer"
)

// LogWriter implements io.Writer and keeps the most recent log lines, so a
// command can show what happened after a run.
type LogWriter struct {
	buf *buffer.RingBuffer[string]
}

// NewLogWriter creates a new log writer with the given max lines.
func NewLogWriter(maxLines int) *LogWriter {
	return &LogWriter{buf: buffer.RingN[string](maxLines)}
}

// Write implements io.Writer.
// Handles multi-line input by splitting on newlines.
func (w *LogWriter) Write(p []byte) (n int, err error) {
	text := strings.TrimRight(string(p), "\n")
	for _, line := range strings.Split(text, "\n") {
		if _, err := w.buf.Add(line); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// Lines returns the buffered lines, oldest first.
func (w *LogWriter) Lines() []string {
	return w.buf.Snapshot()
}

// Dropped returns how many lines were pushed out of the buffer.
func (w *LogWriter) Dropped() uint64 {
	return w.buf.Overwritten()
}
