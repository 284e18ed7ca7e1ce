package gpio

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/haivivi/echomemo/pkg/hwevent"
)

// CheckWiring prints the pin assignment and current levels of lines, then
// runs an Adapter for d and prints every decoded event as it arrives. It is
// the bench check for a freshly wired board.
func CheckWiring(ctx context.Context, w io.Writer, pins Pins, lines Lines, cfg Config, d time.Duration) (int, error) {
	fmt.Fprintf(w, "rotary CLK  GPIO%-3d %s\n", pins.CLK, level(lines.CLK))
	fmt.Fprintf(w, "rotary DT   GPIO%-3d %s\n", pins.DT, level(lines.DT))
	fmt.Fprintf(w, "rotary SW   GPIO%-3d %s\n", pins.SW, level(lines.SW))
	fmt.Fprintf(w, "record      GPIO%-3d %s\n", pins.Record, level(lines.Record))
	fmt.Fprintf(w, "watching for %s, turn the knob and press the buttons\n", d)

	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	events := hwevent.NewChannel(0)
	errc := make(chan error, 1)
	go func() {
		errc <- NewAdapter(lines, events, cfg).Run(ctx)
		events.Close()
	}()

	var n int
	for ev, ok := events.Next(); ok; ev, ok = events.Next() {
		n++
		fmt.Fprintf(w, "%s  %s\n", ev.At().Format("15:04:05.000"), ev)
	}
	if lost := events.Dropped(); lost > 0 {
		fmt.Fprintf(w, "%d events dropped\n", lost)
	}
	return n, <-errc
}

func level(l Line) string {
	if l == nil {
		return "not connected"
	}
	if l.Read() == Low {
		return "low (active)"
	}
	return "high (idle)"
}
