package gpio

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Level is an electrical line level.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l {
		return "high"
	}
	return "low"
}

// Line is an input line that reports edges.
type Line interface {
	// Name identifies the line in logs.
	Name() string
	// Read returns the current level.
	Read() Level
	// WaitForEdge blocks until an edge is seen or timeout elapses. It
	// returns false on timeout.
	WaitForEdge(timeout time.Duration) bool
}

// Pins holds the BCM numbers of the input lines.
type Pins struct {
	CLK    int
	DT     int
	SW     int
	Record int
}

// DefaultPins is the reference board wiring.
var DefaultPins = Pins{CLK: 22, DT: 27, SW: 17, Record: 23}

// Lines is the set of opened input lines.
type Lines struct {
	CLK    Line
	DT     Line
	SW     Line
	Record Line
}

type periphLine struct {
	pin gpio.PinIO
}

func (l periphLine) Name() string { return l.pin.Name() }

func (l periphLine) Read() Level { return Level(l.pin.Read()) }

func (l periphLine) WaitForEdge(timeout time.Duration) bool {
	return l.pin.WaitForEdge(timeout)
}

// Open initializes the host drivers and configures each pin as a pulled-up
// input reporting both edges.
func Open(pins Pins) (*Lines, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("gpio: host init: %w", err)
	}
	open := func(n int) (Line, error) {
		name := fmt.Sprintf("GPIO%d", n)
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("gpio: pin %s not found", name)
		}
		if err := p.In(gpio.PullUp, gpio.BothEdges); err != nil {
			return nil, fmt.Errorf("gpio: configure %s: %w", name, err)
		}
		return periphLine{pin: p}, nil
	}
	var (
		ls  Lines
		err error
	)
	if ls.CLK, err = open(pins.CLK); err != nil {
		return nil, err
	}
	if ls.DT, err = open(pins.DT); err != nil {
		return nil, err
	}
	if ls.SW, err = open(pins.SW); err != nil {
		return nil, err
	}
	if ls.Record, err = open(pins.Record); err != nil {
		return nil, err
	}
	return &ls, nil
}
