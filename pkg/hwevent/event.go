// Package hwevent carries hardware input from interrupt-driven producers to
// the single-threaded appliance scheduler.
//
// Producers (GPIO watchers, the dev panel) push immutable Events into a
// Channel without blocking. A Dispatcher drains the channel once per tick
// and hands each event to a Handler, one at a time.
package hwevent

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind identifies the variant of an Event.
type Kind int

const (
	KindUnknown Kind = iota
	KindRotaryDelta
	KindRotaryPress
	KindRecordPress
	KindRecordRelease
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindRotaryDelta:
		return "rotary_delta"
	case KindRotaryPress:
		return "rotary_press"
	case KindRecordPress:
		return "record_press"
	case KindRecordRelease:
		return "record_release"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Line identifies the producer an event came from. Ordering is only
// guaranteed between events of the same line.
type Line int

const (
	LineUnknown Line = iota
	LineRotary
	LineRotaryButton
	LineRecordButton
	LinePanel
)

// String returns the string representation of the line.
func (l Line) String() string {
	switch l {
	case LineRotary:
		return "rotary"
	case LineRotaryButton:
		return "rotary_button"
	case LineRecordButton:
		return "record_button"
	case LinePanel:
		return "panel"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler.
func (l Line) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// Event is a normalized hardware input. Values are immutable; use the
// constructors below.
type Event struct {
	kind  Kind
	delta int
	line  Line
	at    time.Time
}

// RotaryDelta returns a rotary step event. d is clamped to -1 or +1.
func RotaryDelta(line Line, d int, at time.Time) Event {
	if d >= 0 {
		d = 1
	} else {
		d = -1
	}
	return Event{kind: KindRotaryDelta, delta: d, line: line, at: at}
}

// RotaryPress returns a confirm event.
func RotaryPress(line Line, at time.Time) Event {
	return Event{kind: KindRotaryPress, line: line, at: at}
}

// RecordPress returns a record-button-down event.
func RecordPress(line Line, at time.Time) Event {
	return Event{kind: KindRecordPress, line: line, at: at}
}

// RecordRelease returns a record-button-up event.
func RecordRelease(line Line, at time.Time) Event {
	return Event{kind: KindRecordRelease, line: line, at: at}
}

// Kind returns the event variant.
func (e Event) Kind() Kind { return e.kind }

// Delta returns the rotary step (+1 or -1) for KindRotaryDelta, 0 otherwise.
func (e Event) Delta() int { return e.delta }

// Line returns the producing line.
func (e Event) Line() Line { return e.line }

// At returns when the producer observed the input.
func (e Event) At() time.Time { return e.at }

func (e Event) String() string {
	if e.kind == KindRotaryDelta {
		return fmt.Sprintf("%s(%+d)@%s", e.kind, e.delta, e.line)
	}
	return fmt.Sprintf("%s@%s", e.kind, e.line)
}

// MarshalJSON implements json.Marshaler.
func (e Event) MarshalJSON() ([]byte, error) {
	v := struct {
		Kind  Kind      `json:"kind"`
		Delta int       `json:"delta,omitempty"`
		Line  Line      `json:"line"`
		At    time.Time `json:"at"`
	}{e.kind, e.delta, e.line, e.at}
	return json.Marshal(v)
}
