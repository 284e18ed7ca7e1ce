package echomemo

import (
	"encoding/json"
	"fmt"

	"github.com/haivivi/echomemo/pkg/memstore"
)

// Mode is one of the four appliance modes.
type Mode int

const (
	Daily Mode = iota
	Chat
	Diary
	Reminder

	numModes = iota
)

// Modes is the rotary cycling order.
var Modes = [numModes]Mode{Daily, Chat, Diary, Reminder}

// String returns the memory tag of the mode.
func (m Mode) String() string {
	switch m {
	case Daily:
		return memstore.ModeDaily
	case Chat:
		return memstore.ModeChat
	case Diary:
		return memstore.ModeDiary
	case Reminder:
		return memstore.ModeReminder
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Label returns the display name of the mode.
func (m Mode) Label() string {
	switch m {
	case Daily:
		return "Daily"
	case Chat:
		return "Chat"
	case Diary:
		return "Diary"
	case Reminder:
		return "Reminder"
	default:
		return "?"
	}
}

// MarshalJSON implements json.Marshaler.
func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// ParseMode parses a memory tag such as "chat".
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("echomemo: unknown mode %q", s)
}

// wrap returns (i+d) mod n in [0, n).
func wrap(i, d, n int) int {
	return ((i+d)%n + n) % n
}
