package panel

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/haivivi/echomemo/pkg/hwevent"
)

type sink struct {
	mu     sync.Mutex
	events []hwevent.Event
}

func (s *sink) Push(ev hwevent.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *sink) kinds() []hwevent.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []hwevent.Kind
	for _, ev := range s.events {
		out = append(out, ev.Kind())
	}
	return out
}

func TestMessageEvent(t *testing.T) {
	down, up := true, false
	at := time.Unix(100, 0)

	tests := []struct {
		name    string
		msg     Message
		kind    hwevent.Kind
		delta   int
		wantErr bool
	}{
		{"rotate +1", Message{Type: "rotate", Delta: 1}, hwevent.KindRotaryDelta, 1, false},
		{"rotate -1", Message{Type: "rotate", Delta: -1}, hwevent.KindRotaryDelta, -1, false},
		{"rotate 0", Message{Type: "rotate"}, 0, 0, true},
		{"rotate 3", Message{Type: "rotate", Delta: 3}, 0, 0, true},
		{"press", Message{Type: "press"}, hwevent.KindRotaryPress, 0, false},
		{"record down", Message{Type: "record", Down: &down}, hwevent.KindRecordPress, 0, false},
		{"record up", Message{Type: "record", Down: &up}, hwevent.KindRecordRelease, 0, false},
		{"record missing", Message{Type: "record"}, 0, 0, true},
		{"empty", Message{}, 0, 0, true},
		{"unknown", Message{Type: "jump"}, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := tt.msg.Event(at)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", ev)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if ev.Kind() != tt.kind || ev.Delta() != tt.delta {
				t.Errorf("got %v", ev)
			}
			if ev.Line() != hwevent.LinePanel || !ev.At().Equal(at) {
				t.Errorf("line=%v at=%v", ev.Line(), ev.At())
			}
		})
	}
}

func TestServer(t *testing.T) {
	var s sink
	srv := httptest.NewServer(NewServer(&s, nil))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	send := func(msg string) Reply {
		t.Helper()
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			t.Fatal(err)
		}
		var r Reply
		if err := conn.ReadJSON(&r); err != nil {
			t.Fatal(err)
		}
		return r
	}

	if r := send(`{"type":"rotate","delta":1}`); r.Type != "ok" || r.Event != "rotary_delta" {
		t.Errorf("rotate reply = %+v", r)
	}
	if r := send(`{"type":"record","down":true}`); r.Type != "ok" || r.Event != "record_press" {
		t.Errorf("record reply = %+v", r)
	}
	if r := send(`not json`); r.Type != "error" || r.Error == "" {
		t.Errorf("bad json reply = %+v", r)
	}
	if r := send(`{"type":"record","down":false}`); r.Type != "ok" {
		t.Errorf("release reply = %+v", r)
	}

	want := []hwevent.Kind{hwevent.KindRotaryDelta, hwevent.KindRecordPress, hwevent.KindRecordRelease}
	got := s.kinds()
	if len(got) != len(want) {
		t.Fatalf("events = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, got[i], want[i])
		}
	}
}
