// Package panel is a websocket control surface that stands in for the
// physical rotary knob and record button. Each JSON message from a client
// becomes one hwevent.Event on hwevent.LinePanel.
//
// Messages:
//
//	{"type":"rotate","delta":1}
//	{"type":"press"}
//	{"type":"record","down":true}
//
// Every message is answered with {"type":"ok","event":"..."} or
// {"type":"error","error":"..."}.
package panel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/haivivi/echomemo/pkg/hwevent"
)

// Message is a client request.
type Message struct {
	Type  string `json:"type"`
	Delta int    `json:"delta,omitempty"`
	Down  *bool  `json:"down,omitempty"`
}

// Reply is the server answer to one Message.
type Reply struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Error string `json:"error,omitempty"`
}

// Event converts m into a hardware event observed at at.
func (m Message) Event(at time.Time) (hwevent.Event, error) {
	switch m.Type {
	case "rotate":
		if m.Delta != 1 && m.Delta != -1 {
			return hwevent.Event{}, fmt.Errorf("panel: rotate delta must be 1 or -1, got %d", m.Delta)
		}
		return hwevent.RotaryDelta(hwevent.LinePanel, m.Delta, at), nil
	case "press":
		return hwevent.RotaryPress(hwevent.LinePanel, at), nil
	case "record":
		if m.Down == nil {
			return hwevent.Event{}, errors.New("panel: record needs down")
		}
		if *m.Down {
			return hwevent.RecordPress(hwevent.LinePanel, at), nil
		}
		return hwevent.RecordRelease(hwevent.LinePanel, at), nil
	case "":
		return hwevent.Event{}, errors.New("panel: missing type")
	default:
		return hwevent.Event{}, fmt.Errorf("panel: unknown type %q", m.Type)
	}
}

// Server upgrades HTTP requests to websocket sessions.
type Server struct {
	sink     hwevent.Sink
	logger   *slog.Logger
	now      func() time.Time
	upgrader websocket.Upgrader
}

// NewServer creates a panel pushing into sink.
func NewServer(sink hwevent.Sink, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		sink:   sink,
		logger: logger.With("component", "panel"),
		now:    time.Now,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	s.logger.Info("client connected", "remote", r.RemoteAddr)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("read", "error", err)
			}
			return
		}
		if err := conn.WriteJSON(s.handle(data)); err != nil {
			s.logger.Debug("write", "error", err)
			return
		}
	}
}

func (s *Server) handle(data []byte) Reply {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Reply{Type: "error", Error: fmt.Sprintf("panel: bad message: %v", err)}
	}
	ev, err := m.Event(s.now())
	if err != nil {
		return Reply{Type: "error", Error: err.Error()}
	}
	s.sink.Push(ev)
	s.logger.Debug("event", "event", ev.String())
	return Reply{Type: "ok", Event: ev.Kind().String()}
}

// Serve listens on addr and serves the panel at /ws until ctx is done.
func (s *Server) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", s)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
