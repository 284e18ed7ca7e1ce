// Package metrics exposes appliance statistics in the Prometheus format.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haivivi/echomemo/pkg/hwevent"
)

const namespace = "echomemo"

// Metrics holds the appliance collectors. It implements hwevent.Observer.
type Metrics struct {
	Registry *prometheus.Registry

	events       *prometheus.CounterVec
	panics       *prometheus.CounterVec
	dispatch     prometheus.Histogram
	recordings   *prometheus.CounterVec
	recordingLen prometheus.Histogram
	failures     *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Hardware events handled by the scheduler.",
		}, []string{"kind"}),
		panics: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_panics_total",
			Help:      "Event handlers that panicked and were recovered.",
		}, []string{"kind"}),
		dispatch: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_seconds",
			Help:      "Time spent handling one event.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 9), // 1ms to ~65s
		}),
		recordings: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recordings_total",
			Help:      "Finished recordings by result.",
		}, []string{"result"}),
		recordingLen: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recording_seconds",
			Help:      "Length of finished recordings.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60, 120},
		}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collaborator_failures_total",
			Help:      "Failed calls to the display, audio, AI and storage collaborators.",
		}, []string{"op"}),
	}
}

// EventHandled implements hwevent.Observer.
func (m *Metrics) EventHandled(kind hwevent.Kind, elapsed time.Duration) {
	m.events.WithLabelValues(kind.String()).Inc()
	m.dispatch.Observe(elapsed.Seconds())
}

// HandlerPanicked implements hwevent.Observer.
func (m *Metrics) HandlerPanicked(kind hwevent.Kind) {
	m.panics.WithLabelValues(kind.String()).Inc()
}

// RecordingFinished matches recorder.WithFinishHook.
func (m *Metrics) RecordingFinished(d time.Duration, ok bool) {
	result := "ok"
	if !ok {
		result = "empty"
	}
	m.recordings.WithLabelValues(result).Inc()
	m.recordingLen.Observe(d.Seconds())
}

// CollaboratorFailed counts a failed collaborator call such as
// "transcribe" or "synthesize".
func (m *Metrics) CollaboratorFailed(op string) {
	m.failures.WithLabelValues(op).Inc()
}

// WatchDropped exports fn as the dropped event counter.
func (m *Metrics) WatchDropped(fn func() uint64) {
	m.Registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Events discarded because the channel was full.",
	}, func() float64 { return float64(fn()) }))
}

// Handler returns the /metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Serve listens on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() {
		logger.Info("metrics: listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
