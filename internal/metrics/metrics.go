// internal/metrics/metrics.go
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tamzrod/rower-bridge/internal/decoder"
)

const namespace = "rowerbridge"

// Metrics implements decoder.Observer and session.OutcomeObserver.
type Metrics struct {
	emissions       *prometheus.CounterVec
	unknownOpcodes  *prometheus.CounterVec
	sessions        *prometheus.CounterVec
	broadcastErrors prometheus.Counter
}

// New registers the bridge collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		emissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "decoder",
				Name:      "emissions_total",
				Help:      "Snapshots emitted, by trigger.",
			},
			[]string{"trigger"},
		),
		unknownOpcodes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "decoder",
				Name:      "unknown_opcodes_total",
				Help:      "Unrecognised command bytes, by value.",
			},
			[]string{"opcode"},
		),
		sessions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "outcomes_total",
				Help:      "Sessions finished, by outcome.",
			},
			[]string{"outcome"},
		),
		broadcastErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "writer",
				Name:      "broadcast_errors_total",
				Help:      "Failed snapshot deliveries.",
			},
		),
	}

	reg.MustRegister(m.emissions, m.unknownOpcodes, m.sessions, m.broadcastErrors)
	return m
}

func (m *Metrics) Emitted(t decoder.Trigger) {
	m.emissions.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) UnknownOpcode(b byte) {
	m.unknownOpcodes.WithLabelValues(fmt.Sprintf("0x%02x", b)).Inc()
}

func (m *Metrics) SessionEnded(kind string) {
	m.sessions.WithLabelValues(kind).Inc()
}

func (m *Metrics) BroadcastFailed() {
	m.broadcastErrors.Inc()
}

// Handler exposes everything gathered from g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Serve listens on addr until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
