// internal/metrics/metrics_test.go
package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tamzrod/rower-bridge/internal/decoder"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue next
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Emitted(decoder.TriggerPace)
	m.Emitted(decoder.TriggerPace)
	m.Emitted(decoder.TriggerStale)
	m.UnknownOpcode(0x10)
	m.SessionEnded("ended")
	m.BroadcastFailed()

	if v := counterValue(t, reg, "rowerbridge_decoder_emissions_total", map[string]string{"trigger": "pace"}); v != 2 {
		t.Fatalf("pace emissions: got=%v", v)
	}
	if v := counterValue(t, reg, "rowerbridge_decoder_emissions_total", map[string]string{"trigger": "stale"}); v != 1 {
		t.Fatalf("stale emissions: got=%v", v)
	}
	if v := counterValue(t, reg, "rowerbridge_decoder_unknown_opcodes_total", map[string]string{"opcode": "0x10"}); v != 1 {
		t.Fatalf("unknown opcodes: got=%v", v)
	}
	if v := counterValue(t, reg, "rowerbridge_session_outcomes_total", map[string]string{"outcome": "ended"}); v != 1 {
		t.Fatalf("sessions: got=%v", v)
	}
	if v := counterValue(t, reg, "rowerbridge_writer_broadcast_errors_total", nil); v != 1 {
		t.Fatalf("broadcast errors: got=%v", v)
	}
}

func TestHandler_Exposition(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg).Emitted(decoder.TriggerIdle)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `rowerbridge_decoder_emissions_total{trigger="idle"} 1`) {
		t.Fatalf("missing series:\n%s", rec.Body.String())
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	reg := prometheus.NewRegistry()
	New(reg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, addr, reg) }()

	var resp *http.Response
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err = http.Get("http://" + addr + "/metrics")
		if err == nil || time.Now().After(deadline) {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "rowerbridge_writer_broadcast_errors_total") {
		t.Fatalf("unexpected body:\n%s", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve err=%v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("Serve did not stop")
	}
}
