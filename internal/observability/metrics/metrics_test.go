package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
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
		for _, m := range mf.GetMetric() {
			if labelsMatch(m, labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelsMatch(m *dto.Metric, want map[string]string) bool {
	got := map[string]string{}
	for _, lp := range m.GetLabel() {
		got[lp.GetName()] = lp.GetValue()
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}

func TestOutreachMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutreachMetrics(reg)
	m.ObserveCall(true, "placed")
	m.ObserveCall(true, "placed")
	m.ObserveCall(false, "failed")
	m.ObserveDialJob("deleted")
	m.ObserveFollowUp("reverted")
	m.ObserveWebhook("status", "busy")
	m.ObserveRequest("GET", "/api/leads", "200", 0.02)

	if got := counterValue(t, reg, "outreach_dialer_calls_total", map[string]string{"mode": "dummy", "outcome": "placed"}); got != 2 {
		t.Errorf("expected 2 dummy calls, got %v", got)
	}
	if got := counterValue(t, reg, "outreach_dialer_calls_total", map[string]string{"mode": "live", "outcome": "failed"}); got != 1 {
		t.Errorf("expected 1 failed live call, got %v", got)
	}
	if got := counterValue(t, reg, "outreach_voice_webhook_total", map[string]string{"kind": "status"}); got != 1 {
		t.Errorf("expected 1 status webhook, got %v", got)
	}
}

func TestOutreachMetricsDefaultRegistry(t *testing.T) {
	m := NewOutreachMetrics(nil)
	m.ObserveDialJob("enqueued")
}

func TestOutreachMetricsNilSafe(t *testing.T) {
	var m *OutreachMetrics
	m.ObserveCall(false, "placed")
	m.ObserveDialJob("deleted")
	m.ObserveFollowUp("dispatched")
	m.ObserveWebhook("voice", "ok")
	m.ObserveRequest("POST", "/api/call", "500", 1)
}
