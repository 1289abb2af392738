package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestLedgerMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLedgerMetrics(reg)

	m.ObservePayment("record", "ok")
	m.ObservePayment("record", "ok")
	m.ObservePayment("void", "ok")
	m.ObserveConflict()
	m.ObserveAutoPromotion()

	if got := testutil.ToFloat64(m.paymentsTotal.WithLabelValues("record", "ok")); got != 2 {
		t.Errorf("expected 2 record events, got %v", got)
	}
	if got := testutil.ToFloat64(m.paymentsTotal.WithLabelValues("void", "ok")); got != 1 {
		t.Errorf("expected 1 void event, got %v", got)
	}
	if got := testutil.ToFloat64(m.conflictsTotal); got != 1 {
		t.Errorf("expected 1 conflict, got %v", got)
	}
	if got := testutil.ToFloat64(m.autoPromotionTotal); got != 1 {
		t.Errorf("expected 1 auto promotion, got %v", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var lm *LedgerMetrics
	var sm *StoreMetrics

	// must not panic
	lm.ObservePayment("record", "ok")
	lm.ObserveAmount("cash", 100)
	lm.ObserveConflict()
	lm.ObserveAutoPromotion()
	sm.ObserveWrite("appointments", 0.01)
}

func TestStoreMetrics_Register(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStoreMetrics(reg)

	m.ObserveWrite("payments", 0.002)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "clinic_store_write_latency_seconds" {
			found = true
		}
	}
	if !found {
		t.Error("expected store write latency metric to be registered")
	}
}
