package metrics

import "github.com/prometheus/client_golang/prometheus"

// LedgerMetrics exposes counters/histograms for payment reconciliation flows.
type LedgerMetrics struct {
	paymentsTotal      *prometheus.CounterVec
	paymentAmount      *prometheus.HistogramVec
	conflictsTotal     prometheus.Counter
	autoPromotionTotal prometheus.Counter
}

func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	m := &LedgerMetrics{
		paymentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "payments",
			Name:      "events_total",
			Help:      "Total payment ledger events by operation and outcome",
		}, []string{"operation", "outcome"}),
		paymentAmount: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "payments",
			Name:      "amount",
			Help:      "Recorded payment amounts",
			Buckets:   []float64{100, 250, 500, 1000, 1500, 3000, 5000, 10000},
		}, []string{"method"}),
		conflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "appointments",
			Name:      "conflicts_total",
			Help:      "Total scheduling attempts rejected by the conflict checker",
		}),
		autoPromotionTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "appointments",
			Name:      "auto_promotions_total",
			Help:      "Pending appointments promoted to scheduled by a payment",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.paymentsTotal, m.paymentAmount, m.conflictsTotal, m.autoPromotionTotal)
	return m
}

func (m *LedgerMetrics) ObservePayment(operation, outcome string) {
	if m == nil {
		return
	}
	m.paymentsTotal.WithLabelValues(operation, outcome).Inc()
}

func (m *LedgerMetrics) ObserveAmount(method string, amount float64) {
	if m == nil {
		return
	}
	m.paymentAmount.WithLabelValues(method).Observe(amount)
}

func (m *LedgerMetrics) ObserveConflict() {
	if m == nil {
		return
	}
	m.conflictsTotal.Inc()
}

func (m *LedgerMetrics) ObserveAutoPromotion() {
	if m == nil {
		return
	}
	m.autoPromotionTotal.Inc()
}

// StoreMetrics tracks document store write latency per collection.
type StoreMetrics struct {
	writeLatency *prometheus.HistogramVec
}

func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	m := &StoreMetrics{
		writeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "store",
			Name:      "write_latency_seconds",
			Help:      "Latency of full-collection writes",
			Buckets:   prometheus.DefBuckets,
		}, []string{"collection"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.writeLatency)
	return m
}

func (m *StoreMetrics) ObserveWrite(collection string, seconds float64) {
	if m == nil {
		return
	}
	m.writeLatency.WithLabelValues(collection).Observe(seconds)
}
