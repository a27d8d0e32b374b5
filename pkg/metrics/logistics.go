package metrics

import "github.com/prometheus/client_golang/prometheus"

// LogisticsMetrics counts consistency events raised by the logistics layer.
// A nil *LogisticsMetrics is valid and records nothing.
type LogisticsMetrics struct {
	ledgerWrites      *prometheus.CounterVec
	staleWrites       *prometheus.CounterVec
	regressionBlocked *prometheus.CounterVec
	sequenceRetries   *prometheus.CounterVec
	casRetries        *prometheus.CounterVec
	allocations       prometheus.Counter
	mirrorDrift       *prometheus.GaugeVec
}

// NewLogisticsMetrics registers the logistics metrics on the provided registerer.
func NewLogisticsMetrics(reg prometheus.Registerer) *LogisticsMetrics {
	if reg == nil {
		return &LogisticsMetrics{}
	}
	m := &LogisticsMetrics{
		ledgerWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "logistics_ledger_writes_total",
			Help: "Stock movement ledger writes by source and outcome (created, replayed).",
		}, []string{"source", "outcome"}),
		staleWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "logistics_stale_writes_total",
			Help: "Writes rejected because the caller held an old write version.",
		}, []string{"entity"}),
		regressionBlocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "logistics_regression_blocked_total",
			Help: "Job patch fields stripped because they would regress a ratchet.",
		}, []string{"field"}),
		sequenceRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "logistics_sequence_retries_total",
			Help: "Sequence counter compare-and-swap attempts that lost a race.",
		}, []string{"outcome"}),
		casRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "logistics_inventory_cas_retries_total",
			Help: "Inventory balance updates retried after a concurrent change.",
		}, []string{"table"}),
		allocations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "logistics_allocations_consumed_total",
			Help: "Allocations flipped to consumed by reconciliation.",
		}),
		mirrorDrift: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "logistics_inventory_mirror_drift_items",
			Help: "Catalog items whose vehicle stock differs from the location balance.",
		}, []string{"location_id"}),
	}
	reg.MustRegister(
		m.ledgerWrites,
		m.staleWrites,
		m.regressionBlocked,
		m.sequenceRetries,
		m.casRetries,
		m.allocations,
		m.mirrorDrift,
	)
	return m
}

// LedgerWrite records a ledger call outcome.
func (m *LogisticsMetrics) LedgerWrite(source string, created bool) {
	if m == nil || m.ledgerWrites == nil {
		return
	}
	outcome := "replayed"
	if created {
		outcome = "created"
	}
	m.ledgerWrites.WithLabelValues(normalizeLabel(source), outcome).Inc()
}

// StaleWrite records a version mismatch for the entity.
func (m *LogisticsMetrics) StaleWrite(entity string) {
	if m == nil || m.staleWrites == nil {
		return
	}
	m.staleWrites.WithLabelValues(normalizeLabel(entity)).Inc()
}

// RegressionBlocked records a stripped patch field.
func (m *LogisticsMetrics) RegressionBlocked(field string) {
	if m == nil || m.regressionBlocked == nil {
		return
	}
	m.regressionBlocked.WithLabelValues(normalizeLabel(field)).Inc()
}

// SequenceRetry records a lost counter race. exhausted marks the final failure.
func (m *LogisticsMetrics) SequenceRetry(exhausted bool) {
	if m == nil || m.sequenceRetries == nil {
		return
	}
	outcome := "retry"
	if exhausted {
		outcome = "exhausted"
	}
	m.sequenceRetries.WithLabelValues(outcome).Inc()
}

// InventoryCASRetry records a retried balance update on the named table.
func (m *LogisticsMetrics) InventoryCASRetry(table string) {
	if m == nil || m.casRetries == nil {
		return
	}
	m.casRetries.WithLabelValues(normalizeLabel(table)).Inc()
}

// AllocationConsumed records an allocation flipped to consumed.
func (m *LogisticsMetrics) AllocationConsumed() {
	if m == nil || m.allocations == nil {
		return
	}
	m.allocations.Inc()
}

// SetMirrorDrift sets the number of drifting items for a vehicle location.
func (m *LogisticsMetrics) SetMirrorDrift(locationID string, items int) {
	if m == nil || m.mirrorDrift == nil {
		return
	}
	m.mirrorDrift.WithLabelValues(normalizeLabel(locationID)).Set(float64(items))
}
