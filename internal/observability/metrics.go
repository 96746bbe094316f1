// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Validation metrics
	ValidationEvents *prometheus.CounterVec

	// Identity metrics
	StrategyAliasesResolved *prometheus.CounterVec
	StrategyResolutionFails prometheus.Counter
	TradeKeysRepaired       prometheus.Counter

	// Ledger metrics
	LifecycleEventsAppended *prometheus.CounterVec
	PayloadFieldsSanitized  prometheus.Counter
	LedgerReplaySize        prometheus.Histogram

	// Decision metrics
	DecisionsRecorded *prometheus.CounterVec

	// Ranking metrics
	RankingBatchSize prometheus.Histogram

	// Storage metrics
	StorageErrors    *prometheus.CounterVec
	CorruptLinesRead *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewMetrics creates a new Metrics instance with all metrics registered on reg.
// A nil reg uses a fresh private registry.
func NewMetrics(namespace string, reg *prometheus.Registry) *Metrics {
	if namespace == "" {
		namespace = "options_trade_lab"
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Validation metrics
		ValidationEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "events_total",
			Help:      "Total number of validation events appended by code and severity",
		}, []string{"code", "severity"}),

		// Identity metrics
		StrategyAliasesResolved: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "identity",
			Name:      "strategy_aliases_resolved_total",
			Help:      "Total number of legacy strategy aliases resolved to a canonical id",
		}, []string{"canonical"}),
		StrategyResolutionFails: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "identity",
			Name:      "strategy_resolution_failures_total",
			Help:      "Total number of strategy strings that could not be resolved",
		}),
		TradeKeysRepaired: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "identity",
			Name:      "trade_keys_repaired_total",
			Help:      "Total number of non-canonical trade keys replaced on append",
		}),

		// Ledger metrics
		LifecycleEventsAppended: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "events_appended_total",
			Help:      "Total number of lifecycle events appended by event type",
		}, []string{"event_type"}),
		PayloadFieldsSanitized: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "payload_fields_sanitized_total",
			Help:      "Total number of non-finite payload values replaced with absence",
		}),
		LedgerReplaySize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "replay_events",
			Help:      "Number of events folded per projection read",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),

		// Decision metrics
		DecisionsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decisions",
			Name:      "recorded_total",
			Help:      "Total number of report decisions recorded by type",
		}, []string{"type"}),

		// Ranking metrics
		RankingBatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ranking",
			Name:      "batch_size",
			Help:      "Number of trades per ranking batch",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),

		// Storage metrics
		StorageErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "errors_total",
			Help:      "Total number of storage errors by store and operation",
		}, []string{"store", "operation"}),
		CorruptLinesRead: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "corrupt_lines_skipped_total",
			Help:      "Total number of unparsable log lines skipped on read",
		}, []string{"store"}),

		gatherer: reg,
	}
}

// WriteTextfile writes all metrics in the text exposition format to path,
// for node-exporter's textfile collector after a batch run.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.gatherer)
}

// RecordValidationEvent increments the validation events counter.
func (m *Metrics) RecordValidationEvent(code, severity string) {
	if m == nil {
		return
	}
	m.ValidationEvents.WithLabelValues(code, severity).Inc()
}

// RecordAliasResolved increments the alias counter for a canonical id.
func (m *Metrics) RecordAliasResolved(canonical string) {
	if m == nil {
		return
	}
	m.StrategyAliasesResolved.WithLabelValues(canonical).Inc()
}

// RecordResolutionFailure increments the strategy resolution failure counter.
func (m *Metrics) RecordResolutionFailure() {
	if m == nil {
		return
	}
	m.StrategyResolutionFails.Inc()
}

// RecordKeyRepaired increments the repaired trade key counter.
func (m *Metrics) RecordKeyRepaired() {
	if m == nil {
		return
	}
	m.TradeKeysRepaired.Inc()
}

// RecordLifecycleEvent increments the appended events counter.
func (m *Metrics) RecordLifecycleEvent(eventType string, sanitized int) {
	if m == nil {
		return
	}
	m.LifecycleEventsAppended.WithLabelValues(eventType).Inc()
	if sanitized > 0 {
		m.PayloadFieldsSanitized.Add(float64(sanitized))
	}
}

// ObserveReplay records the size of a replayed event stream.
func (m *Metrics) ObserveReplay(events int) {
	if m == nil {
		return
	}
	m.LedgerReplaySize.Observe(float64(events))
}

// RecordDecision increments the decisions counter.
func (m *Metrics) RecordDecision(decisionType string) {
	if m == nil {
		return
	}
	m.DecisionsRecorded.WithLabelValues(decisionType).Inc()
}

// ObserveRankingBatch records the size of a ranking batch.
func (m *Metrics) ObserveRankingBatch(size int) {
	if m == nil {
		return
	}
	m.RankingBatchSize.Observe(float64(size))
}

// RecordStorageError increments the storage error counter.
func (m *Metrics) RecordStorageError(store, operation string) {
	if m == nil {
		return
	}
	m.StorageErrors.WithLabelValues(store, operation).Inc()
}

// RecordCorruptLine increments the skipped corrupt line counter.
func (m *Metrics) RecordCorruptLine(store string) {
	if m == nil {
		return
	}
	m.CorruptLinesRead.WithLabelValues(store).Inc()
}
