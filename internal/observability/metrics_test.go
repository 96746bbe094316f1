package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordValidationEvent("X", "warn")
		m.RecordAliasResolved("csp")
		m.RecordResolutionFailure()
		m.RecordKeyRepaired()
		m.RecordLifecycleEvent("OPEN", 2)
		m.ObserveReplay(10)
		m.RecordDecision("reject")
		m.ObserveRankingBatch(5)
		m.RecordStorageError("ledger", "append")
		m.RecordCorruptLine("ledger")
	})
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.RecordLifecycleEvent("OPEN", 0)
	m.RecordLifecycleEvent("OPEN", 3)
	m.RecordValidationEvent("STRATEGY_ALIAS_USED", "warn")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LifecycleEventsAppended.WithLabelValues("OPEN")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.PayloadFieldsSanitized))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationEvents.WithLabelValues("STRATEGY_ALIAS_USED", "warn")))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics("", nil)
	m.RecordKeyRepaired()

	path := filepath.Join(t.TempDir(), "tradelab.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "options_trade_lab_identity_trade_keys_repaired_total 1"), string(data))
}
