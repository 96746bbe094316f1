package validation

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-trade-lab/internal/observability"
	"options-trade-lab/internal/storage/memory"
)

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2026, 3, 2, 14, 30, 0, 123456000, time.UTC)
	}
}

func TestSink_AppendEvent_Normalizes(t *testing.T) {
	log := memory.NewLineLog()
	sink := NewSink(log, zerolog.Nop(), WithClock(fixedClock()))
	ctx := context.Background()

	tests := []struct {
		severity Severity
		code     string
		wantSev  Severity
		wantCode string
	}{
		{"warn", "strategy_alias_used", SeverityWarn, "STRATEGY_ALIAS_USED"},
		{"ERROR", "x", SeverityError, "X"},
		{"loud", "", SeverityWarn, DefaultCode},
		{"info", "  note ", SeverityWarn, "NOTE"},
	}

	for _, tt := range tests {
		ev, err := sink.AppendEvent(ctx, tt.severity, tt.code, "m", nil)
		require.NoError(t, err)
		assert.Equal(t, tt.wantSev, ev.Severity)
		assert.Equal(t, tt.wantCode, ev.Code)
		assert.Equal(t, "2026-03-02T14:30:00.123456Z", ev.Timestamp)
		assert.NotNil(t, ev.Context)
	}

	assert.Equal(t, len(tests), log.Len())
}

func TestSink_AppendInfo(t *testing.T) {
	sink := NewSink(memory.NewLineLog(), zerolog.Nop())

	ev, err := sink.AppendInfo(context.Background(), "startup", "sink ready", map[string]any{"root": "data"})
	require.NoError(t, err)
	assert.Equal(t, SeverityInfo, ev.Severity)
	assert.Equal(t, "STARTUP", ev.Code)
}

func TestSink_ReadRecent(t *testing.T) {
	log := memory.NewLineLog()
	sink := NewSink(log, zerolog.Nop())
	ctx := context.Background()

	for _, code := range []string{"A", "B", "C", "D"} {
		_, err := sink.AppendEvent(ctx, SeverityWarn, code, "", map[string]any{"code": code})
		require.NoError(t, err)
	}

	recent := sink.ReadRecent(ctx, 2)
	require.Len(t, recent, 2)
	assert.Equal(t, "C", recent[0].Code)
	assert.Equal(t, "D", recent[1].Code)
	assert.Equal(t, "D", recent[1].Context["code"])

	assert.Len(t, sink.ReadRecent(ctx, 0), 4)
	assert.Len(t, sink.ReadRecent(ctx, 100), 4)
}

func TestSink_ReadRecent_SkipsCorruptLines(t *testing.T) {
	log := memory.NewLineLog()
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics("test", reg)
	sink := NewSink(log, zerolog.Nop(), WithMetrics(metrics))
	ctx := context.Background()

	_, err := sink.AppendEvent(ctx, SeverityWarn, "FIRST", "", nil)
	require.NoError(t, err)
	log.AppendRaw([]byte(`{"ts":"2026-03-02T`))
	log.AppendRaw([]byte(`not json`))
	_, err = sink.AppendEvent(ctx, SeverityError, "LAST", "", nil)
	require.NoError(t, err)

	events := sink.ReadRecent(ctx, 0)
	require.Len(t, events, 2)
	assert.Equal(t, "FIRST", events[0].Code)
	assert.Equal(t, "LAST", events[1].Code)

	// The window is taken over raw lines, corrupt ones are then dropped.
	assert.Len(t, sink.ReadRecent(ctx, 3), 1)

	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.CorruptLinesRead.WithLabelValues("validation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ValidationEvents.WithLabelValues("LAST", "error")))
}

func TestFileSink_AppendOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "validation_events.jsonl")
	sink := NewFileSink(path, zerolog.Nop(), WithClock(fixedClock()))
	ctx := context.Background()

	_, err := sink.AppendEvent(ctx, SeverityWarn, "ONE", "first", nil)
	require.NoError(t, err)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = sink.AppendEvent(ctx, SeverityWarn, "TWO", "second", nil)
	require.NoError(t, err)
	after, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, string(before), string(after[:len(before)]), "prior lines must never be rewritten")
	assert.Equal(t,
		`{"ts":"2026-03-02T14:30:00.123456Z","severity":"warn","code":"ONE","message":"first","context":{}}`+"\n",
		string(before))
}

func TestFileSink_MissingFileReadsEmpty(t *testing.T) {
	sink := NewFileSink(filepath.Join(t.TempDir(), "absent.jsonl"), zerolog.Nop())

	events := sink.ReadRecent(context.Background(), 10)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestSink_ConcurrentAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "validation_events.jsonl")
	sink := NewFileSink(path, zerolog.Nop())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_, err := sink.AppendEvent(ctx, SeverityWarn, "CONCURRENT", "", map[string]any{"j": j})
				assert.NoError(t, err)
				sink.ReadRecent(ctx, 5)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, sink.ReadRecent(ctx, 0), 200)
}

func TestSink_ConcurrentAppendsKeepTimestampOrder(t *testing.T) {
	base := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)
	tick := 0
	clock := func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Microsecond)
	}
	sink := NewSink(memory.NewLineLog(), zerolog.Nop(), WithClock(clock))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_, err := sink.AppendEvent(ctx, SeverityWarn, "ORDERED", "", nil)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	events := sink.ReadRecent(ctx, 0)
	require.Len(t, events, 200)
	stamps := make([]string, len(events))
	for i, e := range events {
		stamps[i] = e.Timestamp
	}
	assert.True(t, slices.IsSorted(stamps), "log order must follow timestamp order")
}

func TestDiscard(t *testing.T) {
	ev, err := Discard.AppendEvent(context.Background(), "bogus", "x", "m", nil)
	require.NoError(t, err)
	assert.Equal(t, SeverityWarn, ev.Severity)
	assert.Equal(t, "X", ev.Code)
}
