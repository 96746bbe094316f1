package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildRollups(t *testing.T) {
	events := []Event{
		{Timestamp: "2026-03-02T10:00:00.000000Z", Severity: SeverityWarn, Code: "STRATEGY_ALIAS_USED", Message: "a"},
		{Timestamp: "2026-03-02T12:00:00.000000Z", Severity: SeverityWarn, Code: "STRATEGY_ALIAS_USED", Message: "b"},
		{Timestamp: "2026-03-02T11:00:00.000000Z", Severity: SeverityWarn, Code: "STRATEGY_ALIAS_USED", Message: "c"},
		{Timestamp: "2026-03-01T09:00:00.000000Z", Severity: SeverityError, Code: "TRADE_KEY_NON_CANONICAL", Message: "d"},
		{Timestamp: "2026-03-03T09:00:00.000000Z", Severity: SeverityInfo, Code: "STARTUP", Message: "e"},
	}

	r := BuildRollups(events)

	assert.Equal(t, 5, r.Total)
	assert.Equal(t, map[string]int{
		"STRATEGY_ALIAS_USED":     3,
		"TRADE_KEY_NON_CANONICAL": 1,
		"STARTUP":                 1,
	}, r.ByCode)
	assert.Equal(t, map[Severity]int{
		SeverityWarn:  3,
		SeverityError: 1,
		SeverityInfo:  1,
	}, r.BySeverity)
	assert.Equal(t, "b", r.LatestByCode["STRATEGY_ALIAS_USED"].Message)
	assert.Equal(t, "d", r.LatestByCode["TRADE_KEY_NON_CANONICAL"].Message)
}

func TestBuildRollups_TiesKeepFirst(t *testing.T) {
	events := []Event{
		{Timestamp: "2026-03-02T10:00:00.000000Z", Code: "X", Message: "first"},
		{Timestamp: "2026-03-02T10:00:00.000000Z", Code: "X", Message: "second"},
	}

	assert.Equal(t, "first", BuildRollups(events).LatestByCode["X"].Message)
}

func TestBuildRollups_LexicographicComparison(t *testing.T) {
	// String comparison, not parsed clocks: a non-padded timestamp sorts by its text.
	events := []Event{
		{Timestamp: "2026-03-02T9:00:00Z", Code: "X", Message: "unpadded"},
		{Timestamp: "2026-03-02T10:00:00Z", Code: "X", Message: "padded"},
	}

	assert.Equal(t, "unpadded", BuildRollups(events).LatestByCode["X"].Message)
}

func TestBuildRollups_Empty(t *testing.T) {
	r := BuildRollups(nil)

	assert.Zero(t, r.Total)
	assert.Empty(t, r.ByCode)
	assert.Empty(t, r.BySeverity)
	assert.Empty(t, r.LatestByCode)
}
