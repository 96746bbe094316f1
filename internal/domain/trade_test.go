package domain

import (
	"encoding/json"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrade_UnmarshalAliases(t *testing.T) {
	var tr Trade
	require.NoError(t, json.Unmarshal([]byte(`{
		"underlying_symbol": " spy ",
		"expiry": "2026-03-20",
		"strategy_id": "pcs",
		"strike_short": "500.0",
		"strike_long": 495,
		"days_to_expiry": 18,
		"oi": 1200,
		"spread_pct": 0.08,
		"desk": "alpha"
	}`), &tr))

	assert.Equal(t, "spy", tr.Underlying)
	assert.Equal(t, "2026-03-20", tr.Expiration)
	assert.Equal(t, "pcs", tr.Strategy)
	assert.Equal(t, "pcs", tr.StrategyField())
	require.NotNil(t, tr.ShortStrike)
	assert.Equal(t, 500.0, *tr.ShortStrike)
	assert.Equal(t, 495.0, *tr.LongStrike)
	assert.Equal(t, 18.0, *tr.DTE)
	assert.Equal(t, 1200.0, *tr.OpenInterest)
	assert.Equal(t, 0.08, *tr.BidAskSpreadPct)
	assert.Equal(t, map[string]any{"desk": "alpha"}, tr.Extra)
}

func TestTrade_UnmarshalKeepsUnparsable(t *testing.T) {
	var tr Trade
	require.NoError(t, json.Unmarshal([]byte(`{"underlying":"SPY","short_strike":"wide","pop":null}`), &tr))

	assert.Nil(t, tr.ShortStrike)
	assert.Nil(t, tr.POP)
	assert.Equal(t, "wide", tr.Extra["short_strike"])
}

func TestTrade_SpreadTypeWins(t *testing.T) {
	tr := Trade{SpreadType: "iron_condor", Strategy: "condor"}
	assert.Equal(t, "iron_condor", tr.StrategyField())
	assert.Equal(t, FamilyMultiLeg, tr.Family())
}

func TestTrade_MarshalRoundTrip(t *testing.T) {
	tr := Trade{
		Underlying:  "SPY",
		Expiration:  "2026-03-20",
		SpreadType:  "put_credit_spread",
		ShortStrike: Float(500),
		Extra:       map[string]any{"desk": "alpha"},
	}
	data, err := json.Marshal(tr)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(data, &wire))
	assert.Equal(t, map[string]any{
		"underlying":   "SPY",
		"expiration":   "2026-03-20",
		"spread_type":  "put_credit_spread",
		"short_strike": 500.0,
		"desk":         "alpha",
	}, wire)
}

func TestTrade_Sanitize(t *testing.T) {
	tr := Trade{
		Underlying: "SPY",
		EVToRisk:   Float(math.NaN()),
		POP:        Float(0.7),
		RankComponents: &RankComponents{
			TQS: Float(math.Inf(1)),
		},
		Extra: map[string]any{
			"greeks": map[string]any{"vega": math.Inf(-1), "theta": -0.02},
			"path":   []any{1.0, math.NaN()},
		},
	}

	paths := tr.Sanitize()
	assert.Equal(t, []string{"ev_to_risk", "greeks.vega", "path[1]", "rank_components.tqs"}, paths)
	assert.Nil(t, tr.EVToRisk)
	assert.Equal(t, 0.7, *tr.POP)
	assert.Nil(t, tr.RankComponents.TQS)
	assert.Nil(t, tr.Extra["greeks"].(map[string]any)["vega"])
	assert.Equal(t, -0.02, tr.Extra["greeks"].(map[string]any)["theta"])

	_, err := json.Marshal(tr)
	assert.NoError(t, err)

	assert.Empty(t, tr.Sanitize())
}

func TestTrade_CloneIsDeep(t *testing.T) {
	orig := &Trade{Underlying: "SPY", POP: Float(0.7), Extra: map[string]any{"desk": "alpha"}}
	c := orig.Clone()

	*c.POP = 0.1
	c.Extra["desk"] = "beta"
	c.Underlying = "QQQ"

	assert.Equal(t, 0.7, *orig.POP)
	assert.Equal(t, "alpha", orig.Extra["desk"])
	assert.Equal(t, "SPY", orig.Underlying)
	assert.Nil(t, (*Trade)(nil).Clone())
}

func TestTrade_CloneCopiesNestedExtra(t *testing.T) {
	greeks := map[string]any{"vega": math.Inf(1)}
	path := []any{1.0, math.NaN()}
	orig := &Trade{
		Underlying:     "SPY",
		RankComponents: &RankComponents{TQS: Float(0.4)},
		Extra:          map[string]any{"greeks": greeks, "path": path},
	}

	c := orig.Clone()
	assert.Equal(t, []string{"greeks.vega", "path[1]"}, c.Sanitize())
	*c.RankComponents.TQS = 0.9

	assert.True(t, math.IsInf(greeks["vega"].(float64), 1))
	assert.True(t, math.IsNaN(path[1].(float64)))
	assert.Equal(t, 0.4, *orig.RankComponents.TQS)
}

func TestTrade_SanitizeRankComponents(t *testing.T) {
	tr := Trade{
		Underlying: "SPY",
		RankComponents: &RankComponents{
			Edge: math.NaN(),
			POP:  0.6,
			Raw:  RawInputs{Edge: math.Inf(1), SpreadPct: Float(math.NaN())},
		},
	}

	paths := tr.Sanitize()
	assert.Equal(t, []string{"rank_components.edge", "rank_components.raw.edge", "rank_components.raw.spread_pct"}, paths)
	assert.Nil(t, tr.RankComponents)

	_, err := json.Marshal(tr)
	assert.NoError(t, err)
}

func TestTrade_SanitizeTypedContainers(t *testing.T) {
	tr := Trade{
		Underlying: "SPY",
		Extra: map[string]any{
			"greeks":  map[string]float64{"vega": math.Inf(1), "delta": -0.3},
			"weights": []float32{0.5, float32(math.NaN())},
			"nested":  map[string][]float64{"iv": {0.2, math.Inf(-1)}},
			"count":   3,
		},
	}

	paths := tr.Sanitize()
	assert.Equal(t, []string{"greeks.vega", "nested.iv[1]", "weights[1]"}, paths)
	assert.Equal(t, map[string]any{"vega": nil, "delta": -0.3}, tr.Extra["greeks"])
	assert.Equal(t, 3, tr.Extra["count"])

	_, err := json.Marshal(tr)
	assert.NoError(t, err)
}

func TestTrade_Merge(t *testing.T) {
	base := &Trade{Underlying: "SPY", Strategy: "csp", POP: Float(0.7), Extra: map[string]any{"a": 1}}
	later := &Trade{POP: Float(0.8), RealizedPnL: Float(12), Extra: map[string]any{"b": 2}}

	m := base.Merge(later)
	assert.Equal(t, "SPY", m.Underlying)
	assert.Equal(t, "csp", m.Strategy)
	assert.Equal(t, 0.8, *m.POP)
	assert.Equal(t, 12.0, *m.RealizedPnL)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, m.Extra)

	assert.Equal(t, 0.7, *base.POP, "inputs are not modified")
	assert.NotContains(t, base.Extra, "b")

	assert.Equal(t, "SPY", base.Merge(nil).Underlying)
	assert.Equal(t, 0.8, *(*Trade)(nil).Merge(later).POP)
}

func TestHasIdentity(t *testing.T) {
	assert.True(t, (&Trade{Underlying: "SPY"}).HasIdentity())
	assert.False(t, (&Trade{Strategy: "csp"}).HasIdentity())
	assert.False(t, (*Trade)(nil).HasIdentity())
}

func TestStrategyID(t *testing.T) {
	assert.True(t, StrategyCSP.IsCanonical())
	assert.False(t, StrategyID("pcs").IsCanonical())
	assert.Equal(t, FamilyCalendar, StrategyCalendarPutSpread.Family())
	assert.Equal(t, FamilyUnknown, StrategyID("strangle").Family())

	ids := CanonicalStrategyIDs()
	assert.Len(t, ids, 13)
	assert.True(t, slices.IsSorted(ids))
}

func TestFormatTimestamp(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	got := FormatTimestamp(time.Date(2026, 3, 2, 9, 30, 0, 1500, est))
	assert.Equal(t, "2026-03-02T14:30:00.000001Z", got)
	assert.Len(t, FormatTimestamp(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)), len(TimestampLayout))
}
