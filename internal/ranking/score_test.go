package ranking

import (
	"errors"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-trade-lab/internal/domain"
)

var f = domain.Float

// midTrade sits at the midpoint of every default bound.
func midTrade() *domain.Trade {
	return &domain.Trade{
		Underlying:      "SPY",
		SpreadType:      "put_credit_spread",
		ShortStrike:     f(500),
		LongStrike:      f(495),
		EVToRisk:        f(0.025),
		ReturnOnRisk:    f(0.275),
		PWin:            f(0.725),
		OpenInterest:    f(2500),
		Volume:          f(2500),
		BidAskSpreadPct: f(0.15),
	}
}

// topTrade maxes every feature except spread.
func topTrade(spread float64) *domain.Trade {
	return &domain.Trade{
		Underlying:      "SPY",
		EVToRisk:        f(0.05),
		ReturnOnRisk:    f(0.50),
		PWin:            f(0.95),
		OpenInterest:    f(5000),
		Volume:          f(5000),
		BidAskSpreadPct: f(spread),
	}
}

func TestDefaultParams_Valid(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Params)
	}{
		{"inverted bounds", func(p *Params) { p.Edge = Bounds{Min: 0.05, Max: 0} }},
		{"empty bounds", func(p *Params) { p.TQS = Bounds{Min: 0.4, Max: 0.4} }},
		{"negative weight", func(p *Params) { p.Weights.ROR = -0.1 }},
		{"zero core weights", func(p *Params) { p.Weights = Weights{TQS: 1} }},
		{"nan weight", func(p *Params) { p.Weights.POP = math.NaN() }},
		{"zero cap", func(p *Params) { p.Liquidity.VolumeCap = 0 }},
		{"zero penalty range", func(p *Params) { p.Penalty.Range = 0 }},
		{"penalty weight above one", func(p *Params) { p.Penalty.Weight = 1.5 }},
		{"negative epsilon", func(p *Params) { p.TieEpsilon = -1 }},
		{"precision", func(p *Params) { p.Precision = 20 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			err := p.Validate()
			assert.True(t, errors.Is(err, ErrInvalidParams), "got %v", err)

			_, err = NewScorer(p)
			assert.ErrorIs(t, err, ErrInvalidParams)
		})
	}
}

func TestScore_Midpoint(t *testing.T) {
	tr := midTrade()
	assert.Equal(t, 0.5, ComputeRankScore(tr))

	c := defaultScorer.Components(tr)
	assert.InDelta(t, 0.5, c.Edge, 1e-9)
	assert.InDelta(t, 0.5, c.ROR, 1e-9)
	assert.InDelta(t, 0.5, c.POP, 1e-9)
	assert.InDelta(t, 0.5, c.Liquidity, 1e-9)
	assert.Nil(t, c.TQS)
	assert.Equal(t, 0.0, c.Penalty)
	assert.Equal(t, 0.025, c.Raw.Edge)
	assert.Equal(t, 0.725, c.Raw.POP)
	require.NotNil(t, c.Raw.SpreadPct)
	assert.Equal(t, 0.15, *c.Raw.SpreadPct)
}

func TestScore_TQSRenormalizes(t *testing.T) {
	tr := midTrade()

	tr.TradeQualityScore = f(0.625)
	assert.Equal(t, 0.5, ComputeRankScore(tr))

	tr.TradeQualityScore = f(0.85)
	assert.Equal(t, 0.55, ComputeRankScore(tr))

	c := defaultScorer.Components(tr)
	require.NotNil(t, c.TQS)
	assert.InDelta(t, 1.0, *c.TQS, 1e-9)

	tr.TradeQualityScore = f(math.NaN())
	assert.Equal(t, 0.5, ComputeRankScore(tr))
}

func TestScore_LiquidityPenalty(t *testing.T) {
	tests := []struct {
		spread  float64
		want    float64
		penalty float64
	}{
		{0.0, 1.0, 0},
		{0.30, 0.96, 0},
		{0.65, 0.6, 0.5},
		{1.0, 0.24, 1},
		{3.0, 0.24, 1},
	}

	for _, tt := range tests {
		tr := topTrade(tt.spread)
		assert.InDelta(t, tt.want, ComputeRankScore(tr), 1e-6, "spread %v", tt.spread)
		assert.InDelta(t, tt.penalty, defaultScorer.Components(tr).Penalty, 1e-9, "spread %v", tt.spread)
	}
}

func TestScore_EdgeDerivation(t *testing.T) {
	tests := []struct {
		name string
		tr   *domain.Trade
		want float64
	}{
		{"direct", &domain.Trade{EVToRisk: f(0.03), EVPerShare: f(1), MaxLossPerShare: f(1)}, 0.03},
		{"derived", &domain.Trade{EVPerShare: f(0.1), MaxLossPerShare: f(4)}, 0.025},
		{"zero loss", &domain.Trade{EVPerShare: f(0.1), MaxLossPerShare: f(0)}, 0},
		{"negative loss", &domain.Trade{EVPerShare: f(0.1), MaxLossPerShare: f(-2)}, 0},
		{"missing loss", &domain.Trade{EVPerShare: f(0.1)}, 0},
		{"nan direct falls back", &domain.Trade{EVToRisk: f(math.NaN()), EVPerShare: f(0.2), MaxLossPerShare: f(4)}, 0.05},
		{"none", &domain.Trade{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, defaultScorer.Components(tt.tr).Raw.Edge, 1e-12)
		})
	}
}

func TestScore_POPFallbacks(t *testing.T) {
	tests := []struct {
		name string
		tr   *domain.Trade
		want float64
	}{
		{"win probability first", &domain.Trade{PWin: f(0.6), POP: f(0.9), ShortDelta: f(0.1)}, 0.6},
		{"pop second", &domain.Trade{POP: f(0.9), ShortDelta: f(0.3)}, 0.9},
		{"delta approximation", &domain.Trade{ShortDelta: f(-0.275)}, 0.725},
		{"none", &domain.Trade{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, defaultScorer.Components(tt.tr).Raw.POP, 1e-12)
		})
	}
}

func TestScore_NeverFails(t *testing.T) {
	inf := math.Inf(1)
	tests := []*domain.Trade{
		nil,
		{},
		{EVToRisk: f(math.NaN()), ReturnOnRisk: f(inf), PWin: f(-inf), OpenInterest: f(math.NaN()), BidAskSpreadPct: f(inf)},
		{EVToRisk: f(-5), ReturnOnRisk: f(-1), PWin: f(-1), OpenInterest: f(-100), Volume: f(-1), BidAskSpreadPct: f(-0.5)},
		{EVToRisk: f(100), ReturnOnRisk: f(100), PWin: f(2), OpenInterest: f(1e12), Volume: f(1e12), TradeQualityScore: f(9)},
	}

	for i, tr := range tests {
		score := ComputeRankScore(tr)
		assert.False(t, math.IsNaN(score), "case %d", i)
		assert.GreaterOrEqual(t, score, 0.0, "case %d", i)
		assert.LessOrEqual(t, score, 1.0, "case %d", i)
	}
	assert.Equal(t, 0.0, ComputeRankScore(nil))
	assert.Equal(t, 0.0, ComputeRankScore(&domain.Trade{}))
}

func TestScore_Rounded(t *testing.T) {
	tr := &domain.Trade{EVToRisk: f(0.0123456789)}
	score := ComputeRankScore(tr)
	assert.Equal(t, score, math.Round(score*1e6)/1e6)

	p := DefaultParams()
	p.Precision = 2
	s, err := NewScorer(p)
	require.NoError(t, err)
	assert.Equal(t, 0.08, s.Score(tr))
}

// Property: improving one feature inside its bounds strictly raises the score.
func TestScore_StrictSuperiority(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	base := func(edge, ror, pop, oi, spread float64) *domain.Trade {
		return &domain.Trade{
			EVToRisk:        f(edge),
			ReturnOnRisk:    f(ror),
			PWin:            f(pop),
			OpenInterest:    f(oi),
			Volume:          f(1000),
			BidAskSpreadPct: f(spread),
		}
	}

	properties.Property("edge", prop.ForAll(
		func(lo, step, ror, pop, spread float64) bool {
			a := base(lo, ror, pop, 1000, spread)
			b := base(lo+step, ror, pop, 1000, spread)
			return ComputeRankScore(b) > ComputeRankScore(a)
		},
		gen.Float64Range(0, 0.045),
		gen.Float64Range(0.001, 0.005),
		gen.Float64Range(0, 1),
		gen.Float64Range(0, 1),
		gen.Float64Range(0, 1),
	))

	properties.Property("return on risk", prop.ForAll(
		func(lo, step, edge, spread float64) bool {
			a := base(edge, lo, 0.7, 1000, spread)
			b := base(edge, lo+step, 0.7, 1000, spread)
			return ComputeRankScore(b) > ComputeRankScore(a)
		},
		gen.Float64Range(0.05, 0.45),
		gen.Float64Range(0.01, 0.05),
		gen.Float64Range(0, 0.1),
		gen.Float64Range(0, 1),
	))

	properties.Property("probability of profit", prop.ForAll(
		func(lo, step, edge float64) bool {
			a := base(edge, 0.2, lo, 1000, 0.1)
			b := base(edge, 0.2, lo+step, 1000, 0.1)
			return ComputeRankScore(b) > ComputeRankScore(a)
		},
		gen.Float64Range(0.5, 0.9),
		gen.Float64Range(0.01, 0.05),
		gen.Float64Range(0, 0.1),
	))

	properties.Property("open interest", prop.ForAll(
		func(lo, step float64) bool {
			a := base(0.02, 0.2, 0.7, lo, 0.1)
			b := base(0.02, 0.2, 0.7, lo+step, 0.1)
			return ComputeRankScore(b) > ComputeRankScore(a)
		},
		gen.Float64Range(0, 4500),
		gen.Float64Range(50, 500),
	))

	properties.TestingRun(t)
}
