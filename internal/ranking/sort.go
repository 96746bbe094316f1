package ranking

import (
	"math"
	"sort"
	"strings"

	"options-trade-lab/internal/domain"
	"options-trade-lab/internal/tradekey"
)

// SortTradesByRank ranks trades with DefaultParams.
func SortTradesByRank(trades []*domain.Trade) []*domain.Trade {
	return defaultScorer.Sort(trades)
}

// Sort sets RankScore and RankComponents on every trade in place and returns a new
// slice ordered by score, highest first. Nil entries are dropped.
//
// Scores closer than TieEpsilon are ordered by the tuple
// (edge, pop, -spread_pct, open_interest, underlying, short_strike, long_strike),
// larger first, then by trade key. Absent tuple values sort last.
func (s *Scorer) Sort(trades []*domain.Trade) []*domain.Trade {
	out := make([]*domain.Trade, 0, len(trades))
	for _, t := range trades {
		if t == nil {
			continue
		}
		score, c := s.evaluate(t)
		t.RankScore = &score
		t.RankComponents = &c
		out = append(out, t)
	}
	s.metrics.ObserveRankingBatch(len(out))

	ranked := make([]rankedTrade, len(out))
	for i, t := range out {
		ranked[i] = newRankedTrade(t)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return s.compare(&ranked[i], &ranked[j]) < 0
	})

	for i := range ranked {
		out[i] = ranked[i].trade
	}
	return out
}

// rankedTrade caches the sort tuple of a scored trade.
type rankedTrade struct {
	trade       *domain.Trade
	score       float64
	edge        float64
	pop         float64
	negSpread   float64
	oi          float64
	underlying  string
	shortStrike float64
	longStrike  float64
	key         string
}

func newRankedTrade(t *domain.Trade) rankedTrade {
	r := rankedTrade{
		trade:       t,
		score:       *t.RankScore,
		edge:        t.RankComponents.Raw.Edge,
		pop:         t.RankComponents.Raw.POP,
		negSpread:   math.Inf(-1),
		oi:          orMissing(t.OpenInterest),
		underlying:  strings.ToUpper(t.Underlying),
		shortStrike: orMissing(t.ShortStrike),
		longStrike:  orMissing(t.LongStrike),
		key:         tradekey.ForTrade(t),
	}
	if sp := t.RankComponents.Raw.SpreadPct; sp != nil {
		r.negSpread = -*sp
	}
	return r
}

// compare returns:
//   - negative if a ranks before b
//   - zero if a and b are indistinguishable
//   - positive if a ranks after b
func (s *Scorer) compare(a, b *rankedTrade) int {
	if math.Abs(a.score-b.score) >= s.params.TieEpsilon {
		return descending(a.score, b.score)
	}
	if c := descending(a.edge, b.edge); c != 0 {
		return c
	}
	if c := descending(a.pop, b.pop); c != 0 {
		return c
	}
	if c := descending(a.negSpread, b.negSpread); c != 0 {
		return c
	}
	if c := descending(a.oi, b.oi); c != 0 {
		return c
	}
	if c := strings.Compare(b.underlying, a.underlying); c != 0 {
		return c
	}
	if c := descending(a.shortStrike, b.shortStrike); c != 0 {
		return c
	}
	if c := descending(a.longStrike, b.longStrike); c != 0 {
		return c
	}
	return strings.Compare(a.key, b.key)
}

func descending(a, b float64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	}
	return 0
}

func orMissing(p *float64) float64 {
	if v := value(p); v != nil {
		return *v
	}
	return math.Inf(-1)
}
