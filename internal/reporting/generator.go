package reporting

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"options-trade-lab/internal/decision"
	"options-trade-lab/internal/domain"
	"options-trade-lab/internal/ranking"
)

// DecisionLister returns the canonical keys rejected for a report. *decision.Store implements it.
type DecisionLister interface {
	RejectedKeys(ctx context.Context, reportFile string) map[string]struct{}
}

// Generator ranks a batch of candidates into a report.
type Generator struct {
	scorer    *ranking.Scorer
	keys      decision.KeyResolver
	decisions DecisionLister
	logger    zerolog.Logger
	now       func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. A nil decisions skips reject filtering.
func NewGenerator(scorer *ranking.Scorer, keys decision.KeyResolver, decisions DecisionLister, logger zerolog.Logger) *Generator {
	return &Generator{
		scorer:    scorer,
		keys:      keys,
		decisions: decisions,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate ranks trades for reportFile.
// Trades already rejected for this report and trades whose strategy cannot be resolved
// are left out and listed. Ranked trades are marked with their score in place.
func (g *Generator) Generate(ctx context.Context, reportFile string, trades []*domain.Trade) *Report {
	rejected := map[string]struct{}{}
	if g.decisions != nil {
		rejected = g.decisions.RejectedKeys(ctx, reportFile)
	}

	r := &Report{
		GeneratedAt: g.now(),
		ReportFile:  reportFile,
		Rows:        []RankedRow{},
		Rejected:    []string{},
		Invalid:     []InvalidInput{},
		Total:       len(trades),
	}

	keys := make(map[*domain.Trade]string, len(trades))
	index := make(map[*domain.Trade]int, len(trades))
	candidates := make([]*domain.Trade, 0, len(trades))
	seenRejected := map[string]struct{}{}

	for i, t := range trades {
		if t == nil {
			r.Invalid = append(r.Invalid, InvalidInput{Index: i, Reason: "empty record"})
			continue
		}
		key, err := g.keys.KeyFor(t)
		if err != nil {
			g.logger.Warn().Err(err).Int("index", i).Msg("Skipping unrankable candidate")
			r.Invalid = append(r.Invalid, InvalidInput{Index: i, Reason: err.Error()})
			continue
		}
		if _, ok := rejected[key]; ok {
			if _, dup := seenRejected[key]; !dup {
				seenRejected[key] = struct{}{}
				r.Rejected = append(r.Rejected, key)
			}
			continue
		}
		keys[t] = key
		index[t] = i
		candidates = append(candidates, t)
	}
	sort.Strings(r.Rejected)

	for rank, t := range g.scorer.Sort(candidates) {
		c := t.RankComponents
		r.Rows = append(r.Rows, RankedRow{
			Rank:       rank + 1,
			TradeKey:   keys[t],
			Underlying: t.Underlying,
			Strategy:   t.StrategyField(),
			Expiration: t.Expiration,
			Score:      *t.RankScore,
			Edge:       c.Edge,
			ROR:        c.ROR,
			POP:        c.POP,
			Liquidity:  c.Liquidity,
			TQS:        c.TQS,
			Penalty:    c.Penalty,
			SpreadPct:  c.Raw.SpreadPct,
			InputIndex: index[t],
		})
	}

	g.logger.Info().
		Str("report", reportFile).
		Int("ranked", len(r.Rows)).
		Int("rejected", len(r.Rejected)).
		Int("invalid", len(r.Invalid)).
		Msg("Generated ranking report")
	return r
}
