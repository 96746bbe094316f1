package ranking

import (
	"math"

	"github.com/shopspring/decimal"

	"options-trade-lab/internal/domain"
	"options-trade-lab/internal/observability"
)

// Scorer computes rank scores with a fixed parameter set. Safe for concurrent use.
type Scorer struct {
	params  Params
	metrics *observability.Metrics
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithMetrics attaches Prometheus counters.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Scorer) { s.metrics = m }
}

// NewScorer validates params and builds a scorer.
func NewScorer(params Params, opts ...Option) (*Scorer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	s := &Scorer{params: params}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

var defaultScorer = &Scorer{params: DefaultParams()}

// Params returns the scorer's parameters.
func (s *Scorer) Params() Params {
	return s.params
}

// ComputeRankScore scores t with DefaultParams.
func ComputeRankScore(t *domain.Trade) float64 {
	return defaultScorer.Score(t)
}

// Score returns the rank score of t in [0, 1], rounded to the configured precision.
// Missing or non-finite inputs count as zero. A nil trade scores 0.
func (s *Scorer) Score(t *domain.Trade) float64 {
	score, _ := s.evaluate(t)
	return score
}

// Components returns the normalized features behind the score of t.
func (s *Scorer) Components(t *domain.Trade) domain.RankComponents {
	_, c := s.evaluate(t)
	return c
}

func (s *Scorer) evaluate(t *domain.Trade) (float64, domain.RankComponents) {
	if t == nil {
		return 0, domain.RankComponents{}
	}
	p := s.params

	edgeRaw := rawEdge(t)
	popRaw := rawPOP(t)
	spread := value(t.BidAskSpreadPct)

	c := domain.RankComponents{
		Edge:      normalize(edgeRaw, p.Edge),
		ROR:       normalize(orZero(t.ReturnOnRisk), p.ROR),
		POP:       normalize(popRaw, p.POP),
		Liquidity: s.liquidity(t, spread),
		Raw: domain.RawInputs{
			Edge:      edgeRaw,
			POP:       popRaw,
			SpreadPct: spread,
		},
	}

	w := p.Weights
	sum := w.Edge*c.Edge + w.ROR*c.ROR + w.POP*c.POP + w.Liquidity*c.Liquidity
	total := w.Edge + w.ROR + w.POP + w.Liquidity
	if tqs := value(t.TradeQualityScore); tqs != nil {
		n := normalize(*tqs, p.TQS)
		c.TQS = &n
		sum += w.TQS * n
		total += w.TQS
	}

	score := 0.0
	if total > 0 {
		score = sum / total
	}

	if spread != nil {
		c.Penalty = clamp((*spread - p.Penalty.Start) / p.Penalty.Range)
		score *= 1 - p.Penalty.Weight*c.Penalty
	}

	return round(clamp(score), p.Precision), c
}

func (s *Scorer) liquidity(t *domain.Trade, spread *float64) float64 {
	l := s.params.Liquidity
	oi := clamp(orZero(t.OpenInterest) / l.OpenInterestCap)
	vol := clamp(orZero(t.Volume) / l.VolumeCap)
	tight := 0.0
	if spread != nil {
		tight = clamp(1 - math.Min(*spread/l.SpreadCap, 1))
	}
	return clamp(l.OpenInterestWeight*oi + l.VolumeWeight*vol + l.SpreadWeight*tight)
}

// rawEdge is ev_to_risk, else ev_per_share / max_loss_per_share for a positive loss.
func rawEdge(t *domain.Trade) float64 {
	if v := value(t.EVToRisk); v != nil {
		return *v
	}
	ev, loss := value(t.EVPerShare), value(t.MaxLossPerShare)
	if ev != nil && loss != nil && *loss > 0 {
		return *ev / *loss
	}
	return 0
}

// rawPOP prefers an explicit win probability, then POP, then 1 - |short delta|.
func rawPOP(t *domain.Trade) float64 {
	if v := value(t.PWin); v != nil {
		return *v
	}
	if v := value(t.POP); v != nil {
		return *v
	}
	if v := value(t.ShortDelta); v != nil {
		return 1 - math.Abs(*v)
	}
	return 0
}

func normalize(x float64, b Bounds) float64 {
	return clamp((x - b.Min) / (b.Max - b.Min))
}

// clamp limits x to [0, 1]; NaN becomes 0.
func clamp(x float64) float64 {
	switch {
	case math.IsNaN(x), x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}

func round(x float64, places int32) float64 {
	return decimal.NewFromFloat(x).Round(places).InexactFloat64()
}

// value returns a copy of *p when it is a finite number, nil otherwise.
func value(p *float64) *float64 {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return nil
	}
	v := *p
	return &v
}

func orZero(p *float64) float64 {
	if v := value(p); v != nil {
		return *v
	}
	return 0
}
