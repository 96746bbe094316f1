package domain

// Trade is one options trade candidate as produced by scanners, manual entry or the
// workbench. It is the ranking input and the lifecycle payload.
// Numeric fields are nil when absent. Unknown keys survive in Extra.
type Trade struct {
	// Identity
	Underlying  string   // ticker, any case on input
	Expiration  string   // YYYY-MM-DD as provided
	SpreadType  string   // strategy id, preferred over Strategy
	Strategy    string   // legacy strategy field
	ShortStrike *float64 // sold leg (or the only leg)
	LongStrike  *float64 // bought leg, nil for single-leg trades
	DTE         *float64 // days to expiration

	// Economics
	EVToRisk          *float64 // expected value / max loss
	EVPerShare        *float64
	MaxLossPerShare   *float64
	ReturnOnRisk      *float64 // credit / max loss
	PWin              *float64 // explicit win probability used by the generator
	POP               *float64 // probability of profit
	ShortDelta        *float64 // short leg delta, abs value approximates 1 - POP
	OpenInterest      *float64
	Volume            *float64
	BidAskSpreadPct   *float64 // (ask - bid) / mid
	TradeQualityScore *float64 // optional 0..1 quality estimate

	// Lifecycle
	RealizedPnL *float64 // set on CLOSE payloads

	// Ranking output
	RankScore      *float64
	RankComponents *RankComponents

	Extra map[string]any // everything the typed fields do not cover
}

// RankComponents holds the normalized ranking features of a trade.
type RankComponents struct {
	Edge      float64   `json:"edge"`
	ROR       float64   `json:"ror"`
	POP       float64   `json:"pop"`
	Liquidity float64   `json:"liquidity"`
	TQS       *float64  `json:"tqs,omitempty"`
	Penalty   float64   `json:"liquidity_penalty"`
	Raw       RawInputs `json:"raw"`
}

// RawInputs are the un-normalized values the components were derived from.
type RawInputs struct {
	Edge      float64  `json:"edge"`
	POP       float64  `json:"pop"`
	SpreadPct *float64 `json:"spread_pct,omitempty"`
}

// StrategyField returns the strategy identifier carried by the trade.
// SpreadType wins over Strategy when both are set.
func (t *Trade) StrategyField() string {
	if t.SpreadType != "" {
		return t.SpreadType
	}
	return t.Strategy
}

// Family returns the strategy family tag of the trade.
func (t *Trade) Family() StrategyFamily {
	return StrategyID(t.StrategyField()).Family()
}

// HasIdentity reports whether the trade carries enough identity to derive a key.
func (t *Trade) HasIdentity() bool {
	return t != nil && t.Underlying != ""
}

// Clone returns a copy that shares no mutable state with t.
func (t *Trade) Clone() *Trade {
	if t == nil {
		return nil
	}
	c := *t
	for _, f := range numericFields {
		if p := *f.ptr(t); p != nil {
			v := *p
			*f.ptr(&c) = &v
		}
	}
	if t.RankComponents != nil {
		rc := *t.RankComponents
		rc.TQS = copyFloat(rc.TQS)
		rc.Raw.SpreadPct = copyFloat(rc.Raw.SpreadPct)
		c.RankComponents = &rc
	}
	if t.Extra != nil {
		c.Extra = make(map[string]any, len(t.Extra))
		for k, v := range t.Extra {
			c.Extra[k] = deepCopy(v)
		}
	}
	return &c
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// deepCopy copies the JSON-shaped containers inside Extra.
func deepCopy(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, inner := range x {
			out[k] = deepCopy(inner)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, inner := range x {
			out[i] = deepCopy(inner)
		}
		return out
	case []float64:
		return append([]float64(nil), x...)
	}
	return v
}

// Merge returns t overlaid with later: set fields of later win, Extra keys are
// replaced wholesale. Neither input is modified.
func (t *Trade) Merge(later *Trade) *Trade {
	out := t.Clone()
	if out == nil {
		out = &Trade{}
	}
	if later == nil {
		return out
	}
	for _, f := range stringFields {
		if v := *f.ptr(later); v != "" {
			*f.ptr(out) = v
		}
	}
	for _, f := range numericFields {
		if p := *f.ptr(later); p != nil {
			v := *p
			*f.ptr(out) = &v
		}
	}
	if later.RankComponents != nil {
		rc := *later.RankComponents
		out.RankComponents = &rc
	}
	if len(later.Extra) > 0 {
		if out.Extra == nil {
			out.Extra = make(map[string]any, len(later.Extra))
		}
		for k, v := range later.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Float returns a pointer to v. Handy for literals.
func Float(v float64) *float64 {
	return &v
}
