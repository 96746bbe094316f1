// Package ranking scores and orders trade candidates by risk-adjusted edge.
// Scoring is pure: the same trade and parameters always give the same score.
package ranking

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParams is returned by Params.Validate.
var ErrInvalidParams = errors.New("invalid ranking params")

// Bounds is the [Min, Max] range a raw feature is min-max normalized over.
type Bounds struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Weights of the score components. TQS only counts when the trade has a quality score;
// the used weights are renormalized by their sum.
type Weights struct {
	Edge      float64 `yaml:"edge" json:"edge"`
	ROR       float64 `yaml:"ror" json:"ror"`
	POP       float64 `yaml:"pop" json:"pop"`
	Liquidity float64 `yaml:"liquidity" json:"liquidity"`
	TQS       float64 `yaml:"tqs" json:"tqs"`
}

// Liquidity blends open interest, volume and bid/ask tightness.
type Liquidity struct {
	OpenInterestCap    float64 `yaml:"open_interest_cap" json:"open_interest_cap"`
	VolumeCap          float64 `yaml:"volume_cap" json:"volume_cap"`
	SpreadCap          float64 `yaml:"spread_cap" json:"spread_cap"`
	OpenInterestWeight float64 `yaml:"open_interest_weight" json:"open_interest_weight"`
	VolumeWeight       float64 `yaml:"volume_weight" json:"volume_weight"`
	SpreadWeight       float64 `yaml:"spread_weight" json:"spread_weight"`
}

// Penalty scales the score down for wide markets:
// penalty = clamp((spread - Start) / Range), score *= 1 - Weight*penalty.
type Penalty struct {
	Start  float64 `yaml:"start" json:"start"`
	Range  float64 `yaml:"range" json:"range"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// Params holds every tunable of the scorer.
type Params struct {
	Edge      Bounds    `yaml:"edge" json:"edge"`
	ROR       Bounds    `yaml:"ror" json:"ror"`
	POP       Bounds    `yaml:"pop" json:"pop"`
	TQS       Bounds    `yaml:"tqs" json:"tqs"`
	Weights   Weights   `yaml:"weights" json:"weights"`
	Liquidity Liquidity `yaml:"liquidity" json:"liquidity"`
	Penalty   Penalty   `yaml:"penalty" json:"penalty"`

	TieEpsilon float64 `yaml:"tie_epsilon" json:"tie_epsilon"` // scores closer than this tie
	Precision  int32   `yaml:"precision" json:"precision"`     // decimal places of the final score
}

// DefaultParams returns the tuned defaults for US equity options.
func DefaultParams() Params {
	return Params{
		Edge: Bounds{Min: 0.00, Max: 0.05},
		ROR:  Bounds{Min: 0.05, Max: 0.50},
		POP:  Bounds{Min: 0.50, Max: 0.95},
		TQS:  Bounds{Min: 0.40, Max: 0.85},
		Weights: Weights{
			Edge:      0.30,
			ROR:       0.22,
			POP:       0.20,
			Liquidity: 0.18,
			TQS:       0.10,
		},
		Liquidity: Liquidity{
			OpenInterestCap:    5000,
			VolumeCap:          5000,
			SpreadCap:          0.30,
			OpenInterestWeight: 0.45,
			VolumeWeight:       0.35,
			SpreadWeight:       0.20,
		},
		Penalty: Penalty{
			Start:  0.30,
			Range:  0.70,
			Weight: 0.75,
		},
		TieEpsilon: 1e-9,
		Precision:  6,
	}
}

// Validate checks that every bound is ordered and every weight usable.
func (p Params) Validate() error {
	var errs []error

	bounds := []struct {
		name string
		b    Bounds
	}{
		{"edge", p.Edge},
		{"ror", p.ROR},
		{"pop", p.POP},
		{"tqs", p.TQS},
	}
	for _, nb := range bounds {
		if !finite(nb.b.Min, nb.b.Max) || nb.b.Max <= nb.b.Min {
			errs = append(errs, fmt.Errorf("%s bounds [%v, %v] must satisfy min < max", nb.name, nb.b.Min, nb.b.Max))
		}
	}

	w := p.Weights
	if !nonNegative(w.Edge, w.ROR, w.POP, w.Liquidity, w.TQS) {
		errs = append(errs, errors.New("weights must be finite and non-negative"))
	} else if w.Edge+w.ROR+w.POP+w.Liquidity == 0 {
		errs = append(errs, errors.New("edge, ror, pop and liquidity weights must not all be zero"))
	}

	l := p.Liquidity
	if !finite(l.OpenInterestCap, l.VolumeCap, l.SpreadCap) || l.OpenInterestCap <= 0 || l.VolumeCap <= 0 || l.SpreadCap <= 0 {
		errs = append(errs, errors.New("liquidity caps must be positive"))
	}
	if !nonNegative(l.OpenInterestWeight, l.VolumeWeight, l.SpreadWeight) {
		errs = append(errs, errors.New("liquidity weights must be finite and non-negative"))
	}

	if !finite(p.Penalty.Start) || !finite(p.Penalty.Range) || p.Penalty.Range <= 0 {
		errs = append(errs, errors.New("penalty range must be positive"))
	}
	if !finite(p.Penalty.Weight) || p.Penalty.Weight < 0 || p.Penalty.Weight > 1 {
		errs = append(errs, errors.New("penalty weight must be within [0, 1]"))
	}

	if !finite(p.TieEpsilon) || p.TieEpsilon < 0 {
		errs = append(errs, errors.New("tie epsilon must be non-negative"))
	}
	if p.Precision < 0 || p.Precision > 12 {
		errs = append(errs, fmt.Errorf("precision %d must be within [0, 12]", p.Precision))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidParams, errors.Join(errs...))
	}
	return nil
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func nonNegative(vals ...float64) bool {
	for _, v := range vals {
		if !finite(v) || v < 0 {
			return false
		}
	}
	return true
}
