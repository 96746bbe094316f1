// Package tradekey builds the canonical identity of a trade:
// UNDERLYING|EXPIRATION|STRATEGY_ID|SHORT_STRIKE|LONG_STRIKE|DTE.
package tradekey

import (
	"errors"
	"fmt"
	"strings"

	"options-trade-lab/internal/domain"
)

// Separator joins key components.
const Separator = "|"

// componentCount is the arity of a canonical key.
const componentCount = 6

// ErrMalformedKey is returned when a key does not have six components.
var ErrMalformedKey = errors.New("malformed trade key")

// Components are the six parts of a trade key, already normalized.
type Components struct {
	Underlying  string
	Expiration  string
	Strategy    string
	ShortStrike string
	LongStrike  string
	DTE         string
}

// String joins the components into the key form.
func (c Components) String() string {
	return strings.Join([]string{
		c.Underlying,
		c.Expiration,
		c.Strategy,
		c.ShortStrike,
		c.LongStrike,
		c.DTE,
	}, Separator)
}

// Build computes the canonical trade key.
// Formula: UPPER(underlying)|expiration|lower(strategy)|strike(short)|strike(long)|dte
// Missing components render as NA. Equal trades always produce byte-identical keys.
func Build(underlying, expiration, strategy, shortStrike, longStrike, dte any) string {
	return components(underlying, expiration, strategy, shortStrike, longStrike, dte).String()
}

func components(underlying, expiration, strategy, shortStrike, longStrike, dte any) Components {
	return Components{
		Underlying:  strings.ToUpper(text(underlying)),
		Expiration:  text(expiration),
		Strategy:    lowerText(strategy),
		ShortStrike: NormalizeStrike(shortStrike),
		LongStrike:  NormalizeStrike(longStrike),
		DTE:         FormatDTE(dte),
	}
}

// ForTrade computes the key from a trade's identity fields.
// Strike or DTE values that failed to parse as numbers are read from Extra.
func ForTrade(t *domain.Trade) string {
	if t == nil {
		return Build(nil, nil, nil, nil, nil, nil)
	}
	return Build(
		emptyToNil(t.Underlying),
		emptyToNil(t.Expiration),
		emptyToNil(t.StrategyField()),
		numberOrExtra(t.ShortStrike, t.Extra, "short_strike"),
		numberOrExtra(t.LongStrike, t.Extra, "long_strike"),
		numberOrExtra(t.DTE, t.Extra, "dte"),
	)
}

// Parse splits a key into its components and normalizes each of them.
func Parse(key string) (Components, error) {
	parts := strings.Split(strings.TrimSpace(key), Separator)
	if len(parts) != componentCount {
		return Components{}, fmt.Errorf("%w: %q has %d components, want %d", ErrMalformedKey, key, len(parts), componentCount)
	}
	return components(parts[0], parts[1], parts[2], parts[3], parts[4], parts[5]), nil
}

// Canonicalize rebuilds an existing key in canonical form, repairing case and
// numeric formatting. Canonicalize(Canonicalize(k)) == Canonicalize(k).
func Canonicalize(key string) (string, error) {
	c, err := Parse(key)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

// WithStrategy returns the key with its strategy component replaced.
func (c Components) WithStrategy(strategy string) Components {
	c.Strategy = lowerText(strategy)
	return c
}

func lowerText(v any) string {
	s := text(v)
	if s == Placeholder {
		return s
	}
	return strings.ToLower(s)
}

func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func numberOrExtra(p *float64, extra map[string]any, name string) any {
	if p != nil {
		return *p
	}
	if v, ok := extra[name]; ok {
		return v
	}
	return nil
}
