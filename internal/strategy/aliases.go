package strategy

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"options-trade-lab/internal/domain"
)

// ErrAliasClosure is returned when the alias table points outside the canonical set.
// It indicates a programming error and is fatal at startup.
var ErrAliasClosure = errors.New("strategy alias table is not closed over canonical ids")

// defaultAliases maps legacy and shorthand strategy strings onto canonical ids.
// Keys are lowercase and trimmed; the table is never modified after init.
var defaultAliases = map[string]domain.StrategyID{
	// put credit spread
	"credit_put_spread": domain.StrategyPutCreditSpread,
	"put_credit":        domain.StrategyPutCreditSpread,
	"put_spread_credit": domain.StrategyPutCreditSpread,
	"bull_put_spread":   domain.StrategyPutCreditSpread,
	"short_put_spread":  domain.StrategyPutCreditSpread,
	"pcs":               domain.StrategyPutCreditSpread,

	// call credit spread
	"credit_call_spread": domain.StrategyCallCreditSpread,
	"call_credit":        domain.StrategyCallCreditSpread,
	"bear_call_spread":   domain.StrategyCallCreditSpread,
	"short_call_spread":  domain.StrategyCallCreditSpread,
	"ccs":                domain.StrategyCallCreditSpread,

	// debit verticals
	"debit_put_spread":  domain.StrategyPutDebitSpread,
	"put_debit":         domain.StrategyPutDebitSpread,
	"bear_put_spread":   domain.StrategyPutDebitSpread,
	"debit_call_spread": domain.StrategyCallDebitSpread,
	"call_debit":        domain.StrategyCallDebitSpread,
	"bull_call_spread":  domain.StrategyCallDebitSpread,

	// multi-leg
	"condor":         domain.StrategyIronCondor,
	"ic":             domain.StrategyIronCondor,
	"iron_condors":   domain.StrategyIronCondor,
	"iron_fly":       domain.StrategyIronButterfly,
	"ironfly":        domain.StrategyIronButterfly,
	"butterfly":      domain.StrategyButterflyDebit,
	"long_butterfly": domain.StrategyButterflyDebit,

	// calendars
	"calendar":        domain.StrategyCalendarCallSpread,
	"calendar_spread": domain.StrategyCalendarCallSpread,
	"calendar_call":   domain.StrategyCalendarCallSpread,
	"call_calendar":   domain.StrategyCalendarCallSpread,
	"calendar_put":    domain.StrategyCalendarPutSpread,
	"put_calendar":    domain.StrategyCalendarPutSpread,

	// single leg
	"cash_secured_put":  domain.StrategyCSP,
	"cash_secured_puts": domain.StrategyCSP,
	"short_put":         domain.StrategyCSP,
	"covered_calls":     domain.StrategyCoveredCall,
	"buy_write":         domain.StrategyCoveredCall,
	"call":              domain.StrategyLongCall,
	"put":               domain.StrategyLongPut,
}

// DefaultAliases returns a copy of the built-in alias table.
func DefaultAliases() map[string]domain.StrategyID {
	out := make(map[string]domain.StrategyID, len(defaultAliases))
	for k, v := range defaultAliases {
		out[k] = v
	}
	return out
}

// ValidateAliases checks the closure invariant: every target is canonical,
// no alias shadows a canonical id, and every alias is reachable by lookup
// (lowercase, trimmed, non-empty).
func ValidateAliases(aliases map[string]domain.StrategyID) error {
	var errs []error
	for _, alias := range sortedKeys(aliases) {
		target := aliases[alias]
		switch {
		case !target.IsCanonical():
			errs = append(errs, fmt.Errorf("alias %q targets non-canonical %q", alias, target))
		case domain.StrategyID(alias).IsCanonical():
			errs = append(errs, fmt.Errorf("alias %q shadows a canonical id", alias))
		case alias == "" || alias != strings.ToLower(strings.TrimSpace(alias)):
			errs = append(errs, fmt.Errorf("alias %q is not in lookup form", alias))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrAliasClosure, errors.Join(errs...))
	}
	return nil
}

func sortedKeys(m map[string]domain.StrategyID) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
