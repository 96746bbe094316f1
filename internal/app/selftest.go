package app

import (
	"errors"
	"fmt"
	"slices"

	"options-trade-lab/internal/domain"
	"options-trade-lab/internal/strategy"
	"options-trade-lab/internal/tradekey"
)

// ErrSelfTest is returned when a startup check fails.
var ErrSelfTest = errors.New("startup self-test failed")

// Check is the outcome of one self-test step.
type Check struct {
	Name string `json:"name"`
	OK   bool   `json:"ok"`
	// Failures lists each violation found, empty when OK.
	Failures []string `json:"failures"`
}

// SelfTest is the result of RunSelfTest.
type SelfTest struct {
	Checks []Check `json:"checks"`
}

// OK reports whether every check passed.
func (s SelfTest) OK() bool {
	for _, c := range s.Checks {
		if !c.OK {
			return false
		}
	}
	return true
}

// Err returns nil when every check passed, otherwise an error wrapping ErrSelfTest
// that names each failure.
func (s SelfTest) Err() error {
	var errs []error
	for _, c := range s.Checks {
		for _, f := range c.Failures {
			errs = append(errs, fmt.Errorf("%s: %s", c.Name, f))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrSelfTest, errors.Join(errs...))
}

// selfTestTrade is the fixture identity used by the key checks.
var selfTestTrade = domain.Trade{
	Underlying:  "spy",
	Expiration:  "2026-03-20",
	ShortStrike: domain.Float(500),
	LongStrike:  domain.Float(495),
	DTE:         domain.Float(18),
}

// RunSelfTest verifies the alias table and key canonicalization of r:
//   - alias_closure: every alias targets a canonical id
//   - canonical_identity: every canonical id resolves to itself
//   - alias_resolution: every alias resolves to its target
//   - key_round_trip: canonical keys survive Parse and Canonicalize unchanged
//   - alias_key_equivalence: an aliased trade has the key of its canonical form
func RunSelfTest(r *strategy.Resolver) SelfTest {
	aliases := r.Aliases()
	var st SelfTest

	closure := Check{Name: "alias_closure"}
	if err := strategy.ValidateAliases(aliases); err != nil {
		closure.Failures = append(closure.Failures, err.Error())
	}
	st.add(closure)

	identity := Check{Name: "canonical_identity"}
	for _, id := range domain.CanonicalStrategyIDs() {
		got, err := r.ResolveQuiet(string(id))
		if err != nil || got != id {
			identity.Failures = append(identity.Failures, fmt.Sprintf("%s resolved to %q (%v)", id, got, err))
		}
	}
	st.add(identity)

	resolution := Check{Name: "alias_resolution"}
	for _, alias := range sortedAliases(aliases) {
		got, err := r.ResolveQuiet(alias)
		if err != nil || got != aliases[alias] {
			resolution.Failures = append(resolution.Failures,
				fmt.Sprintf("%s resolved to %q, want %q (%v)", alias, got, aliases[alias], err))
		}
	}
	st.add(resolution)

	roundTrip := Check{Name: "key_round_trip"}
	for _, id := range domain.CanonicalStrategyIDs() {
		t := selfTestTrade
		t.SpreadType = string(id)
		key := tradekey.ForTrade(&t)
		canonical, err := tradekey.Canonicalize(key)
		if err != nil || canonical != key {
			roundTrip.Failures = append(roundTrip.Failures, fmt.Sprintf("%s canonicalized to %q (%v)", key, canonical, err))
		}
	}
	st.add(roundTrip)

	equivalence := Check{Name: "alias_key_equivalence"}
	for _, alias := range sortedAliases(aliases) {
		aliased := selfTestTrade
		aliased.Strategy = alias
		canonical := selfTestTrade
		canonical.SpreadType = string(aliases[alias])

		got, err := r.KeyFor(&aliased)
		want := tradekey.ForTrade(&canonical)
		if err != nil || got != want {
			equivalence.Failures = append(equivalence.Failures, fmt.Sprintf("%s keyed as %q, want %q (%v)", alias, got, want, err))
		}
	}
	st.add(equivalence)

	return st
}

func (s *SelfTest) add(c Check) {
	c.OK = len(c.Failures) == 0
	if c.Failures == nil {
		c.Failures = []string{}
	}
	s.Checks = append(s.Checks, c)
}

func sortedAliases(m map[string]domain.StrategyID) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
