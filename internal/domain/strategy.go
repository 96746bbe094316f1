package domain

import "sort"

// StrategyID identifies an options strategy shape.
// Only the constants below are canonical; everything else is an alias or unknown.
type StrategyID string

// Canonical strategy identifiers.
const (
	StrategyPutCreditSpread    StrategyID = "put_credit_spread"
	StrategyCallCreditSpread   StrategyID = "call_credit_spread"
	StrategyPutDebitSpread     StrategyID = "put_debit_spread"
	StrategyCallDebitSpread    StrategyID = "call_debit_spread"
	StrategyIronCondor         StrategyID = "iron_condor"
	StrategyIronButterfly      StrategyID = "iron_butterfly"
	StrategyButterflyDebit     StrategyID = "butterfly_debit"
	StrategyCalendarCallSpread StrategyID = "calendar_call_spread"
	StrategyCalendarPutSpread  StrategyID = "calendar_put_spread"
	StrategyCSP                StrategyID = "csp"
	StrategyCoveredCall        StrategyID = "covered_call"
	StrategyLongCall           StrategyID = "long_call"
	StrategyLongPut            StrategyID = "long_put"
)

// StrategyFamily groups strategies that share a payload shape.
type StrategyFamily string

// Strategy families
const (
	FamilyVertical  StrategyFamily = "vertical"   // two strikes, one expiration
	FamilyMultiLeg  StrategyFamily = "multi_leg"  // condors and butterflies
	FamilyCalendar  StrategyFamily = "calendar"   // one strike, two expirations
	FamilySingleLeg StrategyFamily = "single_leg" // one strike, no long leg
	FamilyUnknown   StrategyFamily = "unknown"
)

var strategyFamilies = map[StrategyID]StrategyFamily{
	StrategyPutCreditSpread:    FamilyVertical,
	StrategyCallCreditSpread:   FamilyVertical,
	StrategyPutDebitSpread:     FamilyVertical,
	StrategyCallDebitSpread:    FamilyVertical,
	StrategyIronCondor:         FamilyMultiLeg,
	StrategyIronButterfly:      FamilyMultiLeg,
	StrategyButterflyDebit:     FamilyMultiLeg,
	StrategyCalendarCallSpread: FamilyCalendar,
	StrategyCalendarPutSpread:  FamilyCalendar,
	StrategyCSP:                FamilySingleLeg,
	StrategyCoveredCall:        FamilySingleLeg,
	StrategyLongCall:           FamilySingleLeg,
	StrategyLongPut:            FamilySingleLeg,
}

// IsCanonical reports whether s is one of the canonical strategy identifiers.
func (s StrategyID) IsCanonical() bool {
	_, ok := strategyFamilies[s]
	return ok
}

// Family returns the payload family of s, FamilyUnknown for non-canonical ids.
func (s StrategyID) Family() StrategyFamily {
	if f, ok := strategyFamilies[s]; ok {
		return f
	}
	return FamilyUnknown
}

func (s StrategyID) String() string {
	return string(s)
}

// CanonicalStrategyIDs returns every canonical id, sorted.
func CanonicalStrategyIDs() []StrategyID {
	ids := make([]StrategyID, 0, len(strategyFamilies))
	for id := range strategyFamilies {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
