package decision

import "options-trade-lab/internal/tradekey"

// CanonicalKey rebuilds key in canonical form with its strategy component resolved
// through resolver. A nil resolver keeps the strategy as written.
func CanonicalKey(key string, resolver StrategyResolver) (string, error) {
	c, err := tradekey.Parse(key)
	if err != nil {
		return "", err
	}
	if resolver != nil && c.Strategy != tradekey.Placeholder {
		id, err := resolver.ResolveQuiet(c.Strategy)
		if err != nil {
			return "", err
		}
		c = c.WithStrategy(string(id))
	}
	return c.String(), nil
}

// Dedupe collapses decisions that refer to the same canonical trade key.
// The later decision replaces the earlier one in the position of the first occurrence.
// Keys that do not parse or resolve are compared verbatim.
func Dedupe(decisions []Decision, resolver StrategyResolver) []Decision {
	out := make([]Decision, 0, len(decisions))
	index := make(map[string]int, len(decisions))

	for _, d := range decisions {
		key := canonicalOrRaw(d.TradeKey, resolver)
		d.TradeKey = key
		if i, ok := index[key]; ok {
			out[i] = d
			continue
		}
		index[key] = len(out)
		out = append(out, d)
	}
	return out
}

// RejectedKeys returns the set of canonical keys with a reject decision.
func RejectedKeys(decisions []Decision, resolver StrategyResolver) map[string]struct{} {
	keys := make(map[string]struct{}, len(decisions))
	for _, d := range decisions {
		if d.Type == TypeReject {
			keys[canonicalOrRaw(d.TradeKey, resolver)] = struct{}{}
		}
	}
	return keys
}

func canonicalOrRaw(key string, resolver StrategyResolver) string {
	if c, err := CanonicalKey(key, resolver); err == nil {
		return c
	}
	return key
}
