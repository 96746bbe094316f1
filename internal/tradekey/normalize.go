package tradekey

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// Placeholder renders a missing key component.
const Placeholder = "NA"

// NormalizeStrike renders a strike in its shortest decimal form:
// "450.5000" -> "450.5", 450.0 -> "450". Nil, empty and non-finite values give NA.
// Strings that are not numbers pass through trimmed. Never panics.
func NormalizeStrike(v any) string {
	d, text, ok := parseNumber(v)
	if !ok {
		return text
	}
	return d.String()
}

// FormatDTE renders days-to-expiration as an integer when it is whole,
// otherwise as its literal form.
func FormatDTE(v any) string {
	d, text, ok := parseNumber(v)
	if !ok {
		return text
	}
	if d.IsInteger() {
		return d.String()
	}
	if s, isString := v.(string); isString {
		return strings.TrimSpace(s)
	}
	return text
}

// parseNumber returns the decimal value of v, its trimmed text form, and whether
// v parsed as a finite number. For unparsable input text is the passthrough value.
func parseNumber(v any) (decimal.Decimal, string, bool) {
	switch x := v.(type) {
	case nil:
		return decimal.Zero, Placeholder, false
	case *float64:
		if x == nil {
			return decimal.Zero, Placeholder, false
		}
		return parseNumber(*x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero, Placeholder, false
		}
		return decimal.NewFromFloat(x), strconv.FormatFloat(x, 'f', -1, 64), true
	case float32:
		return parseNumber(float64(x))
	case int:
		return decimal.NewFromInt(int64(x)), strconv.Itoa(x), true
	case int32:
		return decimal.NewFromInt(int64(x)), strconv.FormatInt(int64(x), 10), true
	case int64:
		return decimal.NewFromInt(x), strconv.FormatInt(x, 10), true
	case decimal.Decimal:
		return x, x.String(), true
	case json.Number:
		return parseNumber(string(x))
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return decimal.Zero, Placeholder, false
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, s, false
		}
		return d, s, true
	default:
		s := strings.TrimSpace(fmt.Sprint(x))
		if s == "" {
			return decimal.Zero, Placeholder, false
		}
		return parseNumber(s)
	}
}

// text renders a free-form component: NFKC-folded, trimmed, NA when empty.
func text(v any) string {
	var s string
	switch x := v.(type) {
	case nil:
		return Placeholder
	case string:
		s = x
	case fmt.Stringer:
		s = x.String()
	default:
		s = fmt.Sprint(x)
	}
	s = strings.TrimSpace(norm.NFKC.String(s))
	if s == "" {
		return Placeholder
	}
	return s
}
