package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

type stringField struct {
	name    string
	aliases []string
	ptr     func(*Trade) *string
}

type numericField struct {
	name    string
	aliases []string
	ptr     func(*Trade) **float64
}

// Wire names and accepted aliases, first match wins.
var stringFields = []stringField{
	{"underlying", []string{"underlying_symbol", "symbol"}, func(t *Trade) *string { return &t.Underlying }},
	{"expiration", []string{"expiry", "expiration_date"}, func(t *Trade) *string { return &t.Expiration }},
	{"spread_type", nil, func(t *Trade) *string { return &t.SpreadType }},
	{"strategy", []string{"strategy_id"}, func(t *Trade) *string { return &t.Strategy }},
}

var numericFields = []numericField{
	{"short_strike", []string{"strike_short", "sell_strike", "strike"}, func(t *Trade) **float64 { return &t.ShortStrike }},
	{"long_strike", []string{"strike_long", "buy_strike"}, func(t *Trade) **float64 { return &t.LongStrike }},
	{"dte", []string{"days_to_expiry"}, func(t *Trade) **float64 { return &t.DTE }},
	{"ev_to_risk", nil, func(t *Trade) **float64 { return &t.EVToRisk }},
	{"ev_per_share", nil, func(t *Trade) **float64 { return &t.EVPerShare }},
	{"max_loss_per_share", nil, func(t *Trade) **float64 { return &t.MaxLossPerShare }},
	{"return_on_risk", []string{"ror"}, func(t *Trade) **float64 { return &t.ReturnOnRisk }},
	{"p_win", []string{"p_win_used", "win_probability"}, func(t *Trade) **float64 { return &t.PWin }},
	{"pop", []string{"probability_of_profit"}, func(t *Trade) **float64 { return &t.POP }},
	{"short_delta", []string{"delta"}, func(t *Trade) **float64 { return &t.ShortDelta }},
	{"open_interest", []string{"oi"}, func(t *Trade) **float64 { return &t.OpenInterest }},
	{"volume", nil, func(t *Trade) **float64 { return &t.Volume }},
	{"bid_ask_spread_pct", []string{"spread_pct", "bid_ask_pct"}, func(t *Trade) **float64 { return &t.BidAskSpreadPct }},
	{"trade_quality_score", []string{"tqs"}, func(t *Trade) **float64 { return &t.TradeQualityScore }},
	{"realized_pnl", []string{"pnl"}, func(t *Trade) **float64 { return &t.RealizedPnL }},
	{"rank_score", nil, func(t *Trade) **float64 { return &t.RankScore }},
}

const rankComponentsKey = "rank_components"

// UnmarshalJSON decodes a loosely shaped trade object, mapping aliased field names
// onto the typed fields and keeping everything else in Extra.
func (t *Trade) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decode trade: %w", err)
	}

	*t = Trade{}

	for _, f := range stringFields {
		key, v, ok := lookup(raw, f.name, f.aliases)
		if !ok {
			continue
		}
		delete(raw, key)
		switch s := v.(type) {
		case string:
			*f.ptr(t) = strings.TrimSpace(s)
		case json.Number:
			*f.ptr(t) = s.String()
		case nil:
		default:
			raw[key] = v
		}
	}

	for _, f := range numericFields {
		key, v, ok := lookup(raw, f.name, f.aliases)
		if !ok {
			continue
		}
		delete(raw, key)
		if v == nil {
			continue
		}
		if n, ok := toFloat(v); ok {
			*f.ptr(t) = &n
			continue
		}
		// Unparsable values are preserved under the wire name.
		raw[f.name] = v
	}

	if v, ok := raw[rankComponentsKey]; ok {
		if b, err := json.Marshal(v); err == nil {
			var rc RankComponents
			if json.Unmarshal(b, &rc) == nil {
				t.RankComponents = &rc
				delete(raw, rankComponentsKey)
			}
		}
	}

	if len(raw) > 0 {
		t.Extra = raw
	}
	return nil
}

// MarshalJSON flattens the typed fields and Extra into one object.
// Absent typed fields are omitted.
func (t Trade) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(t.Extra)+len(stringFields)+len(numericFields))
	for k, v := range t.Extra {
		out[k] = v
	}
	for _, f := range stringFields {
		if v := *f.ptr(&t); v != "" {
			out[f.name] = v
		}
	}
	for _, f := range numericFields {
		if p := *f.ptr(&t); p != nil {
			out[f.name] = *p
		}
	}
	if t.RankComponents != nil {
		out[rankComponentsKey] = t.RankComponents
	}
	return json.Marshal(out)
}

// Sanitize replaces every non-finite number with absence: typed fields become nil,
// values inside Extra become JSON null, and a rank breakdown with a non-finite
// component is dropped. The touched field paths are returned, sorted.
func (t *Trade) Sanitize() []string {
	var paths []string
	for _, f := range numericFields {
		p := f.ptr(t)
		if *p != nil && !isFinite(**p) {
			*p = nil
			paths = append(paths, f.name)
		}
	}
	if rc := t.RankComponents; rc != nil {
		paths = append(paths, rc.sanitize()...)
		if rc.hasNonFinite() {
			t.RankComponents = nil
		}
	}
	for k, v := range t.Extra {
		t.Extra[k] = sanitizeValue(k, v, &paths)
	}
	sort.Strings(paths)
	return paths
}

func sanitizeValue(path string, v any, paths *[]string) any {
	switch x := v.(type) {
	case float64:
		if !isFinite(x) {
			*paths = append(*paths, path)
			return nil
		}
	case float32:
		if !isFinite(float64(x)) {
			*paths = append(*paths, path)
			return nil
		}
	case *float64:
		if x != nil && !isFinite(*x) {
			*paths = append(*paths, path)
			return nil
		}
	case map[string]any:
		for k, inner := range x {
			x[k] = sanitizeValue(path+"."+k, inner, paths)
		}
	case []any:
		for i, inner := range x {
			x[i] = sanitizeValue(path+"["+strconv.Itoa(i)+"]", inner, paths)
		}
	case string, bool, json.Number, nil:
	default:
		return sanitizeReflect(path, reflect.ValueOf(v), v, paths)
	}
	return v
}

// sanitizeReflect walks typed containers such as map[string]float64 or []float32.
// Containers are rebuilt as map[string]any and []any; other values are returned as is.
func sanitizeReflect(path string, rv reflect.Value, v any, paths *[]string) any {
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		if !isFinite(rv.Float()) {
			*paths = append(*paths, path)
			return nil
		}
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return v
		}
		return sanitizeValue(path, rv.Elem().Interface(), paths)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key().String()
			out[k] = sanitizeValue(path+"."+k, iter.Value().Interface(), paths)
		}
		return out
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && (rv.IsNil() || rv.Type().Elem().Kind() == reflect.Uint8) {
			return v
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = sanitizeValue(path+"["+strconv.Itoa(i)+"]", rv.Index(i).Interface(), paths)
		}
		return out
	}
	return v
}

// sanitize clears the optional fields holding non-finite values and returns the
// paths of every non-finite field.
func (rc *RankComponents) sanitize() []string {
	var paths []string
	required := []struct {
		name string
		v    float64
	}{
		{"edge", rc.Edge},
		{"ror", rc.ROR},
		{"pop", rc.POP},
		{"liquidity", rc.Liquidity},
		{"liquidity_penalty", rc.Penalty},
		{"raw.edge", rc.Raw.Edge},
		{"raw.pop", rc.Raw.POP},
	}
	for _, f := range required {
		if !isFinite(f.v) {
			paths = append(paths, rankComponentsKey+"."+f.name)
		}
	}
	if rc.TQS != nil && !isFinite(*rc.TQS) {
		rc.TQS = nil
		paths = append(paths, rankComponentsKey+".tqs")
	}
	if rc.Raw.SpreadPct != nil && !isFinite(*rc.Raw.SpreadPct) {
		rc.Raw.SpreadPct = nil
		paths = append(paths, rankComponentsKey+".raw.spread_pct")
	}
	return paths
}

// hasNonFinite reports whether a non-optional component is non-finite.
// Such a breakdown cannot be stored and is dropped whole.
func (rc *RankComponents) hasNonFinite() bool {
	for _, v := range []float64{rc.Edge, rc.ROR, rc.POP, rc.Liquidity, rc.Penalty, rc.Raw.Edge, rc.Raw.POP} {
		if !isFinite(v) {
			return true
		}
	}
	return false
}

func lookup(raw map[string]any, name string, aliases []string) (string, any, bool) {
	if v, ok := raw[name]; ok {
		return name, v, true
	}
	for _, a := range aliases {
		if v, ok := raw[a]; ok {
			return a, v, true
		}
	}
	return "", nil, false
}

// toFloat accepts JSON numbers and numeric strings. Strings such as "NaN" parse to
// non-finite values on purpose so Sanitize can report them.
func toFloat(v any) (float64, bool) {
	var (
		f   float64
		err error
	)
	switch x := v.(type) {
	case json.Number:
		f, err = x.Float64()
	case float64:
		f = x
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		f, err = strconv.ParseFloat(s, 64)
	default:
		return 0, false
	}
	if err != nil {
		return 0, false
	}
	return f, true
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
