// Package validation records every silent correction the core performs
// (alias resolution, key repair, numeric sanitization) in an append-only log.
package validation

import (
	"context"
	"strings"
)

// Severity of a validation event.
type Severity string

// Severities
const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// DefaultCode is used when an event is appended without a code.
const DefaultCode = "UNKNOWN"

// Event codes emitted by the core.
const (
	CodeStrategyAliasUsed        = "STRATEGY_ALIAS_USED"
	CodeTradeKeyNonCanonical     = "TRADE_KEY_NON_CANONICAL"
	CodeTradeStrategyAliasMapped = "TRADE_STRATEGY_ALIAS_MAPPED"
	CodePayloadNonFinite         = "PAYLOAD_NON_FINITE_SANITIZED"
	CodeEventTypeUnknown         = "LIFECYCLE_EVENT_TYPE_UNKNOWN"
	CodeDecisionKeyNonCanonical  = "DECISION_KEY_NON_CANONICAL"
)

// Event is one line of the validation log.
type Event struct {
	Timestamp string         `json:"ts"` // fixed-width ISO-8601 UTC
	Severity  Severity       `json:"severity"`
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context"`
}

// Emitter accepts validation events. Services receive one by injection.
type Emitter interface {
	AppendEvent(ctx context.Context, severity Severity, code, message string, details map[string]any) (Event, error)
}

// Discard is an Emitter that drops every event.
var Discard Emitter = discard{}

type discard struct{}

func (discard) AppendEvent(_ context.Context, severity Severity, code, message string, details map[string]any) (Event, error) {
	return Event{
		Severity: NormalizeSeverity(string(severity), false),
		Code:     NormalizeCode(code),
		Message:  message,
		Context:  details,
	}, nil
}

// NormalizeSeverity maps free-form severities onto warn and error.
// Unrecognized values become warn. info survives only when allowInfo is set.
func NormalizeSeverity(s string, allowInfo bool) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error", "err", "fatal", "critical":
		return SeverityError
	case "info":
		if allowInfo {
			return SeverityInfo
		}
	}
	return SeverityWarn
}

// NormalizeCode uppercases a code, DefaultCode when blank.
func NormalizeCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DefaultCode
	}
	return code
}
