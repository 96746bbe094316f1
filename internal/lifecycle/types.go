// Package lifecycle keeps the append-only log of trade lifecycle events and derives
// per-trade projections by replaying it.
package lifecycle

import (
	"fmt"
	"strings"

	"options-trade-lab/internal/domain"
)

// EventType is a lifecycle event kind, upper snake case.
type EventType string

// Governed event types. Other upper snake case types are accepted with a warning.
const (
	EventWatchlist EventType = "WATCHLIST"
	EventOpen      EventType = "OPEN"
	EventAdjust    EventType = "ADJUST"
	EventClose     EventType = "CLOSE"
	EventNote      EventType = "NOTE"
	EventReject    EventType = "REJECT"
	EventExpire    EventType = "EXPIRE"
)

var knownEventTypes = map[EventType]struct{}{
	EventWatchlist: {},
	EventOpen:      {},
	EventAdjust:    {},
	EventClose:     {},
	EventNote:      {},
	EventReject:    {},
	EventExpire:    {},
}

// DefaultSource is recorded when an event is appended without a source.
const DefaultSource = "unknown"

// IsKnown reports whether t belongs to the governed vocabulary.
func (t EventType) IsKnown() bool {
	_, ok := knownEventTypes[t]
	return ok
}

// AffectsState reports whether t moves the projected state. NOTE only annotates;
// REJECT ends consideration and does move it.
func (t EventType) AffectsState() bool {
	return t != EventNote
}

// ParseEventType normalizes raw to upper snake case.
// Blank input or characters outside [A-Z0-9_] after normalization return ErrInvalidEvent.
func ParseEventType(raw string) (EventType, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty event type", ErrInvalidEvent)
	}
	for i, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return "", fmt.Errorf("%w: event type %q", ErrInvalidEvent, raw)
		}
	}
	return EventType(s), nil
}

// Warning is a data-quality correction attached to a stored event.
type Warning struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

// Event is one immutable ledger record.
type Event struct {
	ID        string        `json:"id"`        // random, for operator reference only
	Timestamp string        `json:"timestamp"` // UTC, domain.TimestampLayout
	EventType EventType     `json:"event_type"`
	TradeKey  string        `json:"trade_key"` // canonical
	Source    string        `json:"source"`
	Payload   *domain.Trade `json:"payload"`
	Reason    string        `json:"reason,omitempty"`
	Note      string        `json:"note,omitempty"`
	Warnings  []Warning     `json:"warnings"`
}

// HasWarning reports whether the event carries a warning with code.
func (e *Event) HasWarning(code string) bool {
	for _, w := range e.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

// EventInput is what callers supply to Append.
type EventInput struct {
	TradeKey  string        // optional when the payload carries identity
	EventType string        // raw, normalized on append
	Source    string        // scanner, manual, workbench, ...
	Payload   *domain.Trade // may be nil
	Reason    string
	Note      string
}

// Filter selects events in ListEvents. Zero fields match everything.
type Filter struct {
	TradeKey  string
	EventType EventType
	Source    string
	Limit     int // keep the last Limit matches; <= 0 keeps all
}

func (f Filter) match(e *Event) bool {
	if f.TradeKey != "" && e.TradeKey != f.TradeKey {
		return false
	}
	if f.EventType != "" && e.EventType != f.EventType {
		return false
	}
	if f.Source != "" && e.Source != f.Source {
		return false
	}
	return true
}
