package lifecycle

import (
	"sort"

	"options-trade-lab/internal/domain"
)

// Projection is the current view of one trade, recomputed from its events.
type Projection struct {
	TradeKey       string        `json:"trade_key"`
	State          EventType     `json:"state"`
	LatestSnapshot *domain.Trade `json:"latest_snapshot"`
	RealizedPnL    *float64      `json:"realized_pnl"` // sum over CLOSE payloads, nil without any
	History        []Event       `json:"history"`
	FirstSeen      string        `json:"first_seen"`
	LastUpdated    string        `json:"last_updated"`
	EventCount     int           `json:"event_count"`
}

// Replay folds events, in ledger order, into one projection per trade key.
// The result is sorted by trade key. Replay is pure: the same events always give
// the same projections.
func Replay(events []Event) []Projection {
	groups := make(map[string][]Event)
	for _, e := range events {
		groups[e.TradeKey] = append(groups[e.TradeKey], e)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Projection, 0, len(keys))
	for _, k := range keys {
		out = append(out, Project(k, groups[k]))
	}
	return out
}

// Project folds the events of a single trade.
// State is the type of the last state-affecting event; a trade with only NOTE
// events is in state NOTE. Snapshots merge shallowly, later fields win.
func Project(tradeKey string, events []Event) Projection {
	p := Projection{
		TradeKey:       tradeKey,
		LatestSnapshot: &domain.Trade{},
		History:        make([]Event, 0, len(events)),
		EventCount:     len(events),
	}

	var pnl float64
	var closed bool

	for _, e := range events {
		p.History = append(p.History, e)

		if p.FirstSeen == "" {
			p.FirstSeen = e.Timestamp
		}
		p.LastUpdated = e.Timestamp

		if e.EventType.AffectsState() || p.State == "" || p.State == EventNote {
			p.State = e.EventType
		}
		p.LatestSnapshot = p.LatestSnapshot.Merge(e.Payload)

		if e.EventType == EventClose && e.Payload != nil && e.Payload.RealizedPnL != nil {
			pnl += *e.Payload.RealizedPnL
			closed = true
		}
	}

	if closed {
		p.RealizedPnL = &pnl
	}
	return p
}
