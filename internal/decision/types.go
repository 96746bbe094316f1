// Package decision records per-report trade decisions, currently rejections.
package decision

import "options-trade-lab/internal/domain"

// Type is the kind of a report decision.
type Type string

const (
	TypeReject Type = "reject"
)

// Decision is one entry of a report's decision document.
type Decision struct {
	Type      Type   `json:"type"`
	TradeKey  string `json:"trade_key"`  // canonical key
	Reason    string `json:"reason"`     // free text, may be empty
	CreatedAt string `json:"created_at"` // UTC, domain.TimestampLayout
}

// KeyResolver derives the canonical key of a trade.
// *strategy.Resolver implements it.
type KeyResolver interface {
	KeyFor(t *domain.Trade) (string, error)
}

// StrategyResolver maps raw strategy strings onto canonical ids without side effects.
// *strategy.Resolver implements it.
type StrategyResolver interface {
	ResolveQuiet(raw string) (domain.StrategyID, error)
}
