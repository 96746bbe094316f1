package lifecycle

import "errors"

// Ledger errors.
var (
	// ErrInvalidEvent is returned when an event type or trade key cannot be normalized.
	ErrInvalidEvent = errors.New("invalid lifecycle event")

	// ErrMissingTradeKey is returned when neither a key nor payload identity is given.
	ErrMissingTradeKey = errors.New("missing trade key")

	// ErrTradeNotFound is returned when a trade key has no events.
	ErrTradeNotFound = errors.New("trade not found")
)
