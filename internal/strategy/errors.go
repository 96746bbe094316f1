package strategy

import (
	"errors"
	"fmt"
)

// ErrStrategyResolution matches every *ResolutionError via errors.Is.
var ErrStrategyResolution = errors.New("strategy resolution failed")

// ResolutionError reports a strategy string that maps to no canonical id.
// It is a caller-facing validation failure, never defaulted silently.
type ResolutionError struct {
	Raw    string // value as provided
	Reason string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve strategy %q: %s", e.Raw, e.Reason)
}

// Is reports whether target is ErrStrategyResolution.
func (e *ResolutionError) Is(target error) bool {
	return target == ErrStrategyResolution
}

// Resolution failure reasons
const (
	ReasonEmpty   = "empty strategy id"
	ReasonUnknown = "unknown strategy id or alias"
)
