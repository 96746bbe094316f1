// Package strategy resolves free-form strategy strings onto canonical strategy ids.
package strategy

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"options-trade-lab/internal/domain"
	"options-trade-lab/internal/observability"
	"options-trade-lab/internal/tradekey"
	"options-trade-lab/internal/validation"
)

// Resolver maps raw strategy strings onto canonical ids.
// The alias table is copied at construction and never modified, so a Resolver is
// safe for concurrent use.
type Resolver struct {
	aliases map[string]domain.StrategyID
	emitter validation.Emitter
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMetrics attaches Prometheus counters.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// NewResolver validates the alias table and builds a resolver.
// Returns an error wrapping ErrAliasClosure if the table is not closed.
func NewResolver(aliases map[string]domain.StrategyID, emitter validation.Emitter, logger zerolog.Logger, opts ...Option) (*Resolver, error) {
	if err := ValidateAliases(aliases); err != nil {
		return nil, err
	}
	if emitter == nil {
		emitter = validation.Discard
	}

	table := make(map[string]domain.StrategyID, len(aliases))
	for k, v := range aliases {
		table[k] = v
	}

	r := &Resolver{
		aliases: table,
		emitter: emitter,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve returns the canonical id for raw.
// Canonical ids resolve to themselves. An alias resolves to its target and emits
// one STRATEGY_ALIAS_USED warning. Blank or unknown input returns *ResolutionError.
func (r *Resolver) Resolve(ctx context.Context, raw string) (domain.StrategyID, error) {
	id, viaAlias, err := r.lookup(raw)
	if err != nil {
		return "", err
	}
	if viaAlias {
		r.reportAlias(ctx, raw, id)
	}
	return id, nil
}

// ResolveQuiet resolves like Resolve without emitting alias events.
func (r *Resolver) ResolveQuiet(raw string) (domain.StrategyID, error) {
	id, _, err := r.lookup(raw)
	return id, err
}

// ResolveOrNone resolves like Resolve and returns "" instead of an error.
// Used by best-effort ingestion paths.
func (r *Resolver) ResolveOrNone(ctx context.Context, raw string) domain.StrategyID {
	id, err := r.Resolve(ctx, raw)
	if err != nil {
		return ""
	}
	return id
}

// IsAlias reports whether raw is a known alias (not a canonical id).
func (r *Resolver) IsAlias(raw string) bool {
	_, ok := r.aliases[normalize(raw)]
	return ok
}

// Aliases returns a copy of the alias table.
func (r *Resolver) Aliases() map[string]domain.StrategyID {
	out := make(map[string]domain.StrategyID, len(r.aliases))
	for k, v := range r.aliases {
		out[k] = v
	}
	return out
}

// KeyFor computes the canonical trade key of t with its strategy resolved quietly.
// An absent strategy keeps the NA placeholder; an unresolvable one is an error.
func (r *Resolver) KeyFor(t *domain.Trade) (string, error) {
	if t == nil || t.StrategyField() == "" {
		return tradekey.ForTrade(t), nil
	}
	id, err := r.ResolveQuiet(t.StrategyField())
	if err != nil {
		return "", err
	}
	c := *t
	c.SpreadType = string(id)
	return tradekey.ForTrade(&c), nil
}

func (r *Resolver) lookup(raw string) (domain.StrategyID, bool, error) {
	key := normalize(raw)
	if key == "" {
		r.metrics.RecordResolutionFailure()
		return "", false, &ResolutionError{Raw: raw, Reason: ReasonEmpty}
	}
	if id := domain.StrategyID(key); id.IsCanonical() {
		return id, false, nil
	}
	if id, ok := r.aliases[key]; ok {
		return id, true, nil
	}
	r.metrics.RecordResolutionFailure()
	return "", false, &ResolutionError{Raw: raw, Reason: ReasonUnknown}
}

// reportAlias records alias usage. Emission failures never fail resolution.
func (r *Resolver) reportAlias(ctx context.Context, raw string, id domain.StrategyID) {
	r.metrics.RecordAliasResolved(string(id))
	_, err := r.emitter.AppendEvent(ctx, validation.SeverityWarn, validation.CodeStrategyAliasUsed,
		"legacy strategy alias resolved",
		map[string]any{
			"provided":  raw,
			"canonical": string(id),
		})
	if err != nil {
		r.logger.Warn().Err(err).Str("provided", raw).Msg("Failed to record strategy alias usage")
	}
}

func normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
