package strategy

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-trade-lab/internal/domain"
	"options-trade-lab/internal/validation"
)

// recordingEmitter captures emitted validation events.
type recordingEmitter struct {
	mu     sync.Mutex
	events []validation.Event
	err    error
}

func (r *recordingEmitter) AppendEvent(_ context.Context, severity validation.Severity, code, message string, details map[string]any) (validation.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return validation.Event{}, r.err
	}
	ev := validation.Event{Severity: severity, Code: code, Message: message, Context: details}
	r.events = append(r.events, ev)
	return ev, nil
}

func newTestResolver(t *testing.T) (*Resolver, *recordingEmitter) {
	t.Helper()
	rec := &recordingEmitter{}
	r, err := NewResolver(DefaultAliases(), rec, zerolog.Nop())
	require.NoError(t, err)
	return r, rec
}

func TestResolve_CanonicalIsIdentity(t *testing.T) {
	r, rec := newTestResolver(t)
	ctx := context.Background()

	for _, id := range domain.CanonicalStrategyIDs() {
		got, err := r.Resolve(ctx, string(id))
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
	assert.Empty(t, rec.events, "canonical ids must not emit alias events")
}

func TestResolve_AliasEmitsOnce(t *testing.T) {
	r, rec := newTestResolver(t)

	got, err := r.Resolve(context.Background(), "credit_put_spread")
	require.NoError(t, err)
	assert.Equal(t, domain.StrategyPutCreditSpread, got)

	require.Len(t, rec.events, 1)
	ev := rec.events[0]
	assert.Equal(t, validation.CodeStrategyAliasUsed, ev.Code)
	assert.Equal(t, validation.SeverityWarn, ev.Severity)
	assert.Equal(t, "credit_put_spread", ev.Context["provided"])
	assert.Equal(t, "put_credit_spread", ev.Context["canonical"])
}

func TestResolve_EveryAliasResolvesToItsTarget(t *testing.T) {
	r, rec := newTestResolver(t)
	ctx := context.Background()

	aliases := DefaultAliases()
	for alias, target := range aliases {
		got, err := r.Resolve(ctx, alias)
		require.NoError(t, err, alias)
		assert.Equal(t, target, got, alias)
	}
	assert.Len(t, rec.events, len(aliases))
}

func TestResolve_NormalizesCaseAndSpace(t *testing.T) {
	r, _ := newTestResolver(t)

	got, err := r.Resolve(context.Background(), "  Iron_Condor ")
	require.NoError(t, err)
	assert.Equal(t, domain.StrategyIronCondor, got)

	got, err = r.Resolve(context.Background(), "PUT_CREDIT")
	require.NoError(t, err)
	assert.Equal(t, domain.StrategyPutCreditSpread, got)
}

func TestResolve_Errors(t *testing.T) {
	r, rec := newTestResolver(t)

	tests := []struct {
		raw    string
		reason string
	}{
		{"", ReasonEmpty},
		{"   ", ReasonEmpty},
		{"strangle_of_doom", ReasonUnknown},
		{"single", ReasonUnknown},
	}

	for _, tt := range tests {
		_, err := r.Resolve(context.Background(), tt.raw)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrStrategyResolution))

		var resErr *ResolutionError
		require.True(t, errors.As(err, &resErr))
		assert.Equal(t, tt.raw, resErr.Raw)
		assert.Equal(t, tt.reason, resErr.Reason)
	}
	assert.Empty(t, rec.events)
}

func TestResolveQuiet_SuppressesEvents(t *testing.T) {
	r, rec := newTestResolver(t)

	got, err := r.ResolveQuiet("condor")
	require.NoError(t, err)
	assert.Equal(t, domain.StrategyIronCondor, got)
	assert.Empty(t, rec.events)
}

func TestResolveOrNone(t *testing.T) {
	r, rec := newTestResolver(t)
	ctx := context.Background()

	assert.Equal(t, domain.StrategyID(""), r.ResolveOrNone(ctx, "unknown"))
	assert.Equal(t, domain.StrategyID(""), r.ResolveOrNone(ctx, ""))
	assert.Equal(t, domain.StrategyCSP, r.ResolveOrNone(ctx, "cash_secured_put"))
	assert.Len(t, rec.events, 1)
}

func TestResolve_EmitterFailureDoesNotFail(t *testing.T) {
	rec := &recordingEmitter{err: errors.New("disk full")}
	r, err := NewResolver(DefaultAliases(), rec, zerolog.Nop())
	require.NoError(t, err)

	got, err := r.Resolve(context.Background(), "put_credit")
	require.NoError(t, err)
	assert.Equal(t, domain.StrategyPutCreditSpread, got)
}

func TestNewResolver_NilEmitter(t *testing.T) {
	r, err := NewResolver(DefaultAliases(), nil, zerolog.Nop())
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), "condor")
	assert.NoError(t, err)
}

func TestResolver_AliasTableIsCopied(t *testing.T) {
	aliases := DefaultAliases()
	r, err := NewResolver(aliases, nil, zerolog.Nop())
	require.NoError(t, err)

	aliases["put_credit"] = domain.StrategyIronCondor
	delete(aliases, "condor")

	got, err := r.ResolveQuiet("put_credit")
	require.NoError(t, err)
	assert.Equal(t, domain.StrategyPutCreditSpread, got)
	assert.True(t, r.IsAlias("condor"))

	copied := r.Aliases()
	copied["condor"] = domain.StrategyCSP
	got, _ = r.ResolveQuiet("condor")
	assert.Equal(t, domain.StrategyIronCondor, got)
}

func TestKeyFor(t *testing.T) {
	r, rec := newTestResolver(t)

	a, err := r.KeyFor(&domain.Trade{
		Underlying:  "spy",
		Expiration:  "2026-03-20",
		Strategy:    "put_credit",
		ShortStrike: domain.Float(450),
		LongStrike:  domain.Float(445.5),
		DTE:         domain.Float(7),
	})
	require.NoError(t, err)

	b, err := r.KeyFor(&domain.Trade{
		Underlying:  "SPY",
		Expiration:  "2026-03-20",
		SpreadType:  "put_credit_spread",
		ShortStrike: domain.Float(450.0),
		LongStrike:  domain.Float(445.50),
		DTE:         domain.Float(7.0),
	})
	require.NoError(t, err)

	assert.Equal(t, "SPY|2026-03-20|put_credit_spread|450|445.5|7", a)
	assert.Equal(t, a, b)
	assert.Empty(t, rec.events)

	noStrategy, err := r.KeyFor(&domain.Trade{Underlying: "QQQ"})
	require.NoError(t, err)
	assert.Equal(t, "QQQ|NA|NA|NA|NA|NA", noStrategy)

	_, err = r.KeyFor(&domain.Trade{Underlying: "QQQ", Strategy: "mystery"})
	assert.ErrorIs(t, err, ErrStrategyResolution)
}
