package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"options-trade-lab/internal/domain"
	"options-trade-lab/internal/observability"
	"options-trade-lab/internal/storage"
	"options-trade-lab/internal/storage/file"
	"options-trade-lab/internal/tradekey"
	"options-trade-lab/internal/validation"
)

const storeName = "ledger"

// StrategyResolver maps raw strategy strings onto canonical ids without side effects.
// *strategy.Resolver implements it.
type StrategyResolver interface {
	ResolveQuiet(raw string) (domain.StrategyID, error)
}

// Ledger is the append-only lifecycle event log.
// One mutex serializes appends and reads.
type Ledger struct {
	mu       sync.Mutex
	log      storage.LineLog
	resolver StrategyResolver
	emitter  validation.Emitter
	clock    domain.Clock
	newID    func() string
	logger   zerolog.Logger
	metrics  *observability.Metrics
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the timestamp source.
func WithClock(clock domain.Clock) Option {
	return func(l *Ledger) { l.clock = clock }
}

// WithMetrics attaches Prometheus counters.
func WithMetrics(m *observability.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// WithIDGenerator overrides the event id source.
func WithIDGenerator(fn func() string) Option {
	return func(l *Ledger) { l.newID = fn }
}

// NewLedger creates a ledger over any line log. A nil emitter discards warnings.
func NewLedger(log storage.LineLog, resolver StrategyResolver, emitter validation.Emitter, logger zerolog.Logger, opts ...Option) *Ledger {
	if emitter == nil {
		emitter = validation.Discard
	}
	l := &Ledger{
		log:      log,
		resolver: resolver,
		emitter:  emitter,
		clock:    domain.SystemClock,
		newID:    uuid.NewString,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewFileLedger creates a ledger writing JSON lines to path.
func NewFileLedger(path string, resolver StrategyResolver, emitter validation.Emitter, logger zerolog.Logger, opts ...Option) *Ledger {
	return NewLedger(file.NewLineLog(path), resolver, emitter, logger, opts...)
}

// Append normalizes and stores one event. The returned event is what was written.
//
// The payload strategy is resolved to its canonical id first, so the trade key
// derived afterwards is canonical. A supplied key that differs from the canonical
// one is replaced. Non-finite payload numbers are dropped. Every correction is
// attached to the event as a warning and recorded in the validation log.
func (l *Ledger) Append(ctx context.Context, in EventInput) (Event, error) {
	eventType, err := ParseEventType(in.EventType)
	if err != nil {
		return Event{}, err
	}

	payload := in.Payload.Clone()
	if payload == nil {
		payload = &domain.Trade{}
	}

	var warnings []Warning
	if !eventType.IsKnown() {
		warnings = append(warnings, Warning{
			Code:    validation.CodeEventTypeUnknown,
			Message: "event type outside the governed vocabulary",
			Context: map[string]any{"event_type": string(eventType)},
		})
	}

	w, err := l.canonicalizeStrategy(payload)
	if err != nil {
		return Event{}, err
	}
	warnings = append(warnings, w...)

	key, w, err := l.deriveKey(in.TradeKey, payload)
	if err != nil {
		return Event{}, err
	}
	warnings = append(warnings, w...)

	sanitized := payload.Sanitize()
	if len(sanitized) > 0 {
		warnings = append(warnings, Warning{
			Code:    validation.CodePayloadNonFinite,
			Message: "non-finite payload values replaced with null",
			Context: map[string]any{"fields": sanitized},
		})
	}

	source := strings.TrimSpace(in.Source)
	if source == "" {
		source = DefaultSource
	}
	if warnings == nil {
		warnings = []Warning{}
	}

	ev := Event{
		ID:        l.newID(),
		EventType: eventType,
		TradeKey:  key,
		Source:    source,
		Payload:   payload,
		Reason:    strings.TrimSpace(in.Reason),
		Note:      strings.TrimSpace(in.Note),
		Warnings:  warnings,
	}

	if err := l.write(ctx, &ev); err != nil {
		return Event{}, err
	}

	l.metrics.RecordLifecycleEvent(string(ev.EventType), len(sanitized))
	for _, w := range ev.Warnings {
		l.report(ctx, &ev, w)
	}
	l.logger.Debug().
		Str("trade_key", ev.TradeKey).
		Str("event_type", string(ev.EventType)).
		Int("warnings", len(ev.Warnings)).
		Msg("Appended lifecycle event")
	return ev, nil
}

func (l *Ledger) write(ctx context.Context, ev *Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ev.Timestamp = domain.FormatTimestamp(l.clock())
	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode lifecycle event: %w", err)
	}
	if err := l.log.Append(ctx, line); err != nil {
		l.metrics.RecordStorageError(storeName, "append")
		return fmt.Errorf("append lifecycle event %s: %w", ev.TradeKey, err)
	}
	return nil
}

// canonicalizeStrategy rewrites both strategy fields to the canonical id.
// Only a changed value is reported; filling a blank field is not.
func (l *Ledger) canonicalizeStrategy(payload *domain.Trade) ([]Warning, error) {
	raw := payload.StrategyField()
	if raw == "" {
		return nil, nil
	}
	id, err := l.resolver.ResolveQuiet(raw)
	if err != nil {
		return nil, err
	}

	canonical := string(id)
	changed := raw != canonical || (payload.Strategy != "" && payload.Strategy != canonical)
	payload.SpreadType = canonical
	payload.Strategy = canonical
	if !changed {
		return nil, nil
	}

	l.metrics.RecordAliasResolved(canonical)
	return []Warning{{
		Code:    validation.CodeTradeStrategyAliasMapped,
		Message: "payload strategy replaced with canonical id",
		Context: map[string]any{"provided": raw, "canonical": canonical},
	}}, nil
}

// deriveKey returns the canonical key for the event.
// A payload with underlying, expiration and strategy defines the key. Otherwise the
// supplied key is canonicalized, its strategy component resolved. A supplied key is
// only required when the payload has no underlying.
func (l *Ledger) deriveKey(supplied string, payload *domain.Trade) (string, []Warning, error) {
	supplied = strings.TrimSpace(supplied)

	var key string
	switch {
	case hasFullIdentity(payload), supplied == "" && payload.HasIdentity():
		key = tradekey.ForTrade(payload)
	case supplied != "":
		c, err := tradekey.Parse(supplied)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
		}
		if c.Strategy != tradekey.Placeholder {
			id, err := l.resolver.ResolveQuiet(c.Strategy)
			if err != nil {
				return "", nil, err
			}
			c = c.WithStrategy(string(id))
		}
		key = c.String()
	default:
		return "", nil, ErrMissingTradeKey
	}

	if supplied == "" || supplied == key {
		return key, nil, nil
	}

	l.metrics.RecordKeyRepaired()
	return key, []Warning{{
		Code:    validation.CodeTradeKeyNonCanonical,
		Message: "supplied trade key replaced with canonical form",
		Context: map[string]any{"provided": supplied, "canonical": key},
	}}, nil
}

func hasFullIdentity(t *domain.Trade) bool {
	return t.HasIdentity() && t.Expiration != "" && t.StrategyField() != ""
}

// report mirrors an event warning into the validation log. Failures are logged only.
func (l *Ledger) report(ctx context.Context, ev *Event, w Warning) {
	details := make(map[string]any, len(w.Context)+3)
	for k, v := range w.Context {
		details[k] = v
	}
	details["trade_key"] = ev.TradeKey
	details["event_id"] = ev.ID
	details["event_type"] = string(ev.EventType)

	if _, err := l.emitter.AppendEvent(ctx, validation.SeverityWarn, w.Code, w.Message, details); err != nil {
		l.logger.Warn().Err(err).Str("code", w.Code).Msg("Failed to record lifecycle warning")
	}
}

// ListEvents returns stored events matching f, in ledger order.
// The filter key is canonicalized like History does.
func (l *Ledger) ListEvents(ctx context.Context, f Filter) ([]Event, error) {
	events, err := l.readAll(ctx)
	if err != nil {
		return nil, err
	}

	if f.TradeKey != "" {
		f.TradeKey = l.lookupKey(f.TradeKey)
	}
	if f.EventType != "" {
		if t, err := ParseEventType(string(f.EventType)); err == nil {
			f.EventType = t
		}
	}

	out := make([]Event, 0, len(events))
	for i := range events {
		if f.match(&events[i]) {
			out = append(out, events[i])
		}
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out, nil
}

// Trades replays the ledger and returns one projection per trade key, sorted by key.
// With states given only projections in one of those states are returned.
func (l *Ledger) Trades(ctx context.Context, states ...EventType) ([]Projection, error) {
	events, err := l.readAll(ctx)
	if err != nil {
		return nil, err
	}
	l.metrics.ObserveReplay(len(events))

	projections := Replay(events)
	if len(states) == 0 {
		return projections, nil
	}

	want := make(map[EventType]struct{}, len(states))
	for _, s := range states {
		if t, err := ParseEventType(string(s)); err == nil {
			want[t] = struct{}{}
		}
	}

	out := make([]Projection, 0, len(projections))
	for _, p := range projections {
		if _, ok := want[p.State]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// History returns the projection of one trade including its full event history.
// The key is canonicalized first. Returns ErrTradeNotFound if it has no events.
func (l *Ledger) History(ctx context.Context, tradeKey string) (Projection, error) {
	key := l.lookupKey(tradeKey)

	events, err := l.readAll(ctx)
	if err != nil {
		return Projection{}, err
	}
	l.metrics.ObserveReplay(len(events))

	matched := make([]Event, 0)
	for _, e := range events {
		if e.TradeKey == key {
			matched = append(matched, e)
		}
	}
	if len(matched) == 0 {
		return Projection{}, fmt.Errorf("%w: %s", ErrTradeNotFound, key)
	}
	return Project(key, matched), nil
}

// readAll parses the whole log. Corrupt lines are skipped.
func (l *Ledger) readAll(ctx context.Context) ([]Event, error) {
	l.mu.Lock()
	records, err := l.log.ReadAll(ctx)
	l.mu.Unlock()

	if err != nil {
		l.metrics.RecordStorageError(storeName, "read")
		return nil, fmt.Errorf("read lifecycle log: %w", err)
	}

	events := make([]Event, 0, len(records))
	for i, r := range records {
		var ev Event
		if err := json.Unmarshal(r, &ev); err != nil {
			l.metrics.RecordCorruptLine(storeName)
			l.logger.Warn().Err(err).Int("line", i+1).Msg("Skipping corrupt lifecycle line")
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// lookupKey canonicalizes a caller key for reads, resolving its strategy when possible.
func (l *Ledger) lookupKey(key string) string {
	c, err := tradekey.Parse(key)
	if err != nil {
		return strings.TrimSpace(key)
	}
	if id, err := l.resolver.ResolveQuiet(c.Strategy); err == nil {
		c = c.WithStrategy(string(id))
	}
	return c.String()
}
