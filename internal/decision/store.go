package decision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"options-trade-lab/internal/domain"
	"options-trade-lab/internal/observability"
	"options-trade-lab/internal/storage"
	"options-trade-lab/internal/storage/file"
	"options-trade-lab/internal/tradekey"
	"options-trade-lab/internal/validation"
)

const (
	storeName    = "decisions"
	fileSuffix   = ".decisions.json"
	fallbackBase = "report"
)

// ErrCorruptDocument is returned when an existing decision document cannot be parsed.
// The document is left untouched.
var ErrCorruptDocument = errors.New("corrupt decision document")

// Store keeps one JSON array of decisions per report file.
// Appends are read-modify-write under a single mutex.
type Store struct {
	mu       sync.Mutex
	docs     storage.DocumentStore
	resolver StrategyResolver
	emitter  validation.Emitter
	clock    domain.Clock
	logger   zerolog.Logger
	metrics  *observability.Metrics
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(clock domain.Clock) Option {
	return func(s *Store) { s.clock = clock }
}

// WithMetrics attaches Prometheus counters.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithEmitter records key repairs in the validation log.
func WithEmitter(e validation.Emitter) Option {
	return func(s *Store) { s.emitter = e }
}

// NewStore creates a decision store over any document store.
// The resolver canonicalizes the strategy component of every key; nil keeps it as written.
func NewStore(docs storage.DocumentStore, resolver StrategyResolver, logger zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		docs:     docs,
		resolver: resolver,
		emitter:  validation.Discard,
		clock:    domain.SystemClock,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFileStore creates a decision store writing documents under dir.
func NewFileStore(dir string, resolver StrategyResolver, logger zerolog.Logger, opts ...Option) *Store {
	return NewStore(file.NewDocumentStore(dir), resolver, logger, opts...)
}

// FileName returns the document name used for reportFile.
// Only the base name is kept, without extension; characters outside
// [A-Za-z0-9._-] become '_'. The result never contains a path separator.
func FileName(reportFile string) string {
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(reportFile), `\`, "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))

	var sb strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}

	name := strings.TrimLeft(sb.String(), ".")
	if name == "" {
		name = fallbackBase
	}
	return name + fileSuffix
}

// AppendReject records a rejection of tradeKey against reportFile.
// Keys are stored in canonical form with the strategy alias resolved; a repaired key
// is reported as DECISION_KEY_NON_CANONICAL. Malformed keys are rejected with
// storage.ErrInvalidInput, unknown strategies with the resolver's error.
func (s *Store) AppendReject(ctx context.Context, reportFile, tradeKey, reason string) (Decision, error) {
	provided := strings.TrimSpace(tradeKey)
	if provided == "" {
		return Decision{}, fmt.Errorf("%w: empty trade key", storage.ErrInvalidInput)
	}
	if _, err := tradekey.Parse(provided); err != nil {
		return Decision{}, fmt.Errorf("%w: %w", storage.ErrInvalidInput, err)
	}
	key, err := CanonicalKey(provided, s.resolver)
	if err != nil {
		return Decision{}, err
	}

	d := Decision{
		Type:      TypeReject,
		TradeKey:  key,
		Reason:    strings.TrimSpace(reason),
		CreatedAt: domain.FormatTimestamp(s.clock()),
	}
	name := FileName(reportFile)

	s.mu.Lock()
	err = s.append(ctx, name, d)
	s.mu.Unlock()
	if err != nil {
		return Decision{}, err
	}

	s.metrics.RecordDecision(string(d.Type))
	if key != provided {
		s.reportRepair(ctx, reportFile, provided, key)
	}
	s.logger.Debug().
		Str("report", name).
		Str("trade_key", key).
		Msg("Recorded trade rejection")
	return d, nil
}

// RejectTrade derives the canonical key of t through keys and records a rejection.
// A nil keys builds the key from the trade and resolves it like AppendReject.
func (s *Store) RejectTrade(ctx context.Context, reportFile string, t *domain.Trade, reason string, keys KeyResolver) (Decision, error) {
	if !t.HasIdentity() {
		return Decision{}, fmt.Errorf("%w: trade has no underlying", storage.ErrInvalidInput)
	}
	if keys == nil {
		return s.AppendReject(ctx, reportFile, tradekey.ForTrade(t), reason)
	}
	key, err := keys.KeyFor(t)
	if err != nil {
		return Decision{}, fmt.Errorf("derive trade key: %w", err)
	}
	return s.AppendReject(ctx, reportFile, key, reason)
}

// ListDecisions returns the decisions recorded for reportFile in append order.
// Missing or unreadable documents yield an empty result.
func (s *Store) ListDecisions(ctx context.Context, reportFile string) []Decision {
	name := FileName(reportFile)

	s.mu.Lock()
	decisions, err := s.load(ctx, name)
	s.mu.Unlock()

	if err != nil {
		s.metrics.RecordStorageError(storeName, "read")
		s.logger.Warn().Err(err).Str("report", name).Msg("Failed to read decisions")
		return []Decision{}
	}
	return decisions
}

// RejectedKeys returns the canonical keys rejected for reportFile.
func (s *Store) RejectedKeys(ctx context.Context, reportFile string) map[string]struct{} {
	return RejectedKeys(s.ListDecisions(ctx, reportFile), s.resolver)
}

// Dedupe collapses decisions by canonical key using the store's resolver.
func (s *Store) Dedupe(decisions []Decision) []Decision {
	return Dedupe(decisions, s.resolver)
}

// append must be called with s.mu held.
func (s *Store) append(ctx context.Context, name string, d Decision) error {
	decisions, err := s.load(ctx, name)
	if err != nil {
		s.metrics.RecordStorageError(storeName, "read")
		return err
	}
	decisions = append(decisions, d)

	data, err := json.MarshalIndent(decisions, "", "  ")
	if err != nil {
		return fmt.Errorf("encode decisions %s: %w", name, err)
	}
	if err := s.docs.Write(ctx, name, append(data, '\n')); err != nil {
		s.metrics.RecordStorageError(storeName, "write")
		return fmt.Errorf("write decisions %s: %w", name, err)
	}
	return nil
}

func (s *Store) load(ctx context.Context, name string) ([]Decision, error) {
	data, err := s.docs.Read(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return []Decision{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read decisions %s: %w", name, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return []Decision{}, nil
	}

	var decisions []Decision
	if err := json.Unmarshal(data, &decisions); err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrCorruptDocument, name, err)
	}
	if decisions == nil {
		decisions = []Decision{}
	}
	return decisions, nil
}

func (s *Store) reportRepair(ctx context.Context, reportFile, provided, canonical string) {
	_, err := s.emitter.AppendEvent(ctx, validation.SeverityWarn, validation.CodeDecisionKeyNonCanonical,
		"decision trade key replaced with canonical form",
		map[string]any{
			"report_file": reportFile,
			"provided":    provided,
			"canonical":   canonical,
		})
	if err != nil {
		s.logger.Warn().Err(err).Str("trade_key", canonical).Msg("Failed to record decision key repair")
	}
}
