package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"options-trade-lab/internal/domain"
	"options-trade-lab/internal/observability"
	"options-trade-lab/internal/storage"
	"options-trade-lab/internal/storage/file"
)

const storeName = "validation"

// Sink is the append-only validation event log.
// One mutex per sink serializes appends and reads so a reader never sees a torn line.
type Sink struct {
	mu      sync.Mutex
	log     storage.LineLog
	clock   domain.Clock
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// Option configures a Sink.
type Option func(*Sink)

// WithClock overrides the timestamp source.
func WithClock(clock domain.Clock) Option {
	return func(s *Sink) { s.clock = clock }
}

// WithMetrics attaches Prometheus counters.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Sink) { s.metrics = m }
}

// NewSink creates a sink over any line log.
func NewSink(log storage.LineLog, logger zerolog.Logger, opts ...Option) *Sink {
	s := &Sink{
		log:    log,
		clock:  domain.SystemClock,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFileSink creates a sink writing JSON lines to path.
func NewFileSink(path string, logger zerolog.Logger, opts ...Option) *Sink {
	return NewSink(file.NewLineLog(path), logger, opts...)
}

// AppendEvent normalizes and appends one event. Severity is warn or error.
func (s *Sink) AppendEvent(ctx context.Context, severity Severity, code, message string, details map[string]any) (Event, error) {
	return s.append(ctx, NormalizeSeverity(string(severity), false), code, message, details)
}

// AppendInfo appends an informational event.
func (s *Sink) AppendInfo(ctx context.Context, code, message string, details map[string]any) (Event, error) {
	return s.append(ctx, SeverityInfo, code, message, details)
}

func (s *Sink) append(ctx context.Context, severity Severity, code, message string, details map[string]any) (Event, error) {
	if details == nil {
		details = map[string]any{}
	}
	ev := Event{
		Severity: severity,
		Code:     NormalizeCode(code),
		Message:  message,
		Context:  details,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ev.Timestamp = domain.FormatTimestamp(s.clock())
	line, err := json.Marshal(ev)
	if err != nil {
		return Event{}, fmt.Errorf("encode validation event %s: %w", ev.Code, err)
	}

	if err := s.log.Append(ctx, line); err != nil {
		s.metrics.RecordStorageError(storeName, "append")
		return Event{}, fmt.Errorf("append validation event %s: %w", ev.Code, err)
	}

	s.metrics.RecordValidationEvent(ev.Code, string(ev.Severity))
	s.logger.Debug().
		Str("code", ev.Code).
		Str("severity", string(ev.Severity)).
		Msg(message)
	return ev, nil
}

// ReadRecent returns the last limit events; limit <= 0 returns all.
// Lines that fail to parse are dropped, so fewer than limit events may come back.
// Read failures are logged and yield an empty result.
func (s *Sink) ReadRecent(ctx context.Context, limit int) []Event {
	s.mu.Lock()
	records, err := s.log.ReadAll(ctx)
	s.mu.Unlock()

	if err != nil {
		s.metrics.RecordStorageError(storeName, "read")
		s.logger.Warn().Err(err).Msg("Failed to read validation log")
		return []Event{}
	}

	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}

	events := make([]Event, 0, len(records))
	for _, r := range records {
		var ev Event
		if err := json.Unmarshal(r, &ev); err != nil {
			s.metrics.RecordCorruptLine(storeName)
			continue
		}
		events = append(events, ev)
	}
	return events
}

var _ Emitter = (*Sink)(nil)
