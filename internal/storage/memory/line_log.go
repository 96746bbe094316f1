package memory

import (
	"bytes"
	"context"
	"sync"

	"options-trade-lab/internal/storage"
)

// LineLog is an in-memory implementation of storage.LineLog.
type LineLog struct {
	mu      sync.RWMutex
	records [][]byte
}

// NewLineLog creates an empty in-memory line log.
func NewLineLog() *LineLog {
	return &LineLog{}
}

// Append adds a record. Returns ErrInvalidInput for empty or multi-line records.
func (l *LineLog) Append(_ context.Context, record []byte) error {
	if len(record) == 0 || bytes.IndexByte(record, '\n') >= 0 {
		return storage.ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, bytes.Clone(record))
	return nil
}

// AppendRaw adds a record without validation, for simulating corrupt logs in tests.
func (l *LineLog) AppendRaw(record []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, bytes.Clone(record))
}

// ReadAll returns copies of all records in append order.
func (l *LineLog) ReadAll(_ context.Context) ([][]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([][]byte, len(l.records))
	for i, r := range l.records {
		result[i] = bytes.Clone(r)
	}
	return result, nil
}

// Len returns the number of records.
func (l *LineLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

var _ storage.LineLog = (*LineLog)(nil)
