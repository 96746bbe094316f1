package storage

import "context"

// LineLog is an append-only log of serialized records, one record per line.
// Implementations never rewrite or reorder existing lines.
// Callers serialize access; implementations are not required to lock.
type LineLog interface {
	// Append writes one record. The record must not contain a newline.
	Append(ctx context.Context, record []byte) error

	// ReadAll returns every record in append order. A log that does not exist yet
	// yields no records and no error.
	ReadAll(ctx context.Context) ([][]byte, error)
}

// DocumentStore holds whole documents addressed by name.
// Documents are replaced as a unit: a reader sees either the old or the new version.
type DocumentStore interface {
	// Read returns the document. Returns ErrNotFound if it does not exist.
	Read(ctx context.Context, name string) ([]byte, error)

	// Write replaces the document atomically.
	Write(ctx context.Context, name string, data []byte) error
}
