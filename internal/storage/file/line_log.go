// Package file implements storage interfaces on flat files.
package file

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"options-trade-lab/internal/storage"
)

// LineLog is a newline-delimited append-only file.
type LineLog struct {
	path string
}

// NewLineLog creates a line log at path. The file is created on first append.
func NewLineLog(path string) *LineLog {
	return &LineLog{path: path}
}

// Path returns the file path of the log.
func (l *LineLog) Path() string {
	return l.path
}

// Append writes record followed by a newline in a single write and syncs the file.
func (l *LineLog) Append(_ context.Context, record []byte) error {
	if len(record) == 0 || bytes.IndexByte(record, '\n') >= 0 {
		return storage.ErrInvalidInput
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}

	line := make([]byte, 0, len(record)+1)
	line = append(line, record...)
	line = append(line, '\n')

	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("append log: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync log: %w", err)
	}
	return f.Close()
}

// ReadAll returns all non-empty lines in file order.
// A trailing line without newline (torn write) is returned as-is.
func (l *LineLog) ReadAll(_ context.Context) ([][]byte, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	var records [][]byte
	r := bufio.NewReader(f)
	for {
		line, err := r.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			records = append(records, trimmed)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
	}
	return records, nil
}

var _ storage.LineLog = (*LineLog)(nil)
