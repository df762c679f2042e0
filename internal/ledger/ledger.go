// package ledger accumulates tracks that failed to produce a file and appends them to a plain-text log.
package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/desertthunder/spotdl/internal/models"
	"github.com/desertthunder/spotdl/internal/shared"
)

const blockHeader = "Missing songs:"

// Ledger is a per-run, thread-safe list of [models.FailureRecord].
//
// Entries are kept in insertion order and duplicates are allowed.
type Ledger struct {
	mu      sync.Mutex
	flushMu sync.Mutex
	records []models.FailureRecord
}

// New creates an empty [Ledger].
func New() *Ledger {
	return &Ledger{}
}

// Record appends a failure.
func (l *Ledger) Record(artist, title string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, models.FailureRecord{Artist: artist, Title: title})
}

// Records returns a copy of the pending records.
func (l *Ledger) Records() []models.FailureRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.FailureRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of pending records.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Clear drops every pending record without writing it.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = nil
}

// Flush appends one block with every pending record to logPath and removes the flushed records.
//
// An empty ledger writes nothing. Records added while the block is being written stay pending.
// On write failure the records are kept and the error wraps [shared.ErrLedgerIO].
// Returns the number of records written.
func (l *Ledger) Flush(logPath string) (int, error) {
	l.flushMu.Lock()
	defer l.flushMu.Unlock()

	snapshot := l.Records()
	if len(snapshot) == 0 {
		return 0, nil
	}

	if err := appendBlock(logPath, FormatBlock(snapshot)); err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrLedgerIO, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.records) < len(snapshot) {
		l.records = nil
	} else {
		l.records = append([]models.FailureRecord(nil), l.records[len(snapshot):]...)
	}
	return len(snapshot), nil
}

// FormatBlock renders records the way they are written to the failure log:
//
//	Missing songs:
//	<artist> - <title>
//	...
//	<blank line>
func FormatBlock(records []models.FailureRecord) string {
	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = r.String()
	}
	return blockHeader + "\n" + strings.Join(lines, "\n") + "\n\n"
}

func appendBlock(path, block string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	if _, err := f.WriteString(block); err != nil {
		f.Close()
		return fmt.Errorf("failed to append to log file: %w", err)
	}
	return f.Close()
}
