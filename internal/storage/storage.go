// Package storage persists a run to a single JSON document that is
// replaced atomically on every save.
package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/haskel/powermon/internal/monitor"
	"github.com/haskel/powermon/internal/progress"
	"github.com/haskel/powermon/internal/summary"
)

// Document is the persisted shape. Field order is the on-disk key order.
type Document struct {
	Measurements       []monitor.Record  `json:"measurements"`
	TotalDuration      float64           `json:"total_duration"`
	Timestamp          string            `json:"timestamp"`
	EvaluationProgress progress.Snapshot `json:"evaluation_progress"`
	Summary            summary.Summary   `json:"summary"`
}

// NewDocument builds a document saved at now for a run started at start.
func NewDocument(records []monitor.Record, p progress.Snapshot, s summary.Summary, start, now time.Time) Document {
	if records == nil {
		records = []monitor.Record{}
	}
	return Document{
		Measurements:       records,
		TotalDuration:      now.Sub(start).Seconds(),
		Timestamp:          now.Format(time.RFC3339Nano),
		EvaluationProgress: p,
		Summary:            s,
	}
}

// Writer saves documents to one output path.
type Writer struct {
	path   string
	logger *slog.Logger

	// serializes saves so a checkpoint and the final save never interleave
	mu sync.Mutex
}

// NewWriter creates a writer for path.
func NewWriter(path string, logger *slog.Logger) *Writer {
	return &Writer{
		path:   path,
		logger: logger,
	}
}

// Path returns the output path.
func (w *Writer) Path() string {
	return w.path
}

// Save writes doc to a temp file beside the target, syncs it, and renames
// it over the target. Failures are logged and returned; the previous
// document, if any, is left in place.
func (w *Writer) Save(doc Document) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.saveLocked(doc); err != nil {
		w.logger.Error("failed to save results", "path", w.path, "error", err)
		return err
	}

	w.logger.Debug("saved results",
		"path", w.path,
		"measurements", len(doc.Measurements),
	)
	return nil
}

func (w *Writer) saveLocked(doc Document) error {
	dir := filepath.Dir(w.path)

	file, err := os.CreateTemp(dir, "."+filepath.Base(w.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := file.Name()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode document: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// CreateTemp uses 0600
	if err := os.Chmod(tempPath, 0644); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to set file mode: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tempPath, w.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace output file: %w", err)
	}

	return nil
}

// Load reads a saved document.
func Load(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open results file: %w", err)
	}
	defer file.Close()

	var doc Document
	if err := json.NewDecoder(file).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode results file: %w", err)
	}

	if doc.Measurements == nil {
		doc.Measurements = []monitor.Record{}
	}

	return &doc, nil
}
