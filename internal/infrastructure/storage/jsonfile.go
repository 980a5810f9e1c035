package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"PlateBot/internal/domain"
	"PlateBot/internal/ports"
)

const (
	recordsFile = "records.json"
	queueFile   = "queue.json"
	postedFile  = "posted.json"
)

// Files persists the pool, the queue and the published history as whole
// JSON files under one data directory. Every save rewrites the file via a
// temp file and rename, so readers never observe a half-written state.
type Files struct {
	dir string
}

var _ ports.RecordStore = (*Files)(nil)
var _ ports.QueueStore = (*Files)(nil)
var _ ports.HistoryStore = (*Files)(nil)

// NewFiles wires a store rooted at dir.
func NewFiles(dir string) *Files {
	return &Files{dir: dir}
}

// EnsureLayout creates the data directory and seeds the queue and history
// files with empty arrays when absent.
func (f *Files) EnsureLayout() error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	for _, name := range []string{queueFile, postedFile} {
		path := filepath.Join(f.dir, name)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
				return fmt.Errorf("seed %s: %w", name, err)
			}
		} else if err != nil {
			return fmt.Errorf("stat %s: %w", name, err)
		}
	}

	return nil
}

// HasRecords reports whether the pool file exists, i.e. whether the corpus
// has already been normalized.
func (f *Files) HasRecords() bool {
	_, err := os.Stat(filepath.Join(f.dir, recordsFile))
	return err == nil
}

// LoadRecords reads the full pool.
func (f *Files) LoadRecords() ([]domain.Record, error) {
	var records []domain.Record
	if err := f.load(recordsFile, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// SaveRecords rewrites the full pool.
func (f *Files) SaveRecords(records []domain.Record) error {
	if records == nil {
		records = []domain.Record{}
	}
	return f.save(recordsFile, records)
}

// LoadQueue reads the full queue.
func (f *Files) LoadQueue() ([]domain.QueueEntry, error) {
	var entries []domain.QueueEntry
	if err := f.load(queueFile, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// SaveQueue rewrites the full queue.
func (f *Files) SaveQueue(entries []domain.QueueEntry) error {
	if entries == nil {
		entries = []domain.QueueEntry{}
	}
	return f.save(queueFile, entries)
}

// AppendPosted adds one entry to the published history.
func (f *Files) AppendPosted(entry domain.QueueEntry) error {
	var posted []domain.QueueEntry
	if err := f.load(postedFile, &posted); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		posted = []domain.QueueEntry{}
	}

	posted = append(posted, entry)
	return f.save(postedFile, posted)
}

func (f *Files) load(name string, v any) error {
	path := filepath.Join(f.dir, name)
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func (f *Files) save(name string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	path := filepath.Join(f.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
