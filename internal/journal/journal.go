// Package journal keeps a durable record of sync passes in an embedded
// BadgerDB, one run header per pass and one entry per action taken.
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	runKeyPrefix   = "run:"
	entryKeyPrefix = "entry:"
)

// Action is the decision recorded for a single file within one pass.
type Action string

const (
	ActionCopy    Action = "copy"
	ActionVersion Action = "version"
	ActionSkip    Action = "skip"
)

// Run is the header stored once per sync pass.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DryRun     bool      `json:"dry_run"`
	Copied     int       `json:"copied"`
	Versioned  int       `json:"versioned"`
	Skipped    int       `json:"skipped"`
	Error      string    `json:"error,omitempty"`
}

// Entry records one per-file action within a run.
type Entry struct {
	Seq           int       `json:"seq"`
	Name          string    `json:"name"`
	Action        Action    `json:"action"`
	VersionedName string    `json:"versioned_name,omitempty"`
	Time          time.Time `json:"time"`
}

type Journal struct {
	db *badger.DB
}

// Open initializes the journal database under dir, creating it if needed.
func Open(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	opts := badger.DefaultOptions(dir).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening journal database: %w", err)
	}

	return &Journal{db: db}, nil
}

// OpenInMemory returns a journal backed by an in-memory store, for tests.
func OpenInMemory() (*Journal, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening in-memory journal: %w", err)
	}

	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Begin starts recording a new run and returns its recorder.
func (j *Journal) Begin(dryRun bool) *Recorder {
	return &Recorder{
		journal: j,
		run: Run{
			ID:        uuid.New().String(),
			StartedAt: time.Now(),
			DryRun:    dryRun,
		},
	}
}

// List returns up to limit run headers, newest first.
func (j *Journal) List(limit int) ([]Run, error) {
	var runs []Run

	err := j.db.View(func(txn *badger.Txn) error {
		prefix := []byte(runKeyPrefix)

		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true

		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration needs a seek key past every run key.
		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(runs) >= limit {
				break
			}
			var run Run
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &run)
			}); err != nil {
				return fmt.Errorf("decoding run header: %w", err)
			}
			runs = append(runs, run)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return runs, nil
}

// Entries returns the per-file records of a run in recorded order.
func (j *Journal) Entries(runID string) ([]Entry, error) {
	var entries []Entry

	err := j.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("%s%s:", entryKeyPrefix, runID))

		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			var entry Entry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				return fmt.Errorf("decoding run entry: %w", err)
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// Recorder accumulates one run's records.
type Recorder struct {
	journal *Journal
	run     Run
	seq     int
}

func (r *Recorder) RunID() string {
	return r.run.ID
}

// Record stores one per-file action. versionedName is empty except for
// ActionVersion.
func (r *Recorder) Record(name string, action Action, versionedName string) error {
	entry := Entry{
		Seq:           r.seq,
		Name:          name,
		Action:        action,
		VersionedName: versionedName,
		Time:          time.Now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling journal entry: %w", err)
	}

	key := []byte(fmt.Sprintf("%s%s:%06d", entryKeyPrefix, r.run.ID, r.seq))
	if err := r.journal.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	}); err != nil {
		return fmt.Errorf("storing journal entry: %w", err)
	}

	r.seq++
	switch action {
	case ActionCopy:
		r.run.Copied++
	case ActionVersion:
		r.run.Versioned++
	case ActionSkip:
		r.run.Skipped++
	}

	return nil
}

// Finish writes the run header. runErr, if non-nil, is preserved in the
// header so failed passes remain diagnosable later.
func (r *Recorder) Finish(runErr error) error {
	r.run.FinishedAt = time.Now()
	if runErr != nil {
		r.run.Error = runErr.Error()
	}

	data, err := json.Marshal(r.run)
	if err != nil {
		return fmt.Errorf("marshaling run header: %w", err)
	}

	// Zero-padded nanos keep lexicographic order chronological.
	key := []byte(fmt.Sprintf("%s%020d:%s", runKeyPrefix, r.run.StartedAt.UnixNano(), r.run.ID))
	if err := r.journal.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	}); err != nil {
		return fmt.Errorf("storing run header: %w", err)
	}

	return nil
}
