// Package storage archives evaluation runs in a BoltDB file so earlier
// selections can be listed and inspected after the fact.
//
// Runs are keyed by "<unix-nano>_<id>" with a zero padded timestamp, so a
// cursor walks them in creation order. A second bucket maps run IDs to
// their keys for direct lookup.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	dbFile     = "profit-runs.db"
	runsBucket = "runs"    // run key -> RunRecord JSON
	idsBucket  = "run_ids" // run ID -> run key
)

// ErrRunNotFound is returned by GetRun for an unknown ID.
var ErrRunNotFound = errors.New("run not found")

// Store provides persistent storage for evaluation runs using BoltDB.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the archive under dataPath and ensures its buckets exist.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, dbFile)

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(runsBucket)); err != nil {
			return fmt.Errorf("create runs bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(idsBucket)); err != nil {
			return fmt.Errorf("create run ids bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database. It is safe to call more than once.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// StoreRun writes rec. The record must carry an ID and a creation time.
func (s *Store) StoreRun(rec RunRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("store run: missing id")
	}
	if rec.CreatedAt.IsZero() {
		return fmt.Errorf("store run %s: missing creation time", rec.ID)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal run: %w", err)
		}

		key := runKey(rec.CreatedAt, rec.ID)
		if err := tx.Bucket([]byte(runsBucket)).Put(key, data); err != nil {
			return err
		}
		return tx.Bucket([]byte(idsBucket)).Put([]byte(rec.ID), key)
	})
}

// GetRun looks a run up by ID.
func (s *Store) GetRun(id string) (RunRecord, error) {
	var rec RunRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		key := tx.Bucket([]byte(idsBucket)).Get([]byte(id))
		if key == nil {
			return fmt.Errorf("%s: %w", id, ErrRunNotFound)
		}
		data := tx.Bucket([]byte(runsBucket)).Get(key)
		if data == nil {
			return fmt.Errorf("%s: %w", id, ErrRunNotFound)
		}
		return json.Unmarshal(data, &rec)
	})
	return rec, err
}

// ListRuns returns up to limit runs, newest first. A limit of zero or less
// returns every run.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	var runs []RunRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(runsBucket)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(runs) >= limit {
				break
			}
			var rec RunRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue // Skip malformed records
			}
			runs = append(runs, rec)
		}
		return nil
	})
	return runs, err
}

// ListRunsBetween returns the runs created in [start, end], oldest first.
func (s *Store) ListRunsBetween(start, end time.Time) ([]RunRecord, error) {
	var runs []RunRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(runsBucket)).Cursor()

		startKey := timePrefix(start)
		endKey := timePrefix(end.Add(time.Nanosecond))

		for k, v := c.Seek(startKey); k != nil && bytes.Compare(k, endKey) < 0; k, v = c.Next() {
			var rec RunRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}
			runs = append(runs, rec)
		}
		return nil
	})
	return runs, err
}

func runKey(ts time.Time, id string) []byte {
	return append(timePrefix(ts), []byte("_"+id)...)
}

func timePrefix(ts time.Time) []byte {
	return []byte(fmt.Sprintf("%020d", ts.UnixNano()))
}
