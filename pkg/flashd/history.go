package flashd

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var historyBucket = []byte("JobHistory")

// Entry is one row of the daemon's local history store, queryable by
// a CLI's --history flag.
type Entry struct {
	JobID     string    `json:"job_id"`
	Device    string    `json:"device"`
	Op        Operation `json:"op"`
	Start     int       `json:"start"`
	Length    int       `json:"length"`
	Completed int       `json:"completed"`
	Status    string    `json:"status"`
	Err       string    `json:"err,omitempty"`
	Finished  time.Time `json:"finished"`
}

// History is a bbolt-backed append log of completed and failed jobs.
type History struct {
	db *bbolt.DB
}

// OpenHistory opens (creating if necessary) the history database at
// path.
func OpenHistory(path string) (*History, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("flashd: open history: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(historyBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("flashd: create history bucket: %w", err)
	}
	return &History{db: db}, nil
}

// Close closes the underlying database.
func (h *History) Close() error {
	return h.db.Close()
}

// Record appends an entry, keyed by job ID.
func (h *History) Record(entry Entry) error {
	return h.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(historyBucket)
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshal history entry: %w", err)
		}
		return b.Put([]byte(entry.JobID), data)
	})
}

// All returns every recorded entry, in no particular order.
func (h *History) All() ([]Entry, error) {
	var entries []Entry
	err := h.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(historyBucket)
		return b.ForEach(func(k, v []byte) error {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return err
			}
			entries = append(entries, entry)
			return nil
		})
	})
	return entries, err
}
