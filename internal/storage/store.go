package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"irisload/internal/runner"
)

const (
	BucketRuns = "runs"
)

var ErrNotFound = errors.New("run not found")

// HistoryItem is one saved run. IDs are UUIDv7, so key order is time order.
type HistoryItem struct {
	ID          string         `json:"id"`
	Timestamp   time.Time      `json:"timestamp"`
	TargetURL   string         `json:"target_url"`
	Requests    int            `json:"requests"`
	Concurrency int            `json:"concurrency"`
	Scenario    string         `json:"scenario,omitempty"`
	Summary     runner.Summary `json:"summary"`
}

// NewHistoryItem captures the identifying config and the summary of res.
func NewHistoryItem(res *runner.Result, scenario string) HistoryItem {
	return HistoryItem{
		ID:          res.ID,
		Timestamp:   res.StartedAt,
		TargetURL:   res.Config.TargetURL,
		Requests:    res.Config.TotalRequests,
		Concurrency: res.Config.Concurrency,
		Scenario:    scenario,
		Summary:     res.Summary(),
	}
}

type Store struct {
	db *bbolt.DB
}

// DefaultPath is ~/.irisload/history.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".irisload", "history.db"), nil
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BucketRuns))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Save(item HistoryItem) error {
	if item.ID == "" {
		return errors.New("history item has no id")
	}
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(BucketRuns)).Put([]byte(item.ID), data)
	})
}

// List returns saved runs newest first; limit <= 0 means all.
func (s *Store) List(limit int) ([]HistoryItem, error) {
	var items []HistoryItem

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(BucketRuns)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(items) >= limit {
				break
			}
			var item HistoryItem
			if err := json.Unmarshal(v, &item); err != nil {
				return fmt.Errorf("decode run %s: %w", k, err)
			}
			items = append(items, item)
		}
		return nil
	})
	return items, err
}

func (s *Store) Get(id string) (*HistoryItem, error) {
	var item HistoryItem
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(BucketRuns)).Get([]byte(id))
		if v == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return json.Unmarshal(v, &item)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}
