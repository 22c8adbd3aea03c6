// Package store provides an in-memory record store organised in named tables.
package store

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrExists        = errors.New("record already exists")
	ErrInvalidRecord = errors.New("invalid record")
)

// Record is one row of a table. Every stored record carries a string "id".
type Record map[string]any

// ID returns the record id, or "" if it has none.
func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Clone returns a shallow copy; record values are JSON scalars so this is
// enough to keep callers away from stored state.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}

// Option configures a Store.
type Option func(*Store)

// WithSnapshot persists every table to a JSON file at path after each
// mutation and loads it on start when it exists.
func WithSnapshot(path string) Option {
	return func(s *Store) {
		s.snapshotPath = path
	}
}

// Store holds ordered tables of records. Reads and writes are serialized;
// every filtered read is a full scan.
type Store struct {
	mu           sync.RWMutex
	tables       map[string][]Record
	snapshotPath string
}

// New creates a store, loading the snapshot file if one is configured.
func New(opts ...Option) (*Store, error) {
	s := &Store{
		tables: make(map[string][]Record),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.snapshotPath != "" {
		if err := s.load(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Insert appends rec to table. A missing or empty id is replaced by a
// generated UUID; an id already present in the table is rejected with ErrExists.
func (s *Store) Insert(table string, rec Record) (Record, error) {
	rec = rec.Clone()
	if rec == nil {
		rec = Record{}
	}

	switch id := rec["id"].(type) {
	case nil:
		rec["id"] = uuid.NewString()
	case string:
		if id == "" {
			rec["id"] = uuid.NewString()
		}
	default:
		return nil, fmt.Errorf("%w: id must be a string, got %T", ErrInvalidRecord, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.tables[table]
	if indexOf(rows, rec.ID()) >= 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrExists, table, rec.ID())
	}

	s.tables[table] = append(rows, rec)
	if err := s.persist(); err != nil {
		s.restore(table, rows)
		return nil, err
	}
	return rec.Clone(), nil
}

// Select returns the records of table in insertion order. With a non-empty
// filter a record is kept when ANY of the named fields is a string that
// contains the corresponding value (case-sensitive).
func (s *Store) Select(table string, filter map[string]string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.tables[table]
	out := make([]Record, 0, len(rows))
	for _, rec := range rows {
		if len(filter) > 0 && !matches(rec, filter) {
			continue
		}
		out = append(out, rec.Clone())
	}
	return out
}

// Get returns a copy of the record with the given id.
func (s *Store) Get(table, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.tables[table]
	i := indexOf(rows, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, table, id)
	}
	return rows[i].Clone(), nil
}

// Update replaces the record stored under id with rec. The stored id is
// always id; keeping other immutable fields is up to the caller.
func (s *Store) Update(table, id string, rec Record) (Record, error) {
	rec = rec.Clone()
	if rec == nil {
		rec = Record{}
	}
	rec["id"] = id

	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.tables[table]
	i := indexOf(rows, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, table, id)
	}

	prev := rows[i]
	rows[i] = rec
	if err := s.persist(); err != nil {
		rows[i] = prev
		return nil, err
	}
	return rec.Clone(), nil
}

// Delete removes the record with the given id. Deleting an absent id is a no-op.
func (s *Store) Delete(table, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.tables[table]
	i := indexOf(rows, id)
	if i < 0 {
		return nil
	}

	s.tables[table] = append(rows[:i:i], rows[i+1:]...)
	if err := s.persist(); err != nil {
		s.restore(table, rows)
		return err
	}
	return nil
}

// Count returns the number of records in table.
func (s *Store) Count(table string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables[table])
}

// Tables returns the table names in sorted order.
func (s *Store) Tables() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Store) restore(table string, rows []Record) {
	if rows == nil {
		delete(s.tables, table)
		return
	}
	s.tables[table] = rows
}

func indexOf(rows []Record, id string) int {
	for i, rec := range rows {
		if rec.ID() == id {
			return i
		}
	}
	return -1
}

func matches(rec Record, filter map[string]string) bool {
	for field, query := range filter {
		value, ok := rec[field].(string)
		if ok && strings.Contains(value, query) {
			return true
		}
	}
	return false
}
