package store

import (
	"encoding/json"
	"fmt"

	"tasks-server/internal/common"
)

// load reads the snapshot file. A missing file means an empty store.
func (s *Store) load() error {
	if !common.FileExists(s.snapshotPath) {
		return nil
	}

	data, err := common.ReadBlob(s.snapshotPath)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var tables map[string][]Record
	if err := json.Unmarshal(data, &tables); err != nil {
		return fmt.Errorf("failed to parse snapshot %s: %w", s.snapshotPath, err)
	}

	for name, rows := range tables {
		seen := make(map[string]bool, len(rows))
		for _, rec := range rows {
			id := rec.ID()
			if id == "" {
				return fmt.Errorf("%w: snapshot table %s has a record without id", ErrInvalidRecord, name)
			}
			if seen[id] {
				return fmt.Errorf("%w: snapshot table %s repeats id %s", ErrExists, name, id)
			}
			seen[id] = true
		}
		if rows != nil {
			s.tables[name] = rows
		}
	}
	return nil
}

// persist writes every table to the snapshot file. Callers hold s.mu.
func (s *Store) persist() error {
	if s.snapshotPath == "" {
		return nil
	}

	data, err := json.MarshalIndent(s.tables, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := common.SaveBlob(s.snapshotPath, data); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}
