// Package state persists the monitor's durable memory: when the target was
// last healthy, when repairs were last attempted, and the daily AI budget.
// Everything lives in one JSON file under the monitor state directory.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// State is the persisted record. Pointer fields distinguish "never" from a
// real value; the file always carries all five keys.
type State struct {
	LastOKTs        *int64  `json:"last_ok_ts"`
	LastRepairTs    *int64  `json:"last_repair_ts"`
	LastAITs        *int64  `json:"last_ai_ts"`
	AIAttemptsDay   *string `json:"ai_attempts_day"`
	AIAttemptsCount int     `json:"ai_attempts_count"`
}

// Store reads and writes the state file. Access is single-threaded by
// design: one locked instance owns the state directory.
type Store struct {
	dir  string
	path string

	// now is swappable so the scheduler tests can pin the clock.
	now func() time.Time
}

// NewStore creates the state directory if needed and returns a store for
// <dir>/state.json.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &Store{
		dir:  dir,
		path: filepath.Join(dir, "state.json"),
		now:  time.Now,
	}, nil
}

// Path returns the state file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the persisted state. A missing, unreadable or corrupt file
// yields the zero state: the store heals itself on the next save.
func (s *Store) Load() State {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return State{}
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}
	}
	return st
}

// Save writes the state atomically: a temp file in the same directory,
// renamed over the target, so readers never observe a partial file.
func (s *Store) Save(st State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// MarkOK records that the target was just observed healthy.
func (s *Store) MarkOK() error {
	st := s.Load()
	ts := s.now().Unix()
	st.LastOKTs = &ts
	return s.Save(st)
}
