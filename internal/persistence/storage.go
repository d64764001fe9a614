package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/nateberkopec/prayerwatch/internal/prayer"
)

type todayData struct {
	Version  int             `json:"version"`
	Query    string          `json:"query"`
	Schedule prayer.Schedule `json:"schedule"`
	Fired    []string        `json:"fired"`
	SavedAt  time.Time       `json:"saved_at"`
}

const stateVersion = 1

const todayFile = "today.json"

// Store keeps the same-day schedule cache and notification history.
type Store struct {
	fs  afero.Fs
	dir string
}

// NewStore creates a store rooted at dir on fs.
func NewStore(fs afero.Fs, dir string) *Store {
	return &Store{fs: fs, dir: dir}
}

// DefaultStore creates a store in the XDG data directory on the real
// filesystem.
func DefaultStore() (*Store, error) {
	dir, err := DataDir()
	if err != nil {
		return nil, err
	}
	return NewStore(afero.NewOsFs(), dir), nil
}

// DataDir returns $XDG_DATA_HOME/prayerwatch, falling back to
// ~/.local/share/prayerwatch.
func DataDir() (string, error) {
	xdgData := os.Getenv("XDG_DATA_HOME")
	if xdgData == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		xdgData = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(xdgData, "prayerwatch"), nil
}

func (s *Store) path(name string) (string, error) {
	if err := s.fs.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return filepath.Join(s.dir, name), nil
}

// SaveToday caches the schedule resolved for query along with the keys of
// alerts that already fired.
func (s *Store) SaveToday(query string, schedule prayer.Schedule, fired []string) error {
	path, err := s.path(todayFile)
	if err != nil {
		return err
	}

	state := todayData{
		Version:  stateVersion,
		Query:    query,
		Schedule: schedule,
		Fired:    fired,
		SavedAt:  time.Now(),
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	return s.writeAtomic(path, data)
}

// LoadToday returns the cached schedule and fired keys when the cache was
// written for query and its schedule is valid on now. ok is false otherwise.
func (s *Store) LoadToday(query string, now time.Time) (schedule prayer.Schedule, fired []string, ok bool, err error) {
	path, err := s.path(todayFile)
	if err != nil {
		return prayer.Schedule{}, nil, false, err
	}

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prayer.Schedule{}, nil, false, nil
		}
		return prayer.Schedule{}, nil, false, fmt.Errorf("failed to read state file: %w", err)
	}

	var state todayData
	if err := json.Unmarshal(data, &state); err != nil {
		return prayer.Schedule{}, nil, false, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	if state.Version != stateVersion {
		return prayer.Schedule{}, nil, false, fmt.Errorf("unsupported state version: %d", state.Version)
	}

	if state.Query != query || !state.Schedule.ValidOn(now) || len(state.Schedule.Entries) == 0 {
		return prayer.Schedule{}, nil, false, nil
	}
	return state.Schedule, state.Fired, true, nil
}

func (s *Store) writeAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := s.fs.Rename(tmpPath, path); err != nil {
		s.fs.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
