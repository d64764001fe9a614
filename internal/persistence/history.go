package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"
)

// HistoryEntry records a delivered notification.
type HistoryEntry struct {
	Title   string    `json:"title"`
	Message string    `json:"message"`
	FiredAt time.Time `json:"fired_at"`
}

type historyData struct {
	Version int            `json:"version"`
	Entries []HistoryEntry `json:"entries"`
	SavedAt time.Time      `json:"saved_at"`
}

const historyVersion = 1
const maxHistorySize = 500

const historyFile = "history.json"

// AppendHistory adds entry to the notification history, keeping the most
// recent maxHistorySize entries.
func (s *Store) AppendHistory(entry HistoryEntry) error {
	entries, err := s.LoadHistory()
	if err != nil {
		return err
	}
	entries = append(entries, entry)

	// Limit history size
	if len(entries) > maxHistorySize {
		entries = entries[len(entries)-maxHistorySize:]
	}

	path, err := s.path(historyFile)
	if err != nil {
		return err
	}

	history := historyData{
		Version: historyVersion,
		Entries: entries,
		SavedAt: time.Now(),
	}

	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	return s.writeAtomic(path, data)
}

// LoadHistory returns delivered notifications, oldest first.
func (s *Store) LoadHistory() ([]HistoryEntry, error) {
	path, err := s.path(historyFile)
	if err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []HistoryEntry{}, nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	var history historyData
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}

	if history.Version != historyVersion {
		return nil, fmt.Errorf("unsupported history version: %d", history.Version)
	}

	return history.Entries, nil
}
