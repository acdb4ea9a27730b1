// Package storage keeps a small local history of completed runs so past
// summaries can be listed and compared without re-parsing result files.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"mcpblast/internal/config"
	"mcpblast/internal/stats"
)

const maxItems = 100

type HistoryItem struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Config    *config.Config `json:"config"`
	Summary   *stats.Summary `json:"summary"`
}

type Store struct {
	mu       sync.RWMutex
	filePath string
	items    []HistoryItem
}

func NewStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(home, ".mcpblast")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	return newStoreAt(filepath.Join(dir, "history.json")), nil
}

func newStoreAt(path string) *Store {
	s := &Store{filePath: path}
	s.load()
	return s
}

func (s *Store) load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return // file might not exist yet
	}

	json.Unmarshal(data, &s.items)
}

// Append records a finished run at the head of the history, trimming the
// oldest entries past the cap, and returns the stored item.
func (s *Store) Append(cfg *config.Config, summary *stats.Summary) (HistoryItem, error) {
	item := HistoryItem{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Config:    cfg,
		Summary:   summary,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = append([]HistoryItem{item}, s.items...)
	if len(s.items) > maxItems {
		s.items = s.items[:maxItems]
	}

	data, err := json.MarshalIndent(s.items, "", "  ")
	if err != nil {
		return item, err
	}

	return item, os.WriteFile(s.filePath, data, 0644)
}

func (s *Store) List() []HistoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]HistoryItem, len(s.items))
	copy(res, s.items)
	return res
}

func (s *Store) Get(id string) *HistoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.items {
		if item.ID == id {
			return &item
		}
	}
	return nil
}
