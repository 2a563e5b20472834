// Package catalog persists named queries in a JSON file next to the
// server. The file is the source of truth: every operation reloads it, so
// external edits are picked up on the next request.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SavedQuery is one catalog entry.
type SavedQuery struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	SQL       string     `json:"sql"`
	CreatedAt time.Time  `json:"created"`
	UpdatedAt *time.Time `json:"updated,omitempty"`
}

// Store reads and writes the saved-query file. Operations serialize on a
// mutex so concurrent requests cannot interleave a read-modify-write.
type Store struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewStore creates a Store backed by the given file path. The file does
// not need to exist yet.
func NewStore(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// load reads the whole catalog. A missing file is an empty catalog.
func (s *Store) load() (map[string]SavedQuery, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]SavedQuery{}, nil
		}
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	entries := map[string]SavedQuery{}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", s.path, err)
	}
	return entries, nil
}

func (s *Store) save(entries map[string]SavedQuery) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}

// List returns every saved query ordered by creation time, oldest first.
// Entries created in the same instant fall back to name order.
func (s *Store) List() ([]SavedQuery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return nil, err
	}

	list := make([]SavedQuery, 0, len(entries))
	for _, q := range entries {
		list = append(list, q)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].Name < list[j].Name
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}

// Get returns the entry with the given id, or false when absent.
func (s *Store) Get(id string) (SavedQuery, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return SavedQuery{}, false, err
	}
	q, ok := entries[id]
	return q, ok, nil
}

// Upsert saves a query. An empty or unknown id creates a new entry with a
// fresh identifier; a known id overwrites that entry's name and SQL and
// stamps the update time, keeping the original creation time.
func (s *Store) Upsert(id, name, sqlText string) (SavedQuery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return SavedQuery{}, err
	}

	existing, ok := entries[id]
	if id == "" || !ok {
		q := SavedQuery{
			ID:        uuid.NewString(),
			Name:      name,
			SQL:       sqlText,
			CreatedAt: s.now().UTC(),
		}
		entries[q.ID] = q
		return q, s.save(entries)
	}

	updated := s.now().UTC()
	existing.Name = name
	existing.SQL = sqlText
	existing.UpdatedAt = &updated
	entries[id] = existing
	return existing, s.save(entries)
}

// Delete removes the entry with the given id. Deleting an unknown id is a
// no-op.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := entries[id]; !ok {
		return nil
	}
	delete(entries, id)
	return s.save(entries)
}

// FindByScript returns the first saved query whose SQL matches the given
// script after trimming surrounding whitespace on both sides. Used to name
// CSV exports after the query they came from.
func (s *Store) FindByScript(script string) (SavedQuery, bool, error) {
	list, err := s.List()
	if err != nil {
		return SavedQuery{}, false, err
	}

	want := strings.TrimSpace(script)
	for _, q := range list {
		if strings.TrimSpace(q.SQL) == want {
			return q, true, nil
		}
	}
	return SavedQuery{}, false, nil
}
