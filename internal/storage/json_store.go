package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/julianstephens/habitcast/internal/models"
)

type Store struct {
	Version int                 `json:"version"`
	Posts   []models.PostRecord `json:"posts"`
}

type JSONStore struct {
	path  string
	store *Store
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{
		path: path,
	}
}

// Load reads the history file. A missing file is an empty history.
func (s *JSONStore) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.store = &Store{Version: 1, Posts: []models.PostRecord{}}
			return nil
		}
		return fmt.Errorf("failed to read history: %w", err)
	}

	s.store = &Store{}
	if err := json.Unmarshal(data, s.store); err != nil {
		return fmt.Errorf("failed to parse history %s: %w", s.path, err)
	}
	if s.store.Posts == nil {
		s.store.Posts = []models.PostRecord{}
	}
	return nil
}

// Close drops the loaded history; Load must run again before further use.
func (s *JSONStore) Close() error {
	s.store = nil
	return nil
}

func (s *JSONStore) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	data, err := json.MarshalIndent(s.store, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize history: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *JSONStore) AppendPost(rec models.PostRecord) error {
	if s.store == nil {
		return fmt.Errorf("storage not loaded")
	}
	if rec.ID == "" {
		return fmt.Errorf("post record requires an id")
	}

	prev := s.store.Posts
	s.store.Posts = append(prev, rec)
	if err := s.save(); err != nil {
		s.store.Posts = prev
		return err
	}
	return nil
}

// ListPosts returns matching records, newest first.
func (s *JSONStore) ListPosts(f Filter) ([]models.PostRecord, error) {
	if s.store == nil {
		return nil, fmt.Errorf("storage not loaded")
	}

	var out []models.PostRecord
	for _, rec := range s.store.Posts {
		if f.HabitID != "" && rec.HabitID != f.HabitID {
			continue
		}
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PostedAt.After(out[j].PostedAt)
	})

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}
