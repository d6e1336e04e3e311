package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/habitcast/internal/models"
)

func newStore(t *testing.T) (*JSONStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "history.json")
	s := NewJSONStore(path)
	if err := s.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return s, path
}

func record(id, habit string, at time.Time) models.PostRecord {
	v := 5.0
	return models.PostRecord{
		ID:       id,
		RunID:    "run-1",
		HabitID:  habit,
		Channel:  "C1",
		Value:    &v,
		Text:     "Read : 5/-",
		Policy:   "exact",
		Stamp:    20240503,
		PostedAt: at,
	}
}

func TestLoadMissingIsEmpty(t *testing.T) {
	s, path := newStore(t)

	posts, err := s.ListPosts(Filter{})
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("expected empty history, got %d", len(posts))
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Load should not create the file")
	}
}

func TestAppendAndReload(t *testing.T) {
	s, path := newStore(t)
	at := time.Date(2024, 5, 3, 7, 0, 0, 0, time.UTC)

	if err := s.AppendPost(record("p1", "h1", at)); err != nil {
		t.Fatalf("AppendPost failed: %v", err)
	}

	reloaded := NewJSONStore(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	posts, _ := reloaded.ListPosts(Filter{})
	if len(posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(posts))
	}
	got := posts[0]
	if got.ID != "p1" || got.HabitID != "h1" || *got.Value != 5 || got.Stamp != 20240503 || !got.PostedAt.Equal(at) {
		t.Errorf("unexpected record: %+v", got)
	}
}

func TestAppendRequiresID(t *testing.T) {
	s, _ := newStore(t)
	if err := s.AppendPost(models.PostRecord{HabitID: "h1"}); err == nil {
		t.Error("expected error for record without id")
	}
}

func TestNotLoaded(t *testing.T) {
	s := NewJSONStore(filepath.Join(t.TempDir(), "history.json"))
	if err := s.AppendPost(record("p1", "h1", time.Now())); err == nil {
		t.Error("AppendPost before Load should fail")
	}
	if _, err := s.ListPosts(Filter{}); err == nil {
		t.Error("ListPosts before Load should fail")
	}
}

func TestListPostsFilter(t *testing.T) {
	s, _ := newStore(t)
	base := time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		habit := "h1"
		if i%2 == 1 {
			habit = "h2"
		}
		if err := s.AppendPost(record(fmt.Sprintf("p%d", i), habit, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name    string
		filter  Filter
		wantIDs []string
	}{
		{"all newest first", Filter{}, []string{"p5", "p4", "p3", "p2", "p1", "p0"}},
		{"limit", Filter{Limit: 2}, []string{"p5", "p4"}},
		{"habit", Filter{HabitID: "h1"}, []string{"p4", "p2", "p0"}},
		{"habit and limit", Filter{HabitID: "h2", Limit: 1}, []string{"p5"}},
		{"unknown habit", Filter{HabitID: "nope"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, err := s.ListPosts(tt.filter)
			if err != nil {
				t.Fatalf("ListPosts failed: %v", err)
			}
			if len(posts) != len(tt.wantIDs) {
				t.Fatalf("got %d posts, want %d", len(posts), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if posts[i].ID != id {
					t.Errorf("posts[%d] = %s, want %s", i, posts[i].ID, id)
				}
			}
		})
	}
}

func TestLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	os.WriteFile(path, []byte("{not json"), 0o600)

	if err := NewJSONStore(path).Load(); err == nil {
		t.Error("expected parse error")
	}
}

func TestAppendFailureKeepsMemoryInSync(t *testing.T) {
	s, _ := newStore(t)
	now := time.Now()
	if err := s.AppendPost(record("1", "h1", now)); err != nil {
		t.Fatalf("AppendPost: %v", err)
	}

	// a regular file where the history directory should be
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	s.path = filepath.Join(blocker, "history.json")

	if err := s.AppendPost(record("2", "h1", now.Add(time.Minute))); err == nil {
		t.Fatal("expected write failure")
	}
	posts, err := s.ListPosts(Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 1 || posts[0].ID != "1" {
		t.Errorf("posts after failed append = %+v", posts)
	}
}

func TestClose(t *testing.T) {
	s, _ := newStore(t)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.AppendPost(record("1", "h1", time.Now())); err == nil {
		t.Error("AppendPost after Close should fail")
	}
	if err := s.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if err := s.AppendPost(record("1", "h1", time.Now())); err != nil {
		t.Errorf("AppendPost after reload: %v", err)
	}
}
