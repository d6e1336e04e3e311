package storage

import "github.com/julianstephens/habitcast/internal/models"

// Filter narrows a history listing.
type Filter struct {
	HabitID string
	// Limit keeps only the newest N records; zero means no limit.
	Limit int
}

// Provider persists delivered summaries.
type Provider interface {
	// Lifecycle
	Load() error
	Close() error

	// History
	AppendPost(models.PostRecord) error
	ListPosts(Filter) ([]models.PostRecord, error)
}
