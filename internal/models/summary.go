package models

import "time"

// Summary is the per-habit result of one summarizer run.
type Summary struct {
	HabitID string   `json:"habit_id"`
	Value   *float64 `json:"value"`
	Goal    *float64 `json:"goal"`
	// Stamp of the entry the value was taken from; zero when none matched.
	Stamp Stamp `json:"stamp,omitempty"`
}

// ChannelMapping maps habit ids to Slack channel ids.
type ChannelMapping map[string]string

// PostRecord is one delivered summary as kept in the history file.
type PostRecord struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	HabitID   string    `json:"habit_id"`
	HabitName string    `json:"habit_name"`
	Channel   string    `json:"channel"`
	Value     *float64  `json:"value"`
	Goal      *float64  `json:"goal"`
	Text      string    `json:"text"`
	Policy    string    `json:"policy"`
	Stamp     Stamp     `json:"stamp"`
	PostedAt  time.Time `json:"posted_at"`
}
