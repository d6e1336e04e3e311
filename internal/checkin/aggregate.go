// Package checkin turns raw TickTick check-ins into per-habit summaries.
package checkin

import (
	"fmt"
	"strings"

	"github.com/julianstephens/habitcast/internal/models"
)

// SelectionPolicy decides which check-in represents a habit's current value.
type SelectionPolicy string

const (
	// PolicyExact takes the entry stamped with today's date. A habit without
	// one resolves to 0: it has not been done today.
	PolicyExact SelectionPolicy = "exact"
	// PolicyLatest takes the entry with the greatest stamp. Ties keep the first
	// maximum in input order. A habit without a numeric value stays absent.
	PolicyLatest SelectionPolicy = "latest"
)

// ParsePolicy parses a policy name case-insensitively.
func ParsePolicy(s string) (SelectionPolicy, error) {
	switch p := SelectionPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyExact, PolicyLatest:
		return p, nil
	default:
		return "", fmt.Errorf("invalid selection policy %q (expected %q or %q)", s, PolicyExact, PolicyLatest)
	}
}

// Habits looks up habit metadata by id; ok is false on a miss.
type Habits func(id string) (models.Habit, bool)

// Aggregate produces exactly one Summary for every habit id in checkins,
// including ids whose entry list is empty. Goals come from the selected entry,
// falling back to the habit's goal and then its step.
func Aggregate(checkins map[string][]models.CheckinEntry, policy SelectionPolicy, today models.Stamp, habits Habits) map[string]models.Summary {
	out := make(map[string]models.Summary, len(checkins))
	for id, entries := range checkins {
		var entry *models.CheckinEntry
		switch policy {
		case PolicyLatest:
			entry = latest(entries)
		default:
			entry = exact(entries, today)
		}

		s := models.Summary{HabitID: id}
		if entry != nil {
			s.Value = entry.Value
			s.Goal = entry.Goal
			s.Stamp = entry.Stamp
		}
		if s.Value == nil && policy != PolicyLatest {
			zero := 0.0
			s.Value = &zero
		}
		if s.Goal == nil && habits != nil {
			if h, ok := habits(id); ok {
				s.Goal = h.TargetGoal()
			}
		}
		out[id] = s
	}
	return out
}

func exact(entries []models.CheckinEntry, today models.Stamp) *models.CheckinEntry {
	for i := range entries {
		if entries[i].HasStamp && entries[i].Stamp == today {
			return &entries[i]
		}
	}
	return nil
}

func latest(entries []models.CheckinEntry) *models.CheckinEntry {
	var best *models.CheckinEntry
	for i := range entries {
		if !entries[i].HasStamp {
			continue
		}
		if best == nil || entries[i].Stamp > best.Stamp {
			best = &entries[i]
		}
	}
	return best
}

// ExtractValues returns every numeric value per habit in input order.
// Habits without numeric values map to an empty list.
func ExtractValues(checkins map[string][]models.CheckinEntry) map[string][]float64 {
	out := make(map[string][]float64, len(checkins))
	for id, entries := range checkins {
		values := []float64{}
		for _, e := range entries {
			if e.Value != nil {
				values = append(values, *e.Value)
			}
		}
		out[id] = values
	}
	return out
}
