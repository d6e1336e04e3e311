// Package mapping loads and writes the files that connect TickTick habits to
// their metadata and Slack channels.
package mapping

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/habitcast/internal/logger"
	"github.com/julianstephens/habitcast/internal/models"
)

// HabitIndex maps habit ids to habit metadata.
type HabitIndex map[string]models.Habit

// Lookup satisfies checkin.Habits.
func (idx HabitIndex) Lookup(id string) (models.Habit, bool) {
	h, ok := idx[id]
	return h, ok
}

// BuildHabitIndex keys habits by id, skipping habits without one.
func BuildHabitIndex(habits []models.Habit) HabitIndex {
	idx := make(HabitIndex, len(habits))
	for _, h := range habits {
		if h.ID == "" {
			logger.Warn("Skipping habit without id", "habit", string(h.Raw))
			continue
		}
		idx[h.ID] = h
	}
	return idx
}

// LoadHabits reads the habit metadata mapping written by SaveHabits.
func LoadHabits(path string) (HabitIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("habit mapping file not found at %s, run 'habitcast habits fetch' first", path)
		}
		return nil, fmt.Errorf("failed to read habit mapping: %w", err)
	}
	if err := validate(path, habitMappingSchema, data); err != nil {
		return nil, err
	}

	idx := HabitIndex{}
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("failed to parse habit mapping: %w", err)
	}
	for id, h := range idx {
		if h.ID == "" {
			h.ID = id
			idx[id] = h
		}
	}
	return idx, nil
}

// SaveHabits writes the mapping as indented JSON with sorted keys.
func SaveHabits(path string, idx HabitIndex) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize habit mapping: %w", err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create mapping directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write habit mapping: %w", err)
	}
	return nil
}
