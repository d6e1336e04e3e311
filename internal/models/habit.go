package models

import (
	"encoding/json"
	"fmt"
)

// Habit is a recurring activity tracked in TickTick. Only the fields the
// summaries need are decoded; Raw keeps the full object so the metadata
// mapping can be written back without losing anything.
type Habit struct {
	ID       string
	Name     string
	Title    string
	Goal     *float64
	Step     *float64
	GoalType string
	Unit     string
	Raw      json.RawMessage
}

// DisplayName returns the name used in messages, falling back to the id.
func (h Habit) DisplayName() string {
	switch {
	case h.Name != "":
		return h.Name
	case h.Title != "":
		return h.Title
	default:
		return h.ID
	}
}

// TargetGoal returns the habit's goal, or its step when no goal is set.
func (h Habit) TargetGoal() *float64 {
	if h.Goal != nil {
		return h.Goal
	}
	return h.Step
}

func (h *Habit) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*h = Habit{
		ID:       stringField(fields["id"]),
		Name:     stringField(fields["name"]),
		Title:    stringField(fields["title"]),
		Goal:     NumberValue(fields["goal"]),
		Step:     NumberValue(fields["step"]),
		GoalType: stringField(fields["goalType"]),
		Unit:     stringField(fields["unit"]),
		Raw:      append(json.RawMessage(nil), data...),
	}
	return nil
}

func (h Habit) MarshalJSON() ([]byte, error) {
	if len(h.Raw) > 0 {
		return h.Raw, nil
	}
	out := map[string]any{"id": h.ID}
	if h.Name != "" {
		out["name"] = h.Name
	}
	if h.Title != "" {
		out["title"] = h.Title
	}
	if h.Goal != nil {
		out["goal"] = *h.Goal
	}
	if h.Step != nil {
		out["step"] = *h.Step
	}
	if h.GoalType != "" {
		out["goalType"] = h.GoalType
	}
	if h.Unit != "" {
		out["unit"] = h.Unit
	}
	return json.Marshal(out)
}

// NumberValue accepts only JSON numbers; anything else is absent.
func NumberValue(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	case int64:
		f := float64(n)
		return &f
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

func stringField(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return fmt.Sprintf("%.0f", s)
	default:
		return fmt.Sprint(s)
	}
}
