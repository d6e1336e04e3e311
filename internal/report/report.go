package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/habitcast/internal/logger"
	"github.com/julianstephens/habitcast/internal/mapping"
	"github.com/julianstephens/habitcast/internal/models"
	"github.com/julianstephens/habitcast/internal/slack"
)

var statusNames = map[int]string{
	0: "Not completed",
	1: "Partial",
	2: "Completed",
	3: "Skipped",
}

// Status is the readable form of one day's check-in.
type Status struct {
	Text   string
	Code   *int
	Value  string
	Streak *int
	Raw    map[string]any
}

// Interpret describes entry; a nil entry is "No entry".
func Interpret(entry *models.CheckinEntry) Status {
	if entry == nil {
		return Status{Text: "No entry"}
	}

	st := Status{Code: entry.Status, Streak: entry.Streak, Raw: entry.Raw}
	switch {
	case entry.Status == nil:
		st.Text = "No status"
	default:
		if name, ok := statusNames[*entry.Status]; ok {
			st.Text = name
		} else {
			st.Text = fmt.Sprintf("Status %d", *entry.Status)
		}
	}

	if entry.Value != nil {
		st.Value = slack.FormatNumber(entry.Value)
		if entry.Unit != "" {
			st.Value += " " + entry.Unit
		}
	}
	return st
}

// ChooseHabit resolves cfg by habit id, then by case-insensitive title.
func ChooseHabit(habits []models.Habit, cfg mapping.HabitConfig) (models.Habit, bool) {
	if cfg.HabitID != "" {
		for _, h := range habits {
			if h.ID == cfg.HabitID {
				return h, true
			}
		}
	}

	title := strings.TrimSpace(cfg.Title)
	var matches []models.Habit
	for _, h := range habits {
		if strings.EqualFold(h.Title, title) || (h.Title == "" && strings.EqualFold(h.Name, title)) {
			matches = append(matches, h)
		}
	}
	switch len(matches) {
	case 0:
		logger.Warn("No habit matched title", "title", cfg.Title)
		return models.Habit{}, false
	case 1:
		return matches[0], true
	default:
		logger.Warn("Multiple habits matched title; specify habit_id in config", "title", cfg.Title)
		return matches[0], true
	}
}

// BuildContext collects the template placeholders for one habit.
func BuildContext(cfg mapping.HabitConfig, habit models.Habit, st Status) map[string]string {
	ctx := map[string]string{
		"title":       cfg.Title,
		"status":      st.Text,
		"status_code": optionalInt(st.Code),
		"value":       st.Value,
		"streak":      optionalInt(st.Streak),
		"raw_checkin": "",
		"habit_id":    habit.ID,
		"goal":        "",
		"goal_type":   habit.GoalType,
	}
	if habit.Goal != nil {
		ctx["goal"] = slack.FormatNumber(habit.Goal)
	}
	if len(st.Raw) > 0 {
		if raw, err := json.Marshal(st.Raw); err == nil {
			ctx["raw_checkin"] = string(raw)
		}
	}
	return ctx
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// Render substitutes {name} placeholders. "{{" and "}}" are literal braces.
func Render(template string, values map[string]string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(template); i++ {
		c := template[i]
		switch c {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("unterminated placeholder in template %q", template)
			}
			name := template[i+1 : i+1+end]
			v, ok := values[name]
			if !ok {
				return "", fmt.Errorf("template placeholder '{%s}' is not available", name)
			}
			b.WriteString(v)
			i += end + 1
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				i++
			}
			b.WriteByte('}')
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

// CheckinFetcher returns one habit's check-in for a day.
type CheckinFetcher interface {
	FetchCheckin(ctx context.Context, habitID string, day time.Time) (*models.CheckinEntry, error)
}

// MessagePoster delivers text to a channel.
type MessagePoster interface {
	PostMessage(ctx context.Context, channel, text string) error
}

// Outcome is what happened to one configured habit.
type Outcome struct {
	Title   string
	HabitID string
	Channel string
	Text    string
	Posted  bool
	Skipped string
}

// Reporter posts the daily status of each configured habit.
type Reporter struct {
	Fetcher        CheckinFetcher
	Poster         MessagePoster
	DefaultChannel string
}

// Run reports every habit in cfg for day. Unresolved habits and habits
// without a channel are skipped; fetch, render and post errors stop the run.
func (r *Reporter) Run(ctx context.Context, cfg mapping.ReportConfig, habits []models.Habit, day time.Time) ([]Outcome, error) {
	var outcomes []Outcome
	for _, hc := range cfg.Habits {
		out := Outcome{Title: hc.Title}

		habit, ok := ChooseHabit(habits, hc)
		if !ok {
			logger.Warn("Skipping habit due to unresolved mapping", "title", hc.Title)
			out.Skipped = "unresolved habit"
			outcomes = append(outcomes, out)
			continue
		}
		out.HabitID = habit.ID

		entry, err := r.Fetcher.FetchCheckin(ctx, habit.ID, day)
		if err != nil {
			return outcomes, err
		}

		template := hc.MessageTemplate
		if template == "" {
			template = cfg.DefaultTemplate
		}
		text, err := Render(template, BuildContext(hc, habit, Interpret(entry)))
		if err != nil {
			return outcomes, fmt.Errorf("habit %q: %w", hc.Title, err)
		}
		out.Text = text

		channel := hc.SlackChannel
		if channel == "" {
			channel = r.DefaultChannel
		}
		if channel == "" {
			logger.Error("No Slack channel configured and SLACK_DEFAULT_CHANNEL is not set", "title", hc.Title)
			out.Skipped = "no channel"
			outcomes = append(outcomes, out)
			continue
		}
		out.Channel = channel

		if err := r.Poster.PostMessage(ctx, channel, text); err != nil {
			return outcomes, err
		}
		out.Posted = true
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}
