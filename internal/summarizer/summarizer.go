// Package summarizer runs one check-in summary pass: query, aggregate, post.
package summarizer

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitcast/internal/checkin"
	"github.com/julianstephens/habitcast/internal/logger"
	"github.com/julianstephens/habitcast/internal/mapping"
	"github.com/julianstephens/habitcast/internal/models"
	"github.com/julianstephens/habitcast/internal/slack"
	"github.com/julianstephens/habitcast/internal/ticktick"
)

type CheckinQuerier interface {
	QueryCheckins(ctx context.Context, habitIDs []string, after models.Stamp) (map[string][]models.CheckinEntry, error)
}

type MessagePoster interface {
	PostMessage(ctx context.Context, channel, text string) error
}

// FailureNotifier is told about upstream server failures. It must not fail.
type FailureNotifier interface {
	Failure(cause error)
}

type Recorder interface {
	AppendPost(models.PostRecord) error
}

type Summarizer struct {
	Querier  CheckinQuerier
	Poster   MessagePoster
	Channels mapping.ChannelSource
	Habits   mapping.HabitIndex
	Policy   checkin.SelectionPolicy

	// Optional
	Notifier FailureNotifier
	History  Recorder
	DryRun   bool
	Now      func() time.Time
}

type Result struct {
	RunID     string                    `json:"run_id"`
	Summaries map[string]models.Summary `json:"summaries"`
	Posted    []models.PostRecord       `json:"posted"`
	Skipped   []string                  `json:"skipped"`
}

// Run summarizes every habit in the channel table. today selects entries
// under the exact policy; after bounds the query.
func (s *Summarizer) Run(ctx context.Context, today, after models.Stamp) (*Result, error) {
	channels, err := s.Channels.Channels()
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:     uuid.NewString(),
		Summaries: map[string]models.Summary{},
		Posted:    []models.PostRecord{},
		Skipped:   []string{},
	}

	ids := mapping.HabitIDs(channels)
	if len(ids) == 0 {
		logger.Warn("No habits mapped to channels; nothing to summarize", "source", s.Channels.Describe())
		return res, nil
	}

	checkins, err := s.Querier.QueryCheckins(ctx, ids, after)
	if err != nil {
		var apiErr *ticktick.APIError
		if errors.As(err, &apiErr) && apiErr.ServerError() {
			logger.Error("TickTick returned a server error", "status", apiErr.StatusCode)
			if s.Notifier != nil {
				s.Notifier.Failure(err)
			}
		}
		return nil, err
	}

	policy := s.Policy
	if policy == "" {
		policy = checkin.PolicyExact
	}
	res.Summaries = checkin.Aggregate(checkins, policy, today, s.Habits.Lookup)

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	for _, id := range sortedKeys(res.Summaries) {
		sum := res.Summaries[id]

		channel, ok := channels[id]
		if !ok || channel == "" {
			logger.Warn("No Slack channel mapped for habit; skipping", "habit", id)
			res.Skipped = append(res.Skipped, id)
			continue
		}

		name := id
		if h, ok := s.Habits.Lookup(id); ok {
			name = h.DisplayName()
		} else {
			logger.Warn("No metadata for habit; using its id as name", "habit", id)
		}

		text := slack.StatusText(name, sum.Value, sum.Goal)
		if err := s.Poster.PostMessage(ctx, channel, text); err != nil {
			return res, err
		}
		logger.Info("Posted summary", "habit", name, "channel", channel)

		rec := models.PostRecord{
			ID:        uuid.NewString(),
			RunID:     res.RunID,
			HabitID:   id,
			HabitName: name,
			Channel:   channel,
			Value:     sum.Value,
			Goal:      sum.Goal,
			Text:      text,
			Policy:    string(policy),
			Stamp:     today,
			PostedAt:  now().UTC(),
		}
		res.Posted = append(res.Posted, rec)

		if s.History != nil && !s.DryRun {
			if err := s.History.AppendPost(rec); err != nil {
				logger.Warn("Failed to record post in history", "habit", id, "error", err)
			}
		}
	}
	return res, nil
}

func sortedKeys(m map[string]models.Summary) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
