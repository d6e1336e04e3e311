package summary

import (
	"fmt"
	"time"

	"github.com/julianstephens/habitcast/internal/checkin"
	"github.com/julianstephens/habitcast/internal/cli"
	"github.com/julianstephens/habitcast/internal/constants"
	"github.com/julianstephens/habitcast/internal/logger"
	"github.com/julianstephens/habitcast/internal/mapping"
	"github.com/julianstephens/habitcast/internal/models"
	"github.com/julianstephens/habitcast/internal/summarizer"
)

// ChannelFlags pick where the habit to channel table comes from.
type ChannelFlags struct {
	ChannelsFile string            `name:"channels-file" help:"JSON file mapping habit ids to Slack channels." default:"${channels_path}" env:"HABIT_CHANNELS_PATH"`
	Channel      map[string]string `help:"Inline habit=channel pair; repeatable. Overrides --channels-file."`
	FromConfig   string            `name:"from-config" help:"Take channels from a report config YAML instead." type:"path"`
}

// Source returns the selected channel source: inline pairs first, then the
// report config, then the channels file.
func (f *ChannelFlags) Source() mapping.ChannelSource {
	switch {
	case len(f.Channel) > 0:
		return mapping.StaticChannels(f.Channel)
	case f.FromConfig != "":
		return mapping.ConfigChannels{Path: f.FromConfig}
	default:
		return mapping.FileChannels{Path: f.ChannelsFile}
	}
}

// RangeFlags select the day and the query lower bound.
type RangeFlags struct {
	Date       string `help:"Treat this date (YYYY-MM-DD) as today."`
	AfterStamp int    `name:"after-stamp" help:"Only query check-ins after this YYYYMMDD stamp. Defaults to a week before today."`
}

func (f *RangeFlags) resolve(ctx *cli.Context) (today, after models.Stamp, err error) {
	day, err := ctx.Today(f.Date)
	if err != nil {
		return 0, 0, err
	}
	today = models.StampOf(day)
	after = today.AddDays(-constants.DefaultLookbackDays)
	if f.AfterStamp != 0 {
		stamp := models.Stamp(f.AfterStamp)
		if models.StampOf(stamp.Time(time.UTC)) != stamp {
			return 0, 0, fmt.Errorf("invalid --after-stamp %d (expected YYYYMMDD)", f.AfterStamp)
		}
		after = stamp
	}
	return today, after, nil
}

type SummarizeCmd struct {
	cli.TickTickFlags `embed:""`
	cli.SlackFlags    `embed:""`
	cli.SMTPFlags     `embed:""`
	ChannelFlags      `embed:""`
	RangeFlags        `embed:""`

	MappingFile string `name:"mapping-file" help:"Habit metadata mapping written by 'habits fetch'." default:"${mapping_path}" env:"HABIT_MAPPING_PATH"`
	Policy      string `help:"Which check-in represents a habit: exact (today's) or latest." enum:"exact,latest" default:"exact"`
}

func (cmd *SummarizeCmd) Run(ctx *cli.Context) error {
	policy, err := checkin.ParsePolicy(cmd.Policy)
	if err != nil {
		return err
	}

	// configuration problems surface before any request is made
	poster, err := cmd.SlackFlags.Poster()
	if err != nil {
		return err
	}
	client, err := cmd.TickTickFlags.SessionClient()
	if err != nil {
		return err
	}
	source := cmd.ChannelFlags.Source()
	if _, err := source.Channels(); err != nil {
		return err
	}
	habits, err := mapping.LoadHabits(cmd.MappingFile)
	if err != nil {
		return err
	}
	today, after, err := cmd.RangeFlags.resolve(ctx)
	if err != nil {
		return err
	}

	s := &summarizer.Summarizer{
		Querier:  client,
		Poster:   poster,
		Channels: source,
		Habits:   habits,
		Policy:   policy,
		Notifier: cmd.SMTPFlags.Notifier(),
		DryRun:   cmd.DryRun,
		Now:      ctx.Clock,
	}
	if ctx.Store != nil {
		if err := ctx.Store.Load(); err != nil {
			logger.Warn("History unavailable; posts will not be recorded", "error", err)
		} else {
			s.History = ctx.Store
		}
	}

	logger.Info("Summarizing habits", "policy", policy, "today", today, "after", after, "channels", source.Describe())
	res, err := s.Run(ctx.Context(), today, after)
	if err != nil {
		return err
	}

	logger.Info("Summary complete", "posted", len(res.Posted), "skipped", len(res.Skipped), "run", res.RunID)
	return ctx.PrintJSON(res.Summaries)
}
