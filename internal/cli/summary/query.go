package summary

import (
	"github.com/julianstephens/habitcast/internal/checkin"
	"github.com/julianstephens/habitcast/internal/cli"
	"github.com/julianstephens/habitcast/internal/mapping"
)

// QueryCmd prints the numeric check-in values of each habit.
type QueryCmd struct {
	cli.TickTickFlags `embed:""`
	ChannelFlags      `embed:""`
	RangeFlags        `embed:""`

	Habit []string `help:"Habit id to query; repeatable. Defaults to the habits in the channel mapping."`
	Raw   bool     `help:"Print the raw check-in objects instead of values."`
}

func (cmd *QueryCmd) Run(ctx *cli.Context) error {
	client, err := cmd.TickTickFlags.SessionClient()
	if err != nil {
		return err
	}

	ids := cmd.Habit
	if len(ids) == 0 {
		channels, err := cmd.ChannelFlags.Source().Channels()
		if err != nil {
			return err
		}
		ids = mapping.HabitIDs(channels)
	}

	_, after, err := cmd.RangeFlags.resolve(ctx)
	if err != nil {
		return err
	}

	checkins, err := client.QueryCheckins(ctx.Context(), ids, after)
	if err != nil {
		return err
	}
	if cmd.Raw {
		return ctx.PrintJSON(checkins)
	}
	return ctx.PrintJSON(checkin.ExtractValues(checkins))
}
