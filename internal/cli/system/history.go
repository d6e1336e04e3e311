package system

import (
	"fmt"

	"github.com/julianstephens/habitcast/internal/cli"
	"github.com/julianstephens/habitcast/internal/constants"
	"github.com/julianstephens/habitcast/internal/slack"
	"github.com/julianstephens/habitcast/internal/storage"
)

// HistoryCmd lists delivered summaries, newest first.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Show at most this many records." default:"${history_limit}"`
	Habit string `help:"Only show records for this habit id."`
	JSON  bool   `help:"Print records as JSON."`
}

func (cmd *HistoryCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	posts, err := ctx.Store.ListPosts(storage.Filter{HabitID: cmd.Habit, Limit: cmd.Limit})
	if err != nil {
		return err
	}
	if cmd.JSON {
		return ctx.PrintJSON(posts)
	}

	if len(posts) == 0 {
		fmt.Fprintln(ctx.Out, "No posts recorded yet.")
		return nil
	}

	t := cli.NewTable("POSTED", "HABIT", "CHANNEL", "VALUE", "POLICY")
	for _, p := range posts {
		t.Row(
			p.PostedAt.Local().Format(constants.DateFormat+" 15:04"),
			p.HabitName,
			p.Channel,
			slack.FormatNumber(p.Value)+"/"+slack.FormatNumber(p.Goal),
			p.Policy,
		)
	}
	_, err = fmt.Fprintln(ctx.Out, t)
	return err
}
