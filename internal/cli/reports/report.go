package reports

import (
	"fmt"

	"github.com/julianstephens/habitcast/internal/cli"
	"github.com/julianstephens/habitcast/internal/constants"
	"github.com/julianstephens/habitcast/internal/logger"
	"github.com/julianstephens/habitcast/internal/mapping"
	"github.com/julianstephens/habitcast/internal/report"
)

// ReportCmd posts each configured habit's status for one day.
type ReportCmd struct {
	cli.TickTickFlags `embed:""`
	cli.SlackFlags    `embed:""`

	Config         string `help:"Report config YAML." default:"${config_path}" env:"HABIT_CONFIG_PATH"`
	Date           string `help:"Report on this date (YYYY-MM-DD). Defaults to today in the configured timezone."`
	DefaultChannel string `help:"Channel for habits without one." env:"SLACK_DEFAULT_CHANNEL"`
}

func (cmd *ReportCmd) Run(ctx *cli.Context) error {
	client, err := cmd.TickTickFlags.TokenClient()
	if err != nil {
		return err
	}
	poster, err := cmd.SlackFlags.Poster()
	if err != nil {
		return err
	}
	day, err := ctx.Today(cmd.Date)
	if err != nil {
		return err
	}
	cfg, err := mapping.LoadReportConfig(cmd.Config)
	if err != nil {
		return err
	}

	logger.Info("Preparing habit updates", "date", day.Format(constants.DateFormat), "habits", len(cfg.Habits))

	habits, err := client.ListHabits(ctx.Context())
	if err != nil {
		return err
	}

	r := &report.Reporter{Fetcher: client, Poster: poster, DefaultChannel: cmd.DefaultChannel}
	outcomes, err := r.Run(ctx.Context(), cfg, habits, day)
	for _, o := range outcomes {
		switch {
		case o.Posted && cmd.DryRun:
			cli.Skip(ctx.Out, "%s: %s (dry run, %s)", o.Title, o.Text, o.Channel)
		case o.Posted:
			cli.OK(ctx.Out, "%s → %s", o.Title, o.Channel)
		default:
			cli.Warn(ctx.Out, "%s: skipped (%s)", o.Title, o.Skipped)
		}
	}
	if err != nil {
		return fmt.Errorf("report failed: %w", err)
	}
	return nil
}
