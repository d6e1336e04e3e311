package system

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/habitcast/internal/backup"
	"github.com/julianstephens/habitcast/internal/cli"
	"github.com/julianstephens/habitcast/internal/keyring"
	"github.com/julianstephens/habitcast/internal/mapping"
	"github.com/julianstephens/habitcast/internal/utils"
)

type DoctorCmd struct {
	MappingFile  string `name:"mapping-file" default:"${mapping_path}" env:"HABIT_MAPPING_PATH" help:"Habit metadata mapping file."`
	ChannelsFile string `name:"channels-file" default:"${channels_path}" env:"HABIT_CHANNELS_PATH" help:"Habit channel mapping file."`
	Config       string `default:"${config_path}" env:"HABIT_CONFIG_PATH" help:"Report config YAML."`
	AccessToken  string `env:"TICKTICK_ACCESS_TOKEN" hidden:""`
	Cookie       string `env:"COOKIE" hidden:""`
	SlackToken   string `env:"SLACK_BOT_TOKEN" hidden:""`
}

type check struct {
	name string
	// warnOnly failures do not fail the command
	warnOnly bool
	run      func() error
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	cli.Header(ctx.Out, "Running diagnostics...")
	fmt.Fprintln(ctx.Out)

	checks := []check{
		{name: "Timezone", run: func() error { return checkTimezone(ctx.Timezone) }},
		{name: "Habit mapping", run: func() error { return checkMapping(cmd.MappingFile) }},
		{name: "Channel mapping", run: func() error { return checkChannels(cmd.ChannelsFile) }},
		{name: "Report config", warnOnly: true, run: func() error { return checkConfig(cmd.Config) }},
		{name: "TickTick credentials", run: cmd.checkTickTick},
		{name: "Slack token", run: cmd.checkSlack},
		{name: "OS keyring", warnOnly: true, run: checkKeyring},
		{name: "Mapping backups", warnOnly: true, run: func() error { return checkBackups(cmd.MappingFile) }},
		{name: "History", run: func() error { return ctx.Store.Load() }},
	}

	hasError := false
	for _, c := range checks {
		err := c.run()
		switch {
		case err == nil:
			cli.OK(ctx.Out, "%s: OK", c.name)
		case c.warnOnly:
			cli.Warn(ctx.Out, "%s: WARNING", c.name)
			fmt.Fprintf(ctx.Out, "   %v\n", err)
		default:
			cli.Fail(ctx.Out, "%s: FAIL", c.name)
			fmt.Fprintf(ctx.Out, "   Error: %v\n", err)
			hasError = true
		}
	}

	fmt.Fprintln(ctx.Out)
	if hasError {
		return errors.New("diagnostics failed")
	}
	cli.OK(ctx.Out, "All checks passed")
	return nil
}

func checkTimezone(tz string) error {
	if !utils.ValidateTimezone(tz) {
		return fmt.Errorf("invalid timezone %q", tz)
	}
	return nil
}

func checkMapping(path string) error {
	idx, err := mapping.LoadHabits(path)
	if err != nil {
		return err
	}
	if len(idx) == 0 {
		return fmt.Errorf("%s has no habits", path)
	}
	return nil
}

func checkChannels(path string) error {
	channels, err := mapping.FileChannels{Path: path}.Channels()
	if err != nil {
		return err
	}
	if len(channels) == 0 {
		return fmt.Errorf("%s maps no habits", path)
	}
	return nil
}

func checkConfig(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("%s not found; 'habitcast report' will not work", path)
	}
	_, err := mapping.LoadReportConfig(path)
	return err
}

func (cmd *DoctorCmd) checkTickTick() error {
	if cmd.AccessToken != "" || cmd.Cookie != "" {
		return nil
	}
	if _, err := keyring.GetToken(); err == nil {
		return nil
	}
	return errors.New("set TICKTICK_ACCESS_TOKEN or COOKIE, or run 'habitcast auth login --store'")
}

func (cmd *DoctorCmd) checkSlack() error {
	if cmd.SlackToken == "" {
		return errors.New("SLACK_BOT_TOKEN is not set")
	}
	return nil
}

func checkKeyring() error {
	if !keyring.IsAvailable() {
		return keyring.ErrKeyringUnavailable
	}
	return nil
}

func checkBackups(mappingFile string) error {
	backups, err := backup.NewManager(mappingFile).ListBackups()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return errors.New("no mapping backups yet; 'habitcast habits fetch' creates them")
	}
	return nil
}
