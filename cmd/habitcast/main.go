package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/julianstephens/habitcast/internal/cli"
	"github.com/julianstephens/habitcast/internal/cli/auth"
	"github.com/julianstephens/habitcast/internal/cli/habits"
	"github.com/julianstephens/habitcast/internal/cli/reports"
	"github.com/julianstephens/habitcast/internal/cli/summary"
	"github.com/julianstephens/habitcast/internal/cli/system"
	"github.com/julianstephens/habitcast/internal/constants"
	"github.com/julianstephens/habitcast/internal/errors"
	"github.com/julianstephens/habitcast/internal/logger"
	"github.com/julianstephens/habitcast/internal/storage"
	"github.com/julianstephens/habitcast/internal/utils"
)

var CLI struct {
	Version  kong.VersionFlag
	Home     string `help:"State directory for logs and history." default:"${home}" env:"HABITCAST_HOME"`
	Timezone string `help:"IANA timezone used to decide what 'today' is." default:"${timezone}" env:"TIMEZONE"`
	Debug    bool   `help:"Enable debug logging."`
	Quiet    bool   `short:"q" help:"Only log warnings and errors."`

	Summarize summary.SummarizeCmd `cmd:"" help:"Post value/goal summaries of mapped habits to Slack."`
	Checkins  struct {
		Query summary.QueryCmd `cmd:"" help:"Print check-in values per habit." default:"1"`
	} `cmd:"" help:"Inspect TickTick check-ins."`
	Habits struct {
		Fetch   habits.FetchCmd   `cmd:"" help:"Download habits and rewrite the metadata mapping."`
		List    habits.ListCmd    `cmd:"" help:"List habits with their ids and goals." default:"1"`
		Backups habits.BackupsCmd `cmd:"" help:"List backups of the metadata mapping."`
		Restore habits.RestoreCmd `cmd:"" help:"Restore the metadata mapping from a backup."`
	} `cmd:"" help:"Manage TickTick habit metadata."`
	Report reports.ReportCmd `cmd:"" help:"Post each configured habit's status for a day."`
	Auth   struct {
		URL      auth.URLCmd      `cmd:"" name:"url" help:"Print an authorization URL."`
		Exchange auth.ExchangeCmd `cmd:"" help:"Exchange an authorization code for tokens."`
		Login    auth.LoginCmd    `cmd:"" help:"Authorize in the browser and capture the code automatically."`
		Token    struct {
			Show   auth.TokenShowCmd   `cmd:"" help:"Show the stored token." default:"1"`
			Delete auth.TokenDeleteCmd `cmd:"" help:"Delete the stored token."`
		} `cmd:"" help:"Manage the token stored in the OS keyring."`
	} `cmd:"" help:"Obtain TickTick OAuth tokens."`
	History system.HistoryCmd `cmd:"" help:"List summaries posted to Slack."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run configuration checks."`
}

func main() {
	// a missing .env is fine; real environment variables win
	_ = godotenv.Load()

	vars := kong.Vars{
		"version":  constants.Version,
		"home":     constants.DefaultHome,
		"timezone": constants.DefaultTimezone,
	}
	for k, v := range cli.Vars() {
		vars[k] = v
	}

	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Post TickTick habit progress to Slack."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		vars,
	)

	home, err := utils.ExpandHome(CLI.Home)
	if err != nil {
		errors.Fatal(err)
	}
	if err := logger.Init(logger.Config{Debug: CLI.Debug, Quiet: CLI.Quiet, Home: home}); err != nil {
		errors.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCtx := &cli.Context{
		Ctx:      ctx,
		Out:      os.Stdout,
		Home:     home,
		Timezone: CLI.Timezone,
		Store:    storage.NewJSONStore(filepath.Join(home, constants.HistoryFileName)),
	}

	err = kctx.Run(appCtx)
	if cerr := appCtx.Store.Close(); err == nil {
		err = cerr
	}
	stop()
	errors.Fatal(err)
}
