package habits

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/habitcast/internal/backup"
	"github.com/julianstephens/habitcast/internal/cli"
	"github.com/julianstephens/habitcast/internal/constants"
	"github.com/julianstephens/habitcast/internal/logger"
	"github.com/julianstephens/habitcast/internal/mapping"
	"github.com/julianstephens/habitcast/internal/slack"
)

// MappingFlags locate the habit metadata mapping.
type MappingFlags struct {
	MappingFile string `name:"mapping-file" help:"Habit metadata mapping file." default:"${mapping_path}" env:"HABIT_MAPPING_PATH"`
}

// FetchCmd downloads all habits and rewrites the metadata mapping.
type FetchCmd struct {
	cli.TickTickFlags `embed:""`
	MappingFlags      `embed:""`

	NoBackup bool `help:"Do not back up the previous mapping."`
}

func (cmd *FetchCmd) Run(ctx *cli.Context) error {
	client, err := cmd.TickTickFlags.TokenClient()
	if err != nil {
		return err
	}

	habits, err := client.ListHabits(ctx.Context())
	if err != nil {
		return err
	}
	idx := mapping.BuildHabitIndex(habits)

	if !cmd.NoBackup {
		path, err := backup.NewManager(cmd.MappingFile).CreateBackup()
		if err != nil {
			logger.Warn("Backup of previous mapping failed", "error", err)
		} else if path != "" {
			logger.Info("Backed up previous mapping", "path", path)
		}
	}

	if err := mapping.SaveHabits(cmd.MappingFile, idx); err != nil {
		return err
	}
	logger.Info("Updated habit mapping", "path", cmd.MappingFile, "habits", len(idx))
	return ctx.PrintJSON(idx)
}

// ListCmd prints each habit's title, id and goal.
type ListCmd struct {
	cli.TickTickFlags `embed:""`
}

func (cmd *ListCmd) Run(ctx *cli.Context) error {
	client, err := cmd.TickTickFlags.TokenClient()
	if err != nil {
		return err
	}

	habits, err := client.ListHabits(ctx.Context())
	if err != nil {
		return err
	}
	for _, h := range habits {
		fmt.Fprintf(ctx.Out, "%s -> %s\n", h.DisplayName(), h.ID)
		if h.Goal != nil && *h.Goal != 0 {
			fmt.Fprintf(ctx.Out, "  goal: %s\n", slack.FormatNumber(h.Goal))
		}
	}
	return nil
}

// BackupsCmd lists mapping backups.
type BackupsCmd struct {
	MappingFlags `embed:""`
}

func (cmd *BackupsCmd) Run(ctx *cli.Context) error {
	mgr := backup.NewManager(cmd.MappingFile)
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		fmt.Fprintln(ctx.Out, "No backups found.")
		fmt.Fprintf(ctx.Out, "Backups are stored in: %s\n", mgr.GetBackupDir())
		return nil
	}

	fmt.Fprintf(ctx.Out, "Available backups (%d total, keeping most recent %d):\n\n", len(backups), constants.MaxMappingBackups)
	for _, b := range backups {
		fmt.Fprintf(ctx.Out, "  %s  %s  (%.1f KB)\n",
			b.Timestamp.Format("2006-01-02 15:04:05"), filepath.Base(b.Path), float64(b.Size)/1024.0)
	}
	fmt.Fprintf(ctx.Out, "\nBackup directory: %s\n", mgr.GetBackupDir())
	return nil
}

// RestoreCmd replaces the mapping with a backup.
type RestoreCmd struct {
	MappingFlags `embed:""`

	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
	Yes        bool   `short:"y" help:"Do not ask for confirmation."`
}

func (cmd *RestoreCmd) Run(ctx *cli.Context) error {
	mgr := backup.NewManager(cmd.MappingFile)

	path, err := resolveBackup(cmd.BackupFile, mgr.GetBackupDir())
	if err != nil {
		return err
	}

	if !cmd.Yes {
		ok, err := ctx.Ask(fmt.Sprintf("Replace %s with %s?", cmd.MappingFile, filepath.Base(path)))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(ctx.Out, "Restore cancelled.")
			return nil
		}
	}

	if err := mgr.RestoreBackup(path); err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	cli.OK(ctx.Out, "Mapping restored from %s", filepath.Base(path))
	return nil
}

// resolveBackup accepts an absolute path, a path relative to the working
// directory, or a file name inside the backup directory.
func resolveBackup(name, backupDir string) (string, error) {
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err != nil {
			return "", fmt.Errorf("backup file not found: %s", name)
		}
		return name, nil
	}
	if _, err := os.Stat(name); err == nil {
		return filepath.Abs(name)
	}
	candidate := filepath.Join(backupDir, name)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	return "", fmt.Errorf("backup file not found: tried current directory and %s", backupDir)
}
