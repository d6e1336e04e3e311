package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitcast/internal/storage"
	"github.com/julianstephens/habitcast/internal/utils"
)

type Context struct {
	Ctx      context.Context
	Out      io.Writer
	Home     string
	Timezone string
	Store    storage.Provider
	Now      func() time.Time
	// Confirm asks a yes/no question; tests replace it.
	Confirm func(title string) (bool, error)
}

// Context returns the command's cancellation context.
func (c *Context) Context() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}

// Clock returns the current time.
func (c *Context) Clock() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Today returns the date in the configured timezone, or override when set.
func (c *Context) Today(override string) (time.Time, error) {
	if override != "" {
		return utils.TargetDate(c.Timezone, override)
	}
	loc, err := utils.LoadLocation(c.Timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	now := c.Clock().In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc), nil
}

// Ask runs the confirmation prompt.
func (c *Context) Ask(title string) (bool, error) {
	if c.Confirm != nil {
		return c.Confirm(title)
	}
	return HuhConfirm(title)
}

// HuhConfirm prompts on the terminal.
func HuhConfirm(title string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	return ok, err
}

// PrintJSON writes v indented with a trailing newline.
func (c *Context) PrintJSON(v any) error {
	enc := json.NewEncoder(c.Out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
