package mapping

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/habitcast/internal/constants"
	apperrors "github.com/julianstephens/habitcast/internal/errors"
	"github.com/julianstephens/habitcast/internal/models"
)

// HabitConfig is one entry of the report configuration.
type HabitConfig struct {
	Title           string `yaml:"title"`
	HabitID         string `yaml:"habit_id"`
	SlackChannel    string `yaml:"slack_channel"`
	MessageTemplate string `yaml:"message_template"`
}

type ReportConfig struct {
	Habits          []HabitConfig `yaml:"habits"`
	DefaultTemplate string        `yaml:"default_template"`
}

// LoadReportConfig reads the YAML report configuration. Every habit needs a
// title; the default template falls back to constants.DefaultTemplate.
func LoadReportConfig(path string) (ReportConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ReportConfig{}, fmt.Errorf("habit config file not found at %s", path)
		}
		return ReportConfig{}, fmt.Errorf("failed to read habit config: %w", err)
	}

	var cfg ReportConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ReportConfig{}, &apperrors.ValidationError{Source: path, Reason: err.Error()}
	}
	for i, h := range cfg.Habits {
		if strings.TrimSpace(h.Title) == "" {
			return ReportConfig{}, &apperrors.ValidationError{
				Source: path,
				Field:  fmt.Sprintf("habits[%d].title", i),
				Reason: "is required",
			}
		}
	}
	if cfg.DefaultTemplate == "" {
		cfg.DefaultTemplate = constants.DefaultTemplate
	}
	return cfg, nil
}

// ConfigChannels takes channels from the report configuration's entries that
// name both a habit id and a channel.
type ConfigChannels struct {
	Path string
}

func (c ConfigChannels) Channels() (models.ChannelMapping, error) {
	cfg, err := LoadReportConfig(c.Path)
	if err != nil {
		return nil, err
	}
	out := models.ChannelMapping{}
	for _, h := range cfg.Habits {
		if h.HabitID != "" && h.SlackChannel != "" {
			out[h.HabitID] = h.SlackChannel
		}
	}
	return out, nil
}

func (c ConfigChannels) Describe() string {
	return c.Path
}
