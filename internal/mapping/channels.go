package mapping

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/julianstephens/habitcast/internal/models"
)

// ChannelSource supplies the habit-id to channel table for a run.
type ChannelSource interface {
	Channels() (models.ChannelMapping, error)
	Describe() string
}

// StaticChannels is a table given inline, e.g. by repeated --channel flags.
type StaticChannels models.ChannelMapping

func (s StaticChannels) Channels() (models.ChannelMapping, error) {
	out := make(models.ChannelMapping, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out, nil
}

func (s StaticChannels) Describe() string {
	return fmt.Sprintf("%d inline channel(s)", len(s))
}

// FileChannels reads a JSON object of habit id to channel.
type FileChannels struct {
	Path string
}

func (f FileChannels) Channels() (models.ChannelMapping, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("habit channel mapping file not found at %s", f.Path)
		}
		return nil, fmt.Errorf("failed to read channel mapping: %w", err)
	}
	if err := validate(f.Path, channelMappingSchema, data); err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse channel mapping: %w", err)
	}

	out := make(models.ChannelMapping, len(raw))
	for id, v := range raw {
		switch c := v.(type) {
		case string:
			out[id] = c
		case float64:
			out[id] = strconv.FormatFloat(c, 'f', -1, 64)
		}
	}
	return out, nil
}

func (f FileChannels) Describe() string {
	return f.Path
}

// HabitIDs returns the mapping's habit ids in a stable order.
func HabitIDs(m models.ChannelMapping) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
