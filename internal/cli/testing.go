package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"time"

	"github.com/julianstephens/habitcast/internal/storage"
)

// NewTestContext returns a context writing to a buffer with history under
// dir and a fixed clock.
func NewTestContext(dir string, now time.Time) (*Context, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &Context{
		Ctx:      context.Background(),
		Out:      out,
		Home:     dir,
		Timezone: "UTC",
		Store:    storage.NewJSONStore(filepath.Join(dir, "history.json")),
		Now:      func() time.Time { return now },
		Confirm:  func(string) (bool, error) { return true, nil },
	}, out
}
