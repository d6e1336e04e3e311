package reports

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/habitcast/internal/cli"
)

var now = time.Date(2024, 5, 3, 22, 30, 0, 0, time.UTC)

type fakeAPIs struct {
	tick, slack *httptest.Server

	mu        sync.Mutex
	fetchDays []string
	posts     []map[string]any
}

func newFakeAPIs(t *testing.T) *fakeAPIs {
	t.Helper()
	f := &fakeAPIs{}
	f.tick = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/v2/habits":
			io.WriteString(w, `[{"id":"h1","title":"Read","goal":30,"goalType":"real"},{"id":"h2","title":"Walk"}]`)
		case r.URL.Path == "/api/v2/habits/h1/checkins":
			f.mu.Lock()
			f.fetchDays = append(f.fetchDays, r.URL.Query().Get("from"))
			f.mu.Unlock()
			io.WriteString(w, `{"checkins":[{"date":"`+r.URL.Query().Get("from")+`","status":2,"value":30,"unit":"min","chainLength":5}]}`)
		case strings.HasPrefix(r.URL.Path, "/api/v2/habits/"):
			http.NotFound(w, r)
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
		}
	}))
	t.Cleanup(f.tick.Close)

	f.slack = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		body := map[string]any{"channel": r.PostForm.Get("channel"), "text": r.PostForm.Get("text")}
		f.mu.Lock()
		f.posts = append(f.posts, body)
		f.mu.Unlock()
		io.WriteString(w, `{"ok":true}`)
	}))
	t.Cleanup(f.slack.Close)
	return f
}

const config = `
default_template: "*{title}*: {status}"
habits:
  - title: Read
    habit_id: h1
    slack_channel: C1
    message_template: "{title}: {value}, streak {streak}, goal {goal} ({goal_type})"
  - title: walk
  - title: Swim
`

func newReportCmd(t *testing.T, f *fakeAPIs, dir string) *ReportCmd {
	t.Helper()
	path := filepath.Join(dir, "habits.yaml")
	if err := os.WriteFile(path, []byte(config), 0o644); err != nil {
		t.Fatal(err)
	}
	cmd := &ReportCmd{Config: path, DefaultChannel: "CDEF"}
	cmd.AccessToken = "tok"
	cmd.TickTickURL = f.tick.URL
	cmd.SlackToken = "xoxb"
	cmd.SlackURL = f.slack.URL
	return cmd
}

func TestReportPostsConfiguredHabits(t *testing.T) {
	gokeyring.MockInit()
	dir := t.TempDir()
	f := newFakeAPIs(t)
	cmd := newReportCmd(t, f, dir)
	ctx, out := cli.NewTestContext(dir, now)
	ctx.Timezone = "Asia/Kolkata"

	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// 22:30 UTC is already the next day in Kolkata
	if len(f.fetchDays) != 1 || f.fetchDays[0] != "2024-05-04" {
		t.Errorf("fetched days = %v", f.fetchDays)
	}

	if len(f.posts) != 2 {
		t.Fatalf("posts = %+v", f.posts)
	}
	if f.posts[0]["channel"] != "C1" || f.posts[0]["text"] != "Read: 30 min, streak 5, goal 30 (real)" {
		t.Errorf("first post = %+v", f.posts[0])
	}
	if f.posts[1]["channel"] != "CDEF" || f.posts[1]["text"] != "*walk*: No entry" {
		t.Errorf("second post = %+v", f.posts[1])
	}
	if !strings.Contains(out.String(), "Swim: skipped") {
		t.Errorf("expected skipped habit in output:\n%s", out.String())
	}
}

func TestReportDateOverride(t *testing.T) {
	gokeyring.MockInit()
	dir := t.TempDir()
	f := newFakeAPIs(t)
	cmd := newReportCmd(t, f, dir)
	cmd.Date = "2024-04-01"
	ctx, _ := cli.NewTestContext(dir, now)

	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(f.fetchDays) != 1 || f.fetchDays[0] != "2024-04-01" {
		t.Errorf("fetched days = %v", f.fetchDays)
	}
}

func TestReportDryRun(t *testing.T) {
	gokeyring.MockInit()
	dir := t.TempDir()
	f := newFakeAPIs(t)
	cmd := newReportCmd(t, f, dir)
	cmd.SlackToken = ""
	cmd.DryRun = true
	ctx, out := cli.NewTestContext(dir, now)

	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(f.posts) != 0 {
		t.Errorf("dry run posted %d messages", len(f.posts))
	}
	if !strings.Contains(out.String(), "dry run") {
		t.Errorf("expected dry run output:\n%s", out.String())
	}
}

func TestReportMissingConfig(t *testing.T) {
	gokeyring.MockInit()
	dir := t.TempDir()
	f := newFakeAPIs(t)
	cmd := newReportCmd(t, f, dir)
	cmd.Config = filepath.Join(dir, "missing.yaml")
	ctx, _ := cli.NewTestContext(dir, now)

	if err := cmd.Run(ctx); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected config not found, got %v", err)
	}
}
