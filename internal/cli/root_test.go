package cli

import (
	"strings"
	"testing"
	"time"
)

func TestToday(t *testing.T) {
	now := time.Date(2024, 5, 3, 23, 30, 0, 0, time.UTC)
	ctx, _ := NewTestContext(t.TempDir(), now)

	day, err := ctx.Today("")
	if err != nil {
		t.Fatalf("Today: %v", err)
	}
	if got := day.Format("2006-01-02"); got != "2024-05-03" {
		t.Errorf("today = %s", got)
	}

	day, err = ctx.Today("2023-12-31")
	if err != nil {
		t.Fatalf("Today override: %v", err)
	}
	if got := day.Format("2006-01-02"); got != "2023-12-31" {
		t.Errorf("override = %s", got)
	}

	ctx.Timezone = "Not/AZone"
	if _, err := ctx.Today(""); err == nil || !strings.Contains(err.Error(), "invalid timezone") {
		t.Errorf("expected invalid timezone error, got %v", err)
	}
}

func TestPrintJSONKeepsAngleBrackets(t *testing.T) {
	ctx, out := NewTestContext(t.TempDir(), time.Now())

	if err := ctx.PrintJSON(map[string]string{"text": "<b>done</b>"}); err != nil {
		t.Fatal(err)
	}
	want := "{\n  \"text\": \"<b>done</b>\"\n}\n"
	if out.String() != want {
		t.Errorf("PrintJSON = %q, want %q", out.String(), want)
	}
}

func TestSlackFlagsRequireToken(t *testing.T) {
	f := &SlackFlags{}
	if _, err := f.Poster(); err == nil || !strings.Contains(err.Error(), "SLACK_BOT_TOKEN") {
		t.Errorf("expected missing token error, got %v", err)
	}
	f.DryRun = true
	if _, err := f.Poster(); err != nil {
		t.Errorf("dry run should not need a token: %v", err)
	}
}
