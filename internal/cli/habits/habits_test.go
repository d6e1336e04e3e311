package habits

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/habitcast/internal/backup"
	"github.com/julianstephens/habitcast/internal/cli"
	apperrors "github.com/julianstephens/habitcast/internal/errors"
	"github.com/julianstephens/habitcast/internal/mapping"
)

var now = time.Date(2024, 5, 3, 9, 0, 0, 0, time.UTC)

const habitsJSON = `[
	{"id":"h1","name":"Read","goal":30,"unit":"min"},
	{"id":"h2","name":"Walk","step":1},
	{"name":"No id"}
]`

func habitServer(t *testing.T, wantAuth string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/habits" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != wantAuth {
			t.Errorf("Authorization = %q, want %q", got, wantAuth)
		}
		io.WriteString(w, habitsJSON)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchWritesMapping(t *testing.T) {
	gokeyring.MockInit()
	dir := t.TempDir()
	srv := habitServer(t, "Bearer tok")

	cmd := &FetchCmd{}
	cmd.AccessToken = "tok"
	cmd.TickTickURL = srv.URL
	cmd.MappingFile = filepath.Join(dir, "habit_id_mapping.json")
	ctx, out := cli.NewTestContext(dir, now)

	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	idx, err := mapping.LoadHabits(cmd.MappingFile)
	if err != nil {
		t.Fatalf("LoadHabits failed: %v", err)
	}
	if len(idx) != 2 || idx["h1"].Name != "Read" {
		t.Errorf("mapping = %+v", idx)
	}

	var printed map[string]map[string]any
	if err := json.Unmarshal(out.Bytes(), &printed); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if printed["h1"]["unit"] != "min" {
		t.Errorf("raw habit fields should be preserved: %+v", printed["h1"])
	}
}

func TestFetchBacksUpPreviousMapping(t *testing.T) {
	gokeyring.MockInit()
	dir := t.TempDir()
	srv := habitServer(t, "Bearer tok")
	path := filepath.Join(dir, "habit_id_mapping.json")
	os.WriteFile(path, []byte(`{"old":{"id":"old"}}`), 0o644)

	cmd := &FetchCmd{}
	cmd.AccessToken = "tok"
	cmd.TickTickURL = srv.URL
	cmd.MappingFile = path
	ctx, _ := cli.NewTestContext(dir, now)

	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	backups, err := backup.NewManager(path).ListBackups()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 1 {
		t.Fatalf("expected 1 backup, got %d", len(backups))
	}
	data, _ := os.ReadFile(backups[0].Path)
	if !strings.Contains(string(data), `"old"`) {
		t.Errorf("backup should hold the previous mapping, got %s", data)
	}
}

func TestFetchRequiresToken(t *testing.T) {
	gokeyring.MockInit()
	dir := t.TempDir()

	cmd := &FetchCmd{}
	cmd.MappingFile = filepath.Join(dir, "habit_id_mapping.json")
	ctx, _ := cli.NewTestContext(dir, now)

	var cfgErr *apperrors.ConfigError
	if err := cmd.Run(ctx); !errors.As(err, &cfgErr) || cfgErr.Name != "TICKTICK_ACCESS_TOKEN" {
		t.Errorf("expected missing token error, got %v", err)
	}
}

func TestFetchUsesKeyringToken(t *testing.T) {
	gokeyring.MockInit()
	if err := gokeyring.Set("habitcast", "ticktick-token", `{"access_token":"from-keyring"}`); err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	srv := habitServer(t, "Bearer from-keyring")

	cmd := &FetchCmd{NoBackup: true}
	cmd.TickTickURL = srv.URL
	cmd.MappingFile = filepath.Join(dir, "habit_id_mapping.json")
	ctx, _ := cli.NewTestContext(dir, now)

	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
}

func TestListPrintsHabits(t *testing.T) {
	gokeyring.MockInit()
	dir := t.TempDir()
	srv := habitServer(t, "Bearer tok")

	cmd := &ListCmd{}
	cmd.AccessToken = "tok"
	cmd.TickTickURL = srv.URL
	ctx, out := cli.NewTestContext(dir, now)

	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got := out.String()
	for _, want := range []string{"Read -> h1\n  goal: 30\n", "Walk -> h2\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestBackupsAndRestore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "habit_id_mapping.json")
	os.WriteFile(path, []byte(`{"v1":{}}`), 0o644)

	mgr := backup.NewManager(path)
	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatal(err)
	}
	os.WriteFile(path, []byte(`{"v2":{}}`), 0o644)

	ctx, out := cli.NewTestContext(dir, now)
	list := &BackupsCmd{MappingFlags{MappingFile: path}}
	if err := list.Run(ctx); err != nil {
		t.Fatalf("BackupsCmd failed: %v", err)
	}
	if !strings.Contains(out.String(), filepath.Base(backupPath)) {
		t.Errorf("listing missing backup:\n%s", out.String())
	}

	restore := &RestoreCmd{MappingFlags: MappingFlags{MappingFile: path}, BackupFile: filepath.Base(backupPath)}
	if err := restore.Run(ctx); err != nil {
		t.Fatalf("RestoreCmd failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != `{"v1":{}}` {
		t.Errorf("mapping after restore = %s", data)
	}
}

func TestRestoreCancelled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "habit_id_mapping.json")
	os.WriteFile(path, []byte(`{"v1":{}}`), 0o644)
	backupPath, _ := backup.NewManager(path).CreateBackup()
	os.WriteFile(path, []byte(`{"v2":{}}`), 0o644)

	ctx, out := cli.NewTestContext(dir, now)
	ctx.Confirm = func(string) (bool, error) { return false, nil }

	restore := &RestoreCmd{MappingFlags: MappingFlags{MappingFile: path}, BackupFile: backupPath}
	if err := restore.Run(ctx); err != nil {
		t.Fatalf("RestoreCmd failed: %v", err)
	}
	if !strings.Contains(out.String(), "cancelled") {
		t.Errorf("expected cancellation message, got %q", out.String())
	}
	data, _ := os.ReadFile(path)
	if string(data) != `{"v2":{}}` {
		t.Errorf("mapping should be untouched, got %s", data)
	}
}

func TestRestoreUnknownFile(t *testing.T) {
	dir := t.TempDir()
	ctx, _ := cli.NewTestContext(dir, now)
	restore := &RestoreCmd{MappingFlags: MappingFlags{MappingFile: filepath.Join(dir, "m.json")}, BackupFile: "nope.json", Yes: true}
	if err := restore.Run(ctx); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}
