package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sadopc/planr/internal/project"
	"github.com/sadopc/planr/internal/task"
)

// isolate points HOME, the config dir and the planner root at temp dirs
// and runs the test from there. Cannot run in parallel.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	t.Setenv("PLANR_ROOT", filepath.Join(dir, "plans"))
	t.Chdir(dir)
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd("test")
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("planr %s: %v", strings.Join(args, " "), err)
	}
	return out
}

type listed struct {
	Count int `json:"count"`
	Tasks []struct {
		ID       string   `json:"id"`
		Status   string   `json:"status"`
		Priority string   `json:"priority"`
		Order    int      `json:"order"`
		Tags     []string `json:"tags"`
		Overdue  bool     `json:"overdue"`
	} `json:"tasks"`
}

func listJSON(t *testing.T, args ...string) listed {
	t.Helper()
	out := mustRun(t, append([]string{"list", "--json"}, args...)...)
	var got listed
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("list output is not json: %v\n%s", err, out)
	}
	return got
}

// ============================================================
// Projects
// ============================================================

func TestProjectsNewAndList(t *testing.T) {
	dir := isolate(t)

	out := mustRun(t, "projects")
	if !strings.Contains(out, "No projects") {
		t.Fatalf("expected empty listing, got %q", out)
	}

	out = mustRun(t, "projects", "new", "Client Work")
	if !strings.Contains(out, "client-work") || !strings.Contains(out, "Active project is now client-work") {
		t.Fatalf("new output: %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "plans", "client-work")); err != nil {
		t.Fatal("project folder should exist")
	}

	mustRun(t, "projects", "new", "other", "--open=false")
	out = mustRun(t, "projects")
	if !strings.Contains(out, "client-work") || !strings.Contains(out, "other") || !strings.Contains(out, "*") {
		t.Fatalf("listing: %q", out)
	}

	out = mustRun(t, "projects", "recent")
	if !strings.Contains(out, "client-work") || strings.Contains(out, "other") {
		t.Fatalf("recent: %q", out)
	}
}

func TestProjectsOpenUnknown(t *testing.T) {
	isolate(t)
	if _, err := run(t, "projects", "open", "ghost"); err == nil {
		t.Fatal("opening a missing project should fail")
	}
}

func TestCommandsNeedProject(t *testing.T) {
	isolate(t)
	_, err := run(t, "list")
	if !errors.Is(err, project.ErrNoActive) {
		t.Fatalf("expected ErrNoActive, got %v", err)
	}
}

// ============================================================
// Tasks
// ============================================================

func TestAddAndList(t *testing.T) {
	isolate(t)
	mustRun(t, "projects", "new", "alpha")

	out := mustRun(t, "add", "Fix", "login", "--priority", "p1", "-t", "bug", "-t", "auth",
		"--start", "2024-06-01", "--end", "2024-06-05", "-d", "SSO loops")
	if strings.TrimSpace(out) != "Created fix-login" {
		t.Fatalf("add output: %q", out)
	}
	mustRun(t, "add", "Write docs")

	got := listJSON(t)
	if got.Count != 2 {
		t.Fatalf("count = %d", got.Count)
	}
	first := got.Tasks[0]
	if first.ID != "fix-login" || first.Priority != "p1" || len(first.Tags) != 2 || !first.Overdue {
		t.Fatalf("first = %+v", first)
	}
	if got.Tasks[1].Status != "backlog" || got.Tasks[1].Priority != "p3" || got.Tasks[1].Order != 1 {
		t.Fatalf("defaults = %+v", got.Tasks[1])
	}

	table := mustRun(t, "list")
	if !strings.Contains(table, "fix-login") || !strings.Contains(table, "TITLE") {
		t.Fatalf("table: %q", table)
	}

	if got := listJSON(t, "--tag", "bug"); got.Count != 1 {
		t.Fatalf("tag filter count = %d", got.Count)
	}
	if got := listJSON(t, "-q", "docs"); got.Count != 1 || got.Tasks[0].ID != "write-docs" {
		t.Fatalf("query = %+v", got)
	}
	if got := listJSON(t, "--overdue"); got.Count != 1 {
		t.Fatalf("overdue count = %d", got.Count)
	}

	out = mustRun(t, "tags")
	if out != "auth\nbug\n" {
		t.Fatalf("tags = %q", out)
	}
}

func TestAddRejectsBadInput(t *testing.T) {
	isolate(t)
	mustRun(t, "projects", "new", "alpha")

	if _, err := run(t, "add", "x", "--status", "wip"); err == nil {
		t.Fatal("unknown status should fail")
	}
	if _, err := run(t, "add", "x", "--start", "June"); err == nil {
		t.Fatal("bad date should fail")
	}
	_, err := run(t, "add", "x", "--start", "2024-06-05", "--end", "2024-06-01")
	var verr *task.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("end before start should be a validation error, got %v", err)
	}
	if got := listJSON(t); got.Count != 0 {
		t.Fatal("rejected adds must not create tasks")
	}
}

func TestMoveFollowsWorkflow(t *testing.T) {
	isolate(t)
	mustRun(t, "projects", "new", "alpha")
	mustRun(t, "add", "Ship")

	_, err := run(t, "move", "ship", "done")
	var terr *task.TransitionError
	if !errors.As(err, &terr) {
		t.Fatalf("backlog -> done should be a transition error, got %v", err)
	}

	if out := mustRun(t, "move", "ship", "next"); !strings.Contains(out, "In Progress") {
		t.Fatalf("next: %q", out)
	}
	mustRun(t, "move", "ship", "review")
	mustRun(t, "move", "ship", "done")
	if _, err := run(t, "move", "ship", "next"); err == nil {
		t.Fatal("done has no next step")
	}
	if out := mustRun(t, "move", "ship", "archive"); !strings.Contains(out, "Archived") {
		t.Fatalf("archive: %q", out)
	}
}

func TestEditRenames(t *testing.T) {
	dir := isolate(t)
	mustRun(t, "projects", "new", "alpha")
	mustRun(t, "add", "Fix login", "--end", "2099-01-01")

	out := mustRun(t, "edit", "fix-login", "--title", "Fix SSO login", "--end", "")
	if !strings.Contains(out, "now fix-sso-login") {
		t.Fatalf("edit output: %q", out)
	}
	base := filepath.Join(dir, "plans", "alpha")
	if _, err := os.Stat(filepath.Join(base, "fix-login.md")); !os.IsNotExist(err) {
		t.Fatal("old record should be gone")
	}
	data, err := os.ReadFile(filepath.Join(base, "fix-sso-login.md"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "end:") {
		t.Fatalf("cleared end should be omitted:\n%s", data)
	}

	if _, err := run(t, "edit", "ghost", "--title", "x"); err == nil {
		t.Fatal("editing a missing task should fail")
	}
}

func TestReorderAndSort(t *testing.T) {
	isolate(t)
	mustRun(t, "projects", "new", "alpha")
	mustRun(t, "add", "One", "--start", "2024-06-01")
	mustRun(t, "add", "Two", "--start", "2024-06-01")
	mustRun(t, "add", "Three", "--start", "2024-06-01")

	mustRun(t, "reorder", "three", "--", "-1")
	got := listJSON(t)
	if got.Tasks[0].ID != "three" {
		t.Fatalf("reordered task should sort first: %+v", got.Tasks)
	}
	got = listJSON(t, "--sort", "title", "--desc")
	if got.Tasks[0].ID != "two" || got.Tasks[2].ID != "one" {
		t.Fatalf("title desc: %+v", got.Tasks)
	}
	if _, err := run(t, "reorder", "one", "first"); err == nil {
		t.Fatal("non-numeric order should fail")
	}
	if _, err := run(t, "list", "--sort", "size"); err == nil {
		t.Fatal("unknown sort column should fail")
	}
}

func TestRemove(t *testing.T) {
	isolate(t)
	mustRun(t, "projects", "new", "alpha")
	mustRun(t, "add", "One")
	mustRun(t, "rm", "one")
	if got := listJSON(t); got.Count != 0 {
		t.Fatal("task should be deleted")
	}
	var nf *task.NotFoundError
	if _, err := run(t, "rm", "one"); !errors.As(err, &nf) {
		t.Fatalf("deleting twice should be NotFound, got %v", err)
	}
}

func TestProjectFlagOverridesActive(t *testing.T) {
	isolate(t)
	mustRun(t, "projects", "new", "alpha")
	mustRun(t, "projects", "new", "beta", "--open=false")
	mustRun(t, "add", "In beta", "-p", "beta")

	if got := listJSON(t); got.Count != 0 {
		t.Fatal("the task belongs to beta")
	}
	if got := listJSON(t, "-p", "beta"); got.Count != 1 {
		t.Fatal("--project should select beta")
	}
}

// ============================================================
// Export
// ============================================================

func TestExportFile(t *testing.T) {
	dir := isolate(t)
	mustRun(t, "projects", "new", "alpha")
	mustRun(t, "add", "One", "-t", "x")
	mustRun(t, "add", "Two")

	path := filepath.Join(dir, "out.json")
	mustRun(t, "export", "-o", path, "--tag", "x")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got listed
	if err := json.Unmarshal(data, &got); err != nil || got.Count != 1 {
		t.Fatalf("export = %s (%v)", data, err)
	}

	out := mustRun(t, "export")
	if !strings.HasPrefix(out, "ID,Title,Status") || strings.Count(out, "\n") != 3 {
		t.Fatalf("csv to stdout: %q", out)
	}
	if _, err := run(t, "export", "-f", "xml"); err == nil {
		t.Fatal("unknown format should fail")
	}
}

// ============================================================
// Config
// ============================================================

func TestBadConfigFails(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("gantt:\n  zoom: decade\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "projects", "--config", path); err == nil {
		t.Fatal("invalid zoom should fail")
	}
	if _, err := run(t, "projects", "--config", filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("a missing explicit config should fail")
	}
}
