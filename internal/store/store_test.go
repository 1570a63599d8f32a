package store

import (
	"testing"
	"time"

	"github.com/sadopc/planr/internal/filter"
	"github.com/sadopc/planr/internal/task"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	version, err := s.version()
	if err != nil {
		t.Fatal(err)
	}
	if version != len(migrations) {
		t.Fatalf("expected user_version %d, got %d", len(migrations), version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/planr.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetSetting(KeyRoot, "/data"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Reopen: data survives and migration does not run twice.
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	if v, _ := s2.GetSetting(KeyRoot); v != "/data" {
		t.Fatalf("root = %q after reopen", v)
	}
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("empty path")
	}
}

func TestPragmasConfigured(t *testing.T) {
	s := newTestStore(t)
	var fk int
	s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	if fk != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", fk)
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
	if v, _ := s.version(); v != len(migrations) {
		t.Fatalf("version = %d after re-running migrations", v)
	}
}

func TestMigrateFromFirstVersion(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.db.Exec("DROP INDEX idx_projects_last_opened"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.db.Exec("PRAGMA user_version = 1"); err != nil {
		t.Fatal(err)
	}
	if err := s.migrate(); err != nil {
		t.Fatal(err)
	}
	var n int
	s.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = 'idx_projects_last_opened'").Scan(&n)
	if n != 1 {
		t.Fatal("index from the second migration is missing")
	}
}

// ============================================================
// Settings
// ============================================================

func TestSettingsStartEmpty(t *testing.T) {
	s := newTestStore(t)
	all, err := s.GetAllSettings()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 0 {
		t.Fatalf("expected no settings, got %+v", all)
	}
	if v, _ := s.GetSettingOr(KeyZoom, "month"); v != "month" {
		t.Fatalf("zoom fallback = %q", v)
	}
}

func TestSetSettingOverwrite(t *testing.T) {
	s := newTestStore(t)
	s.SetSetting(KeyActiveProject, "alpha")
	s.SetSetting(KeyActiveProject, "beta")
	val, _ := s.GetSetting(KeyActiveProject)
	if val != "beta" {
		t.Fatalf("expected beta, got %q", val)
	}
}

func TestGetSettingNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetSetting("nonexistent"); err == nil {
		t.Fatal("expected error for missing setting")
	}
	v, err := s.GetSettingOr("nonexistent", "fallback")
	if err != nil || v != "fallback" {
		t.Fatalf("GetSettingOr = %q, %v", v, err)
	}
}

func TestDeleteSetting(t *testing.T) {
	s := newTestStore(t)
	s.SetSetting(KeyActiveProject, "alpha")
	if err := s.DeleteSetting(KeyActiveProject); err != nil {
		t.Fatal(err)
	}
	if v, _ := s.GetSettingOr(KeyActiveProject, ""); v != "" {
		t.Fatalf("setting survived delete: %q", v)
	}
}

func TestGetAllSettings(t *testing.T) {
	s := newTestStore(t)
	s.SetSetting(KeyZoom, "week")
	s.SetSetting(KeyRoot, "/data")
	all, err := s.GetAllSettings()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].Key != KeyRoot || all[1].Key != KeyZoom {
		t.Fatalf("unexpected settings: %+v", all)
	}
}

// ============================================================
// Projects
// ============================================================

func TestUpsertAndGetProject(t *testing.T) {
	s := newTestStore(t)
	if err := s.UpsertProject("alpha", "/data/alpha", 3); err != nil {
		t.Fatal(err)
	}
	p, err := s.GetProject("alpha")
	if err != nil {
		t.Fatal(err)
	}
	if p.Path != "/data/alpha" || p.TaskCount != 3 || p.LastOpened != nil {
		t.Fatalf("unexpected project: %+v", p)
	}
	if p.CreatedAt.IsZero() {
		t.Fatal("CreatedAt should be set")
	}

	if err := s.UpsertProject("alpha", "/moved/alpha", 5); err != nil {
		t.Fatal(err)
	}
	p, _ = s.GetProject("alpha")
	if p.Path != "/moved/alpha" || p.TaskCount != 5 {
		t.Fatalf("upsert did not refresh: %+v", p)
	}
}

func TestGetProjectNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetProject("ghost"); err == nil {
		t.Fatal("expected error for missing project")
	}
}

func TestListProjects(t *testing.T) {
	s := newTestStore(t)
	if projects, _ := s.ListProjects(); projects != nil {
		t.Fatalf("expected nil slice, got %d items", len(projects))
	}
	s.UpsertProject("beta", "/b", 0)
	s.UpsertProject("alpha", "/a", 0)
	projects, err := s.ListProjects()
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 2 || projects[0].Name != "alpha" || projects[1].Name != "beta" {
		t.Fatalf("expected sorted by name: %+v", projects)
	}
}

func TestTouchAndRecentProjects(t *testing.T) {
	s := newTestStore(t)
	s.UpsertProject("alpha", "/a", 0)
	s.UpsertProject("beta", "/b", 0)
	s.UpsertProject("gamma", "/g", 0)

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	s.TouchProject("alpha", at)
	s.TouchProject("beta", at.Add(time.Hour))

	recent, err := s.RecentProjects(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].Name != "beta" || recent[1].Name != "alpha" {
		t.Fatalf("unexpected recent order: %+v", recent)
	}
	if recent[1].LastOpened == nil || !recent[1].LastOpened.Equal(at) {
		t.Fatalf("last opened = %v", recent[1].LastOpened)
	}

	if err := s.TouchProject("ghost", at); err == nil {
		t.Fatal("touching an unknown project should fail")
	}
}

// ============================================================
// Saved views
// ============================================================

func TestSaveAndLoadView(t *testing.T) {
	s := newTestStore(t)
	s.UpsertProject("alpha", "/a", 0)

	if _, ok, err := s.LoadView("alpha"); ok || err != nil {
		t.Fatalf("expected no saved view, got ok=%v err=%v", ok, err)
	}

	st := filter.DefaultState()
	st.Statuses = []task.Status{task.StatusReview}
	st.Tags = []string{"bug", "ops"}
	st.Query = "login"
	st.SortColumn = filter.SortPriority
	st.SortDir = filter.Desc
	if err := s.SaveView("alpha", st); err != nil {
		t.Fatal(err)
	}

	v, ok, err := s.LoadView("alpha")
	if err != nil || !ok {
		t.Fatalf("load view: ok=%v err=%v", ok, err)
	}
	got := v.State
	if len(got.Statuses) != 1 || got.Statuses[0] != task.StatusReview || len(got.Tags) != 2 ||
		got.Query != "login" || got.SortColumn != filter.SortPriority || got.SortDir != filter.Desc {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	st.Query = ""
	s.SaveView("alpha", st)
	v, _, _ = s.LoadView("alpha")
	if v.State.Query != "" {
		t.Fatal("save should overwrite the previous view")
	}
}

func TestSaveViewUnknownProject(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveView("ghost", filter.DefaultState()); err == nil {
		t.Fatal("expected foreign key error for unregistered project")
	}
}

func TestDeleteProjectDropsView(t *testing.T) {
	s := newTestStore(t)
	s.UpsertProject("alpha", "/a", 0)
	s.SaveView("alpha", filter.DefaultState())
	if err := s.DeleteProject("alpha"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.LoadView("alpha"); ok {
		t.Fatal("view should be removed with its project")
	}
}
