package backup

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/storage/sqlite"
)

// setupTestDB creates an initialized habitual database with one habit row
func setupTestDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "habitual.db")
	store := sqlite.NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	_, err := store.GetDB().Exec(`
		INSERT INTO habits (id, name, frequency_kind, start_date, created_at, updated_at)
		VALUES ('h1', 'Read', 'daily', '2024-06-01', '2024-06-01T00:00:00Z', '2024-06-01T00:00:00Z')`)
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	store.Close()
	return dbPath
}

func habitNames(t *testing.T, dbPath string) []string {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer db.Close()
	rows, err := db.Query("SELECT name FROM habits ORDER BY name")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		names = append(names, n)
	}
	return names
}

// steppingClock advances one minute per call
func steppingClock(start time.Time) func() time.Time {
	next := start
	return func() time.Time {
		t := next
		next = next.Add(time.Minute)
		return t
	}
}

func TestCreate(t *testing.T) {
	m := NewManager(setupTestDB(t))

	path, err := m.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if filepath.Dir(path) != m.Dir() {
		t.Errorf("backup written to %s, want inside %s", path, m.Dir())
	}
	if err := Verify(path); err != nil {
		t.Errorf("Verify(backup) failed: %v", err)
	}
	if names := habitNames(t, path); len(names) != 1 || names[0] != "Read" {
		t.Errorf("backup habits = %v, want [Read]", names)
	}
}

func TestCreateWithoutDatabase(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "missing.db"))
	if _, err := m.Create(); err == nil {
		t.Error("Create should fail without a database")
	}
}

func TestRotation(t *testing.T) {
	m := NewManager(setupTestDB(t))
	m.keep = 3
	m.now = steppingClock(time.Date(2024, time.June, 1, 8, 0, 0, 0, time.Local))

	var created []string
	for i := 0; i < 5; i++ {
		path, err := m.Create()
		if err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
		created = append(created, path)
	}

	backups, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(backups) != 3 {
		t.Fatalf("len(List) = %d, want 3", len(backups))
	}
	if backups[0].Path != created[4] {
		t.Errorf("newest backup = %s, want %s", backups[0].Path, created[4])
	}
	if _, err := os.Stat(created[0]); !os.IsNotExist(err) {
		t.Error("oldest backup was not rotated away")
	}
}

func TestUniqueNamesWithinOneSecond(t *testing.T) {
	m := NewManager(setupTestDB(t))
	fixed := time.Date(2024, time.June, 1, 8, 0, 0, 0, time.Local)
	m.now = func() time.Time { return fixed }

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		path, err := m.Create()
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if seen[path] {
			t.Fatalf("duplicate backup path %s", path)
		}
		seen[path] = true
	}
	backups, _ := m.List()
	if len(backups) != 3 {
		t.Errorf("len(List) = %d, want 3", len(backups))
	}
}

func TestListIgnoresForeignFiles(t *testing.T) {
	m := NewManager(setupTestDB(t))
	if err := os.MkdirAll(m.Dir(), 0700); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"notes.txt", "habitual-garbage.db", "other-20240601-080000.db"} {
		if err := os.WriteFile(filepath.Join(m.Dir(), name), []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	backups, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("List() = %v, want no backups", backups)
	}
}

func TestRestore(t *testing.T) {
	dbPath := setupTestDB(t)
	m := NewManager(dbPath)
	m.now = steppingClock(time.Date(2024, time.June, 1, 8, 0, 0, 0, time.Local))

	backupPath, err := m.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("UPDATE habits SET name = 'Changed'"); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	db.Close()

	safety, err := m.Restore(backupPath)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if names := habitNames(t, dbPath); len(names) != 1 || names[0] != "Read" {
		t.Errorf("restored habits = %v, want [Read]", names)
	}
	if safety == "" {
		t.Fatal("Restore did not snapshot the current database")
	}
	if names := habitNames(t, safety); len(names) != 1 || names[0] != "Changed" {
		t.Errorf("safety backup habits = %v, want [Changed]", names)
	}
}

func TestRestoreRejectsBadBackups(t *testing.T) {
	m := NewManager(setupTestDB(t))

	if _, err := m.Restore(filepath.Join(t.TempDir(), "nope.db")); err == nil {
		t.Error("Restore of a missing file should fail")
	}

	garbage := filepath.Join(t.TempDir(), "garbage.db")
	if err := os.WriteFile(garbage, []byte("this is not a database"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Restore(garbage); err == nil {
		t.Error("Restore of a corrupted file should fail")
	}

	empty := filepath.Join(t.TempDir(), "empty.db")
	db, err := sql.Open("sqlite", empty)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("CREATE TABLE unrelated (id INTEGER)"); err != nil {
		t.Fatal(err)
	}
	db.Close()
	if err := Verify(empty); err == nil {
		t.Error("Verify should reject a database without a habits table")
	}
}

func TestParseName(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"habitual-20240601-080000.db", true},
		{"habitual-20240601-080000-2.db", true},
		{"habitual-20240601.db", false},
		{"daylit-20240601-080000.db", false},
		{"habitual-20240601-080000.sqlite", false},
	}
	for _, tt := range tests {
		if _, ok := parseName(tt.name); ok != tt.ok {
			t.Errorf("parseName(%q) ok = %v, want %v", tt.name, ok, tt.ok)
		}
	}
}
