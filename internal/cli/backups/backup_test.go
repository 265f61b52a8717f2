package backups

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/service"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
)

func setupTestDB(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	var out bytes.Buffer
	return &cli.Context{Store: store, Service: service.New(store, nil), Out: &out}, &out
}

func TestBackupCreateListRestore(t *testing.T) {
	ctx, out := setupTestDB(t)
	h, err := ctx.Service.CreateHabit(models.HabitInput{Name: "Keep", Frequency: models.Daily(), StartDate: time.Now()})
	if err != nil {
		t.Fatal(err)
	}

	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatalf("backup create failed: %v", err)
	}
	if !strings.Contains(out.String(), "✓ Backup created: habitual-") {
		t.Errorf("create output = %q", out.String())
	}

	out.Reset()
	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatalf("backup list failed: %v", err)
	}
	if !strings.Contains(out.String(), "Available backups (1 total") {
		t.Errorf("list output = %q", out.String())
	}

	mgr, err := manager(ctx)
	if err != nil {
		t.Fatal(err)
	}
	backups, err := mgr.List()
	if err != nil || len(backups) != 1 {
		t.Fatalf("List() = %v, %v", backups, err)
	}

	if err := ctx.Service.DeleteHabit(h.ID); err != nil {
		t.Fatal(err)
	}

	out.Reset()
	restore := &BackupRestoreCmd{BackupFile: filepath.Base(backups[0].Path), in: strings.NewReader("y\n")}
	if err := restore.Run(ctx); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if !strings.Contains(out.String(), "Database restored successfully") {
		t.Errorf("restore output = %q", out.String())
	}

	if err := ctx.Store.Load(); err != nil {
		t.Fatalf("reload after restore failed: %v", err)
	}
	all, err := ctx.Store.GetAllHabits(storage.HabitFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].ID != h.ID {
		t.Errorf("habits after restore = %+v, want the deleted habit back", all)
	}
}

func TestBackupRestoreCancelled(t *testing.T) {
	ctx, out := setupTestDB(t)
	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	mgr, _ := manager(ctx)
	backups, _ := mgr.List()

	out.Reset()
	restore := &BackupRestoreCmd{BackupFile: backups[0].Path, in: strings.NewReader("n\n")}
	if err := restore.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Restore cancelled.") {
		t.Errorf("output = %q", out.String())
	}
}

func TestBackupRestoreMissingFile(t *testing.T) {
	ctx, _ := setupTestDB(t)
	if err := (&BackupRestoreCmd{BackupFile: "habitual-19990101-000000.db", Yes: true}).Run(ctx); err == nil {
		t.Error("expected error for a missing backup")
	}
}

func TestBackupsRequireSQLite(t *testing.T) {
	store := storage.NewJSONStore(filepath.Join(t.TempDir(), "h.json"))
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}
	ctx := &cli.Context{Store: store, Service: service.New(store, nil), Out: &bytes.Buffer{}}
	if err := (&BackupCreateCmd{}).Run(ctx); err == nil {
		t.Error("expected error creating a backup of a JSON store")
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"yes", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := confirm(strings.NewReader(tt.input)); got != tt.want {
			t.Errorf("confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
