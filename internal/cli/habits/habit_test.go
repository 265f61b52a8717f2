package habits

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/clock"
	apperrors "github.com/julianstephens/habitual/internal/errors"
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
	return &cli.Context{
		Store:   store,
		Service: service.New(store, clock.Fixed{At: time.Date(2024, time.June, 5, 9, 0, 0, 0, time.Local)}),
		Out:     &out,
	}, &out
}

func addHabit(t *testing.T, ctx *cli.Context, cmd HabitAddCmd) string {
	t.Helper()
	if cmd.Frequency == "" {
		cmd.Frequency = "daily"
	}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("habit add %q failed: %v", cmd.Name, err)
	}
	all, err := ctx.Store.GetAllHabits(storage.HabitFilter{})
	if err != nil {
		t.Fatal(err)
	}
	for _, h := range all {
		if h.Name == cmd.Name {
			return h.ID
		}
	}
	t.Fatalf("habit %q not stored", cmd.Name)
	return ""
}

func TestHabitAddCmd(t *testing.T) {
	tests := []struct {
		name    string
		cmd     HabitAddCmd
		wantErr bool
	}{
		{"daily", HabitAddCmd{Name: "Read", Frequency: "daily"}, false},
		{"weekly with target", HabitAddCmd{Name: "Gym", Frequency: "weekly", Times: 3}, false},
		{"weekly without target", HabitAddCmd{Name: "Gym", Frequency: "weekly"}, true},
		{"every n days", HabitAddCmd{Name: "Water plants", Frequency: "every_n_days", Every: 3}, false},
		{"every n days without interval", HabitAddCmd{Name: "Water plants", Frequency: "every_n_days"}, true},
		{"unknown frequency", HabitAddCmd{Name: "Nap", Frequency: "hourly"}, true},
		{"bad start date", HabitAddCmd{Name: "Walk", Frequency: "daily", Start: "June 1"}, true},
		{"end before start", HabitAddCmd{Name: "Walk", Frequency: "daily", Start: "2024-06-05", End: "2024-06-01"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, out := setupTestDB(t)
			err := tt.cmd.Run(ctx)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !apperrors.Is(err, apperrors.ErrValidation) {
					t.Errorf("error %v is not a validation error", err)
				}
				return
			}
			if !strings.Contains(out.String(), "Added habit: "+tt.cmd.Name) {
				t.Errorf("unexpected output %q", out.String())
			}
		})
	}
}

func TestHabitLifecycle(t *testing.T) {
	ctx, out := setupTestDB(t)
	id := addHabit(t, ctx, HabitAddCmd{Name: "Read", Start: "2024-06-01"})

	if err := (&HabitToggleCmd{Habit: "Read"}).Run(ctx); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if !strings.Contains(out.String(), `Marked habit "Read" for 2024-06-05 (streak 1)`) {
		t.Errorf("toggle output = %q", out.String())
	}

	out.Reset()
	if err := (&HabitShowCmd{Habit: id[:8]}).Run(ctx); err != nil {
		t.Fatalf("show failed: %v", err)
	}
	for _, want := range []string{"Read", "daily", "active", "Current run: 1"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("show output missing %q:\n%s", want, out.String())
		}
	}

	if err := (&HabitPauseCmd{Habit: "Read"}).Run(ctx); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	err := (&HabitToggleCmd{Habit: "Read", Date: "2024-06-04"}).Run(ctx)
	if !apperrors.Is(err, apperrors.ErrValidation) {
		t.Errorf("toggle on paused habit error = %v, want validation error", err)
	}
	if err := (&HabitResumeCmd{Habit: "Read"}).Run(ctx); err != nil {
		t.Fatalf("resume failed: %v", err)
	}

	newName := "Read fiction"
	if err := (&HabitEditCmd{Habit: id, Name: &newName}).Run(ctx); err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	h, err := ctx.Service.GetHabit(id)
	if err != nil {
		t.Fatal(err)
	}
	if h.Name != newName || h.Streak != 1 || len(h.Completions) != 1 {
		t.Errorf("after edit = %+v, want renamed with ledger kept", h)
	}

	if err := (&HabitEndCmd{Habit: id, Date: "2024-06-10"}).Run(ctx); err != nil {
		t.Fatalf("end failed: %v", err)
	}
	err = (&HabitToggleCmd{Habit: id, Date: "2024-06-11"}).Run(ctx)
	if !apperrors.Is(err, apperrors.ErrValidation) {
		t.Errorf("toggle after end error = %v, want validation error", err)
	}

	out.Reset()
	if err := (&HabitListCmd{Active: true}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No habits found.") {
		t.Errorf("active list should hide the ended habit: %q", out.String())
	}

	if err := (&HabitDeleteCmd{Habit: id}).Run(ctx); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := ctx.Service.GetHabit(id); !apperrors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("GetHabit after delete error = %v, want not found", err)
	}
}

func TestHabitRepairCmd(t *testing.T) {
	ctx, out := setupTestDB(t)
	id := addHabit(t, ctx, HabitAddCmd{Name: "Stretch", Start: "2024-06-01"})
	for _, d := range []string{"2024-06-02", "2024-06-03"} {
		if err := (&HabitToggleCmd{Habit: id, Date: d}).Run(ctx); err != nil {
			t.Fatal(err)
		}
	}

	// Drift the counter behind the service's back.
	if _, err := ctx.Store.MutateHabit(id, func(h *models.Habit) error {
		h.Streak = 9
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	err := (&HabitToggleCmd{Habit: id, Date: "2024-06-04"}).Run(ctx)
	if !apperrors.Is(err, apperrors.ErrInconsistentState) {
		t.Fatalf("toggle on drifted habit error = %v, want inconsistent state", err)
	}

	out.Reset()
	if err := (&HabitRepairCmd{Habit: id}).Run(ctx); err != nil {
		t.Fatalf("repair failed: %v", err)
	}
	if !strings.Contains(out.String(), "streak 9 -> 2") {
		t.Errorf("repair output = %q", out.String())
	}
	if err := (&HabitToggleCmd{Habit: id, Date: "2024-06-04"}).Run(ctx); err != nil {
		t.Errorf("toggle after repair failed: %v", err)
	}
}
