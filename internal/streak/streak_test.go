package streak

import (
	"testing"
	"time"

	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestApplyToggle(t *testing.T) {
	mon, tue := day(2024, time.June, 3), day(2024, time.June, 4)

	t.Run("complete", func(t *testing.T) {
		h := models.Habit{Streak: 4}
		s, last := ApplyToggle(h, tue.Add(7*time.Hour), []time.Time{mon, tue}, true)
		if s != 5 {
			t.Errorf("streak = %d, want 5", s)
		}
		if last == nil || !last.Equal(tue) {
			t.Errorf("lastDone = %v, want %v", last, tue)
		}
	})

	t.Run("uncomplete", func(t *testing.T) {
		h := models.Habit{Streak: 2}
		s, last := ApplyToggle(h, tue, []time.Time{mon}, false)
		if s != 1 {
			t.Errorf("streak = %d, want 1", s)
		}
		if last == nil || !last.Equal(mon) {
			t.Errorf("lastDone = %v, want %v", last, mon)
		}
	})

	t.Run("floor at zero", func(t *testing.T) {
		s, last := ApplyToggle(models.Habit{}, mon, nil, false)
		if s != 0 {
			t.Errorf("streak = %d, want 0", s)
		}
		if last != nil {
			t.Errorf("lastDone = %v, want nil", last)
		}
	})
}

func TestCheckAndRepair(t *testing.T) {
	mon, tue := day(2024, time.June, 3), day(2024, time.June, 4)

	consistent := models.Habit{ID: "ok", Completions: []time.Time{mon, tue}, Streak: 2, LastDone: &tue}
	if err := Check(consistent); err != nil {
		t.Errorf("Check(consistent) = %v, want nil", err)
	}

	drifted := models.Habit{ID: "bad", Completions: []time.Time{mon, tue}, Streak: 5, LastDone: &mon}
	err := Check(drifted)
	if !apperrors.Is(err, apperrors.ErrInconsistentState) {
		t.Fatalf("Check(drifted) = %v, want ErrInconsistentState", err)
	}

	repaired := Repair(drifted)
	if repaired.Streak != 2 {
		t.Errorf("repaired streak = %d, want 2", repaired.Streak)
	}
	if err := Check(repaired); err != nil {
		t.Errorf("Check(repaired) = %v, want nil", err)
	}

	empty := models.Habit{ID: "empty", Streak: 0, LastDone: &mon}
	if err := Check(empty); err == nil {
		t.Error("Check(stale last done) = nil, want error")
	}
}

func TestCurrentRunDaily(t *testing.T) {
	h := models.Habit{
		Frequency: models.Daily(),
		StartDate: day(2024, time.June, 1),
		Completions: []time.Time{
			day(2024, time.June, 1),
			day(2024, time.June, 2),
			// gap on the 3rd
			day(2024, time.June, 4),
			day(2024, time.June, 5),
			day(2024, time.June, 6),
		},
	}

	tests := []struct {
		name string
		asOf time.Time
		want int
	}{
		{"completed today", day(2024, time.June, 6), 3},
		{"today still open", day(2024, time.June, 7), 3},
		{"run broken", day(2024, time.June, 8), 0},
		{"before the gap", day(2024, time.June, 2), 2},
		{"on the gap", day(2024, time.June, 3), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CurrentRun(h, tt.asOf); got != tt.want {
				t.Errorf("CurrentRun() = %d, want %d", got, tt.want)
			}
		})
	}

	if got := LongestRun(h); got != 3 {
		t.Errorf("LongestRun() = %d, want 3", got)
	}
}

func TestCurrentRunEveryNDays(t *testing.T) {
	h := models.Habit{
		Frequency: models.EveryNDays(3),
		StartDate: day(2024, time.June, 1),
		Completions: []time.Time{
			day(2024, time.June, 1),
			day(2024, time.June, 4),
			day(2024, time.June, 7),
		},
	}
	if got := CurrentRun(h, day(2024, time.June, 9)); got != 3 {
		t.Errorf("CurrentRun() = %d, want 3", got)
	}
	if got := CurrentRun(h, day(2024, time.June, 11)); got != 0 {
		t.Errorf("CurrentRun() after lapse = %d, want 0", got)
	}
}

func TestCurrentRunWeeklyTarget(t *testing.T) {
	h := models.Habit{
		Frequency: models.Weekly(2),
		StartDate: day(2024, time.May, 27),
		Completions: []time.Time{
			day(2024, time.May, 27), day(2024, time.May, 29), // week of May 27: met
			day(2024, time.June, 3), day(2024, time.June, 7), // week of Jun 3: met
			day(2024, time.June, 11), // week of Jun 10: 1 of 2
		},
	}

	if got := CurrentRun(h, day(2024, time.June, 12)); got != 2 {
		t.Errorf("CurrentRun() mid-week = %d, want 2", got)
	}

	h.Completions = append(h.Completions, day(2024, time.June, 13))
	if got := CurrentRun(h, day(2024, time.June, 13)); got != 3 {
		t.Errorf("CurrentRun() after meeting target = %d, want 3", got)
	}
	if got := LongestRun(h); got != 3 {
		t.Errorf("LongestRun() = %d, want 3", got)
	}
}

func TestCurrentRunMonthly(t *testing.T) {
	h := models.Habit{
		Frequency: models.Monthly(1),
		StartDate: day(2024, time.March, 1),
		Completions: []time.Time{
			day(2024, time.March, 10),
			// April missed
			day(2024, time.May, 2),
			day(2024, time.June, 30),
		},
	}
	if got := CurrentRun(h, day(2024, time.June, 30)); got != 2 {
		t.Errorf("CurrentRun() = %d, want 2", got)
	}
	if got := LongestRun(h); got != 2 {
		t.Errorf("LongestRun() = %d, want 2", got)
	}
}

func TestRunsOnEmptyLedger(t *testing.T) {
	h := models.Habit{Frequency: models.Weekly(3), StartDate: day(2024, time.June, 1)}
	if got := CurrentRun(h, day(2024, time.June, 5)); got != 0 {
		t.Errorf("CurrentRun() = %d, want 0", got)
	}
	if got := LongestRun(h); got != 0 {
		t.Errorf("LongestRun() = %d, want 0", got)
	}
}
