package agenda

import (
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
	"github.com/julianstephens/habitual/internal/visibility"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func fixtures() []models.Habit {
	mon, tue := day(2024, time.June, 3), day(2024, time.June, 4)
	end := day(2024, time.June, 4)
	return []models.Habit{
		{ID: "a-daily", Frequency: models.Daily(), StartDate: day(2024, time.June, 1)},
		{ID: "b-weekly", Frequency: models.Weekly(2), StartDate: day(2024, time.June, 1), Completions: []time.Time{mon, tue}, Streak: 2},
		{ID: "c-future", Frequency: models.Daily(), StartDate: day(2024, time.June, 10)},
		{ID: "d-ended", Frequency: models.Daily(), StartDate: day(2024, time.May, 1), EndDate: &end},
	}
}

func ids(habits []models.Habit) []string {
	var out []string
	for _, h := range habits {
		out = append(out, h.ID)
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestHabitsForDate(t *testing.T) {
	svc := New(visibility.New(models.IntervalLiteral))
	all := fixtures()

	tests := []struct {
		name string
		date time.Time
		ref  time.Time
		want []string
	}{
		{"past completed day keeps weekly", day(2024, time.June, 3), day(2024, time.June, 5), []string{"a-daily", "b-weekly", "d-ended"}},
		{"today after target met", day(2024, time.June, 5), day(2024, time.June, 5), []string{"a-daily"}},
		{"future start", day(2024, time.June, 10), day(2024, time.June, 5), []string{"a-daily", "b-weekly", "c-future"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(svc.HabitsForDate(all, tt.date, tt.ref))
			if !equalIDs(got, tt.want) {
				t.Errorf("HabitsForDate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHabitsForDateEmptyInput(t *testing.T) {
	svc := New(nil)
	if got := svc.HabitsForDate(nil, day(2024, time.June, 5), day(2024, time.June, 5)); len(got) != 0 {
		t.Errorf("HabitsForDate(nil) = %v, want empty", got)
	}

	dates := utils.DateRange(day(2024, time.June, 5), -1, 1)
	byDay := svc.HabitsForDateRange(nil, dates, day(2024, time.June, 5))
	if len(byDay) != 3 {
		t.Fatalf("len(HabitsForDateRange) = %d, want 3", len(byDay))
	}
	for d, habits := range byDay {
		if len(habits) != 0 {
			t.Errorf("agenda for %v = %v, want empty", d, habits)
		}
	}
}

func TestHabitsForDateRange(t *testing.T) {
	svc := New(visibility.New(models.IntervalLiteral))
	ref := day(2024, time.June, 5)
	dates := utils.DateRange(ref.Add(10*time.Hour), -2, 4)

	byDay := svc.HabitsForDateRange(fixtures(), dates, ref)
	if len(byDay) != 7 {
		t.Fatalf("len(HabitsForDateRange) = %d, want 7", len(byDay))
	}

	tue := byDay[day(2024, time.June, 4)]
	if want := []string{"a-daily", "b-weekly", "d-ended"}; !equalIDs(ids(tue), want) {
		t.Errorf("Tuesday agenda = %v, want %v", ids(tue), want)
	}
	fri := byDay[day(2024, time.June, 7)]
	if want := []string{"a-daily"}; !equalIDs(ids(fri), want) {
		t.Errorf("Friday agenda = %v, want %v", ids(fri), want)
	}
}

func TestSummarize(t *testing.T) {
	svc := New(nil)
	tue := day(2024, time.June, 4)
	got := svc.Summarize(fixtures(), tue, day(2024, time.June, 5))
	if got.Due != 3 {
		t.Errorf("Due = %d, want 3", got.Due)
	}
	if got.Completed != 1 {
		t.Errorf("Completed = %d, want 1", got.Completed)
	}
}

func TestProgress(t *testing.T) {
	all := fixtures()
	svc := New(nil)

	weekly := svc.Progress(all[1], day(2024, time.June, 6))
	if weekly.Target != 2 || weekly.Done != 2 || weekly.Remaining != 0 || !weekly.Met {
		t.Errorf("weekly Progress = %+v", weekly)
	}
	if !weekly.PeriodStart.Equal(day(2024, time.June, 3)) {
		t.Errorf("PeriodStart = %v, want 2024-06-03", weekly.PeriodStart)
	}

	// Daily habit starting Saturday June 1: active Sat and Sun of that week
	daily := svc.Progress(all[0], day(2024, time.May, 30))
	if daily.Target != 2 || daily.Done != 0 || daily.Remaining != 2 || daily.Met {
		t.Errorf("daily Progress = %+v", daily)
	}

	monthly := models.Habit{
		Frequency:   models.Monthly(3),
		StartDate:   day(2024, time.January, 1),
		Completions: []time.Time{day(2024, time.June, 2), day(2024, time.June, 28)},
	}
	got := svc.Progress(monthly, day(2024, time.June, 15))
	if got.Target != 3 || got.Done != 2 || got.Remaining != 1 {
		t.Errorf("monthly Progress = %+v", got)
	}
	if !got.PeriodEnd.After(day(2024, time.June, 30)) {
		t.Errorf("PeriodEnd = %v, want end of June", got.PeriodEnd)
	}
}

func TestProgressEveryNDays(t *testing.T) {
	// Every third day from Monday June 3: due June 3, 6 and 9 under the strict policy
	h := models.Habit{
		Frequency:   models.EveryNDays(3),
		StartDate:   day(2024, time.June, 3),
		Completions: []time.Time{day(2024, time.June, 3)},
	}

	tests := []struct {
		name       string
		policy     models.IntervalPolicy
		wantTarget int
	}{
		{"literal counts every active day", models.IntervalLiteral, 7},
		{"strict counts interval days", models.IntervalStrict, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(visibility.New(tt.policy)).Progress(h, day(2024, time.June, 5))
			if got.Target != tt.wantTarget || got.Done != 1 || got.Remaining != tt.wantTarget-1 {
				t.Errorf("Progress() = %+v, want target %d", got, tt.wantTarget)
			}
		})
	}
}

func TestSummarizeDue(t *testing.T) {
	d := day(2024, time.June, 5)
	due := []models.Habit{
		{ID: "a", Completions: []time.Time{d}},
		{ID: "b"},
	}
	got := SummarizeDue(due, d.Add(15*time.Hour))
	if got.Due != 2 || got.Completed != 1 || !got.Date.Equal(d) {
		t.Errorf("SummarizeDue() = %+v", got)
	}
}

func TestReminderDigest(t *testing.T) {
	svc := New(nil)
	settings := models.DefaultSettings()
	today := day(2024, time.June, 5)
	habits := []models.Habit{
		{ID: "one", Frequency: models.Daily(), StartDate: day(2024, time.June, 1), Completions: []time.Time{today}, Streak: 1},
		{ID: "two", Frequency: models.Daily(), StartDate: day(2024, time.June, 1)},
		{ID: "paused", Frequency: models.Daily(), StartDate: day(2024, time.June, 1), Paused: true},
	}

	t.Run("morning", func(t *testing.T) {
		r, ok := svc.ReminderDigest(habits, today.Add(9*time.Hour), settings)
		if !ok {
			t.Fatal("ReminderDigest() ok = false in morning window")
		}
		if r.Kind != models.ReminderMorning || r.Title != "Today's Habits" {
			t.Errorf("ReminderDigest() = %+v", r)
		}
		want := "You have 2 habits to complete today. Let's make it a great day!"
		if r.Body != want {
			t.Errorf("Body = %q, want %q", r.Body, want)
		}
	})

	t.Run("evening with one left", func(t *testing.T) {
		r, ok := svc.ReminderDigest(habits, today.Add(21*time.Hour), settings)
		if !ok {
			t.Fatal("ReminderDigest() ok = false in evening window")
		}
		want := "You still have 1 habit to complete today. Don't forget to check them off!"
		if r.Body != want {
			t.Errorf("Body = %q, want %q", r.Body, want)
		}
	})

	t.Run("evening all done", func(t *testing.T) {
		r, _ := svc.ReminderDigest(habits[:1], today.Add(20*time.Hour), settings)
		if r.Body != "Congratulations! You've completed all your habits today! Keep up the great work!" {
			t.Errorf("Body = %q", r.Body)
		}
	})

	t.Run("no habits", func(t *testing.T) {
		r, _ := svc.ReminderDigest(nil, today.Add(8*time.Hour), settings)
		if r.Body != "You have no active habits for today. Time to create some new ones!" {
			t.Errorf("Body = %q", r.Body)
		}
	})

	t.Run("outside windows", func(t *testing.T) {
		if _, ok := svc.ReminderDigest(habits, today.Add(14*time.Hour), settings); ok {
			t.Error("ReminderDigest() ok = true at 14:00")
		}
	})

	t.Run("disabled", func(t *testing.T) {
		off := settings
		off.MorningReminders = false
		if _, ok := svc.ReminderDigest(habits, today.Add(9*time.Hour), off); ok {
			t.Error("ReminderDigest() ok = true with morning reminders off")
		}
	})
}
