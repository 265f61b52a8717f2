package agenda

import (
	"fmt"
	"time"

	"github.com/julianstephens/habitual/internal/completion"
	"github.com/julianstephens/habitual/internal/models"
)

// ReminderDigest composes the morning or evening digest for now. The second return
// value is false when now falls outside both reminder windows or the matching
// reminder is switched off.
func (s *Service) ReminderDigest(all []models.Habit, now time.Time, settings models.Settings) (models.Reminder, bool) {
	hour := now.In(time.Local).Hour()
	isMorning := hour >= settings.MorningStartHour && hour <= settings.MorningEndHour
	isEvening := hour >= settings.EveningStartHour && hour <= settings.EveningEndHour

	switch {
	case isMorning && settings.MorningReminders:
		return models.Reminder{
			Kind:  models.ReminderMorning,
			Title: "Today's Habits",
			Body:  morningMessage(s.reminderHabits(all, now)),
		}, true
	case isEvening && settings.EveningReminders:
		return models.Reminder{
			Kind:  models.ReminderEvening,
			Title: "Habit Check-in",
			Body:  eveningMessage(s.reminderHabits(all, now), now),
		}, true
	default:
		return models.Reminder{}, false
	}
}

// reminderHabits returns today's agenda without ended or paused habits.
func (s *Service) reminderHabits(all []models.Habit, now time.Time) []models.Habit {
	var out []models.Habit
	for _, h := range s.HabitsForDate(all, now, now) {
		if h.Ended() || h.Paused {
			continue
		}
		out = append(out, h)
	}
	return out
}

func morningMessage(habits []models.Habit) string {
	if len(habits) == 0 {
		return "You have no active habits for today. Time to create some new ones!"
	}
	return fmt.Sprintf("You have %d %s to complete today. Let's make it a great day!",
		len(habits), plural(len(habits)))
}

func eveningMessage(habits []models.Habit, now time.Time) string {
	if len(habits) == 0 {
		return "You have no active habits for today."
	}

	completed := 0
	for _, h := range habits {
		if completion.IsCompletedOn(h, now) {
			completed++
		}
	}
	if completed == len(habits) {
		return "Congratulations! You've completed all your habits today! Keep up the great work!"
	}

	left := len(habits) - completed
	return fmt.Sprintf("You still have %d %s to complete today. Don't forget to check them off!", left, plural(left))
}

func plural(n int) string {
	if n == 1 {
		return "habit"
	}
	return "habits"
}
