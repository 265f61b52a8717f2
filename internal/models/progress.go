package models

import "time"

// PeriodProgress summarizes a habit's completions within the period its
// target is counted against (a Monday-Sunday week or a calendar month)
type PeriodProgress struct {
	HabitID     string    `json:"habit_id"`
	Target      int       `json:"target"`
	Done        int       `json:"done"`
	Remaining   int       `json:"remaining"`
	Met         bool      `json:"met"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
}

// AgendaSummary counts the state of one day's agenda
type AgendaSummary struct {
	Date      time.Time `json:"date"`
	Due       int       `json:"due"`
	Completed int       `json:"completed"`
}

// ReminderKind distinguishes the two daily digests
type ReminderKind string

const (
	ReminderMorning ReminderKind = "morning"
	ReminderEvening ReminderKind = "evening"
)

// Reminder is a composed digest message, ready for whatever delivers it
type Reminder struct {
	Kind  ReminderKind `json:"kind"`
	Title string       `json:"title"`
	Body  string       `json:"body"`
}

// HabitStats reports the stored counter next to the run lengths derived
// from the ledger
type HabitStats struct {
	HabitID     string     `json:"habit_id"`
	Streak      int        `json:"streak"`
	CurrentRun  int        `json:"current_run"`
	LongestRun  int        `json:"longest_run"`
	Completions int        `json:"completions"`
	LastDone    *time.Time `json:"last_done,omitempty"`
}
