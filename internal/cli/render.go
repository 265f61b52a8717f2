package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitual/internal/completion"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(14)
)

// RenderAgenda prints one day's checklist
func RenderAgenda(w io.Writer, date time.Time, habits []models.Habit) {
	fmt.Fprintln(w, headerStyle.Render(date.Format("Monday, Jan 2 2006")))
	if len(habits) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  No habits due."))
		return
	}

	done := 0
	for _, h := range habits {
		mark, style := "[ ]", pendingStyle
		if completion.IsCompletedOn(h, date) {
			mark, style = "[x]", doneStyle
			done++
		}
		line := fmt.Sprintf("  %s %s", mark, h.Name)
		fmt.Fprintf(w, "%s %s\n", style.Render(line), mutedStyle.Render("("+h.Frequency.String()+")"))
	}
	fmt.Fprintf(w, "  %s\n", mutedStyle.Render(fmt.Sprintf("%d/%d done", done, len(habits))))
}

// RenderHabit prints a habit's details
func RenderHabit(w io.Writer, h models.Habit) {
	fmt.Fprintln(w, headerStyle.Render(h.Name))
	row := func(label, value string) {
		fmt.Fprintf(w, "%s%s\n", labelStyle.Render(label), value)
	}
	row("ID", h.ID)
	if h.OwnerID != "" {
		row("Owner", h.OwnerID)
	}
	if h.Details != "" {
		row("Details", h.Details)
	}
	row("Frequency", h.Frequency.String())
	row("Start", utils.FormatDay(h.StartDate))
	if h.EndDate != nil {
		row("End", utils.FormatDay(*h.EndDate))
	}
	row("Status", status(h))
	row("Streak", fmt.Sprintf("%d", h.Streak))
	if h.LastDone != nil {
		row("Last done", utils.FormatDay(*h.LastDone))
	}
	row("Completions", fmt.Sprintf("%d", len(h.Completions)))
}

// RenderHabitList prints one line per habit
func RenderHabitList(w io.Writer, habits []models.Habit) {
	if len(habits) == 0 {
		fmt.Fprintln(w, "No habits found.")
		return
	}
	for _, h := range habits {
		fmt.Fprintf(w, "%s  %s %s\n",
			mutedStyle.Render(shortID(h.ID)),
			pendingStyle.Render(h.Name),
			mutedStyle.Render(fmt.Sprintf("(%s, %s)", h.Frequency.String(), status(h))))
	}
}

// RenderProgress prints a period progress bar
func RenderProgress(w io.Writer, h models.Habit, p models.PeriodProgress) {
	fmt.Fprintf(w, "%s %s\n", headerStyle.Render(h.Name),
		mutedStyle.Render(fmt.Sprintf("%s to %s", utils.FormatDay(p.PeriodStart), utils.FormatDay(p.PeriodEnd))))
	style := pendingStyle
	if p.Met {
		style = doneStyle
	}
	fmt.Fprintf(w, "  %s %d/%d\n", style.Render(ProgressBar(p.Done, p.Target, 20)), p.Done, p.Target)
}

// ProgressBar draws done/target as a fixed-width bar
func ProgressBar(done, target, width int) string {
	filled := 0
	if target > 0 {
		filled = done * width / target
	}
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

func status(h models.Habit) string {
	switch {
	case h.Ended():
		return "ended"
	case h.Paused:
		return "paused"
	default:
		return "active"
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
