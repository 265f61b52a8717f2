// Package views prints agendas and reminder digests.
package views

import (
	"sort"
	"time"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

type DayCmd struct {
	Date string `help:"Day to show (YYYY-MM-DD, default today)."`
}

func (c *DayCmd) Run(ctx *cli.Context) error {
	date, err := ctx.Day(c.Date)
	if err != nil {
		return err
	}
	habits, err := ctx.Service.GetHabitsForDate(date, ctx.Owner)
	if err != nil {
		return err
	}
	cli.RenderAgenda(ctx.Out, date, habits)
	return nil
}

type RangeCmd struct {
	Base string `help:"Base day (YYYY-MM-DD, default today)."`
	From int    `help:"First offset in days from the base day." default:"0"`
	To   int    `help:"Last offset in days from the base day." default:"6"`
}

func (c *RangeCmd) Run(ctx *cli.Context) error {
	base, err := ctx.Day(c.Base)
	if err != nil {
		return err
	}
	return printRange(ctx, base, c.From, c.To)
}

// WeekCmd shows the Monday-Sunday week containing the date
type WeekCmd struct {
	Date string `help:"Any day in the week (YYYY-MM-DD, default today)."`
}

func (c *WeekCmd) Run(ctx *cli.Context) error {
	date, err := ctx.Day(c.Date)
	if err != nil {
		return err
	}
	return printRange(ctx, utils.StartOfWeek(date), 0, 6)
}

func printRange(ctx *cli.Context, base time.Time, from, to int) error {
	byDay, err := ctx.Service.GetHabitsForRange(base, from, to, ctx.Owner)
	if err != nil {
		return err
	}
	for i, d := range sortedDays(byDay) {
		if i > 0 {
			ctx.Printf("\n")
		}
		cli.RenderAgenda(ctx.Out, d, byDay[d])
	}
	return nil
}

func sortedDays(byDay map[time.Time][]models.Habit) []time.Time {
	days := make([]time.Time, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// RemindCmd prints the digest due now. Delivery is left to whatever runs the
// command, such as cron.
type RemindCmd struct {
	Quiet bool `help:"Print nothing outside the reminder windows." short:"q"`
}

func (c *RemindCmd) Run(ctx *cli.Context) error {
	reminder, ok, err := ctx.Service.Reminder(ctx.Owner)
	if err != nil {
		return err
	}
	if !ok {
		if !c.Quiet {
			ctx.Printf("No reminder due at %s.\n", ctx.Service.Now().Format("15:04"))
		}
		return nil
	}
	ctx.Printf("%s\n%s\n", reminder.Title, reminder.Body)
	return nil
}
