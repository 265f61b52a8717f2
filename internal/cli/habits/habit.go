package habits

import (
	"fmt"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

type HabitCmd struct {
	Add    HabitAddCmd    `cmd:"" help:"Add a new habit."`
	Edit   HabitEditCmd   `cmd:"" help:"Edit an existing habit."`
	List   HabitListCmd   `cmd:"" help:"List habits."`
	Show   HabitShowCmd   `cmd:"" help:"Show a habit with its progress."`
	Toggle HabitToggleCmd `cmd:"" help:"Mark or unmark a habit for a day."`
	Pause  HabitPauseCmd  `cmd:"" help:"Pause a habit."`
	Resume HabitResumeCmd `cmd:"" help:"Resume a paused habit."`
	End    HabitEndCmd    `cmd:"" help:"End a habit on a day."`
	Delete HabitDeleteCmd `cmd:"" help:"Delete a habit and its history."`
	Repair HabitRepairCmd `cmd:"" help:"Rebuild a habit's streak from its history."`
}

type HabitAddCmd struct {
	Name      string `arg:"" help:"Habit name."`
	Details   string `help:"Free-form notes."`
	Frequency string `help:"daily, weekly, monthly or every_n_days." default:"daily" short:"f"`
	Times     int    `help:"Target completions per week or month."`
	Every     int    `help:"Interval in days for every_n_days habits."`
	Start     string `help:"Start date (YYYY-MM-DD, default today)."`
	End       string `help:"Optional end date (YYYY-MM-DD)."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	freq, err := cli.ParseFrequency(c.Frequency, c.Times, c.Every)
	if err != nil {
		return err
	}
	start, err := ctx.Day(c.Start)
	if err != nil {
		return err
	}
	input := models.HabitInput{
		OwnerID:   ctx.Owner,
		Name:      c.Name,
		Details:   c.Details,
		Frequency: freq,
		StartDate: start,
	}
	if c.End != "" {
		end, err := ctx.Day(c.End)
		if err != nil {
			return err
		}
		input.EndDate = &end
	}

	h, err := ctx.Service.CreateHabit(input)
	if err != nil {
		return err
	}
	ctx.Printf("Added habit: %s (%s) [%s]\n", h.Name, h.Frequency.String(), h.ID)
	return nil
}

type HabitEditCmd struct {
	Habit     string  `arg:"" help:"Habit id, id prefix or name."`
	Name      *string `help:"New name."`
	Details   *string `help:"New notes."`
	Frequency *string `help:"New frequency kind." short:"f"`
	Times     int     `help:"Target completions per week or month (with --frequency)."`
	Every     int     `help:"Interval in days (with --frequency every_n_days)."`
	Start     *string `help:"New start date (YYYY-MM-DD)."`
	End       *string `help:"New end date (YYYY-MM-DD)."`
}

func (c *HabitEditCmd) Run(ctx *cli.Context) error {
	h, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}

	patch := models.HabitPatch{Name: c.Name, Details: c.Details}
	if c.Frequency != nil {
		freq, err := cli.ParseFrequency(*c.Frequency, c.Times, c.Every)
		if err != nil {
			return err
		}
		patch.Frequency = &freq
	}
	if c.Start != nil {
		d, err := ctx.Day(*c.Start)
		if err != nil {
			return err
		}
		patch.StartDate = &d
	}
	if c.End != nil {
		d, err := ctx.Day(*c.End)
		if err != nil {
			return err
		}
		patch.EndDate = &d
	}

	updated, err := ctx.Service.UpdateHabit(h.ID, patch)
	if err != nil {
		return err
	}
	ctx.Printf("Updated habit: %s\n", updated.Name)
	return nil
}

type HabitListCmd struct {
	Active bool `help:"Hide paused and ended habits."`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	all, err := ctx.Service.ListHabits(ctx.Owner)
	if err != nil {
		return err
	}
	if c.Active {
		kept := all[:0]
		for _, h := range all {
			if !h.Paused && !h.Ended() {
				kept = append(kept, h)
			}
		}
		all = kept
	}
	cli.RenderHabitList(ctx.Out, all)
	return nil
}

type HabitShowCmd struct {
	Habit string `arg:"" help:"Habit id, id prefix or name."`
	Date  string `help:"Day whose period progress is shown (YYYY-MM-DD, default today)."`
}

func (c *HabitShowCmd) Run(ctx *cli.Context) error {
	h, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	date, err := ctx.Day(c.Date)
	if err != nil {
		return err
	}
	cli.RenderHabit(ctx.Out, h)

	stats, err := ctx.Service.Stats(h.ID)
	if err != nil {
		return err
	}
	ctx.Printf("Current run: %d  Longest run: %d\n", stats.CurrentRun, stats.LongestRun)

	p, err := ctx.Service.Progress(h.ID, date)
	if err != nil {
		return err
	}
	ctx.Printf("\n")
	cli.RenderProgress(ctx.Out, h, p)
	return nil
}

type HabitToggleCmd struct {
	Habit string `arg:"" help:"Habit id, id prefix or name."`
	Date  string `help:"Day to toggle (YYYY-MM-DD, default today)."`
}

func (c *HabitToggleCmd) Run(ctx *cli.Context) error {
	h, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	date, err := ctx.Day(c.Date)
	if err != nil {
		return err
	}
	res, err := ctx.Service.ToggleHabitCompletion(h.ID, date)
	if err != nil {
		return err
	}
	verb := "Unmarked"
	if res.Completed {
		verb = "Marked"
	}
	ctx.Printf("%s habit %q for %s (streak %d)\n", verb, h.Name, utils.FormatDay(date), res.Streak)
	return nil
}

type HabitPauseCmd struct {
	Habit string `arg:"" help:"Habit id, id prefix or name."`
}

func (c *HabitPauseCmd) Run(ctx *cli.Context) error {
	h, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	if _, err := ctx.Service.PauseHabit(h.ID); err != nil {
		return err
	}
	ctx.Printf("Paused habit: %s\n", h.Name)
	return nil
}

type HabitResumeCmd struct {
	Habit string `arg:"" help:"Habit id, id prefix or name."`
}

func (c *HabitResumeCmd) Run(ctx *cli.Context) error {
	h, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	if _, err := ctx.Service.ResumeHabit(h.ID); err != nil {
		return err
	}
	ctx.Printf("Resumed habit: %s\n", h.Name)
	return nil
}

type HabitEndCmd struct {
	Habit string `arg:"" help:"Habit id, id prefix or name."`
	Date  string `help:"Last active day (YYYY-MM-DD, default today)."`
}

func (c *HabitEndCmd) Run(ctx *cli.Context) error {
	h, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	date, err := ctx.Day(c.Date)
	if err != nil {
		return err
	}
	if _, err := ctx.Service.EndHabit(h.ID, date); err != nil {
		return err
	}
	ctx.Printf("Ended habit %q on %s\n", h.Name, utils.FormatDay(date))
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit id, id prefix or name."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	h, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	ctx.PerformAutomaticBackup()
	if err := ctx.Service.DeleteHabit(h.ID); err != nil {
		return err
	}
	ctx.Printf("Deleted habit: %s\n", h.Name)
	return nil
}

type HabitRepairCmd struct {
	Habit string `arg:"" help:"Habit id, id prefix or name."`
}

func (c *HabitRepairCmd) Run(ctx *cli.Context) error {
	h, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	ctx.PerformAutomaticBackup()
	repaired, err := ctx.Service.RepairHabit(h.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Repaired habit %q: streak %d -> %d\n", h.Name, h.Streak, repaired.Streak)
	return nil
}
