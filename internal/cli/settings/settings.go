package settings

import (
	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/models"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	Timezone         *string `help:"IANA timezone used to decide calendar days, or Local."`
	IntervalPolicy   *string `help:"every_n_days visibility: literal (every active day) or strict (on the interval)."`
	MorningReminders *bool   `help:"Enable or disable the morning digest." negatable:""`
	EveningReminders *bool   `help:"Enable or disable the evening digest." negatable:""`
	MorningStartHour *int    `help:"First hour of the morning window (0-23)."`
	MorningEndHour   *int    `help:"Last hour of the morning window (0-23)."`
	EveningStartHour *int    `help:"First hour of the evening window (0-23)."`
	EveningEndHour   *int    `help:"Last hour of the evening window (0-23)."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Service.GetSettings()
	if err != nil {
		return err
	}

	if c.List {
		printSettings(ctx, settings)
		return nil
	}

	updated := c.apply(&settings)
	if !updated {
		ctx.Printf("No changes specified. Use --list to view settings or flags to update them.\n")
		return nil
	}
	if err := ctx.Service.UpdateSettings(settings); err != nil {
		return err
	}
	ctx.Printf("Settings updated successfully.\n")
	return nil
}

func (c *SettingsCmd) apply(s *models.Settings) bool {
	updated := false
	if c.Timezone != nil {
		s.Timezone = *c.Timezone
		updated = true
	}
	if c.IntervalPolicy != nil {
		s.IntervalPolicy = models.IntervalPolicy(*c.IntervalPolicy)
		updated = true
	}
	for _, f := range []struct {
		src *bool
		dst *bool
	}{
		{c.MorningReminders, &s.MorningReminders},
		{c.EveningReminders, &s.EveningReminders},
	} {
		if f.src != nil {
			*f.dst = *f.src
			updated = true
		}
	}
	for _, f := range []struct {
		src *int
		dst *int
	}{
		{c.MorningStartHour, &s.MorningStartHour},
		{c.MorningEndHour, &s.MorningEndHour},
		{c.EveningStartHour, &s.EveningStartHour},
		{c.EveningEndHour, &s.EveningEndHour},
	} {
		if f.src != nil {
			*f.dst = *f.src
			updated = true
		}
	}
	return updated
}

func printSettings(ctx *cli.Context, s models.Settings) {
	ctx.Printf("Current Settings:\n")
	ctx.Printf("  Timezone:          %s\n", s.Timezone)
	ctx.Printf("  Interval Policy:   %s\n", s.IntervalPolicy)
	ctx.Printf("\nReminder Settings:\n")
	ctx.Printf("  Morning Reminders: %v (%02d:00-%02d:59)\n", s.MorningReminders, s.MorningStartHour, s.MorningEndHour)
	ctx.Printf("  Evening Reminders: %v (%02d:00-%02d:59)\n", s.EveningReminders, s.EveningStartHour, s.EveningEndHour)
}
