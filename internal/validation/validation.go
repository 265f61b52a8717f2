// Package validation checks habit and settings input before it reaches storage.
package validation

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json names so messages match the API payloads
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	// "Local" is accepted alongside IANA names
	_ = v.RegisterValidation("tzname", func(fl validator.FieldLevel) bool {
		return utils.ValidateTimezone(fl.Field().String())
	})

	v.RegisterStructValidation(frequencyRules, models.Frequency{})
	v.RegisterStructValidation(habitInputRules, models.HabitInput{})
	return v
}

func frequencyRules(sl validator.StructLevel) {
	f := sl.Current().Interface().(models.Frequency)
	switch f.Kind {
	case models.FrequencyWeekly, models.FrequencyMonthly:
		if f.TimesPerPeriod <= 0 {
			sl.ReportError(f.TimesPerPeriod, "times_per_period", "TimesPerPeriod", "period_target", "")
		}
	case models.FrequencyEveryNDays:
		if f.CustomInterval < 1 {
			sl.ReportError(f.CustomInterval, "custom_interval", "CustomInterval", "interval", "")
		}
	}
}

func habitInputRules(sl validator.StructLevel) {
	in := sl.Current().Interface().(models.HabitInput)
	if in.EndDate == nil || in.StartDate.IsZero() {
		return
	}
	if utils.Normalize(*in.EndDate).Before(utils.Normalize(in.StartDate)) {
		sl.ReportError(in.EndDate, "end_date", "EndDate", "after_start", "")
	}
}

// HabitInput validates a creation payload. The name is trimmed first.
func HabitInput(in models.HabitInput) error {
	in.Name = strings.TrimSpace(in.Name)
	return translate(validate.Struct(in))
}

// Patch validates the habit that results from applying patch to current
func Patch(current models.Habit, patch models.HabitPatch) error {
	merged := models.HabitInput{
		OwnerID:   current.OwnerID,
		Name:      current.Name,
		Details:   current.Details,
		Frequency: current.Frequency,
		StartDate: current.StartDate,
		EndDate:   current.EndDate,
	}
	if patch.Name != nil {
		merged.Name = *patch.Name
	}
	if patch.Details != nil {
		merged.Details = *patch.Details
	}
	if patch.Frequency != nil {
		merged.Frequency = *patch.Frequency
	}
	if patch.StartDate != nil {
		merged.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		merged.EndDate = patch.EndDate
	}
	return HabitInput(merged)
}

// Toggle rejects completions on paused habits and on days outside the habit's
// active span.
func Toggle(h models.Habit, date time.Time) error {
	if h.Paused {
		return apperrors.NewValidation("habit", "%q is paused; resume it before checking it off", h.Name)
	}
	day := utils.Normalize(date)
	if day.Before(utils.Normalize(h.StartDate)) {
		return apperrors.NewValidation("date", "%s is before the habit starts (%s)",
			utils.FormatDay(day), utils.FormatDay(h.StartDate))
	}
	if h.EndDate != nil && day.After(utils.Normalize(*h.EndDate)) {
		return apperrors.NewValidation("date", "%s is after the habit ended (%s)",
			utils.FormatDay(day), utils.FormatDay(*h.EndDate))
	}
	return nil
}

// Settings validates application settings
func Settings(s models.Settings) error {
	return translate(validate.Struct(s))
}

// translate turns the first validator failure into a ValidationError
func translate(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !apperrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.NewValidation("", "%v", err)
	}

	fe := fieldErrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return apperrors.NewValidation(field, "is required")
	case "max":
		return apperrors.NewValidation(field, "must be at most %s characters", fe.Param())
	case "oneof":
		return apperrors.NewValidation(field, "must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		return apperrors.NewValidation(field, "must be at least %s", fe.Param())
	case "lte":
		return apperrors.NewValidation(field, "must be at most %s", fe.Param())
	case "ltefield":
		return apperrors.NewValidation(field, "must not be later than %s", fe.Param())
	case "tzname":
		return apperrors.NewValidation(field, "%v is not a valid timezone", fe.Value())
	case "period_target":
		return apperrors.NewValidation(field, "weekly and monthly habits need a target of at least 1")
	case "interval":
		return apperrors.NewValidation(field, "every_n_days habits need an interval of at least 1")
	case "after_start":
		return apperrors.NewValidation(field, "must not be before the start date")
	default:
		return apperrors.NewValidation(field, "failed %s check", fe.Tag())
	}
}
