package models

// IntervalPolicy selects how every_n_days habits gate visibility
type IntervalPolicy string

const (
	// IntervalLiteral shows every_n_days habits every active day
	IntervalLiteral IntervalPolicy = "literal"
	// IntervalStrict shows them only when the days since start are a multiple of the interval
	IntervalStrict IntervalPolicy = "strict"
)

// Settings represents application-wide settings. Reminder hour windows are
// inclusive on both ends.
type Settings struct {
	Timezone         string         `json:"timezone" validate:"required,tzname"` // IANA name or "Local"
	IntervalPolicy   IntervalPolicy `json:"interval_policy" validate:"oneof=literal strict"`
	MorningReminders bool           `json:"morning_reminders"`
	EveningReminders bool           `json:"evening_reminders"`
	MorningStartHour int            `json:"morning_start_hour" validate:"gte=0,lte=23,ltefield=MorningEndHour"`
	MorningEndHour   int            `json:"morning_end_hour" validate:"gte=0,lte=23"`
	EveningStartHour int            `json:"evening_start_hour" validate:"gte=0,lte=23,ltefield=EveningEndHour"`
	EveningEndHour   int            `json:"evening_end_hour" validate:"gte=0,lte=23"`
}
