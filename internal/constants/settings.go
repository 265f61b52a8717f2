package constants

const (
	SettingTimezone         = "timezone"
	SettingIntervalPolicy   = "interval_policy"
	SettingMorningReminders = "morning_reminders"
	SettingEveningReminders = "evening_reminders"
	SettingMorningStartHour = "morning_start_hour"
	SettingMorningEndHour   = "morning_end_hour"
	SettingEveningStartHour = "evening_start_hour"
	SettingEveningEndHour   = "evening_end_hour"

	// Default Settings Values
	DefaultTimezone         = "Local" // Use system local timezone by default
	DefaultIntervalPolicy   = "literal"
	DefaultMorningReminders = true
	DefaultEveningReminders = true
	DefaultMorningStartHour = 8
	DefaultMorningEndHour   = 10
	DefaultEveningStartHour = 20
	DefaultEveningEndHour   = 22
)
