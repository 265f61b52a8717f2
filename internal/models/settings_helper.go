package models

import (
	"fmt"

	"github.com/julianstephens/habitual/internal/constants"
)

// DefaultSettings returns the settings written by a fresh init.
func DefaultSettings() Settings {
	return Settings{
		Timezone:         constants.DefaultTimezone,
		IntervalPolicy:   IntervalPolicy(constants.DefaultIntervalPolicy),
		MorningReminders: constants.DefaultMorningReminders,
		EveningReminders: constants.DefaultEveningReminders,
		MorningStartHour: constants.DefaultMorningStartHour,
		MorningEndHour:   constants.DefaultMorningEndHour,
		EveningStartHour: constants.DefaultEveningStartHour,
		EveningEndHour:   constants.DefaultEveningEndHour,
	}
}

// MapToSettings converts a map of key-value pairs to a Settings struct.
// Keys missing from data keep their default value.
func MapToSettings(data map[string]string) (Settings, error) {
	settings := DefaultSettings()

	for key, value := range data {
		switch key {
		case constants.SettingTimezone:
			settings.Timezone = value
		case constants.SettingIntervalPolicy:
			settings.IntervalPolicy = IntervalPolicy(value)
		case constants.SettingMorningReminders:
			settings.MorningReminders = value == "true"
		case constants.SettingEveningReminders:
			settings.EveningReminders = value == "true"
		case constants.SettingMorningStartHour:
			if _, err := fmt.Sscanf(value, "%d", &settings.MorningStartHour); err != nil {
				return Settings{}, fmt.Errorf("parsing morning_start_hour: %w", err)
			}
		case constants.SettingMorningEndHour:
			if _, err := fmt.Sscanf(value, "%d", &settings.MorningEndHour); err != nil {
				return Settings{}, fmt.Errorf("parsing morning_end_hour: %w", err)
			}
		case constants.SettingEveningStartHour:
			if _, err := fmt.Sscanf(value, "%d", &settings.EveningStartHour); err != nil {
				return Settings{}, fmt.Errorf("parsing evening_start_hour: %w", err)
			}
		case constants.SettingEveningEndHour:
			if _, err := fmt.Sscanf(value, "%d", &settings.EveningEndHour); err != nil {
				return Settings{}, fmt.Errorf("parsing evening_end_hour: %w", err)
			}
		}
	}
	return settings, nil
}

// SettingsToMap converts a Settings struct to a map of key-value pairs.
func SettingsToMap(settings Settings) map[string]string {
	return map[string]string{
		constants.SettingTimezone:         settings.Timezone,
		constants.SettingIntervalPolicy:   string(settings.IntervalPolicy),
		constants.SettingMorningReminders: fmt.Sprintf("%v", settings.MorningReminders),
		constants.SettingEveningReminders: fmt.Sprintf("%v", settings.EveningReminders),
		constants.SettingMorningStartHour: fmt.Sprintf("%d", settings.MorningStartHour),
		constants.SettingMorningEndHour:   fmt.Sprintf("%d", settings.MorningEndHour),
		constants.SettingEveningStartHour: fmt.Sprintf("%d", settings.EveningStartHour),
		constants.SettingEveningEndHour:   fmt.Sprintf("%d", settings.EveningEndHour),
	}
}
