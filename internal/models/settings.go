package models

import (
	"fmt"
	"strconv"

	"github.com/julianstephens/tally/internal/constants"
)

// Settings represents application-wide settings
type Settings struct {
	Timezone     string                 `json:"timezone" yaml:"timezone"`           // IANA timezone name, or "Local" for the system timezone
	StreakPolicy constants.StreakPolicy `json:"streak_policy" yaml:"streak_policy"` // how cached streaks are derived
	HeatmapDays  int                    `json:"heatmap_days" yaml:"heatmap_days"`   // heatmap window length in days
	TrendWeeks   int                    `json:"trend_weeks" yaml:"trend_weeks"`     // number of weekly analytics buckets
	DisplayName  string                 `json:"display_name" yaml:"display_name"`   // name shown on the dashboard
}

// Profile is the user-facing identity shown on the dashboard
type Profile struct {
	DisplayName string `json:"display_name" yaml:"display_name"`
	Timezone    string `json:"timezone" yaml:"timezone"`
}

// DefaultSettings returns the settings used when nothing has been stored yet.
func DefaultSettings() Settings {
	return Settings{
		Timezone:     constants.DefaultTimezone,
		StreakPolicy: constants.DefaultStreakPolicy,
		HeatmapDays:  constants.DefaultHeatmapDays,
		TrendWeeks:   constants.DefaultTrendWeeks,
		DisplayName:  constants.DefaultDisplayName,
	}
}

// Profile returns the profile view of the settings.
func (s Settings) Profile() Profile {
	return Profile{DisplayName: s.DisplayName, Timezone: s.Timezone}
}

// MapToSettings converts stored key-value pairs to Settings. Missing keys keep their defaults.
func MapToSettings(data map[string]string) (Settings, error) {
	settings := DefaultSettings()

	for key, value := range data {
		switch key {
		case constants.SettingTimezone:
			settings.Timezone = value
		case constants.SettingStreakPolicy:
			settings.StreakPolicy = constants.StreakPolicy(value)
		case constants.SettingHeatmapDays:
			n, err := strconv.Atoi(value)
			if err != nil {
				return Settings{}, fmt.Errorf("parsing heatmap_days: %w", err)
			}
			settings.HeatmapDays = n
		case constants.SettingTrendWeeks:
			n, err := strconv.Atoi(value)
			if err != nil {
				return Settings{}, fmt.Errorf("parsing trend_weeks: %w", err)
			}
			settings.TrendWeeks = n
		case constants.SettingDisplayName:
			settings.DisplayName = value
		}
	}
	return settings, nil
}

// SettingsToMap converts Settings to key-value pairs for storage.
func SettingsToMap(settings Settings) map[string]string {
	return map[string]string{
		constants.SettingTimezone:     settings.Timezone,
		constants.SettingStreakPolicy: string(settings.StreakPolicy),
		constants.SettingHeatmapDays:  strconv.Itoa(settings.HeatmapDays),
		constants.SettingTrendWeeks:   strconv.Itoa(settings.TrendWeeks),
		constants.SettingDisplayName:  settings.DisplayName,
	}
}
