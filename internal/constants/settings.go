package constants

const (
	// General Settings
	SettingTimezone     = "timezone"
	SettingStreakPolicy = "streak_policy"
	SettingHeatmapDays  = "heatmap_days"
	SettingTrendWeeks   = "trend_weeks"
	SettingDisplayName  = "display_name"

	// Default Settings Values
	DefaultTimezone     = "Local" // Use system local timezone by default
	DefaultStreakPolicy = StreakPolicyRecentAnchored
	DefaultHeatmapDays  = 30
	DefaultTrendWeeks   = 8
	DefaultDisplayName  = "Guest"

	// Upper bounds accepted by `settings set`
	MaxHeatmapDays = 366
	MaxTrendWeeks  = 104
)
