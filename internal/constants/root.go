package constants

// StreakPolicy selects how a habit's current streak is derived from its completion dates
type StreakPolicy string

// TaskStatus is the canonical status of a task
type TaskStatus string

// Priority is the canonical priority of a task
type Priority string

// GoalStatus is the canonical status of a goal
type GoalStatus string

// SessionState represents the current state of the TUI application
type SessionState int

const (
	AppName            = "tally"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/tally/tally.db"
	Version            = "v0.3.0"

	// Environment variables
	EnvDBConnection = "TALLY_DB_CONNECTION"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "tally-"
	BackupFileSuffix = ".db"

	// Streak policies
	StreakPolicyRecentAnchored StreakPolicy = "recent-anchored"
	StreakPolicyTodayAnchored  StreakPolicy = "today-anchored"

	// Task status constants
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"

	// Priority constants
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"

	// Goal status constants
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"

	// Habit frequency tag
	DefaultFrequency = "daily"

	// MinIDPrefix is the shortest ID prefix accepted in place of a full ID
	MinIDPrefix = 4

	// Goal progress
	GoalOnTrackThreshold = 50
	GoalProgressStep     = 10
	MaxProgress          = 100

	// ProductivityTaskWeight and ProductivityHabitWeight weight the productivity score
	ProductivityTaskWeight  = 2
	ProductivityHabitWeight = 1
)

// Session States
const (
	StateHabits SessionState = iota
	StateStats
	StateAddHabit
	StateConfirmDelete
)

// HeatmapThresholds are the lower bounds (inclusive) of heatmap buckets 2..4.
// Bucket 0 is reserved for a rate of exactly 0 and bucket 1 for anything above 0.
var HeatmapThresholds = [3]int{25, 50, 75}
