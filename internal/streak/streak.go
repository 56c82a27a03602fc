// Package streak derives a habit's current run of consecutive completed days.
//
// Two policies exist and are kept distinct:
//
//   - recent-anchored: the run may end today or yesterday, so a habit not yet
//     checked in today still shows yesterday's run.
//   - today-anchored: the run must include today, otherwise it is zero.
//
// Every function takes "today" explicitly and never reads the clock.
package streak

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/utils"
)

// Policy selects the streak algorithm.
type Policy = constants.StreakPolicy

const (
	RecentAnchored = constants.StreakPolicyRecentAnchored
	TodayAnchored  = constants.StreakPolicyTodayAnchored
)

var (
	ErrInvalidDate   = utils.ErrInvalidDate
	ErrUnknownPolicy = errors.New("unknown streak policy")
)

// ParsePolicy accepts a policy name or its single-letter alias, case-insensitively.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(RecentAnchored), "a":
		return RecentAnchored, nil
	case string(TodayAnchored), "b":
		return TodayAnchored, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

// Compute returns the current streak of completedDates as of today under policy.
// Duplicates and ordering are tolerated. Under recent-anchored a most recent date
// after today breaks the run; today-anchored never looks past today.
func Compute(completedDates []string, today string, policy Policy) (int, error) {
	if _, err := utils.ParseDay(today); err != nil {
		return 0, err
	}
	for _, d := range completedDates {
		if _, err := utils.ParseDay(d); err != nil {
			return 0, err
		}
	}

	switch policy {
	case RecentAnchored:
		return recentAnchored(completedDates, today), nil
	case TodayAnchored:
		return todayAnchored(toSet(completedDates), today), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, policy)
}

// ComputeFromLogs applies the today-anchored policy to the completed logs of one habit.
// Logs for other habits and logs with Completed == false are ignored.
func ComputeFromLogs(habitID string, logs []models.HabitLog, today string) (int, error) {
	if _, err := utils.ParseDay(today); err != nil {
		return 0, err
	}
	set := make(map[string]struct{}, len(logs))
	for _, l := range logs {
		if l.HabitID != habitID || !l.Completed {
			continue
		}
		if _, err := utils.ParseDay(l.Date); err != nil {
			return 0, err
		}
		set[l.Date] = struct{}{}
	}
	return todayAnchored(set, today), nil
}

// recentAnchored expects validated dates. ISO dates sort lexically in calendar order.
// The most recent date must be today or yesterday.
func recentAnchored(dates []string, today string) int {
	if len(dates) == 0 {
		return 0
	}
	sorted := slices.Clone(dates)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	slices.Reverse(sorted)

	yesterday, _ := utils.AddDays(today, -1)
	if sorted[0] != today && sorted[0] != yesterday {
		return 0
	}

	streak := 1
	for i := 1; i < len(sorted); i++ {
		diff, _ := utils.DaysBetween(sorted[i], sorted[i-1])
		if diff != 1 {
			break
		}
		streak++
	}
	return streak
}

// todayAnchored walks back from today while each day is in the set.
func todayAnchored(set map[string]struct{}, today string) int {
	streak := 0
	cursor := today
	for {
		if _, ok := set[cursor]; !ok {
			return streak
		}
		streak++
		cursor, _ = utils.AddDays(cursor, -1)
	}
}

func toSet(dates []string) map[string]struct{} {
	set := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		set[d] = struct{}{}
	}
	return set
}
