package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/tally/internal/constants"
	apperrors "github.com/julianstephens/tally/internal/errors"
)

// ErrInvalidDate is returned when a string is not a calendar date in YYYY-MM-DD form.
var ErrInvalidDate = apperrors.ErrInvalidDate

// ParseDay parses a calendar date (YYYY-MM-DD) as midnight UTC.
// Calendar arithmetic is done in UTC so that DST transitions never shift a day.
func ParseDay(day string) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, day)
	if err != nil || t.Format(constants.DateFormat) != day {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, day)
	}
	return t, nil
}

// FormatDay formats t as a calendar date using t's own location.
func FormatDay(t time.Time) string {
	return t.Format(constants.DateFormat)
}

// IsValidDay reports whether day is a well-formed calendar date.
func IsValidDay(day string) bool {
	_, err := ParseDay(day)
	return err == nil
}

// AddDays shifts a calendar date by n days.
func AddDays(day string, n int) (string, error) {
	t, err := ParseDay(day)
	if err != nil {
		return "", err
	}
	return FormatDay(t.AddDate(0, 0, n)), nil
}

// DaysBetween returns the number of calendar days from a to b (b - a).
func DaysBetween(a, b string) (int, error) {
	ta, err := ParseDay(a)
	if err != nil {
		return 0, err
	}
	tb, err := ParseDay(b)
	if err != nil {
		return 0, err
	}
	return int(tb.Sub(ta).Hours() / 24), nil
}

// WeekStart returns the Monday of the week containing day.
func WeekStart(day string) (string, error) {
	t, err := ParseDay(day)
	if err != nil {
		return "", err
	}
	// Sunday is 0; shift it to 7 so Monday is always the first day
	offset := int(t.Weekday())
	if offset == 0 {
		offset = 7
	}
	return FormatDay(t.AddDate(0, 0, 1-offset)), nil
}

// LastNWeekStarts returns the Mondays of the n weeks ending with the week containing today,
// oldest first.
func LastNWeekStarts(today string, n int) ([]string, error) {
	current, err := WeekStart(today)
	if err != nil {
		return nil, err
	}
	t, _ := ParseDay(current)
	starts := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		starts = append(starts, FormatDay(t.AddDate(0, 0, -7*i)))
	}
	return starts, nil
}

// DayOf converts an instant to its calendar date in loc. A nil loc means UTC.
func DayOf(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return FormatDay(t.In(loc))
}

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == constants.DefaultTimezone {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// NowInTimezone returns the current time in the specified timezone.
func NowInTimezone(timezone string) (time.Time, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return time.Now().In(loc), nil
}

// TodayInTimezone returns today's date string (YYYY-MM-DD) in the specified timezone.
// This ensures that "today" is determined by the user's configured timezone, not the system timezone.
func TodayInTimezone(timezone string) (string, error) {
	now, err := NowInTimezone(timezone)
	if err != nil {
		return "", err
	}
	return FormatDay(now), nil
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	_, err := LoadLocation(timezone)
	return err == nil
}
