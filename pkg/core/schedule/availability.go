package schedule

import (
	"strconv"
	"strings"
	"time"

	"github.com/jakechorley/camp-scheduler/pkg/core/model"
)

// IsAvailable reports whether the staff member is normally available
// for a slot starting at startTime on the given date. A member with no
// availability data is assumed available. Otherwise the first window
// matching the date's weekday is consulted; no window means the member
// is off that day. The window is half-open: a slot starting exactly at
// the window's end time is outside it.
func IsAvailable(staff model.Staff, date, startTime string) bool {
	if staff.Availability == nil {
		return true
	}

	day, err := dayOfWeek(date)
	if err != nil {
		return false
	}

	var window *model.AvailabilityWindow
	for i := range staff.Availability {
		if strings.EqualFold(staff.Availability[i].Day, day) {
			window = &staff.Availability[i]
			break
		}
	}
	if window == nil {
		return false
	}

	requested, err := parseMinutes(startTime)
	if err != nil {
		return false
	}
	windowStart, err := parseMinutes(window.StartTime)
	if err != nil {
		return false
	}
	windowEnd, err := parseMinutes(window.EndTime)
	if err != nil {
		return false
	}

	return requested >= windowStart && requested < windowEnd
}

// dayOfWeek maps an ISO date to its English weekday name
func dayOfWeek(date string) (string, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", err
	}
	return t.Weekday().String(), nil
}

// parseMinutes converts HH:MM to minutes since midnight
func parseMinutes(hhmm string) (int, error) {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return 0, strconv.ErrSyntax
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	return hours*60 + minutes, nil
}
