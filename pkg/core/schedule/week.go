package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/jakechorley/camp-scheduler/pkg/core/model"
)

// DefaultCampDaysRule expands to the five weekdays of a week. A config
// override may swap in a different recurrence (e.g. camps running
// Tuesday through Saturday).
const DefaultCampDaysRule = "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR"

// WeekWindow is the ordered set of camp-day dates currently in view.
// It scopes weekly hour accounting and display; it is never persisted.
type WeekWindow struct {
	Dates []string
	rule  string
}

// WeekContaining returns the default Monday-Friday window around t
func WeekContaining(t time.Time) WeekWindow {
	w, err := WeekContainingRule(t, DefaultCampDaysRule)
	if err != nil {
		// the default rule is a constant; it always parses
		panic(err)
	}
	return w
}

// WeekContainingRule expands the camp-days recurrence rule across the
// week containing t
func WeekContainingRule(t time.Time, ruleStr string) (WeekWindow, error) {
	r, err := rrule.StrToRRule(ruleStr)
	if err != nil {
		return WeekWindow{}, fmt.Errorf("invalid camp days rule: %w", err)
	}

	monday := mondayOf(t)
	r.DTStart(monday)

	days := r.Between(monday, monday.AddDate(0, 0, 6), true)
	dates := make([]string, 0, len(days))
	for _, d := range days {
		dates = append(dates, d.Format("2006-01-02"))
	}
	return WeekWindow{Dates: dates, rule: ruleStr}, nil
}

// WeekOf returns the window containing the given ISO date
func WeekOf(date string) (WeekWindow, error) {
	return WeekOfRule(date, DefaultCampDaysRule)
}

// WeekOfRule returns the window containing the given ISO date using a
// custom camp-days rule
func WeekOfRule(date, ruleStr string) (WeekWindow, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return WeekWindow{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return WeekContainingRule(t, ruleStr)
}

// WeekFromAssignments derives a window from the earliest date present
// in the loaded assignments, or nil when there are none. Used when the
// current calendar week holds no camp data.
func WeekFromAssignments(assignments []model.Assignment) *WeekWindow {
	if len(assignments) == 0 {
		return nil
	}
	dates := make([]string, 0, len(assignments))
	for _, a := range assignments {
		dates = append(dates, a.Date)
	}
	sort.Strings(dates)

	w, err := WeekOf(dates[0])
	if err != nil {
		return nil
	}
	return &w
}

// Contains reports whether the date falls inside the window
func (w WeekWindow) Contains(date string) bool {
	for _, d := range w.Dates {
		if d == date {
			return true
		}
	}
	return false
}

// Next returns the following week's window
func (w WeekWindow) Next() WeekWindow {
	return w.shift(7)
}

// Prev returns the preceding week's window
func (w WeekWindow) Prev() WeekWindow {
	return w.shift(-7)
}

func (w WeekWindow) shift(days int) WeekWindow {
	if len(w.Dates) == 0 {
		return w
	}
	t, err := time.Parse("2006-01-02", w.Dates[0])
	if err != nil {
		return w
	}
	rule := w.rule
	if rule == "" {
		rule = DefaultCampDaysRule
	}
	shifted, err := WeekContainingRule(t.AddDate(0, 0, days), rule)
	if err != nil {
		return w
	}
	return shifted
}

// mondayOf normalizes t to the Monday of its week at midnight UTC
func mondayOf(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	weekday := int(day.Weekday())
	if weekday == 0 {
		return day.AddDate(0, 0, -6)
	}
	return day.AddDate(0, 0, -(weekday - 1))
}
