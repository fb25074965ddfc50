// Package timeslot enumerates the bookable time slots a schedule offers on
// each calendar date. Slot labels ("HH:MM - HH:MM") double as the storage keys
// for recorded availability, so generation must stay deterministic: the same
// configuration always yields the same labels in the same order.
package timeslot

import (
	"fmt"
	"time"
)

// DateFormat is the ISO-8601 layout used for date keys throughout the system.
const DateFormat = "2006-01-02"

// TimeOfDay is a wall-clock time with minute precision, independent of date
// and location.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses a "HH:MM" value.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	var t TimeOfDay
	if _, err := fmt.Sscanf(value, "%d:%d", &t.Hour, &t.Minute); err != nil {
		return TimeOfDay{}, fmt.Errorf("timeslot: invalid time of day %q: %w", value, err)
	}
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
		return TimeOfDay{}, fmt.Errorf("timeslot: time of day %q out of range", value)
	}
	return t, nil
}

// String renders the time on a 24-hour clock, zero padded.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Minutes returns the offset from midnight in minutes.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Before reports whether t is strictly earlier than other.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.Minutes() < other.Minutes()
}

// addHours returns the time advanced by whole hours. The result may exceed
// 23:59; callers compare via Minutes so overflow past midnight simply fails
// the window bound check.
func (t TimeOfDay) addHours(hours int) TimeOfDay {
	total := t.Minutes() + hours*60
	return TimeOfDay{Hour: total / 60, Minute: total % 60}
}

// Window is a same-day interval of wall-clock time.
type Window struct {
	Start TimeOfDay
	End   TimeOfDay
}

// IsZero reports whether both bounds are unset.
func (w Window) IsZero() bool {
	return w.Start == (TimeOfDay{}) && w.End == (TimeOfDay{})
}

// Config captures everything slot generation needs from a schedule.
type Config struct {
	StartDate time.Time
	EndDate   time.Time
	// IncludeWeekdays controls whether Monday through Thursday are part of
	// the schedule at all. Friday, Saturday and Sunday always are.
	IncludeWeekdays bool
	WeekdayWindow   Window
	WeekendWindow   Window
	// DurationHours is the length of each slot; OverlapHours is how much
	// consecutive slots overlap. Config validation guarantees
	// 0 <= OverlapHours < DurationHours before generation runs.
	DurationHours int
	OverlapHours  int
}

// Slot is one bookable interval on a particular date.
type Slot struct {
	Label string
	Start TimeOfDay
	End   TimeOfDay
}

// Label renders the canonical identifier for a slot running from start to
// end. The exact format is load-bearing: stored availability selections are
// matched against freshly generated labels by string equality.
func Label(start, end TimeOfDay) string {
	return start.String() + " - " + end.String()
}

// ParseLabel extracts the start and end times from a "HH:MM - HH:MM" label.
func ParseLabel(label string) (start, end TimeOfDay, err error) {
	var sh, sm, eh, em int
	if _, err = fmt.Sscanf(label, "%d:%d - %d:%d", &sh, &sm, &eh, &em); err != nil {
		return TimeOfDay{}, TimeOfDay{}, fmt.Errorf("timeslot: invalid slot label %q: %w", label, err)
	}
	start = TimeOfDay{Hour: sh, Minute: sm}
	end = TimeOfDay{Hour: eh, Minute: em}
	if sh < 0 || sh > 23 || sm < 0 || sm > 59 {
		return TimeOfDay{}, TimeOfDay{}, fmt.Errorf("timeslot: slot label %q start out of range", label)
	}
	if eh < 0 || eh > 23 || em < 0 || em > 59 {
		return TimeOfDay{}, TimeOfDay{}, fmt.Errorf("timeslot: slot label %q end out of range", label)
	}
	return start, end, nil
}

// isWeekendDay reports whether the weekday belongs to the weekend bucket.
// Friday counts: game nights start when the work week ends.
func isWeekendDay(day time.Weekday) bool {
	return day == time.Friday || day == time.Saturday || day == time.Sunday
}

// windowFor selects the time window that applies to the given date.
func (c Config) windowFor(date time.Time) Window {
	if isWeekendDay(date.Weekday()) || !c.IncludeWeekdays {
		return c.WeekendWindow
	}
	return c.WeekdayWindow
}

// includes reports whether the date participates in the schedule at all.
func (c Config) includes(date time.Time) bool {
	if c.IncludeWeekdays {
		return true
	}
	return isWeekendDay(date.Weekday())
}

// SlotsForDate enumerates the slots offered on one calendar date. Starting at
// the applicable window's start, it emits consecutive slots of DurationHours,
// advancing each start by DurationHours-OverlapHours, and stops once a slot
// would run past the window's end. A zero-length or inverted window yields no
// slots rather than an error.
func SlotsForDate(cfg Config, date time.Time) []Slot {
	window := cfg.windowFor(date)
	if cfg.DurationHours <= 0 || !window.Start.Before(window.End) {
		return nil
	}

	step := cfg.DurationHours - cfg.OverlapHours

	var slots []Slot
	for start := window.Start; ; start = start.addHours(step) {
		end := start.addHours(cfg.DurationHours)
		if end.Minutes() > window.End.Minutes() {
			break
		}
		slots = append(slots, Slot{Label: Label(start, end), Start: start, End: end})
	}
	return slots
}

// DateRange lists the calendar dates the schedule spans, in order, restricted
// to the dates the configuration actually includes.
func DateRange(cfg Config) []time.Time {
	var dates []time.Time
	for d := cfg.StartDate; !d.After(cfg.EndDate); d = d.AddDate(0, 0, 1) {
		if cfg.includes(d) {
			dates = append(dates, d)
		}
	}
	return dates
}

// AllSlotsByDate maps ISO date strings to the slots offered on each date in
// the schedule's range. Dates excluded by the weekday rule are absent.
func AllSlotsByDate(cfg Config) map[string][]Slot {
	byDate := make(map[string][]Slot)
	for _, date := range DateRange(cfg) {
		if slots := SlotsForDate(cfg, date); len(slots) > 0 {
			byDate[date.Format(DateFormat)] = slots
		}
	}
	return byDate
}

// ContainsLabel reports whether the generated slot list offers the label.
func ContainsLabel(slots []Slot, label string) bool {
	for _, slot := range slots {
		if slot.Label == label {
			return true
		}
	}
	return false
}
