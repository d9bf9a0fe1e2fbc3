// Package expr parses 5-field cron expressions and computes their next
// fire time using the POSIX day-of-month/day-of-week OR rule. All
// arithmetic is performed in UTC.
package expr

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"weblet/internal/cron/field"
)

// ErrNoFireTimeFound is returned by NextFire when no matching time is found
// within the search bound (two years of minutes).
var ErrNoFireTimeFound = errors.New("cron: could not find next runtime within a reasonable period")

// maxSearchMinutes bounds NextFire's iteration count so a pathological or
// contradictory expression can't spin forever.
const maxSearchMinutes = 365 * 24 * 60 * 2

// Expression is a parsed 5-field cron expression (minute hour dom month dow).
type Expression struct {
	raw string

	minutes     field.Set
	hours       field.Set
	daysOfMonth field.Set
	months      field.Set
	daysOfWeek  field.Set
}

// Parse parses a 5-field cron expression: minute hour day-of-month month
// day-of-week. Fields accept "*", "a-b" ranges (with wraparound), "x/n"
// steps, comma lists, and case-insensitive month/day names. Day-of-week 7
// is accepted as an alias for Sunday (0).
func Parse(spec string) (*Expression, error) {
	segments := strings.Fields(spec)
	if len(segments) != 5 {
		return nil, fmt.Errorf("cron: invalid expression %q: expected 5 fields, got %d", spec, len(segments))
	}

	minutes, err := field.Parse(segments[0], 0, 59, nil)
	if err != nil {
		return nil, fmt.Errorf("cron: %w", err)
	}
	hours, err := field.Parse(segments[1], 0, 23, nil)
	if err != nil {
		return nil, fmt.Errorf("cron: %w", err)
	}
	dom, err := field.Parse(segments[2], 1, 31, nil)
	if err != nil {
		return nil, fmt.Errorf("cron: %w", err)
	}
	months, err := field.Parse(segments[3], 1, 12, field.MonthNames())
	if err != nil {
		return nil, fmt.Errorf("cron: %w", err)
	}
	dow, err := field.Parse(segments[4], 0, 6, field.DayOfWeekNames())
	if err != nil {
		return nil, fmt.Errorf("cron: %w", err)
	}

	return &Expression{
		raw:         spec,
		minutes:     minutes,
		hours:       hours,
		daysOfMonth: dom,
		months:      months,
		daysOfWeek:  dow,
	}, nil
}

// String returns the original expression text.
func (e *Expression) String() string { return e.raw }

// NextFire returns the earliest matching time at or after `from`, in UTC.
// A `from` with non-zero seconds is first rounded up to the next whole
// minute; a `from` on a whole minute is itself a candidate.
//
// Day-of-month and day-of-week follow the POSIX OR rule: if both fields are
// restricted (neither is a wildcard), a day matches if it satisfies EITHER
// field; if only one is restricted, that field alone decides; if neither is
// restricted, every day matches.
func (e *Expression) NextFire(from time.Time) (time.Time, error) {
	current := from.UTC()
	if current.Second() > 0 || current.Nanosecond() > 0 {
		current = current.Truncate(time.Minute).Add(time.Minute)
	}

	isDOMWildcard := len(e.daysOfMonth) == 31
	isDOWWildcard := len(e.daysOfWeek) == 7 || len(e.daysOfWeek) == 8

	for i := 0; i < maxSearchMinutes; i++ {
		dow := int(current.Weekday())
		if e.daysOfWeek.Contains(7) && dow == 0 {
			dow = 7
		}

		if !e.months.Contains(int(current.Month())) {
			year, month := current.Year(), current.Month()+1
			if month > time.December {
				month = time.January
				year++
			}
			current = time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
			continue
		}

		domMatch := e.daysOfMonth.Contains(current.Day())
		dowMatch := e.daysOfWeek.Contains(dow)

		var dayMatch bool
		switch {
		case isDOMWildcard && isDOWWildcard:
			dayMatch = true
		case isDOMWildcard:
			dayMatch = dowMatch
		case isDOWWildcard:
			dayMatch = domMatch
		default:
			dayMatch = domMatch || dowMatch
		}

		if !dayMatch {
			current = current.Add(24*time.Hour - time.Duration(current.Hour())*time.Hour -
				time.Duration(current.Minute())*time.Minute)
			continue
		}

		if !e.hours.Contains(current.Hour()) {
			current = current.Add(time.Hour - time.Duration(current.Minute())*time.Minute)
			continue
		}

		if !e.minutes.Contains(current.Minute()) {
			current = current.Add(time.Minute)
			continue
		}

		return current, nil
	}

	return time.Time{}, ErrNoFireTimeFound
}
