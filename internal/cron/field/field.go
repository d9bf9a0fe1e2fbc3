// Package field parses individual cron expression fields (minute, hour,
// day-of-month, month, day-of-week) into the set of integer values they
// match.
package field

import (
	"fmt"
	"strconv"
	"strings"
)

// Set is the collection of integer values a field matches, in ascending
// order with no duplicates.
type Set []int

// Contains reports whether v is a member of the set.
func (s Set) Contains(v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

var monthNames = map[string]int{
	"JAN": 1, "FEB": 2, "MAR": 3, "APR": 4, "MAY": 5, "JUN": 6,
	"JUL": 7, "AUG": 8, "SEP": 9, "OCT": 10, "NOV": 11, "DEC": 12,
}

var dayOfWeekNames = map[string]int{
	"SUN": 0, "MON": 1, "TUE": 2, "WED": 3,
	"THU": 4, "FRI": 5, "SAT": 6, "7": 0,
}

// Parse parses a single cron field (e.g. "*/15", "1-5", "MON-FRI") bounded
// to [min, max]. names is an optional case-insensitive name table (month or
// day-of-week names) consulted before falling back to numeric parsing.
func Parse(fieldStr string, min, max int, names map[string]int) (Set, error) {
	values := map[int]struct{}{}

	for _, item := range strings.Split(fieldStr, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil, fmt.Errorf("cron field %q: empty item", fieldStr)
		}

		switch {
		case item == "*":
			for i := min; i <= max; i++ {
				values[i] = struct{}{}
			}

		case strings.Contains(item, "/"):
			slash := strings.IndexByte(item, '/')
			base := item[:slash]
			step, err := strconv.Atoi(item[slash+1:])
			if err != nil || step <= 0 {
				return nil, fmt.Errorf("cron field %q: invalid step in %q", fieldStr, item)
			}

			start, end := min, max
			if base != "*" {
				if dash := strings.IndexByte(base, '-'); dash >= 0 {
					start, err = convName(base[:dash], names)
					if err != nil {
						return nil, fmt.Errorf("cron field %q: %w", fieldStr, err)
					}
					end, err = convName(base[dash+1:], names)
					if err != nil {
						return nil, fmt.Errorf("cron field %q: %w", fieldStr, err)
					}
				} else {
					start, err = convName(base, names)
					if err != nil {
						return nil, fmt.Errorf("cron field %q: %w", fieldStr, err)
					}
					end = start
				}
				if start < min || start > max || end < min || end > max {
					return nil, fmt.Errorf("cron field %q: range %q out of range [%d-%d]", fieldStr, base, min, max)
				}
			}
			for i := start; i <= end; i += step {
				if i >= min && i <= max {
					values[i] = struct{}{}
				}
			}

		case strings.Contains(item, "-"):
			dash := strings.IndexByte(item, '-')
			start, err := convName(item[:dash], names)
			if err != nil {
				return nil, fmt.Errorf("cron field %q: %w", fieldStr, err)
			}
			end, err := convName(item[dash+1:], names)
			if err != nil {
				return nil, fmt.Errorf("cron field %q: %w", fieldStr, err)
			}
			if start < min || start > max || end < min || end > max {
				return nil, fmt.Errorf("cron field %q: range %q out of range [%d-%d]", fieldStr, item, min, max)
			}
			if start > end {
				// Wraps around the field's range (e.g. FRI-MON on days-of-week).
				for i := start; i <= max; i++ {
					values[i] = struct{}{}
				}
				for i := min; i <= end; i++ {
					values[i] = struct{}{}
				}
			} else {
				for i := start; i <= end; i++ {
					values[i] = struct{}{}
				}
			}

		default:
			val, err := convName(item, names)
			if err != nil {
				return nil, fmt.Errorf("cron field %q: %w", fieldStr, err)
			}
			if val < min || val > max {
				return nil, fmt.Errorf("cron field %q: value %d out of range [%d-%d]", fieldStr, val, min, max)
			}
			values[val] = struct{}{}
		}
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("cron field %q: resulted in no valid values", fieldStr)
	}

	out := make(Set, 0, len(values))
	for v := range values {
		out = append(out, v)
	}
	sortInts(out)
	return out, nil
}

// MonthNames returns the standard three-letter month name table (JAN-DEC).
func MonthNames() map[string]int { return monthNames }

// DayOfWeekNames returns the standard three-letter day-of-week name table
// (SUN-SAT), plus "7" as an alias for Sunday.
func DayOfWeekNames() map[string]int { return dayOfWeekNames }

func convName(name string, names map[string]int) (int, error) {
	if names != nil {
		if v, ok := names[strings.ToUpper(strings.TrimSpace(name))]; ok {
			return v, nil
		}
	}
	v, err := strconv.Atoi(strings.TrimSpace(name))
	if err != nil {
		return 0, fmt.Errorf("value %q is not a recognized name or integer", name)
	}
	return v, nil
}

func sortInts(s Set) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
