package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// WeekdaySet is a comma-separated list of Mon..Sun tokens stored as text.
type WeekdaySet string

var weekdayTokens = map[string]time.Weekday{
	"Mon": time.Monday,
	"Tue": time.Tuesday,
	"Wed": time.Wednesday,
	"Thu": time.Thursday,
	"Fri": time.Friday,
	"Sat": time.Saturday,
	"Sun": time.Sunday,
}

// Weekdays parses the set into time.Weekday values. Unknown tokens error.
func (s WeekdaySet) Weekdays() ([]time.Weekday, error) {
	raw := strings.TrimSpace(string(s))
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	days := make([]time.Weekday, 0, len(parts))
	seen := make(map[time.Weekday]bool, len(parts))
	for _, part := range parts {
		token := strings.TrimSpace(part)
		day, ok := weekdayTokens[token]
		if !ok {
			return nil, fmt.Errorf("unknown weekday token %q", token)
		}
		if seen[day] {
			continue
		}
		seen[day] = true
		days = append(days, day)
	}
	return days, nil
}

// Contains reports whether the set includes the given weekday. An empty set
// matches nothing.
func (s WeekdaySet) Contains(day time.Weekday) bool {
	days, err := s.Weekdays()
	if err != nil {
		return false
	}
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}

// Scan implements sql.Scanner.
func (s *WeekdaySet) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*s = ""
	case string:
		*s = WeekdaySet(v)
	case []byte:
		*s = WeekdaySet(v)
	default:
		return fmt.Errorf("cannot scan %T into WeekdaySet", value)
	}
	return nil
}

// Value implements driver.Valuer.
func (s WeekdaySet) Value() (driver.Value, error) {
	return string(s), nil
}
