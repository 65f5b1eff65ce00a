package service

import (
	"fmt"
	"time"

	"github.com/oakfield-hms/roster-api/internal/models"
	appErrors "github.com/oakfield-hms/roster-api/pkg/errors"
)

// ParseDate parses a YYYY-MM-DD value in the given location.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrDateParse.Code, appErrors.ErrDateParse.Status, fmt.Sprintf("invalid date %q", raw))
	}
	return t, nil
}

// OccurrenceBounds combines an occurrence date with the template's times of
// day. An end at or before the start rolls to the next calendar day
// (overnight shift). Both bounds are localized in loc.
func OccurrenceBounds(tmpl *models.ShiftTemplate, date time.Time, loc *time.Location) (start, end time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	start = day.Add(time.Duration(tmpl.StartMinute) * time.Minute)
	endDay := day
	if tmpl.Overnight() {
		endDay = day.AddDate(0, 0, 1)
	}
	end = endDay.Add(time.Duration(tmpl.EndMinute) * time.Minute)
	return start, end
}

// ExpandOccurrences produces the ordered, deduplicated occurrence start
// datetimes of a template inside [windowStart, windowEnd], both inclusive.
// The window is further clamped to the template's validity window. Malformed
// recurrence configuration fails with ErrRecurrenceConfig and yields no
// occurrences; callers are expected to skip the template and continue.
func ExpandOccurrences(tmpl *models.ShiftTemplate, windowStart, windowEnd time.Time, loc *time.Location) ([]time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if !tmpl.Recurrence.Valid() {
		return nil, appErrors.Clone(appErrors.ErrRecurrenceConfig, fmt.Sprintf("template %s: unsupported recurrence kind %q", tmpl.ID, tmpl.Recurrence))
	}
	interval := tmpl.Interval
	if interval == 0 {
		interval = 1
	}
	if interval < 0 {
		return nil, appErrors.Clone(appErrors.ErrRecurrenceConfig, fmt.Sprintf("template %s: negative recurrence interval %d", tmpl.ID, interval))
	}

	var weekdays map[time.Weekday]bool
	if tmpl.Recurrence == models.RecurrenceWeekly {
		days, err := tmpl.Weekdays.Weekdays()
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrRecurrenceConfig.Code, appErrors.ErrRecurrenceConfig.Status, fmt.Sprintf("template %s: bad weekday set", tmpl.ID))
		}
		weekdays = make(map[time.Weekday]bool, len(days))
		for _, d := range days {
			weekdays[d] = true
		}
	}

	anchor := dateOnly(tmpl.ValidFrom.In(loc))
	from := dateOnly(windowStart.In(loc))
	if from.Before(anchor) {
		from = anchor
	}
	until := dateOnly(windowEnd.In(loc))
	if tmpl.ValidUntil != nil {
		validUntil := dateOnly(tmpl.ValidUntil.In(loc))
		if validUntil.Before(until) {
			until = validUntil
		}
	}
	if until.Before(from) {
		return nil, nil
	}

	var occurrences []time.Time
	for day := from; !day.After(until); day = day.AddDate(0, 0, 1) {
		if !occursOn(tmpl, day, anchor, interval, weekdays) {
			continue
		}
		start, _ := OccurrenceBounds(tmpl, day, loc)
		if start.Before(windowStart) || start.After(windowEnd) {
			continue
		}
		occurrences = append(occurrences, start)
	}
	return occurrences, nil
}

func occursOn(tmpl *models.ShiftTemplate, day, anchor time.Time, interval int, weekdays map[time.Weekday]bool) bool {
	switch tmpl.Recurrence {
	case models.RecurrenceDaily:
		return daysBetween(anchor, day)%interval == 0
	case models.RecurrenceWeekly:
		if len(weekdays) > 0 {
			if !weekdays[day.Weekday()] {
				return false
			}
		} else if day.Weekday() != anchor.Weekday() {
			return false
		}
		return (daysBetween(weekStart(anchor, time.Monday), day)/7)%interval == 0
	case models.RecurrenceMonthly:
		target := tmpl.MonthDay
		if target == 0 {
			target = anchor.Day()
		}
		if day.Day() != target {
			return false
		}
		months := int(day.Month()) - int(anchor.Month()) + 12*(day.Year()-anchor.Year())
		return months >= 0 && months%interval == 0
	case models.RecurrenceYearly:
		if day.Month() != anchor.Month() || day.Day() != anchor.Day() {
			return false
		}
		years := day.Year() - anchor.Year()
		return years >= 0 && years%interval == 0
	}
	return false
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days between two dates, immune to DST because
// both are re-anchored to UTC midnights first.
func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f) / (24 * time.Hour))
}

// weekStart returns midnight of the week containing t, with weeks beginning
// on the given weekday.
func weekStart(t time.Time, startDay time.Weekday) time.Time {
	day := dateOnly(t)
	offset := (int(day.Weekday()) - int(startDay) + 7) % 7
	return day.AddDate(0, 0, -offset)
}
