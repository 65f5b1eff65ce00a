package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakfield-hms/roster-api/internal/models"
	appErrors "github.com/oakfield-hms/roster-api/pkg/errors"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dailyTemplate(id string, validFrom time.Time) models.ShiftTemplate {
	return models.ShiftTemplate{
		ID:           id,
		DepartmentID: "dept-1",
		Name:         "Day Shift",
		StartMinute:  7 * 60,
		EndMinute:    15 * 60,
		Recurrence:   models.RecurrenceDaily,
		Interval:     1,
		ValidFrom:    validFrom,
		Active:       true,
	}
}

func TestParseDate(t *testing.T) {
	parsed, err := ParseDate("2026-01-15", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, day(2026, time.January, 15), parsed)

	_, err = ParseDate("15/01/2026", time.UTC)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrDateParse))

	_, err = ParseDate("2026-02-30", time.UTC)
	assert.Error(t, err)
}

func TestOccurrenceBoundsOvernight(t *testing.T) {
	tmpl := dailyTemplate("tmpl-night", day(2026, time.January, 1))
	tmpl.StartMinute = 22 * 60
	tmpl.EndMinute = 6 * 60
	require.True(t, tmpl.Overnight())

	start, end := OccurrenceBounds(&tmpl, day(2026, time.January, 10), time.UTC)
	assert.Equal(t, time.Date(2026, time.January, 10, 22, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, time.January, 11, 6, 0, 0, 0, time.UTC), end)
	assert.Equal(t, 8*60, tmpl.DurationMinutes())
}

func TestExpandOccurrencesDaily(t *testing.T) {
	tmpl := dailyTemplate("tmpl-day", day(2026, time.January, 1))

	occurrences, err := ExpandOccurrences(&tmpl, day(2026, time.January, 1), day(2026, time.January, 7), time.UTC)
	require.NoError(t, err)
	require.Len(t, occurrences, 7)
	assert.Equal(t, time.Date(2026, time.January, 1, 7, 0, 0, 0, time.UTC), occurrences[0])
	assert.Equal(t, time.Date(2026, time.January, 7, 7, 0, 0, 0, time.UTC), occurrences[6])
}

func TestExpandOccurrencesDailyInterval(t *testing.T) {
	tmpl := dailyTemplate("tmpl-alt", day(2026, time.January, 1))
	tmpl.Interval = 2

	occurrences, err := ExpandOccurrences(&tmpl, day(2026, time.January, 1), day(2026, time.January, 10), time.UTC)
	require.NoError(t, err)
	require.Len(t, occurrences, 5)
	for i, occ := range occurrences {
		assert.Equal(t, 1+2*i, occ.Day())
	}
}

func TestExpandOccurrencesWeekly(t *testing.T) {
	tmpl := dailyTemplate("tmpl-weekly", day(2026, time.January, 1))
	tmpl.Recurrence = models.RecurrenceWeekly
	tmpl.Weekdays = models.WeekdaySet("Mon,Wed,Fri")

	// January 2026: the 5th is a Monday.
	occurrences, err := ExpandOccurrences(&tmpl, day(2026, time.January, 5), day(2026, time.January, 11), time.UTC)
	require.NoError(t, err)
	require.Len(t, occurrences, 3)
	assert.Equal(t, time.Monday, occurrences[0].Weekday())
	assert.Equal(t, time.Wednesday, occurrences[1].Weekday())
	assert.Equal(t, time.Friday, occurrences[2].Weekday())
}

func TestExpandOccurrencesMonthly(t *testing.T) {
	tmpl := dailyTemplate("tmpl-monthly", day(2026, time.January, 1))
	tmpl.Recurrence = models.RecurrenceMonthly
	tmpl.MonthDay = 15

	occurrences, err := ExpandOccurrences(&tmpl, day(2026, time.January, 1), day(2026, time.March, 31), time.UTC)
	require.NoError(t, err)
	require.Len(t, occurrences, 3)
	for _, occ := range occurrences {
		assert.Equal(t, 15, occ.Day())
	}
}

func TestExpandOccurrencesClampedToValidity(t *testing.T) {
	tmpl := dailyTemplate("tmpl-window", day(2026, time.January, 10))
	until := day(2026, time.January, 20)
	tmpl.ValidUntil = &until

	occurrences, err := ExpandOccurrences(&tmpl, day(2026, time.January, 1), day(2026, time.January, 31), time.UTC)
	require.NoError(t, err)
	require.Len(t, occurrences, 11)
	assert.Equal(t, 10, occurrences[0].Day())
	assert.Equal(t, 20, occurrences[len(occurrences)-1].Day())
}

func TestExpandOccurrencesBadConfig(t *testing.T) {
	tmpl := dailyTemplate("tmpl-bad", day(2026, time.January, 1))
	tmpl.Recurrence = models.RecurrenceKind("HOURLY")
	_, err := ExpandOccurrences(&tmpl, day(2026, time.January, 1), day(2026, time.January, 7), time.UTC)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrRecurrenceConfig))

	tmpl = dailyTemplate("tmpl-neg", day(2026, time.January, 1))
	tmpl.Interval = -1
	_, err = ExpandOccurrences(&tmpl, day(2026, time.January, 1), day(2026, time.January, 7), time.UTC)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrRecurrenceConfig))

	tmpl = dailyTemplate("tmpl-days", day(2026, time.January, 1))
	tmpl.Recurrence = models.RecurrenceWeekly
	tmpl.Weekdays = models.WeekdaySet("Mon,Funday")
	_, err = ExpandOccurrences(&tmpl, day(2026, time.January, 1), day(2026, time.January, 7), time.UTC)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrRecurrenceConfig))
}

func TestExpandOccurrencesEmptyWindow(t *testing.T) {
	tmpl := dailyTemplate("tmpl-late", day(2026, time.June, 1))
	occurrences, err := ExpandOccurrences(&tmpl, day(2026, time.January, 1), day(2026, time.January, 31), time.UTC)
	require.NoError(t, err)
	assert.Empty(t, occurrences)
}
