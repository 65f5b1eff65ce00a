package service

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/oakfield-hms/roster-api/internal/models"
)

// Rotation groups are derived, not persisted: a staff member's group depends
// only on their id, so membership is stable across runs and template edits.
const rotationGroupCount = 2

// StaffGroup partitions staff deterministically into rotation group 1 or 2.
func StaffGroup(staffID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(staffID))
	return int(h.Sum32()%rotationGroupCount) + 1
}

// WeekOfMonth numbers the week containing the date within its month,
// counting in blocks of seven days from the 1st. The same convention drives
// both week parity and weekly consistency; mixing conventions would let the
// rotation flip templates mid-week.
func WeekOfMonth(date time.Time) int {
	return ((date.Day() - 1) / 7) + 1
}

// MonthWeekBounds returns the half-open [start, end) range of the month week
// containing the date, clamped to the month.
func MonthWeekBounds(date time.Time) (time.Time, time.Time) {
	first := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
	start := first.AddDate(0, 0, 7*(WeekOfMonth(date)-1))
	end := start.AddDate(0, 0, 7)
	if nextMonth := first.AddDate(0, 1, 0); end.After(nextMonth) {
		end = nextMonth
	}
	return start, end
}

// TemplateForGroup resolves which primary template a rotation group works
// during the given week. Odd weeks map group 1 to the first template and
// group 2 to the second; even weeks swap the mapping.
func TemplateForGroup(primaries []models.ShiftTemplate, group int, weekOfMonth int) *models.ShiftTemplate {
	if len(primaries) < 2 {
		return nil
	}
	first, second := &primaries[0], &primaries[1]
	oddWeek := weekOfMonth%2 == 1
	if (group == 1) == oddWeek {
		return first
	}
	return second
}

// CheckAvailability verifies the date does not fall inside any blackout or
// unavailable record for the staff member.
func CheckAvailability(sc *SchedulerContext, staffID string, date time.Time) (bool, string) {
	for i := range sc.Availabilities[staffID] {
		record := &sc.Availabilities[staffID][i]
		if record.Blocks(date) {
			return false, fmt.Sprintf("staff %s blacked out on %s (%s)", staffID, date.Format("2006-01-02"), record.Reason)
		}
	}
	return true, ""
}

// CheckWeekParity verifies the template matches the staff member's rotation
// group assignment for the week. Non-primary templates and departments
// without a rotation pair pass unconditionally.
func CheckWeekParity(sc *SchedulerContext, staffID string, date time.Time, templateID string) (bool, string) {
	if len(sc.PrimaryTemplates) < 2 {
		return true, ""
	}
	isPrimary := false
	for i := range sc.PrimaryTemplates {
		if sc.PrimaryTemplates[i].ID == templateID {
			isPrimary = true
			break
		}
	}
	if !isPrimary {
		return true, ""
	}
	expected := TemplateForGroup(sc.PrimaryTemplates, StaffGroup(staffID), WeekOfMonth(date))
	if expected == nil || expected.ID == templateID {
		return true, ""
	}
	return false, fmt.Sprintf("staff %s (group %d) rotates to template %s in week %d, not %s",
		staffID, StaffGroup(staffID), expected.ID, WeekOfMonth(date), templateID)
}

// CheckWeeklyConsistency verifies all of the staff member's shifts within the
// same week share the candidate's source template.
func CheckWeeklyConsistency(sc *SchedulerContext, staffID string, date time.Time, templateID string) (bool, string) {
	start, end := MonthWeekBounds(date)
	for i := range sc.ShiftsByStaff[staffID] {
		shift := &sc.ShiftsByStaff[staffID][i]
		if shift.Status != models.ShiftStatusScheduled || shift.TemplateID == nil {
			continue
		}
		if shift.StartDatetime.Before(start) || !shift.StartDatetime.Before(end) {
			continue
		}
		if *shift.TemplateID != templateID {
			return false, fmt.Sprintf("staff %s already works template %s in week of %s",
				staffID, *shift.TemplateID, start.Format("2006-01-02"))
		}
	}
	return true, ""
}

// CheckWeekendQuota verifies the weekend-shift counter is below the
// department policy's cap for Saturday/Sunday dates.
func CheckWeekendQuota(sc *SchedulerContext, staffID string, date time.Time) (bool, string) {
	if sc.WeekendPolicy == nil {
		return true, ""
	}
	if wd := date.Weekday(); wd != time.Saturday && wd != time.Sunday {
		return true, ""
	}
	state := sc.RotationStates[staffID]
	if state == nil {
		return true, ""
	}
	if state.WeekendShifts >= sc.WeekendPolicy.MaxWeekendShifts {
		return false, fmt.Sprintf("staff %s reached weekend quota (%d/%d)",
			staffID, state.WeekendShifts, sc.WeekendPolicy.MaxWeekendShifts)
	}
	return true, ""
}

// CheckNoOverlap verifies no SCHEDULED/EMERGENCY shift of the staff member
// overlaps the candidate range.
func CheckNoOverlap(sc *SchedulerContext, staffID string, start, end time.Time) (bool, string) {
	for i := range sc.ShiftsByStaff[staffID] {
		shift := &sc.ShiftsByStaff[staffID][i]
		if !shift.Status.Blocking() {
			continue
		}
		if shift.Overlaps(start, end) {
			return false, fmt.Sprintf("staff %s already booked %s to %s",
				staffID, shift.StartDatetime.Format(time.RFC3339), shift.EndDatetime.Format(time.RFC3339))
		}
	}
	return true, ""
}

// IsEligible runs every check in order and reports the first failure reason.
// Ordinary ineligibility is normal control flow, never an error.
func IsEligible(sc *SchedulerContext, staffID string, date time.Time, tmpl *models.ShiftTemplate) (bool, string) {
	if ok, reason := CheckAvailability(sc, staffID, date); !ok {
		return false, reason
	}
	if ok, reason := CheckWeekParity(sc, staffID, date, tmpl.ID); !ok {
		return false, reason
	}
	if ok, reason := CheckWeeklyConsistency(sc, staffID, date, tmpl.ID); !ok {
		return false, reason
	}
	if ok, reason := CheckWeekendQuota(sc, staffID, date); !ok {
		return false, reason
	}
	start, end := OccurrenceBounds(tmpl, date, sc.Location)
	if ok, reason := CheckNoOverlap(sc, staffID, start, end); !ok {
		return false, reason
	}
	return true, ""
}
