package recurrence

import (
	"fmt"
	"time"

	"garden-care/internal/model"
)

// DateLayout is the calendar date format used in logs, messages and the API.
const DateLayout = "2006-01-02"

// Period is a recurrence step. Exactly one field is positive.
type Period struct {
	Days   int
	Months int
}

func (p Period) String() string {
	if p.Months > 0 {
		return fmt.Sprintf("%dm", p.Months)
	}
	return fmt.Sprintf("%dd", p.Days)
}

// PeriodOf extracts the period of a rule. recurring is false for rules with no
// period. A rule with a non-positive period or with both periods set yields an
// error wrapping ErrInvalidRule.
func PeriodOf(rule model.CareRule) (p Period, recurring bool, err error) {
	switch {
	case rule.EveryDays == nil && rule.EveryMonths == nil:
		return Period{}, false, nil
	case rule.EveryDays != nil && rule.EveryMonths != nil:
		return Period{}, true, fmt.Errorf("%w: rule %d has both day and month periods", ErrInvalidRule, rule.ID)
	case rule.EveryDays != nil:
		if *rule.EveryDays <= 0 {
			return Period{}, true, fmt.Errorf("%w: rule %d every_days=%d", ErrInvalidRule, rule.ID, *rule.EveryDays)
		}
		return Period{Days: *rule.EveryDays}, true, nil
	default:
		if *rule.EveryMonths <= 0 {
			return Period{}, true, fmt.Errorf("%w: rule %d every_months=%d", ErrInvalidRule, rule.ID, *rule.EveryMonths)
		}
		return Period{Months: *rule.EveryMonths}, true, nil
	}
}

// LastOccurrence is the date a rule's next due date is projected from: the due
// date of its latest instance, or its anchor date when it has none.
func LastOccurrence(rule model.CareRule, latest *model.TaskInstance) time.Time {
	if latest != nil {
		return Day(latest.Due)
	}
	return Day(rule.AnchorDate)
}

// NextDue projects the next due date of a rule. ok is false for non-recurring
// rules.
func NextDue(rule model.CareRule, latest *model.TaskInstance) (due time.Time, ok bool, err error) {
	p, recurring, err := PeriodOf(rule)
	if err != nil || !recurring {
		return time.Time{}, false, err
	}
	return Advance(LastOccurrence(rule, latest), p), true, nil
}

// Day truncates t to midnight UTC of its own calendar date.
// Due dates are stored and compared in this form.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Advance moves a date forward by one period.
func Advance(from time.Time, p Period) time.Time {
	if p.Months > 0 {
		return AddMonths(from, p.Months)
	}
	return from.AddDate(0, 0, p.Days)
}

// AddMonths adds n calendar months, clamping the day of month to the last day
// of the target month (Jan 31 + 1 month is Feb 28 or 29, never Mar 3).
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	target := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := daysInMonth(target.Month(), target.Year()); day > last {
		day = last
	}
	hour, minute, sec := t.Clock()
	return time.Date(target.Year(), target.Month(), day, hour, minute, sec, t.Nanosecond(), t.Location())
}

func daysInMonth(month time.Month, year int) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
