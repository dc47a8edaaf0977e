package recycling

import "time"

// Status is the lifecycle state of a credential relative to a point in time.
type Status string

const (
	StatusValid        Status = "valid"
	StatusReminder     Status = "reminder"
	StatusExpiringSoon Status = "expiring_soon"
	StatusExpired      Status = "expired"
	StatusNoRecycling  Status = "no_recycling"
	StatusUnknown      Status = "unknown"
)

// Actionable reports whether the status produces an alert.
func (s Status) Actionable() bool {
	return s == StatusExpired || s == StatusExpiringSoon || s == StatusReminder
}

// Record is the view of a credential the evaluator works on.
type Record struct {
	ID               string
	Title            string
	ObtainedDate     time.Time
	LastRecycledDate *time.Time
	Organization     string
}

// ReferenceDate returns the last recycling date when present, otherwise the obtained date.
func (r Record) ReferenceDate() time.Time {
	if r.LastRecycledDate != nil && !r.LastRecycledDate.IsZero() {
		return *r.LastRecycledDate
	}
	return r.ObtainedDate
}

// Info is the derived lifecycle of one record. It is recomputed on every read.
type Info struct {
	Status               Status     `json:"status"`
	NextRecyclingDue     *time.Time `json:"next_recycling_due"`
	DaysRemaining        *int       `json:"days_remaining"`
	RecyclingPeriodYears *int       `json:"recycling_period_years"`
	DeadlineYear         *int       `json:"deadline_year"`
}

// Evaluator computes lifecycle information against a catalog. It holds no mutable state.
type Evaluator struct {
	catalog *Catalog
}

// NewEvaluator builds an evaluator; a nil catalog falls back to DefaultCatalog.
func NewEvaluator(catalog *Catalog) *Evaluator {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Evaluator{catalog: catalog}
}

// Catalog exposes the reference data the evaluator was built with.
func (e *Evaluator) Catalog() *Catalog {
	return e.catalog
}

// Evaluate returns the lifecycle of record as seen on the calendar date of now.
//
// The deadline is December 31 of reference year + period, whatever the month and day of the
// reference date. Once the calendar reaches the deadline year the record is expiring_soon even
// if the reminder date has not been reached yet.
func (e *Evaluator) Evaluate(record Record, now time.Time) Info {
	period := e.catalog.PeriodFor(e.catalog.Canonical(record.Title))
	switch period.Kind {
	case PeriodUnknown:
		return Info{Status: StatusUnknown}
	case PeriodNone:
		return Info{Status: StatusNoRecycling}
	}

	reference := record.ReferenceDate()
	if reference.IsZero() {
		return Info{Status: StatusUnknown}
	}

	loc := now.Location()
	today := civilDate(now, loc)
	ref := civilDate(reference, loc)

	deadlineYear := ref.Year() + period.Years
	deadline := time.Date(deadlineYear, time.December, 31, 0, 0, 0, 0, loc)
	reminderDate := addMonths(ref, e.catalog.ReminderMonths())
	days := daysBetween(today, deadline)

	var status Status
	switch {
	case deadline.Before(today):
		status = StatusExpired
	case today.Year() >= deadlineYear:
		status = StatusExpiringSoon
	case !today.Before(reminderDate):
		status = StatusReminder
	default:
		status = StatusValid
	}

	periodYears := period.Years
	return Info{
		Status:               status,
		NextRecyclingDue:     &deadline,
		DaysRemaining:        &days,
		RecyclingPeriodYears: &periodYears,
		DeadlineYear:         &deadlineYear,
	}
}

// civilDate keeps the calendar date of t (as read in its own location) at midnight in loc.
func civilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// addMonths adds months clamping to the last day of the target month (Feb 29 + 12 months = Feb 28).
func addMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day(); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from -> to, negative when to is in the past.
func daysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
