package model

import "time"

// RecurringTransaction is a template whose ledger entries were already
// materialized when it was created. The reminder only tracks which upcoming
// occurrence the user has been told about.
//
// LastNotifiedOccurrence is the index of the occurrence last reminded
// (0 is the start date itself); -1 means no reminder has been sent yet.
type RecurringTransaction struct {
	StartDate               time.Time
	EndDate                 *time.Time
	LastNotifiedPaymentDate *time.Time
	Note                    string
	ID                      int64
	UserID                  int64
	CategoryID              int64
	LastNotifiedOccurrence  int64
	Amount                  float64
	PeriodDays              int
}

// NoOccurrenceNotified is the bookkeeping value of a template that never fired a reminder.
const NoOccurrenceNotified int64 = -1

// Period returns the spacing between two occurrences.
func (r *RecurringTransaction) Period() time.Duration {
	return time.Duration(r.PeriodDays) * 24 * time.Hour
}

// Reminded reports whether the occurrence idx falling at at was already
// reminded. Both must match: a rescheduled series can reuse an index for a
// date nobody was told about.
func (r *RecurringTransaction) Reminded(idx int64, at time.Time) bool {
	return r.LastNotifiedOccurrence == idx &&
		r.LastNotifiedPaymentDate != nil &&
		r.LastNotifiedPaymentDate.Equal(at)
}
