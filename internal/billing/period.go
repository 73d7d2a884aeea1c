package billing

import (
	"time"

	"burstbill/internal/domain"
)

// Mode selects which calendar month a run bills.
type Mode string

const (
	ModeCurrent  Mode = "current"
	ModePrevious Mode = "previous"
)

// PeriodFor derives the billing window for mode relative to now, in now's
// location. Current runs bill month-to-date; previous runs bill the whole
// prior calendar month, ending one second before the current month began.
func PeriodFor(mode Mode, now time.Time) domain.Period {
	if mode == ModePrevious {
		end := monthStart(now).Add(-time.Second)
		return domain.Period{
			Start: monthStart(end),
			End:   end,
			Label: end.Format("January 2006"),
		}
	}
	return domain.Period{
		Start: monthStart(now),
		End:   now,
		Label: now.Format("January 2006"),
	}
}

// NextMonthStart returns the first instant of the month after now's.
func NextMonthStart(now time.Time) time.Time {
	return monthStart(now).AddDate(0, 1, 0)
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
