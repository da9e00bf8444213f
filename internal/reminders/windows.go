package reminders

import (
	"time"

	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/appointments"
)

// Window is an inclusive time interval a reminder scan looks ahead into.
type Window struct {
	From time.Time
	To   time.Time
}

// Windows computes the two lookahead intervals relative to now. The job runs
// every 15 minutes, so a ±1h (resp. ±30m) tolerance around the nominal mark
// guarantees every appointment lands in at least one run even under
// scheduler jitter. Duplicate suppression is the sent-flag's job, not the
// window's.
func Windows(now time.Time) (w24, w2 Window) {
	w24 = Window{From: now.Add(23 * time.Hour), To: now.Add(25 * time.Hour)}
	w2 = Window{From: now.Add(90 * time.Minute), To: now.Add(150 * time.Minute)}
	return w24, w2
}

// Contains reports whether t falls inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// Dates lists the calendar dates (in loc) the window spans, for the
// date-keyed store query.
func (w Window) Dates(loc *time.Location) []string {
	if loc == nil {
		loc = time.UTC
	}
	var dates []string
	day := w.From.In(loc)
	last := w.To.In(loc).Format(appointments.DateLayout)
	for {
		date := day.Format(appointments.DateLayout)
		dates = append(dates, date)
		if date == last {
			return dates
		}
		day = day.AddDate(0, 0, 1)
	}
}

// unionDates merges the date lists of several windows without duplicates.
func unionDates(loc *time.Location, windows ...Window) []string {
	seen := make(map[string]bool)
	var dates []string
	for _, w := range windows {
		for _, d := range w.Dates(loc) {
			if seen[d] {
				continue
			}
			seen[d] = true
			dates = append(dates, d)
		}
	}
	return dates
}
