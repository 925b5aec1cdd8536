package enrich

import (
	"fmt"
	"log"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/fr"

	"github.com/theoremus-urban-solutions/sncf-delay-aggregator/store"
)

// Season buckets a month into the meteorological season used by the
// exported dataset.
func Season(month time.Month) string {
	switch month {
	case time.December, time.January, time.February:
		return "winter"
	case time.March, time.April, time.May:
		return "spring"
	case time.June, time.July, time.August:
		return "summer"
	default:
		return "autumn"
	}
}

func frenchCalendar() *cal.Calendar {
	c := &cal.Calendar{}
	c.AddHoliday(fr.Holidays...)
	return c
}

// CalendarDay derives the calendar row for one date string (YYYY-MM-DD).
func CalendarDay(date string, holidays *cal.Calendar) (store.CalendarDay, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return store.CalendarDay{}, fmt.Errorf("bad calendar date %q: %w", date, err)
	}

	actual, _, _ := holidays.IsHoliday(t)
	weekday := (int(t.Weekday()) + 6) % 7 // Monday = 0, as in the dataset

	return store.CalendarDay{
		Date:        date,
		Weekday:     weekday,
		IsWeekend:   weekday >= 5,
		IsHolidayFR: actual,
		Month:       int(t.Month()),
		Season:      Season(t.Month()),
	}, nil
}

// PopulateCalendar fills the calendar table for every observed service
// date. Already-covered dates are left untouched, so reruns are cheap.
func PopulateCalendar(st *store.Store) (int, error) {
	log.Printf("Populating calendar table")

	dates, err := st.ObservedDates()
	if err != nil {
		return 0, err
	}

	holidays := frenchCalendar()
	days := make([]store.CalendarDay, 0, len(dates))
	for _, d := range dates {
		day, err := CalendarDay(d, holidays)
		if err != nil {
			return 0, err
		}
		days = append(days, day)
	}

	if err := st.InsertCalendarDays(days); err != nil {
		return 0, err
	}
	log.Printf("Calendar rows inserted: %d", len(days))
	return len(days), nil
}
