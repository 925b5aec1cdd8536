package store

import (
	"fmt"
	"time"

	"github.com/theoremus-urban-solutions/sncf-delay-aggregator/snapshot"
)

// CalendarDay is one derived calendar row keyed by date.
type CalendarDay struct {
	Date        string // YYYY-MM-DD
	Weekday     int    // Monday = 0, matching the original dataset
	IsWeekend   bool
	IsHolidayFR bool
	Month       int
	Season      string
}

// WeatherRow is one hourly weather observation for a stop area.
type WeatherRow struct {
	StopAreaID  string
	WeatherHour time.Time

	Temperature   *float64
	Precipitation *float64
	Snowfall      *float64
	WindSpeed     *float64
	WindGust      *float64
	Visibility    *float64
	WeatherCode   *int64
}

// WeatherKey is one distinct (station, hour bucket) pair needing a
// weather lookup, with the station coordinates for the provider call.
type WeatherKey struct {
	StopAreaID string
	Latitude   float64
	Longitude  float64
	Hour       time.Time
}

// ObservedDates lists the distinct calendar dates of
// COALESCE(realtime_time, scheduled_time) across all trains; these are
// the dates the calendar table must cover.
func (s *Store) ObservedDates() ([]string, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT DATE(COALESCE(realtime_time, scheduled_time))
		FROM trains
		WHERE scheduled_time IS NOT NULL
		ORDER BY 1`)
	if err != nil {
		return nil, fmt.Errorf("listing observed dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// InsertCalendarDays inserts derived calendar rows, ignoring dates
// already present so repeated enrichment runs stay idempotent.
func (s *Store) InsertCalendarDays(days []CalendarDay) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, d := range days {
		_, err := tx.Exec(`
			INSERT OR IGNORE INTO calendar
			(date, weekday, is_weekend, is_holiday_fr, month, season)
			VALUES (?, ?, ?, ?, ?, ?)`,
			d.Date, d.Weekday, d.IsWeekend, d.IsHolidayFR, d.Month, d.Season,
		)
		if err != nil {
			return fmt.Errorf("inserting calendar day %s: %w", d.Date, err)
		}
	}
	return tx.Commit()
}

// WeatherJoinKeys lists the distinct (stop area, hour bucket) pairs the
// weather table must cover, restricted to stations with coordinates.
func (s *Store) WeatherJoinKeys() ([]WeatherKey, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT
			t.stop_area_id,
			s.latitude,
			s.longitude,
			STRFTIME('%Y-%m-%dT%H:00:00', COALESCE(t.realtime_time, t.scheduled_time))
		FROM trains t
		JOIN stations s USING (stop_area_id)
		WHERE s.latitude IS NOT NULL
		  AND s.longitude IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("listing weather keys: %w", err)
	}
	defer rows.Close()

	var keys []WeatherKey
	for rows.Next() {
		var k WeatherKey
		var hour string
		if err := rows.Scan(&k.StopAreaID, &k.Latitude, &k.Longitude, &hour); err != nil {
			return nil, err
		}
		t, err := snapshot.ParseTimestamp(hour)
		if err != nil {
			return nil, fmt.Errorf("stored weather hour: %w", err)
		}
		k.Hour = t
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// InsertWeatherRows inserts hourly weather rows, ignoring buckets
// already covered.
func (s *Store) InsertWeatherRows(rows []WeatherRow) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	nullable := func(f *float64) any {
		if f == nil {
			return nil
		}
		return *f
	}

	for _, r := range rows {
		var code any
		if r.WeatherCode != nil {
			code = *r.WeatherCode
		}
		_, err := tx.Exec(`
			INSERT OR IGNORE INTO weather (
				stop_area_id, weather_hour,
				temperature, precipitation, snowfall,
				wind_speed, wind_gust, visibility, weather_code
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.StopAreaID, snapshot.FormatTimestamp(r.WeatherHour),
			nullable(r.Temperature), nullable(r.Precipitation), nullable(r.Snowfall),
			nullable(r.WindSpeed), nullable(r.WindGust), nullable(r.Visibility), code,
		)
		if err != nil {
			return fmt.Errorf("inserting weather for %s: %w", r.StopAreaID, err)
		}
	}
	return tx.Commit()
}
