// Package export flattens the aggregated train records, joined with
// station, calendar and weather data, into the delivery CSV. It is a
// pure read-only projection of the store.
package export

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/theoremus-urban-solutions/sncf-delay-aggregator/store"
)

var columns = []string{
	// train core
	"train_instance_id", "vehicle_journey_id", "service_date",
	"stop_area_id", "train_type",
	"scheduled_time", "realtime_time", "delay_seconds", "possibly_cancelled",
	"observation_count", "seen_scheduled_tier", "seen_realtime_tier",
	"last_seen_delta_seconds", "last_poll_timestamp",
	// station
	"station_name", "latitude", "longitude", "timezone", "administrative_region",
	// calendar
	"weekday", "is_weekend", "is_holiday_fr", "month", "season",
	// weather
	"temperature", "precipitation", "snowfall",
	"wind_speed", "wind_gust", "visibility", "weather_code",
}

const unifiedQuery = `
SELECT
	t.train_instance_id,
	t.vehicle_journey_id,
	t.service_date,
	t.stop_area_id,
	t.train_type,

	t.scheduled_time,
	t.realtime_time,
	t.delay_seconds,
	t.possibly_cancelled,

	t.observation_count,
	t.seen_scheduled_tier,
	t.seen_realtime_tier,
	t.last_seen_delta_seconds,
	t.last_poll_timestamp,

	s.name AS station_name,
	s.latitude,
	s.longitude,
	s.timezone,
	s.administrative_region,

	c.weekday,
	c.is_weekend,
	c.is_holiday_fr,
	c.month,
	c.season,

	w.temperature,
	w.precipitation,
	w.snowfall,
	w.wind_speed,
	w.wind_gust,
	w.visibility,
	w.weather_code

FROM trains t

LEFT JOIN stations s
	ON t.stop_area_id = s.stop_area_id

LEFT JOIN calendar c
	ON t.service_date = c.date

LEFT JOIN weather w
	ON w.stop_area_id = t.stop_area_id
	AND w.weather_hour = STRFTIME(
		'%Y-%m-%dT%H:00:00',
		COALESCE(t.realtime_time, t.scheduled_time)
	)

ORDER BY t.service_date, t.scheduled_time
`

// WriteUnified streams the unified dataset to outPath and returns the
// number of rows written.
func WriteUnified(st *store.Store, outPath string) (int, error) {
	rows, err := st.DB().Query(unifiedQuery)
	if err != nil {
		return 0, fmt.Errorf("running unified export query: %w", err)
	}
	defer rows.Close()

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("creating output dir: %w", err)
		}
	}
	f, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", outPath, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return 0, err
	}

	values := make([]sql.NullString, len(columns))
	scan := make([]any, len(columns))
	for i := range values {
		scan[i] = &values[i]
	}
	record := make([]string, len(columns))

	var written int
	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return written, fmt.Errorf("scanning export row: %w", err)
		}
		for i, v := range values {
			if v.Valid {
				record[i] = v.String
			} else {
				record[i] = ""
			}
		}
		if err := w.Write(record); err != nil {
			return written, err
		}
		written++
	}
	if err := rows.Err(); err != nil {
		return written, err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return written, err
	}

	log.Printf("Export complete: %d rows written to %s", written, outPath)
	return written, nil
}
