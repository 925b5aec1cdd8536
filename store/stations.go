package store

import (
	"database/sql"
	"fmt"
)

// Station is one row of the static stop-area reference data.
type Station struct {
	StopAreaID           string
	Name                 string
	Latitude             *float64
	Longitude            *float64
	Timezone             string
	AdministrativeRegion string
}

// InsertStation records a stop area, keeping the first version seen.
func (s *Store) InsertStation(st Station) error {
	var lat, lon any
	if st.Latitude != nil {
		lat = *st.Latitude
	}
	if st.Longitude != nil {
		lon = *st.Longitude
	}
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO stations (
			stop_area_id, name, latitude, longitude, timezone, administrative_region
		) VALUES (?, ?, ?, ?, ?, ?)`,
		st.StopAreaID, st.Name, lat, lon, st.Timezone, st.AdministrativeRegion,
	)
	if err != nil {
		return fmt.Errorf("inserting station %s: %w", st.StopAreaID, err)
	}
	return nil
}

// StopAreaIDs lists every known stop area, ordered, for a poll round.
func (s *Store) StopAreaIDs() ([]string, error) {
	rows, err := s.db.Query(`SELECT stop_area_id FROM stations ORDER BY stop_area_id`)
	if err != nil {
		return nil, fmt.Errorf("listing stop areas: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no stations loaded: %w", ErrNotFound)
	}
	return ids, nil
}

// GetStation returns one station row, or ErrNotFound.
func (s *Store) GetStation(stopAreaID string) (*Station, error) {
	var st Station
	var name, tz, region sql.NullString
	var lat, lon sql.NullFloat64

	err := s.db.QueryRow(`
		SELECT stop_area_id, name, latitude, longitude, timezone, administrative_region
		FROM stations WHERE stop_area_id = ?`, stopAreaID,
	).Scan(&st.StopAreaID, &name, &lat, &lon, &tz, &region)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading station %s: %w", stopAreaID, err)
	}

	st.Name = name.String
	st.Timezone = tz.String
	st.AdministrativeRegion = region.String
	if lat.Valid {
		st.Latitude = &lat.Float64
	}
	if lon.Valid {
		st.Longitude = &lon.Float64
	}
	return &st, nil
}
