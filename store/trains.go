package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/theoremus-urban-solutions/sncf-delay-aggregator/snapshot"
)

// TrainState is the aggregated record for one train instance: identity,
// the write-once schedule, the latest realtime knowledge, and provenance
// counters describing how the record was built up.
type TrainState struct {
	InstanceID       string
	VehicleJourneyID string
	ServiceDate      string
	StopAreaID       string
	TrainType        *string

	ScheduledTime time.Time
	RealtimeTime  *time.Time

	DelaySeconds      *int64
	PossiblyCancelled bool

	ObservationCount  int64
	SeenScheduledTier bool
	SeenRealtimeTier  bool

	LastSeenDeltaSeconds *int64
	LastPollTimestamp    time.Time
}

// Observation is one validated snapshot reduced to the columns the
// merge touches, keyed and ready to apply.
type Observation struct {
	InstanceID       string
	VehicleJourneyID string
	ServiceDate      string
	StopAreaID       string
	TrainType        *string

	ScheduledTime time.Time
	RealtimeTime  *time.Time
	DelaySeconds  *int64

	SeenScheduledTier bool
	SeenRealtimeTier  bool

	LastSeenDeltaSeconds *int64
	PollTimestamp        time.Time
}

// upsertTrain inserts a new record for a first-seen instance, or merges
// into the existing one. The WHERE guard on the conflict clause makes
// the whole merge conditional on temporal progress: a snapshot whose
// poll time does not exceed the stored last_poll_timestamp changes
// nothing at all, observation_count included. scheduled_time and
// possibly_cancelled are never part of the update, so the first
// accepted value of each sticks for the lifetime of the record.
const upsertTrain = `
INSERT INTO trains (
	train_instance_id, vehicle_journey_id, service_date,
	stop_area_id, train_type,
	scheduled_time, realtime_time,
	delay_seconds, possibly_cancelled,
	observation_count, seen_scheduled_tier, seen_realtime_tier,
	last_seen_delta_seconds, last_poll_timestamp
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 1, ?, ?, ?, ?)
ON CONFLICT(train_instance_id) DO UPDATE SET
	realtime_time = excluded.realtime_time,
	delay_seconds = excluded.delay_seconds,
	last_seen_delta_seconds = excluded.last_seen_delta_seconds,
	last_poll_timestamp = excluded.last_poll_timestamp,

	observation_count = trains.observation_count + 1,
	seen_scheduled_tier = MAX(trains.seen_scheduled_tier, excluded.seen_scheduled_tier),
	seen_realtime_tier = MAX(trains.seen_realtime_tier, excluded.seen_realtime_tier),
	train_type = COALESCE(trains.train_type, excluded.train_type),
	possibly_cancelled = trains.possibly_cancelled

WHERE excluded.last_poll_timestamp > trains.last_poll_timestamp
`

// UpsertObservation applies one observation as a single atomic
// statement. It reports whether the database accepted the write; a
// stale snapshot (poll time not beyond the stored one) is a no-op and
// returns false.
func (s *Store) UpsertObservation(obs Observation) (bool, error) {
	return upsertObservation(s.db, obs)
}

// UpsertObservationTx is UpsertObservation inside a caller-held
// transaction, for batched commits. One statement is still one merge;
// a rollback takes out whole merges only, never a partial one.
func (s *Store) UpsertObservationTx(tx *sql.Tx, obs Observation) (bool, error) {
	return upsertObservation(tx, obs)
}

func upsertObservation(e execer, obs Observation) (bool, error) {
	var rt any
	if obs.RealtimeTime != nil {
		rt = snapshot.FormatTimestamp(*obs.RealtimeTime)
	}
	var delay any
	if obs.DelaySeconds != nil {
		delay = *obs.DelaySeconds
	}
	var delta any
	if obs.LastSeenDeltaSeconds != nil {
		delta = *obs.LastSeenDeltaSeconds
	}
	var trainType any
	if obs.TrainType != nil {
		trainType = *obs.TrainType
	}

	res, err := e.Exec(upsertTrain,
		obs.InstanceID,
		obs.VehicleJourneyID,
		obs.ServiceDate,
		obs.StopAreaID,
		trainType,
		snapshot.FormatTimestamp(obs.ScheduledTime),
		rt,
		delay,
		obs.SeenScheduledTier,
		obs.SeenRealtimeTier,
		delta,
		snapshot.FormatTimestamp(obs.PollTimestamp),
	)
	if err != nil {
		return false, fmt.Errorf("upserting train %s: %w", obs.InstanceID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

const selectTrain = `
SELECT train_instance_id, vehicle_journey_id, service_date,
	stop_area_id, train_type,
	scheduled_time, realtime_time,
	delay_seconds, possibly_cancelled,
	observation_count, seen_scheduled_tier, seen_realtime_tier,
	last_seen_delta_seconds, last_poll_timestamp
FROM trains
`

// GetTrain returns the aggregated state for one instance id, or
// ErrNotFound.
func (s *Store) GetTrain(instanceID string) (*TrainState, error) {
	row := s.db.QueryRow(selectTrain+"WHERE train_instance_id = ?", instanceID)
	st, err := scanTrain(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading train %s: %w", instanceID, err)
	}
	return st, nil
}

// ScanByLastPoll returns all records whose last poll falls inside
// [from, to], ordered by last poll time. This rides the secondary index
// so incremental export and cleanup never need a full table scan.
func (s *Store) ScanByLastPoll(from, to time.Time) ([]TrainState, error) {
	rows, err := s.db.Query(
		selectTrain+`WHERE last_poll_timestamp >= ? AND last_poll_timestamp <= ?
			ORDER BY last_poll_timestamp`,
		snapshot.FormatTimestamp(from), snapshot.FormatTimestamp(to),
	)
	if err != nil {
		return nil, fmt.Errorf("scanning by last poll: %w", err)
	}
	defer rows.Close()

	var out []TrainState
	for rows.Next() {
		st, err := scanTrain(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *st)
	}
	return out, rows.Err()
}

func scanTrain(scan func(...any) error) (*TrainState, error) {
	var st TrainState
	var trainType, realtime, lastPoll, scheduled sql.NullString
	var delay, deltaInt sql.NullInt64

	err := scan(
		&st.InstanceID, &st.VehicleJourneyID, &st.ServiceDate,
		&st.StopAreaID, &trainType,
		&scheduled, &realtime,
		&delay, &st.PossiblyCancelled,
		&st.ObservationCount, &st.SeenScheduledTier, &st.SeenRealtimeTier,
		&deltaInt, &lastPoll,
	)
	if err != nil {
		return nil, err
	}

	if trainType.Valid {
		st.TrainType = &trainType.String
	}
	if delay.Valid {
		st.DelaySeconds = &delay.Int64
	}
	if deltaInt.Valid {
		st.LastSeenDeltaSeconds = &deltaInt.Int64
	}
	if scheduled.Valid {
		t, err := snapshot.ParseTimestamp(scheduled.String)
		if err != nil {
			return nil, fmt.Errorf("stored scheduled_time: %w", err)
		}
		st.ScheduledTime = t
	}
	if realtime.Valid {
		t, err := snapshot.ParseTimestamp(realtime.String)
		if err != nil {
			return nil, fmt.Errorf("stored realtime_time: %w", err)
		}
		st.RealtimeTime = &t
	}
	if lastPoll.Valid {
		t, err := snapshot.ParseTimestamp(lastPoll.String)
		if err != nil {
			return nil, fmt.Errorf("stored last_poll_timestamp: %w", err)
		}
		st.LastPollTimestamp = t
	}
	return &st, nil
}
