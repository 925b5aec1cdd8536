package navitia

import (
	"strconv"
	"time"

	"github.com/theoremus-urban-solutions/sncf-delay-aggregator/snapshot"
	"github.com/theoremus-urban-solutions/sncf-delay-aggregator/store"
)

// ExtractSnapshots flattens one departure board into raw snapshots.
// Departures without both a base and a realtime departure time are
// skipped: without the pair there is no delay to measure.
func ExtractSnapshots(departures []Departure, stopAreaID string, pollTime time.Time) []snapshot.RawSnapshot {
	out := make([]snapshot.RawSnapshot, 0, len(departures))

	for _, dep := range departures {
		base := dep.StopDateTime.BaseDepartureDateTime
		rt := dep.StopDateTime.DepartureDateTime
		if base == "" || rt == "" {
			continue
		}

		scheduled, err := snapshot.ParseTimestamp(base)
		if err != nil {
			continue
		}
		realtime, err := snapshot.ParseTimestamp(rt)
		if err != nil {
			continue
		}

		tier, err := snapshot.ParseTier(dep.StopDateTime.DataFreshness)
		if err != nil {
			continue
		}

		delay := int64(realtime.Sub(scheduled) / time.Second)

		s := snapshot.RawSnapshot{
			PollTimestamp: pollTime,
			StopAreaID:    stopAreaID,
			ScheduledTime: scheduled,
			RealtimeTime:  &realtime,
			DelaySeconds:  &delay,
			Freshness:     tier,
			TrainType:     dep.Route.Line.CommercialMode.Name,
		}
		for _, link := range dep.Links {
			switch link.Type {
			case "vehicle_journey":
				s.VehicleJourneyID = link.ID
			case "terminus":
				s.IsTerminus = true
			case "disruption":
				s.DisruptionID = link.ID
			}
		}

		out = append(out, s)
	}

	return out
}

// ToStation converts an API stop area into the reference-data row.
func ToStation(sa StopArea) store.Station {
	st := store.Station{
		StopAreaID: sa.ID,
		Name:       sa.Name,
		Timezone:   sa.Timezone,
	}
	if lat, err := strconv.ParseFloat(sa.Coord.Lat, 64); err == nil {
		st.Latitude = &lat
	}
	if lon, err := strconv.ParseFloat(sa.Coord.Lon, 64); err == nil {
		st.Longitude = &lon
	}
	if len(sa.AdministrativeRegions) > 0 {
		st.AdministrativeRegion = sa.AdministrativeRegions[0].Name
	}
	return st
}
