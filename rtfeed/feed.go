package rtfeed

import (
	"fmt"
	"io"
	"net/http"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/theoremus-urban-solutions/sncf-delay-aggregator/snapshot"
)

// FetchFeed downloads and decodes one GTFS-RT feed.
func FetchFeed(url string) (*gtfsrtpb.FeedMessage, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var fm gtfsrtpb.FeedMessage
	if err := proto.Unmarshal(b, &fm); err != nil {
		return nil, fmt.Errorf("decoding feed from %s: %w", url, err)
	}
	return &fm, nil
}

// Snapshots flattens a TripUpdates feed into raw snapshots. The poll
// timestamp is the feed header timestamp when present, fallbackPoll
// otherwise.
//
// GTFS-RT predictions carry the delay relative to the static schedule,
// so the scheduled time is recovered as predicted minus delay. Updates
// without a delay only confirm the schedule and become scheduled-only
// snapshots.
func Snapshots(fm *gtfsrtpb.FeedMessage, fallbackPoll time.Time) []snapshot.RawSnapshot {
	poll := fallbackPoll
	if ts := fm.GetHeader().GetTimestamp(); ts > 0 {
		poll = time.Unix(int64(ts), 0).UTC()
	}

	var out []snapshot.RawSnapshot
	for _, entity := range fm.GetEntity() {
		tu := entity.GetTripUpdate()
		if tu == nil {
			continue
		}
		tripID := tu.GetTrip().GetTripId()
		if tripID == "" {
			continue
		}

		for _, stu := range tu.GetStopTimeUpdate() {
			dep := stu.GetDeparture()
			if dep == nil || dep.Time == nil {
				continue
			}
			predicted := time.Unix(dep.GetTime(), 0).UTC()

			s := snapshot.RawSnapshot{
				PollTimestamp:    poll,
				StopAreaID:       stu.GetStopId(),
				VehicleJourneyID: tripID,
			}

			if dep.Delay != nil {
				delay := int64(dep.GetDelay())
				rt := predicted
				s.ScheduledTime = predicted.Add(-time.Duration(delay) * time.Second)
				s.RealtimeTime = &rt
				s.DelaySeconds = &delay
				s.Freshness = snapshot.TierRealtime
			} else {
				s.ScheduledTime = predicted
				s.Freshness = snapshot.TierScheduledOnly
			}

			out = append(out, s)
		}
	}
	return out
}
