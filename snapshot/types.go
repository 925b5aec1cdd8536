package snapshot

import (
	"fmt"
	"time"
)

// FreshnessTier says whether an observation reflects only the static
// schedule or a realtime-confirmed update.
type FreshnessTier string

const (
	TierScheduledOnly FreshnessTier = "scheduled_only"
	TierRealtime      FreshnessTier = "realtime"
)

// ParseTier normalizes a freshness value from an upstream source.
// Navitia reports "base_schedule" for schedule-only departures; archived
// files written before the rename may still carry it.
func ParseTier(s string) (FreshnessTier, error) {
	switch s {
	case string(TierScheduledOnly), "base_schedule":
		return TierScheduledOnly, nil
	case string(TierRealtime):
		return TierRealtime, nil
	default:
		return "", fmt.Errorf("unknown freshness tier %q", s)
	}
}

// RawSnapshot is one poll's view of one departure. Immutable once
// emitted; realtime fields may be absent when the upstream only knows
// the static schedule.
type RawSnapshot struct {
	PollTimestamp    time.Time
	StopAreaID       string
	VehicleJourneyID string
	ScheduledTime    time.Time
	RealtimeTime     *time.Time
	DelaySeconds     *int64
	Freshness        FreshnessTier
	TrainType        string

	// Recorded by the scraper for later disruption analysis; the
	// aggregation path ignores both.
	IsTerminus   bool
	DisruptionID string
}
