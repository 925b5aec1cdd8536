package snapshot

import (
	"fmt"
	"strings"
	"time"
)

// InstanceKey identifies one physical train run: the same vehicle
// journey observed on two service dates is two distinct instances.
type InstanceKey struct {
	VehicleJourneyID string
	ServiceDate      string // YYYY-MM-DD
}

// ID returns the canonical string form of the key, used as the primary
// key of the aggregated record. The composition is reversible: the date
// is always the final 10 characters.
func (k InstanceKey) ID() string {
	return k.VehicleJourneyID + "_" + k.ServiceDate
}

// ParseKeyID splits a canonical key string back into its parts.
func ParseKeyID(id string) (InstanceKey, error) {
	i := strings.LastIndex(id, "_")
	if i <= 0 || len(id)-i-1 != len("2006-01-02") {
		return InstanceKey{}, fmt.Errorf("malformed instance key %q", id)
	}
	return InstanceKey{VehicleJourneyID: id[:i], ServiceDate: id[i+1:]}, nil
}

// ResolveKey derives the instance key for an observation. The service
// date is the calendar date of the scheduled time exactly as recorded;
// no timezone conversion happens here.
func ResolveKey(vehicleJourneyID string, scheduled time.Time) (InstanceKey, error) {
	if vehicleJourneyID == "" {
		return InstanceKey{}, fmt.Errorf("missing vehicle journey id")
	}
	if scheduled.IsZero() {
		return InstanceKey{}, fmt.Errorf("missing scheduled time")
	}
	return InstanceKey{
		VehicleJourneyID: vehicleJourneyID,
		ServiceDate:      scheduled.Format("2006-01-02"),
	}, nil
}
