// Package rtfeed ingests GTFS-Realtime TripUpdates feeds as an
// alternate snapshot source, for networks that publish GTFS-RT instead
// of a Navitia-style departures API. Each stop time update becomes one
// raw snapshot, so the aggregation path is identical downstream.
package rtfeed
