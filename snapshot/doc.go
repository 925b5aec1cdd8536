// Package snapshot defines the raw observation model shared by every
// snapshot source (Navitia scraper, GTFS-RT ingest, archived CSV files):
// one RawSnapshot is the state of one departure as seen by exactly one
// poll. It also derives the stable per-run identity used to converge
// repeated observations onto a single aggregated record.
package snapshot
