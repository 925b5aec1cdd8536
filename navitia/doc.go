// Package navitia polls the SNCF Navitia v1 API: the static stop-area
// reference data and the per-station realtime departure boards. Each
// poll round is flattened into one raw snapshot CSV file for the
// aggregation path; a station that keeps failing is logged and skipped,
// which downstream only ever sees as absence of snapshots.
package navitia
