// Package store is the durable state layer: a SQLite database holding
// the aggregated per-train records together with the station reference
// data and the enrichment tables joined at export time.
//
// All mutation of aggregated train state goes through UpsertObservation;
// the recency guard is evaluated inside SQLite as part of a single
// statement, so concurrent writers for the same key resolve
// deterministically without read-then-write races in the caller.
package store
