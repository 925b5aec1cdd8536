// Package enrich derives the auxiliary join tables attached at export
// time: a calendar table keyed by service date and an hourly weather
// table keyed by (stop area, hour bucket). Both are pure lookups; they
// never touch the aggregated train records.
package enrich
