package aggregate

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/theoremus-urban-solutions/sncf-delay-aggregator/snapshot"
	"github.com/theoremus-urban-solutions/sncf-delay-aggregator/store"
)

// DefaultCommitEvery is the number of merges grouped into one committed
// transaction when the caller does not configure a batch size.
const DefaultCommitEvery = 1000

// Stats summarizes one ingestion run.
type Stats struct {
	Processed int // rows read from input, malformed ones included
	Accepted  int // merges the store actually applied
	Stale     int // valid rows skipped by the recency guard
	Dropped   int // malformed rows
}

func (s Stats) add(o Stats) Stats {
	return Stats{
		Processed: s.Processed + o.Processed,
		Accepted:  s.Accepted + o.Accepted,
		Stale:     s.Stale + o.Stale,
		Dropped:   s.Dropped + o.Dropped,
	}
}

// Aggregator drives the merge of raw snapshot files into the store.
type Aggregator struct {
	store       *store.Store
	commitEvery int
}

// New creates an aggregator. commitEvery <= 0 selects the default.
func New(st *store.Store, commitEvery int) *Aggregator {
	if commitEvery <= 0 {
		commitEvery = DefaultCommitEvery
	}
	return &Aggregator{store: st, commitEvery: commitEvery}
}

// BuildObservation validates one snapshot and reduces it to the merge
// input. Rejections here are per-row conditions, never fatal.
func BuildObservation(rec snapshot.RawSnapshot) (store.Observation, error) {
	if rec.PollTimestamp.IsZero() {
		return store.Observation{}, fmt.Errorf("missing poll timestamp")
	}
	key, err := snapshot.ResolveKey(rec.VehicleJourneyID, rec.ScheduledTime)
	if err != nil {
		return store.Observation{}, err
	}

	obs := store.Observation{
		InstanceID:        key.ID(),
		VehicleJourneyID:  key.VehicleJourneyID,
		ServiceDate:       key.ServiceDate,
		StopAreaID:        rec.StopAreaID,
		ScheduledTime:     rec.ScheduledTime,
		RealtimeTime:      rec.RealtimeTime,
		DelaySeconds:      rec.DelaySeconds,
		SeenScheduledTier: rec.Freshness == snapshot.TierScheduledOnly,
		SeenRealtimeTier:  rec.Freshness == snapshot.TierRealtime,
		PollTimestamp:     rec.PollTimestamp,
	}
	if rec.TrainType != "" {
		tt := rec.TrainType
		obs.TrainType = &tt
	}
	if rec.RealtimeTime != nil {
		delta := int64(rec.RealtimeTime.Sub(rec.PollTimestamp) / time.Second)
		obs.LastSeenDeltaSeconds = &delta
	}
	return obs, nil
}

// ProcessReader merges every row of one raw snapshot stream, committing
// every commitEvery merges. The name parameter is only used in logs.
func (a *Aggregator) ProcessReader(src io.Reader, name string) (Stats, error) {
	reader, err := snapshot.NewReader(src)
	if err != nil {
		return Stats{}, fmt.Errorf("%s: %w", name, err)
	}

	warnings := NewWarningAggregator()
	var stats Stats
	var pending int

	tx, err := a.store.Begin()
	if err != nil {
		return stats, fmt.Errorf("%s: starting transaction: %w", name, err)
	}
	defer func() {
		if tx != nil {
			tx.Rollback()
		}
	}()

	commit := func() error {
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("%s: committing batch: %w", name, err)
		}
		tx, err = a.store.Begin()
		if err != nil {
			return fmt.Errorf("%s: starting transaction: %w", name, err)
		}
		pending = 0
		return nil
	}

	for {
		rec, err := reader.Next()
		if err == io.EOF {
			break
		}

		var rowErr *snapshot.RowError
		if errors.As(err, &rowErr) {
			stats.Processed++
			stats.Dropped++
			warnings.Add(warningForField(rowErr.Field), fmt.Sprintf("line %d", rowErr.Line))
			continue
		}
		if err != nil {
			return stats, fmt.Errorf("%s: reading snapshots: %w", name, err)
		}
		stats.Processed++

		obs, err := BuildObservation(rec)
		if err != nil {
			stats.Dropped++
			warnings.Add(WarningMissingJourneyID, fmt.Sprintf("line stop_area %s", rec.StopAreaID))
			continue
		}

		applied, err := a.store.UpsertObservationTx(tx, obs)
		if err != nil {
			// Store failures are fatal for the batch; the open
			// transaction rolls back so no merge is half applied.
			return stats, err
		}
		if applied {
			stats.Accepted++
		} else {
			stats.Stale++
		}

		pending++
		if pending >= a.commitEvery {
			if err := commit(); err != nil {
				return stats, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("%s: committing batch: %w", name, err)
	}
	tx = nil

	warnings.LogAll(name)
	return stats, nil
}

// ProcessFile merges one raw_*.csv file and renames it to *_parsed.csv
// so a rerun over the same directory never double-reads it.
func (a *Aggregator) ProcessFile(path string) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, fmt.Errorf("opening %s: %w", path, err)
	}

	stats, err := a.ProcessReader(f, filepath.Base(path))
	f.Close()
	if err != nil {
		return stats, err
	}

	parsed := strings.TrimSuffix(path, ".csv") + "_parsed.csv"
	if err := os.Rename(path, parsed); err != nil {
		return stats, fmt.Errorf("renaming %s: %w", path, err)
	}
	return stats, nil
}

// ProcessDirectory merges every pending raw_*.csv file in dir, oldest
// first (file names embed the poll timestamp, so name order is poll
// order).
func (a *Aggregator) ProcessDirectory(dir string) (Stats, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "raw_*.csv"))
	if err != nil {
		return Stats{}, fmt.Errorf("listing %s: %w", dir, err)
	}

	var files []string
	for _, m := range matches {
		if !strings.HasSuffix(m, "_parsed.csv") {
			files = append(files, m)
		}
	}
	sort.Strings(files)
	log.Printf("Found %d raw files in %s", len(files), dir)

	var total Stats
	for _, file := range files {
		log.Printf("Processing %s", filepath.Base(file))
		stats, err := a.ProcessFile(file)
		total = total.add(stats)
		if err != nil {
			return total, err
		}
	}

	log.Printf("Aggregation finished: %d rows processed, %d accepted, %d stale, %d dropped",
		total.Processed, total.Accepted, total.Stale, total.Dropped)
	return total, nil
}

func warningForField(field string) string {
	switch field {
	case "poll_timestamp":
		return WarningBadPollTimestamp
	case "scheduled_time":
		return WarningBadScheduledTimestamp
	case "delay_seconds":
		return WarningBadDelay
	case "data_freshness":
		return WarningBadFreshness
	default:
		return WarningMalformedRow
	}
}
