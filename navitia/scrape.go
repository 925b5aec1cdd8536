package navitia

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/theoremus-urban-solutions/sncf-delay-aggregator/snapshot"
	"github.com/theoremus-urban-solutions/sncf-delay-aggregator/store"
)

// FetchStations downloads the full stop-area listing into the
// reference table. Existing rows are kept as-is.
func FetchStations(ctx context.Context, client *Client, st *store.Store) (int, error) {
	stopAreas, err := client.StopAreas(ctx)
	if err != nil {
		return 0, err
	}
	for _, sa := range stopAreas {
		if err := st.InsertStation(ToStation(sa)); err != nil {
			return 0, err
		}
	}
	log.Printf("Total stop areas processed: %d", len(stopAreas))
	return len(stopAreas), nil
}

// Scraper runs poll rounds: one departures call per known station, all
// results flattened into one raw CSV file per round.
type Scraper struct {
	Client *Client
	Store  *store.Store
	RawDir string
}

// Run performs one poll round and returns the written file path and the
// number of snapshots captured. A station whose fetch fails after
// retries is logged and skipped; its trains simply go unobserved this
// round.
func (s *Scraper) Run(ctx context.Context) (string, int, error) {
	stopAreas, err := s.Store.StopAreaIDs()
	if err != nil {
		return "", 0, err
	}
	log.Printf("Polling %d stop areas", len(stopAreas))

	if err := os.MkdirAll(s.RawDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("creating raw dir: %w", err)
	}

	pollTime := time.Now().UTC()
	path := filepath.Join(s.RawDir, "raw_"+pollTime.Format("2006-01-02_15-04")+".csv")

	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	w := snapshot.NewWriter(f)

	var captured int
	for _, stopAreaID := range stopAreas {
		select {
		case <-ctx.Done():
			return path, captured, ctx.Err()
		default:
		}

		departures, err := s.Client.Departures(ctx, stopAreaID)
		if err != nil {
			log.Printf("Giving up on %s: %v", stopAreaID, err)
			continue
		}

		for _, snap := range ExtractSnapshots(departures, stopAreaID, pollTime) {
			if err := w.Write(snap); err != nil {
				return path, captured, fmt.Errorf("writing %s: %w", path, err)
			}
			captured++
		}
	}

	if err := w.Flush(); err != nil {
		return path, captured, fmt.Errorf("flushing %s: %w", path, err)
	}
	log.Printf("Poll round complete: %d snapshots in %s", captured, filepath.Base(path))
	return path, captured, nil
}
