package rtfeed

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/theoremus-urban-solutions/sncf-delay-aggregator/snapshot"
)

// Capture fetches one TripUpdates feed and writes its snapshots as a
// raw CSV file into rawDir, in the same layout the Navitia scraper
// produces, so one aggregation pass handles both sources.
func Capture(url, rawDir string) (string, int, error) {
	fm, err := FetchFeed(url)
	if err != nil {
		return "", 0, err
	}

	snaps := Snapshots(fm, time.Now().UTC())
	if len(snaps) == 0 {
		return "", 0, fmt.Errorf("feed %s produced no usable trip updates", url)
	}

	if err := os.MkdirAll(rawDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("creating raw dir: %w", err)
	}
	path := filepath.Join(rawDir, "raw_"+snaps[0].PollTimestamp.Format("2006-01-02_15-04")+".csv")

	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := snapshot.NewWriter(f)
	for _, s := range snaps {
		if err := w.Write(s); err != nil {
			return path, 0, fmt.Errorf("writing %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return path, 0, fmt.Errorf("flushing %s: %w", path, err)
	}

	log.Printf("Captured %d snapshots from %s into %s", len(snaps), url, filepath.Base(path))
	return path, len(snaps), nil
}
