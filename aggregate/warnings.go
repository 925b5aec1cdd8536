package aggregate

import (
	"fmt"
	"log"
	"strings"
)

// Warning type constants for dropped snapshot rows.
const (
	WarningBadPollTimestamp      = "bad_poll_timestamp"
	WarningBadScheduledTimestamp = "bad_scheduled_timestamp"
	WarningBadDelay              = "bad_delay"
	WarningBadFreshness          = "bad_freshness"
	WarningMissingJourneyID      = "missing_journey_id"
	WarningMalformedRow          = "malformed_row"
)

// warningInfo holds aggregated information about a specific warning type
type warningInfo struct {
	count    int
	examples []string
}

// WarningAggregator collects per-row warnings during a batch and
// outputs one consolidated line per warning type instead of a line per
// dropped row.
type WarningAggregator struct {
	warnings map[string]*warningInfo
}

// NewWarningAggregator creates a new warning aggregator
func NewWarningAggregator() *WarningAggregator {
	return &WarningAggregator{
		warnings: make(map[string]*warningInfo),
	}
}

// Add records a warning occurrence with an example identifier
func (w *WarningAggregator) Add(warningType, exampleID string) {
	if w.warnings[warningType] == nil {
		w.warnings[warningType] = &warningInfo{
			examples: make([]string, 0, 3),
		}
	}

	info := w.warnings[warningType]
	info.count++

	// Store up to 3 examples
	if len(info.examples) < 3 {
		info.examples = append(info.examples, exampleID)
	}
}

// Total returns the number of warnings recorded so far.
func (w *WarningAggregator) Total() int {
	n := 0
	for _, info := range w.warnings {
		n += info.count
	}
	return n
}

// LogAll outputs all collected warnings in consolidated format
func (w *WarningAggregator) LogAll(batchName string) {
	for warningType, info := range w.warnings {
		log.Printf("%s", w.formatWarningMessage(warningType, batchName, info))
	}
}

func (w *WarningAggregator) formatWarningMessage(warningType, batchName string, info *warningInfo) string {
	var description string

	switch warningType {
	case WarningBadPollTimestamp:
		description = "rows with unparseable poll_timestamp"
	case WarningBadScheduledTimestamp:
		description = "rows with unparseable scheduled_time"
	case WarningBadDelay:
		description = "rows with non-integer delay_seconds"
	case WarningBadFreshness:
		description = "rows with unknown data_freshness"
	case WarningMissingJourneyID:
		description = "rows with no vehicle_journey_id"
	default:
		description = "malformed rows"
	}

	examplesStr := strings.Join(info.examples, ", ")

	return fmt.Sprintf("Batch %s dropped %s (%d occurrences). Examples: %s",
		batchName, description, info.count, examplesStr)
}
