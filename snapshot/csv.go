package snapshot

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Header is the column layout of raw poll files, one file per poll round.
var Header = []string{
	"poll_timestamp",
	"stop_area_id",
	"vehicle_journey_id",
	"scheduled_time",
	"realtime_time",
	"delay_seconds",
	"data_freshness",
	"train_type",
	"is_terminus",
	"disruption_id",
}

// RowError reports a single malformed row. Readers keep going after
// one: a bad row is dropped by the caller, never fatal for the file.
type RowError struct {
	Line  int
	Field string
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: bad %s: %v", e.Line, e.Field, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Writer emits raw snapshot CSV files.
type Writer struct {
	w           *csv.Writer
	wroteHeader bool
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: csv.NewWriter(w)}
}

func (w *Writer) Write(s RawSnapshot) error {
	if !w.wroteHeader {
		if err := w.w.Write(Header); err != nil {
			return err
		}
		w.wroteHeader = true
	}

	rt := ""
	if s.RealtimeTime != nil {
		rt = FormatTimestamp(*s.RealtimeTime)
	}
	delay := ""
	if s.DelaySeconds != nil {
		delay = strconv.FormatInt(*s.DelaySeconds, 10)
	}

	return w.w.Write([]string{
		FormatTimestamp(s.PollTimestamp),
		s.StopAreaID,
		s.VehicleJourneyID,
		FormatTimestamp(s.ScheduledTime),
		rt,
		delay,
		string(s.Freshness),
		s.TrainType,
		strconv.FormatBool(s.IsTerminus),
		s.DisruptionID,
	})
}

func (w *Writer) Flush() error {
	w.w.Flush()
	return w.w.Error()
}

// Reader decodes raw snapshot CSV files. Columns are located by header
// name so files with reordered or extra columns still load.
type Reader struct {
	r    *csv.Reader
	cols map[string]int
	line int
}

func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, required := range []string{"poll_timestamp", "stop_area_id", "vehicle_journey_id", "scheduled_time"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("header missing column %q", required)
		}
	}
	return &Reader{r: cr, cols: cols, line: 1}, nil
}

// Next returns the next snapshot. It returns io.EOF at end of file, a
// *RowError for a malformed row (the reader stays usable), and any
// other error for unrecoverable I/O problems.
func (r *Reader) Next() (RawSnapshot, error) {
	record, err := r.r.Read()
	if err != nil {
		return RawSnapshot{}, err
	}
	r.line++

	field := func(name string) string {
		i, ok := r.cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}
	rowErr := func(name string, err error) (RawSnapshot, error) {
		return RawSnapshot{}, &RowError{Line: r.line, Field: name, Err: err}
	}

	var s RawSnapshot

	if s.PollTimestamp, err = ParseTimestamp(field("poll_timestamp")); err != nil {
		return rowErr("poll_timestamp", err)
	}
	if s.ScheduledTime, err = ParseTimestamp(field("scheduled_time")); err != nil {
		return rowErr("scheduled_time", err)
	}
	s.StopAreaID = field("stop_area_id")
	s.VehicleJourneyID = field("vehicle_journey_id")
	s.TrainType = field("train_type")
	s.DisruptionID = field("disruption_id")

	// Optional realtime confirmation: an unparseable value means the
	// upstream had nothing usable, same as absence.
	if v := field("realtime_time"); v != "" {
		if t, err := ParseTimestamp(v); err == nil {
			s.RealtimeTime = &t
		}
	}

	if v := field("delay_seconds"); v != "" {
		d, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return rowErr("delay_seconds", err)
		}
		s.DelaySeconds = &d
	}

	if s.Freshness, err = ParseTier(field("data_freshness")); err != nil {
		return rowErr("data_freshness", err)
	}

	if v := field("is_terminus"); v != "" {
		// Python's scraper wrote True/False; strconv accepts both.
		if b, err := strconv.ParseBool(v); err == nil {
			s.IsTerminus = b
		}
	}

	return s, nil
}
