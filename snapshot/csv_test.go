package snapshot

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	rt := time.Date(2024, 3, 1, 10, 7, 0, 0, time.UTC)
	delay := int64(120)

	in := []RawSnapshot{
		{
			PollTimestamp:    time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
			StopAreaID:       "stop_area:SNCF:87686006",
			VehicleJourneyID: "vehicle_journey:SNCF:88701",
			ScheduledTime:    time.Date(2024, 3, 1, 10, 5, 0, 0, time.UTC),
			RealtimeTime:     &rt,
			DelaySeconds:     &delay,
			Freshness:        TierRealtime,
			TrainType:        "TER",
			IsTerminus:       true,
			DisruptionID:     "disruption:1",
		},
		{
			PollTimestamp:    time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
			StopAreaID:       "stop_area:SNCF:87686006",
			VehicleJourneyID: "vehicle_journey:SNCF:88702",
			ScheduledTime:    time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC),
			Freshness:        TierScheduledOnly,
		},
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, s := range in {
		if err := w.Write(s); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	r, err := NewReader(&buf)
	if err != nil {
		t.Fatalf("reader: %v", err)
	}

	var out []RawSnapshot
	for {
		s, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		out = append(out, s)
	}

	if len(out) != len(in) {
		t.Fatalf("expected %d rows, got %d", len(in), len(out))
	}
	if out[0].StopAreaID != in[0].StopAreaID || !out[0].IsTerminus {
		t.Errorf("first row mismatch: %+v", out[0])
	}
	if out[0].RealtimeTime == nil || !out[0].RealtimeTime.Equal(rt) {
		t.Errorf("realtime time mismatch: %v", out[0].RealtimeTime)
	}
	if out[0].DelaySeconds == nil || *out[0].DelaySeconds != 120 {
		t.Errorf("delay mismatch: %v", out[0].DelaySeconds)
	}
	if out[1].RealtimeTime != nil || out[1].DelaySeconds != nil {
		t.Errorf("second row should have no realtime fields: %+v", out[1])
	}
}

// A malformed row yields a RowError and the reader continues with the
// next row, so one bad poll record never loses the rest of the file.
func TestReaderBadRowRecovery(t *testing.T) {
	data := strings.Join([]string{
		strings.Join(Header, ","),
		"2024-03-01T10:00:00,sa:1,vj:1,2024-03-01T10:05:00,,,scheduled_only,TER,false,",
		"not-a-timestamp,sa:1,vj:2,2024-03-01T10:06:00,,,scheduled_only,,false,",
		"2024-03-01T10:00:00,sa:1,vj:3,2024-03-01T10:07:00,,,realtime,TGV,false,",
	}, "\n")

	r, err := NewReader(strings.NewReader(data))
	if err != nil {
		t.Fatalf("reader: %v", err)
	}

	var good, bad int
	for {
		_, err := r.Next()
		if err == io.EOF {
			break
		}
		var rowErr *RowError
		if errors.As(err, &rowErr) {
			if rowErr.Field != "poll_timestamp" {
				t.Errorf("expected poll_timestamp error, got %s", rowErr.Field)
			}
			bad++
			continue
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		good++
	}

	if good != 2 || bad != 1 {
		t.Errorf("expected 2 good and 1 bad row, got %d and %d", good, bad)
	}
}

func TestReaderLegacyFreshnessValue(t *testing.T) {
	data := strings.Join(Header, ",") + "\n" +
		"2024-03-01T10:00:00,sa:1,vj:1,2024-03-01T10:05:00,,,base_schedule,,false,\n"

	r, err := NewReader(strings.NewReader(data))
	if err != nil {
		t.Fatalf("reader: %v", err)
	}
	s, err := r.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if s.Freshness != TierScheduledOnly {
		t.Errorf("expected scheduled_only, got %q", s.Freshness)
	}
}

func TestReaderMissingRequiredColumn(t *testing.T) {
	data := "poll_timestamp,stop_area_id\n2024-03-01T10:00:00,sa:1\n"
	if _, err := NewReader(strings.NewReader(data)); err == nil {
		t.Error("expected error for missing required columns")
	}
}
