package navitia

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("test-token")
	c.BaseURL = srv.URL
	c.PageDelay = time.Millisecond
	c.RetryInterval = time.Millisecond
	return c
}

func TestDeparturesRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"departures": [{"stop_date_time": {
			"base_departure_date_time": "20240301T100500",
			"departure_date_time": "20240301T100700",
			"data_freshness": "realtime"}}]}`))
	}))

	got, err := c.Departures(context.Background(), "sa:1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 departure, got %d", len(got))
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestDeparturesPermanentOnClientError(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))

	if _, err := c.Departures(context.Background(), "sa:unknown"); err == nil {
		t.Fatal("expected error for 404")
	}
	if calls.Load() != 1 {
		t.Errorf("404 should not be retried, got %d attempts", calls.Load())
	}
}

func TestDeparturesSendsRealtimeFreshness(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("data_freshness") != "realtime" {
			t.Errorf("missing data_freshness=realtime, got %q", r.URL.RawQuery)
		}
		if user, _, ok := r.BasicAuth(); !ok || user != "test-token" {
			t.Errorf("token not sent as basic auth user")
		}
		w.Write([]byte(`{"departures": []}`))
	}))

	if _, err := c.Departures(context.Background(), "sa:1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStopAreasPagination(t *testing.T) {
	pages := map[string]string{
		"0": `{"stop_areas": [{"id": "sa:1", "name": "One", "coord": {"lat": "48.1", "lon": "2.1"}}]}`,
		"1": `{"stop_areas": [{"id": "sa:2", "name": "Two", "coord": {"lat": "48.2", "lon": "2.2"}}]}`,
		"2": `{"stop_areas": []}`,
	}
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Query().Get("start_page")]
		if !ok {
			t.Errorf("unexpected page request %q", r.URL.Query().Get("start_page"))
			body = `{"stop_areas": []}`
		}
		w.Write([]byte(body))
	}))

	got, err := c.StopAreas(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 stop areas, got %d", len(got))
	}
	if got[0].ID != "sa:1" || got[1].ID != "sa:2" {
		t.Errorf("unexpected ids: %+v", got)
	}
}
