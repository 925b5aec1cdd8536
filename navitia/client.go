package navitia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultBaseURL is the SNCF coverage of the Navitia v1 API.
const DefaultBaseURL = "https://api.sncf.com/v1/coverage/sncf"

const (
	defaultPageSize   = 200
	defaultPageDelay  = 200 * time.Millisecond
	defaultMaxRetries = 5
)

// httpError carries the status code so retry policy can branch on it.
type httpError struct {
	url        string
	status     string
	statusCode int
}

func (e *httpError) Error() string {
	return fmt.Sprintf("%s: %s", e.url, e.status)
}

func retryable(e *httpError) bool {
	return e.statusCode == http.StatusTooManyRequests ||
		(e.statusCode >= 500 && e.statusCode < 600)
}

// Client talks to the Navitia API. The token is sent as HTTP Basic
// username with an empty password, per the SNCF API convention.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client

	PageSize      int
	PageDelay     time.Duration
	RetryInterval time.Duration
}

func NewClient(token string) *Client {
	return &Client{
		BaseURL:       DefaultBaseURL,
		Token:         token,
		HTTPClient:    &http.Client{Timeout: 30 * time.Second},
		PageSize:      defaultPageSize,
		PageDelay:     defaultPageDelay,
		RetryInterval: 2 * time.Second,
	}
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.Token, "")
	req.URL.RawQuery = query.Encode()

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return &httpError{
			url:        req.URL.Redacted(),
			status:     resp.Status,
			statusCode: resp.StatusCode,
		}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// StopAreasPage fetches one page of the stop-area listing.
func (c *Client) StopAreasPage(ctx context.Context, startPage int) ([]StopArea, error) {
	var out stopAreasResponse
	err := c.getJSON(ctx, "/stop_areas", url.Values{
		"start_page": {strconv.Itoa(startPage)},
		"count":      {strconv.Itoa(c.PageSize)},
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.StopAreas, nil
}

// StopAreas walks the paginated stop-area listing until an empty page,
// pausing between pages to stay under the API rate limit.
func (c *Client) StopAreas(ctx context.Context) ([]StopArea, error) {
	var all []StopArea
	for page := 0; ; page++ {
		stopAreas, err := c.StopAreasPage(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("stop areas page %d: %w", page, err)
		}
		if len(stopAreas) == 0 {
			return all, nil
		}
		all = append(all, stopAreas...)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.PageDelay):
		}
	}
}

// Departures fetches the realtime departure board of one stop area.
// Rate limiting, 5xx responses and network errors are retried with
// exponential backoff up to a bounded attempt count; any other HTTP
// error is permanent.
func (c *Client) Departures(ctx context.Context, stopAreaID string) ([]Departure, error) {
	b := backoff.WithContext(backoff.WithMaxRetries(&backoff.ExponentialBackOff{
		InitialInterval:     c.RetryInterval,
		RandomizationFactor: 0.5,
		Multiplier:          2,
		MaxInterval:         30 * time.Second,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}, defaultMaxRetries), ctx)

	return backoff.RetryNotifyWithData(
		func() ([]Departure, error) {
			var out departuresResponse
			err := c.getJSON(ctx, "/stop_areas/"+stopAreaID+"/departures", url.Values{
				"data_freshness": {"realtime"},
			}, &out)
			if httpErr, ok := err.(*httpError); ok && !retryable(httpErr) {
				return nil, backoff.Permanent(err)
			}
			if err != nil {
				return nil, err
			}
			return out.Departures, nil
		},
		b,
		func(err error, d time.Duration) {
			log.Printf("Retrying %s in %s: %v", stopAreaID, d.Round(time.Millisecond), err)
		},
	)
}
