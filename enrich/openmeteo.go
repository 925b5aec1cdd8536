package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// OpenMeteoBaseURL is the historical weather archive endpoint; it needs
// no API key.
const OpenMeteoBaseURL = "https://archive-api.open-meteo.com/v1/archive"

var hourlyVariables = []string{
	"temperature_2m",
	"precipitation",
	"snowfall",
	"wind_speed_10m",
	"wind_gusts_10m",
	"visibility",
	"weather_code",
}

// OpenMeteo is the Provider backed by the Open-Meteo archive API.
type OpenMeteo struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewOpenMeteo() *OpenMeteo {
	return &OpenMeteo{
		BaseURL:    OpenMeteoBaseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type openMeteoResponse struct {
	Hourly struct {
		Time          []string   `json:"time"`
		Temperature   []*float64 `json:"temperature_2m"`
		Precipitation []*float64 `json:"precipitation"`
		Snowfall      []*float64 `json:"snowfall"`
		WindSpeed     []*float64 `json:"wind_speed_10m"`
		WindGust      []*float64 `json:"wind_gusts_10m"`
		Visibility    []*float64 `json:"visibility"`
		WeatherCode   []*int64   `json:"weather_code"`
	} `json:"hourly"`
}

// Hourly fetches the archive day containing hour and picks the matching
// hour bucket out of the response.
func (o *OpenMeteo) Hourly(ctx context.Context, lat, lon float64, hour time.Time) (*Observation, error) {
	day := hour.Format("2006-01-02")

	q := url.Values{
		"latitude":   {strconv.FormatFloat(lat, 'f', 4, 64)},
		"longitude":  {strconv.FormatFloat(lon, 'f', 4, 64)},
		"start_date": {day},
		"end_date":   {day},
		"hourly":     {joinVariables()},
		"timezone":   {"UTC"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("HTTP %d from open-meteo", resp.StatusCode)
	}

	var body openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding open-meteo response: %w", err)
	}

	want := hour.Format("2006-01-02T15:00")
	for i, t := range body.Hourly.Time {
		if t != want {
			continue
		}
		obs := &Observation{}
		pick := func(vals []*float64) *float64 {
			if i < len(vals) {
				return vals[i]
			}
			return nil
		}
		obs.Temperature = pick(body.Hourly.Temperature)
		obs.Precipitation = pick(body.Hourly.Precipitation)
		obs.Snowfall = pick(body.Hourly.Snowfall)
		obs.WindSpeed = pick(body.Hourly.WindSpeed)
		obs.WindGust = pick(body.Hourly.WindGust)
		obs.Visibility = pick(body.Hourly.Visibility)
		if i < len(body.Hourly.WeatherCode) {
			obs.WeatherCode = body.Hourly.WeatherCode[i]
		}
		return obs, nil
	}

	return nil, fmt.Errorf("hour %s not in open-meteo response", want)
}

func joinVariables() string {
	out := hourlyVariables[0]
	for _, v := range hourlyVariables[1:] {
		out += "," + v
	}
	return out
}
