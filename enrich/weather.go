package enrich

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/theoremus-urban-solutions/sncf-delay-aggregator/store"
)

// Observation is one hour of weather at one location. Fields a source
// does not know stay nil and export as SQL NULLs.
type Observation struct {
	Temperature   *float64
	Precipitation *float64
	Snowfall      *float64
	WindSpeed     *float64
	WindGust      *float64
	Visibility    *float64
	WeatherCode   *int64
}

// Provider abstracts a historical weather source.
type Provider interface {
	Hourly(ctx context.Context, lat, lon float64, hour time.Time) (*Observation, error)
}

// PopulateWeather fills the weather table for every (stop area, hour)
// pair the trains table needs. Lookups are cached per (location, hour)
// within the run; a failed lookup is logged and skipped, never fatal.
func PopulateWeather(ctx context.Context, st *store.Store, provider Provider) (int, error) {
	log.Printf("Populating weather table")

	keys, err := st.WeatherJoinKeys()
	if err != nil {
		return 0, err
	}

	cache := make(map[string]*Observation)
	var rows []store.WeatherRow

	for _, k := range keys {
		cacheKey := fmt.Sprintf("%.4f:%.4f:%s", k.Latitude, k.Longitude, k.Hour.Format("2006-01-02T15"))

		obs, ok := cache[cacheKey]
		if !ok {
			obs, err = provider.Hourly(ctx, k.Latitude, k.Longitude, k.Hour)
			if err != nil {
				log.Printf("Weather fetch failed for %s at %s: %v", k.StopAreaID, k.Hour.Format("2006-01-02T15:00"), err)
				obs = nil
			}
			cache[cacheKey] = obs
		}
		if obs == nil {
			continue
		}

		rows = append(rows, store.WeatherRow{
			StopAreaID:    k.StopAreaID,
			WeatherHour:   k.Hour,
			Temperature:   obs.Temperature,
			Precipitation: obs.Precipitation,
			Snowfall:      obs.Snowfall,
			WindSpeed:     obs.WindSpeed,
			WindGust:      obs.WindGust,
			Visibility:    obs.Visibility,
			WeatherCode:   obs.WeatherCode,
		})
	}

	if err := st.InsertWeatherRows(rows); err != nil {
		return 0, err
	}
	log.Printf("Weather rows inserted: %d", len(rows))
	return len(rows), nil
}
