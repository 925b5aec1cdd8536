package config

// DatabaseConfig contains the SQLite database location
type DatabaseConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// NavitiaConfig contains SNCF Navitia API access configuration.
// The token is read from the environment variable named by TokenEnv
// so the API key never lives in the config file.
type NavitiaConfig struct {
	BaseURL  string `yaml:"baseURL" validate:"omitempty,url"`
	TokenEnv string `yaml:"tokenEnv"`
	PageSize int    `yaml:"pageSize" validate:"gte=0"`
}

// ScraperConfig contains departure polling configuration
type ScraperConfig struct {
	RawDir          string `yaml:"rawDir"`
	PollIntervalSec int    `yaml:"pollIntervalSec" validate:"gte=0"`
}

// GTFSRTConfig contains the GTFS-Realtime trip updates feed configuration
type GTFSRTConfig struct {
	TripUpdatesURL string `yaml:"tripUpdatesURL" validate:"omitempty,url"`
	TimeoutMS      int    `yaml:"timeoutMS" validate:"gte=0"`
}

// AggregatorConfig contains ingestion tuning
type AggregatorConfig struct {
	CommitEvery int `yaml:"commitEvery" validate:"gte=0"`
}

// WeatherConfig contains the hourly weather archive endpoint
type WeatherConfig struct {
	BaseURL string `yaml:"baseURL" validate:"omitempty,url"`
}

// ExportConfig contains the unified dataset output location
type ExportConfig struct {
	Output string `yaml:"output"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Database   DatabaseConfig   `yaml:"database" validate:"required"`
	Navitia    NavitiaConfig    `yaml:"navitia"`
	Scraper    ScraperConfig    `yaml:"scraper"`
	GTFSRT     GTFSRTConfig     `yaml:"gtfsrt"`
	Aggregator AggregatorConfig `yaml:"aggregator"`
	Weather    WeatherConfig    `yaml:"weather"`
	Export     ExportConfig     `yaml:"export"`
}
