package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Load reads and validates the application configuration. When path is
// empty a short list of conventional locations is tried in order.
func Load(path string) (*AppConfig, error) {
	paths := []string{"config.yml", "./configs/config.yml"}
	if path != "" {
		paths = []string{path}
	}
	var data []byte
	var err error
	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Navitia.TokenEnv == "" {
		cfg.Navitia.TokenEnv = "SNCF_API_TOKEN"
	}
	if cfg.Scraper.RawDir == "" {
		cfg.Scraper.RawDir = "data/raw"
	}
	if cfg.Scraper.PollIntervalSec == 0 {
		cfg.Scraper.PollIntervalSec = 120
	}
	if cfg.Aggregator.CommitEvery == 0 {
		cfg.Aggregator.CommitEvery = 1000
	}
	if cfg.Export.Output == "" {
		cfg.Export.Output = "data/unified.csv"
	}
}

// Token resolves the Navitia API key from the configured environment
// variable. An empty string means unauthenticated access.
func (c NavitiaConfig) Token() string {
	return os.Getenv(c.TokenEnv)
}
