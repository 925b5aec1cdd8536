package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	lib "github.com/theoremus-urban-solutions/sncf-delay-aggregator"
	"github.com/theoremus-urban-solutions/sncf-delay-aggregator/aggregate"
	"github.com/theoremus-urban-solutions/sncf-delay-aggregator/config"
	"github.com/theoremus-urban-solutions/sncf-delay-aggregator/enrich"
	"github.com/theoremus-urban-solutions/sncf-delay-aggregator/export"
	"github.com/theoremus-urban-solutions/sncf-delay-aggregator/navitia"
	"github.com/theoremus-urban-solutions/sncf-delay-aggregator/rtfeed"
	"github.com/theoremus-urban-solutions/sncf-delay-aggregator/store"
)

func main() {
	mode := flag.String("mode", "", "stations|scrape|loop|aggregate|ingest-gtfsrt|enrich|export")
	configPath := flag.String("config", "", "config file path (overrides default lookup)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	rawDir := flag.String("rawDir", "", "raw snapshot directory (overrides config)")
	tripUpdates := flag.String("tripUpdates", "", "GTFS-RT TripUpdates URL (overrides config)")
	output := flag.String("out", "", "unified CSV output path (overrides config)")
	flag.Parse()

	lib.InitLogging()
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *rawDir != "" {
		cfg.Scraper.RawDir = *rawDir
	}
	if *tripUpdates != "" {
		cfg.GTFSRT.TripUpdatesURL = *tripUpdates
	}
	if *output != "" {
		cfg.Export.Output = *output
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Opening database %s: %v", cfg.Database.Path, err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "stations":
		client := newNavitiaClient(cfg)
		n, err := navitia.FetchStations(ctx, client, st)
		if err != nil {
			log.Fatalf("Fetching stations: %v", err)
		}
		log.Printf("Stored %d stations", n)

	case "scrape":
		scraper := newScraper(cfg, st)
		path, n, err := scraper.Run(ctx)
		if err != nil {
			log.Fatalf("Scrape round failed: %v", err)
		}
		log.Printf("Captured %d snapshots to %s", n, path)

	case "loop":
		runLoop(ctx, cfg, st)

	case "aggregate":
		agg := aggregate.New(st, cfg.Aggregator.CommitEvery)
		stats, err := agg.ProcessDirectory(cfg.Scraper.RawDir)
		if err != nil {
			log.Fatalf("Aggregation failed: %v", err)
		}
		log.Printf("Aggregated %d rows: %d accepted, %d stale, %d dropped",
			stats.Processed, stats.Accepted, stats.Stale, stats.Dropped)

	case "ingest-gtfsrt":
		if cfg.GTFSRT.TripUpdatesURL == "" {
			log.Fatal("No GTFS-RT trip updates URL configured")
		}
		path, n, err := rtfeed.Capture(cfg.GTFSRT.TripUpdatesURL, cfg.Scraper.RawDir)
		if err != nil {
			log.Fatalf("GTFS-RT capture failed: %v", err)
		}
		log.Printf("Captured %d snapshots to %s", n, path)

	case "enrich":
		days, err := enrich.PopulateCalendar(st)
		if err != nil {
			log.Fatalf("Calendar enrichment failed: %v", err)
		}
		log.Printf("Populated %d calendar days", days)

		provider := enrich.NewOpenMeteo()
		if cfg.Weather.BaseURL != "" {
			provider.BaseURL = cfg.Weather.BaseURL
		}
		rows, err := enrich.PopulateWeather(ctx, st, provider)
		if err != nil {
			log.Fatalf("Weather enrichment failed: %v", err)
		}
		log.Printf("Populated %d weather rows", rows)

	case "export":
		n, err := export.WriteUnified(st, cfg.Export.Output)
		if err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		log.Printf("Exported %d rows to %s", n, cfg.Export.Output)

	default:
		flag.Usage()
		os.Exit(2)
	}
}

func newNavitiaClient(cfg *config.AppConfig) *navitia.Client {
	client := navitia.NewClient(cfg.Navitia.Token())
	if cfg.Navitia.BaseURL != "" {
		client.BaseURL = cfg.Navitia.BaseURL
	}
	if cfg.Navitia.PageSize > 0 {
		client.PageSize = cfg.Navitia.PageSize
	}
	return client
}

func newScraper(cfg *config.AppConfig, st *store.Store) *navitia.Scraper {
	return &navitia.Scraper{
		Client: newNavitiaClient(cfg),
		Store:  st,
		RawDir: cfg.Scraper.RawDir,
	}
}

// runLoop alternates poll rounds and ingestion until interrupted, so a
// single process keeps the database current.
func runLoop(ctx context.Context, cfg *config.AppConfig, st *store.Store) {
	scraper := newScraper(cfg, st)
	agg := aggregate.New(st, cfg.Aggregator.CommitEvery)
	interval := time.Duration(cfg.Scraper.PollIntervalSec) * time.Second
	log.Printf("Polling every %s", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		path, n, err := scraper.Run(ctx)
		if err != nil {
			log.Printf("Scrape round failed: %v", err)
		} else {
			log.Printf("Captured %d snapshots to %s", n, path)
			if _, err := agg.ProcessFile(path); err != nil {
				log.Printf("Ingesting %s failed: %v", path, err)
			}
		}

		select {
		case <-ctx.Done():
			log.Print("Shutting down")
			return
		case <-ticker.C:
		}
	}
}
