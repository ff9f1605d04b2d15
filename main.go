package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonesrussell/partner-finder/internal/api"
	"github.com/jonesrussell/partner-finder/internal/cache"
	"github.com/jonesrussell/partner-finder/internal/config"
	"github.com/jonesrussell/partner-finder/internal/embedder"
	"github.com/jonesrussell/partner-finder/internal/enrich"
	"github.com/jonesrussell/partner-finder/internal/geo"
	"github.com/jonesrussell/partner-finder/internal/geocode"
	"github.com/jonesrussell/partner-finder/internal/httputil"
	"github.com/jonesrussell/partner-finder/internal/logger"
	"github.com/jonesrussell/partner-finder/internal/profiling"
	"github.com/jonesrussell/partner-finder/internal/registry"
	"github.com/jonesrussell/partner-finder/internal/scoring"
	"github.com/jonesrussell/partner-finder/internal/service"
	"github.com/jonesrussell/partner-finder/internal/telemetry"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(config.GetConfigPath("config.yml"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	log, err := createLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	profiler, err := profiling.Start(cfg.Profiling, log)
	if err != nil {
		log.Warn("continuous profiling failed to start", logger.Error(err))
	} else if profiler != nil {
		defer profiler.Stop() //nolint:errcheck // best-effort cleanup
	}

	log.Info("starting partner-finder",
		logger.String("name", cfg.Service.Name),
		logger.String("environment", cfg.Service.Environment),
		logger.Int("port", cfg.Service.Port),
	)

	store, err := createCache(cfg, log)
	if err != nil {
		log.Error("failed to create cache", logger.Error(err))
		return 1
	}

	engine, err := createEngine(cfg, log)
	if err != nil {
		log.Error("failed to create ranking engine", logger.Error(err))
		return 1
	}

	return runServer(cfg, store, engine, log)
}

// createLogger creates the service logger from configuration.
func createLogger(cfg *config.Config) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Environment == "development",
	})
	if err != nil {
		return nil, err
	}
	return log.With(logger.String("service", cfg.Service.Name)), nil
}

// createCache picks the cache backend from configuration.
func createCache(cfg *config.Config, log logger.Logger) (cache.Store, error) {
	if cfg.Cache.Backend == "redis" {
		log.Info("using redis cache", logger.String("url", cfg.Cache.RedisURL))
		return cache.NewRedis(cfg.Cache.RedisURL, log)
	}
	return cache.NewMemory(nil), nil
}

// createEngine builds the partnership ranking engine from the mission
// configuration. The embedding sidecar is optional; without one the mission
// analyzer runs keyword-only.
func createEngine(cfg *config.Config, log logger.Logger) (*scoring.Engine, error) {
	keywords, err := scoring.LoadKeywordConfig(cfg.Scoring.MissionConfigPath, log)
	if err != nil {
		return nil, err
	}

	var emb embedder.TextEmbedder
	if cfg.Embedder.URL != "" {
		emb = embedder.NewClient(cfg.Embedder.URL, httputil.NewClient(cfg.Embedder.Timeout))
		log.Info("semantic scoring enabled", logger.String("embedder_url", cfg.Embedder.URL))
	}

	mission := scoring.NewMissionAnalyzer(keywords, emb, log)
	roi := scoring.NewROICalculator(scoring.DefaultAssumptions())
	return scoring.NewEngine(mission, roi, log), nil
}

// runServer wires the service dependencies and runs until shutdown.
func runServer(cfg *config.Config, store cache.Store, engine *scoring.Engine, log logger.Logger) int {
	metrics := telemetry.NewMetrics()

	resolver := geo.NewResolver(
		geocode.New(geocode.Config{
			BaseURL:    cfg.Geocoder.BaseURL,
			HTTPClient: httputil.NewClient(cfg.Geocoder.Timeout),
		}, log),
		store,
		cfg.Cache.TTL,
		metrics,
		log,
	)

	registryClient := registry.New(registry.Config{
		BaseURL:    cfg.Registry.BaseURL,
		UserAgent:  cfg.Registry.UserAgent,
		MaxRetries: cfg.Registry.MaxRetries,
		HTTPClient: httputil.NewClient(cfg.Registry.Timeout),
	}, log)

	scraper := enrich.NewScraper(httputil.NewClient(cfg.Enrich.Timeout), cfg.Enrich.UserAgent, log)

	svc := service.New(
		service.Config{
			Caps: geo.Caps{
				ExactCityMax:      cfg.Tiering.ExactCityMax,
				CountyMax:         cfg.Tiering.CountyMax,
				StateMax:          cfg.Tiering.StateMax,
				BackfillThreshold: cfg.Tiering.BackfillThreshold,
			},
			CacheTTL:      cfg.Cache.TTL,
			EnrichEnabled: cfg.Enrich.Enabled,
			EnrichTimeout: cfg.Enrich.Timeout,
		},
		service.Deps{
			Resolver: resolver,
			Registry: registryClient,
			Store:    store,
			Ranker:   engine,
			Enricher: scraper,
			Metrics:  metrics,
			Log:      log,
		},
	)

	server := api.NewServer(cfg.Service, api.NewHandler(svc, log), log)

	if err := server.RunWithGracefulShutdown(context.Background()); err != nil {
		log.Error("server error", logger.Error(err))
		return 1
	}

	svc.WaitForEnrichment()
	log.Info("partner-finder exited cleanly")
	return 0
}
