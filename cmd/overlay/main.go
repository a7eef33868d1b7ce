package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/sterileloop/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/sterileloop/internal/adapter/kafka"
	"github.com/couchcryptid/sterileloop/internal/adapter/mapbox"
	"github.com/couchcryptid/sterileloop/internal/config"
	"github.com/couchcryptid/sterileloop/internal/dataset"
	"github.com/couchcryptid/sterileloop/internal/domain"
	"github.com/couchcryptid/sterileloop/internal/emissions"
	"github.com/couchcryptid/sterileloop/internal/impact"
	"github.com/couchcryptid/sterileloop/internal/observability"
	"github.com/couchcryptid/sterileloop/internal/overlay"
	"github.com/couchcryptid/sterileloop/internal/pipeline"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	if err := run(cfg, logger, metrics); err != nil {
		logger.Error("service failed", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func run(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	providers, err := dataset.ReadProviders(cfg.ProvidersPath)
	if err != nil {
		// The overlay still works without providers; only the locator is empty.
		logger.Warn("providers unavailable", "path", cfg.ProvidersPath, "error", err)
	} else {
		logger.Info("providers loaded", "path", cfg.ProvidersPath, "count", len(providers))
	}

	assumptions := impact.DefaultAssumptions()
	if cfg.AssumptionsPath != "" {
		if assumptions, err = impact.LoadAssumptions(cfg.AssumptionsPath); err != nil {
			return fmt.Errorf("load assumptions: %w", err)
		}
	}

	var co2 *emissions.Dataset
	if cfg.EmissionsPath != "" {
		ds, err := loadEmissions(cfg.EmissionsPath)
		if err != nil {
			logger.Warn("emissions data unavailable", "path", cfg.EmissionsPath, "error", err)
		} else {
			co2 = &ds
			logger.Info("emissions data loaded", "path", cfg.EmissionsPath, "rows", len(ds.Rows))
		}
	}

	var source dataset.Source = dataset.NewFileSource(cfg.DatasetPath)
	if cfg.DatasetURL != "" {
		source = dataset.NewHTTPSource(cfg.DatasetURL, cfg.DatasetTimeout)
	}

	store := overlay.NewStore()
	loaders := []pipeline.Loader{store}
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, metrics, logger)
		loaders = append(loaders, writer)
		logger.Info("kafka overlay publishing enabled", "topic", cfg.KafkaOverlayTopic, "brokers", cfg.KafkaBrokers)
	}

	p := pipeline.New(
		dataset.NewLoader(source, logger),
		pipeline.NewTransformer(geocoder, logger),
		loaders,
		logger,
		metrics,
		pipeline.WithRefreshInterval(cfg.RefreshInterval),
	)

	api := httpadapter.NewAPI(httpadapter.Deps{
		Snapshots:   store,
		Reloader:    p,
		Providers:   providers,
		Geocoder:    geocoder,
		Emissions:   co2,
		Assumptions: assumptions,
		Metrics:     metrics,
		Logger:      logger,
	})
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, api, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return p.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http server shutdown: %w", err))
		}
		if writer != nil {
			if err := writer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("kafka writer close: %w", err))
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

func loadEmissions(path string) (emissions.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return emissions.Dataset{}, err
	}
	defer f.Close()
	return emissions.Parse(f)
}
