package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/ncr-risk-service/internal/adapter/http"
	"github.com/couchcryptid/ncr-risk-service/internal/adapter/mapbox"
	"github.com/couchcryptid/ncr-risk-service/internal/config"
	"github.com/couchcryptid/ncr-risk-service/internal/dataset"
	"github.com/couchcryptid/ncr-risk-service/internal/domain"
	"github.com/couchcryptid/ncr-risk-service/internal/observability"
	"github.com/couchcryptid/ncr-risk-service/internal/pipeline"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	var opts []pipeline.Option
	// Coordinate enrichment is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		geocoder := mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		opts = append(opts, pipeline.WithGeocoder(geocoder, cfg.MapboxRegion))
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	loader := dataset.NewLoader(cfg.DataPath, cfg.IDColumn)
	km := domain.NewKMeans(cfg.KMeansSeed, cfg.KMeansInits)
	p := pipeline.New(loader, km, logger, metrics, opts...)

	if err := p.CheckReadiness(context.Background()); err != nil {
		logger.Warn("dataset not available yet", "path", loader.Path(), "error", err)
	}

	gin.SetMode(gin.ReleaseMode)
	srv := httpadapter.NewServer(cfg, p, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
