package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/couchcryptid/ncr-risk-service/internal/config"
	"github.com/couchcryptid/ncr-risk-service/internal/dataset"
	"github.com/couchcryptid/ncr-risk-service/internal/domain"
	"github.com/couchcryptid/ncr-risk-service/internal/export"
	"github.com/couchcryptid/ncr-risk-service/internal/observability"
	"github.com/couchcryptid/ncr-risk-service/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// RiskService scores the dataset for each request.
type RiskService interface {
	Records(ctx context.Context, city, hazard string) (domain.View, error)
	Summary(ctx context.Context, city string) ([]domain.TierSummary, error)
	CheckReadiness(ctx context.Context) error
}

// Server exposes the risk API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	svc        RiskService
	limiter    *rate.Limiter
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates an HTTP server with the /api routes, /healthz, /readyz,
// and /metrics.
func NewServer(cfg *config.Config, svc RiskService, logger *slog.Logger, metrics *observability.Metrics) *Server {
	engine := gin.New()

	s := &Server{
		httpServer: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      engine,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		svc:     svc,
		limiter: rate.NewLimiter(rate.Limit(cfg.ExportRateLimit), cfg.ExportBurst),
		logger:  logger,
		metrics: metrics,
	}

	engine.Use(gin.Recovery(), s.logRequests(), cors.New(corsConfig(cfg.CORSOrigins)))

	engine.GET("/healthz", gin.WrapF(sharedobs.LivenessHandler()))
	engine.GET("/readyz", gin.WrapF(sharedobs.ReadinessHandler(svc)))
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api")
	api.GET("/risk-data", s.handleRiskData)
	api.GET("/risk-summary", s.handleRiskSummary)

	exports := api.Group("", s.throttle())
	exports.GET("/export_excel", s.handleExport(export.FormatSpreadsheet))
	exports.GET("/export_pdf", s.handleExport(export.FormatDocument))

	return s
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleRiskData serves the scored records filtered by ?city= and ?hazard=.
// No matching city is an empty array with status 200.
func (s *Server) handleRiskData(c *gin.Context) {
	view, err := s.svc.Records(c.Request.Context(), c.Query("city"), c.Query("hazard"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.render(c, export.FormatRecords, view, false)
}

func (s *Server) handleRiskSummary(c *gin.Context) {
	summary, err := s.svc.Summary(c.Request.Context(), c.Query("city"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.metrics.Exports.WithLabelValues("summary", "success").Inc()
	c.JSON(http.StatusOK, summary)
}

// handleExport renders the filtered view as an attachment. Spreadsheets
// reject an empty selection with 400; documents render a placeholder row.
func (s *Server) handleExport(format export.Format) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := s.svc.Records(c.Request.Context(), c.Query("city"), c.Query("hazard"))
		if err != nil {
			s.writeError(c, err)
			return
		}
		s.render(c, format, view, true)
	}
}

// render writes view in format through the export package, buffering so a
// failed render never sends a partial body.
func (s *Server) render(c *gin.Context, format export.Format, view domain.View, attachment bool) {
	var buf bytes.Buffer
	err := export.Write(&buf, format, view)
	s.countExport(format, view.Len() == 0, err)
	if errors.Is(err, export.ErrNothingToExport) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No data to export for selected cities"})
		return
	}
	if err != nil {
		s.logger.Error("export failed", "format", string(format), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	if attachment {
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, format.Filename()))
	}
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (s *Server) countExport(format export.Format, empty bool, err error) {
	outcome := "success"
	switch {
	case errors.Is(err, export.ErrNothingToExport), err == nil && empty:
		outcome = "empty"
	case err != nil:
		outcome = "error"
	}
	s.metrics.Exports.WithLabelValues(format.MetricLabel(), outcome).Inc()
}

// writeError maps pipeline failures to status codes: a missing dataset is
// 404, a dataset that cannot be scored is 422, anything else is 500.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dataset.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "data file not found"})
	case pipeline.IsInvalidData(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, context.Canceled):
		c.Status(499)
	default:
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// throttle rejects export requests beyond the configured rate with 429.
func (s *Server) throttle() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Allow() {
			s.metrics.ExportsThrottled.Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many export requests"})
			return
		}
		c.Next()
	}
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
