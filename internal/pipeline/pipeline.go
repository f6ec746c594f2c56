package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/ncr-risk-service/internal/dataset"
	"github.com/couchcryptid/ncr-risk-service/internal/domain"
	"github.com/couchcryptid/ncr-risk-service/internal/observability"
)

// Source reads the raw location dataset.
type Source interface {
	Load(ctx context.Context) (domain.Dataset, error)
}

// Publisher writes a scored table to a downstream sink.
type Publisher interface {
	Publish(ctx context.Context, table domain.ScoredTable) error
}

type readinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Pipeline runs load, enrich, score and filter for every query. It holds no
// model state between calls, so concurrent queries never share intermediate
// matrices, clusterings or tier labels.
type Pipeline struct {
	source   Source
	kmeans   domain.KMeans
	geocoder domain.Geocoder
	region   string
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// Option configures optional pipeline stages.
type Option func(*Pipeline)

// WithGeocoder enables coordinate enrichment for locations without lat/lon.
// Names are resolved within region.
func WithGeocoder(g domain.Geocoder, region string) Option {
	return func(p *Pipeline) {
		p.geocoder = g
		p.region = region
	}
}

// New creates a Pipeline reading from src and clustering with km.
func New(src Source, km domain.KMeans, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:  src,
		kmeans:  km,
		logger:  logger,
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckReadiness reports whether the dataset source can be read.
func (p *Pipeline) CheckReadiness(ctx context.Context) error {
	if rc, ok := p.source.(readinessChecker); ok {
		return rc.CheckReadiness(ctx)
	}
	return nil
}

// Score loads the dataset and scores every location from scratch.
func (p *Pipeline) Score(ctx context.Context) (domain.ScoredTable, error) {
	start := time.Now()

	table, err := p.score(ctx)
	outcome := outcomeOf(err)
	p.metrics.ScoringRuns.WithLabelValues(outcome).Inc()
	if err != nil {
		p.logger.Error("scoring failed", "outcome", outcome, "error", err)
		return domain.ScoredTable{}, err
	}

	p.metrics.ScoringDuration.Observe(time.Since(start).Seconds())
	return table, nil
}

func (p *Pipeline) score(ctx context.Context) (domain.ScoredTable, error) {
	ds, err := p.source.Load(ctx)
	if err != nil {
		return domain.ScoredTable{}, err
	}

	if p.geocoder != nil {
		ds = domain.EnrichWithGeocoding(ctx, ds, p.geocoder, p.region, p.logger)
	}

	table, report, err := domain.Score(ds, p.kmeans)
	p.recordInvalid(report.Invalid)
	if err != nil {
		return domain.ScoredTable{}, err
	}

	p.metrics.LocationsScored.Set(float64(report.Locations))
	p.metrics.ClusterInertia.Set(report.Inertia)
	for _, row := range table.Rows {
		p.metrics.TierAssignments.WithLabelValues(string(row.PredictedRisk)).Inc()
	}

	p.logger.Info("dataset scored",
		"locations", report.Locations,
		"hazard_columns", report.HazardColumns,
		"invalid_ratings", len(report.Invalid),
		"inertia", report.Inertia,
	)
	for _, c := range report.Clusters {
		p.logger.Debug("cluster ranked", "cluster", c.Cluster, "score", c.Score, "members", c.Members)
	}
	return table, nil
}

func (p *Pipeline) recordInvalid(invalid []domain.InvalidRating) {
	for _, r := range invalid {
		p.logger.Warn("unrecognized hazard rating treated as missing",
			"location", r.LocationID,
			"hazard", r.Hazard,
			"value", r.Value,
		)
	}
	p.metrics.InvalidRatings.Add(float64(len(invalid)))
}

// Records scores the dataset and returns the view for the city and hazard
// filters. A filter that matches nothing yields an empty view, not an error.
func (p *Pipeline) Records(ctx context.Context, city, hazard string) (domain.View, error) {
	table, err := p.Filtered(ctx, city)
	if err != nil {
		return domain.View{}, err
	}
	return domain.Project(table, hazard), nil
}

// Filtered scores the dataset and keeps the locations named by city.
func (p *Pipeline) Filtered(ctx context.Context, city string) (domain.ScoredTable, error) {
	table, err := p.Score(ctx)
	if err != nil {
		return domain.ScoredTable{}, err
	}
	return domain.FilterLocations(table, city), nil
}

// Summary scores the dataset and groups the city-filtered locations by tier.
func (p *Pipeline) Summary(ctx context.Context, city string) ([]domain.TierSummary, error) {
	table, err := p.Filtered(ctx, city)
	if err != nil {
		return nil, err
	}
	return domain.Summarize(table), nil
}

// Publish scores the dataset and hands the city-filtered table to pub.
// It returns the number of locations published.
func (p *Pipeline) Publish(ctx context.Context, pub Publisher, city string) (int, error) {
	table, err := p.Filtered(ctx, city)
	if err != nil {
		return 0, err
	}
	if table.Len() == 0 {
		p.logger.Warn("nothing to publish", "city", city)
		return 0, nil
	}
	if err := pub.Publish(ctx, table); err != nil {
		p.logger.Error("publish scored locations failed", "error", err, "locations", table.Len())
		return 0, err
	}
	p.logger.Info("scored locations published",
		"locations", table.Len(),
		"high_risk", domain.HighRiskLocations(table),
	)
	return table.Len(), nil
}

// outcomeOf classifies a scoring error for the runs metric.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, dataset.ErrNotFound):
		return "not_found"
	case IsInvalidData(err):
		return "invalid"
	default:
		return "error"
	}
}

// IsInvalidData reports whether err means the dataset exists but cannot be
// scored.
func IsInvalidData(err error) bool {
	return errors.Is(err, dataset.ErrInvalidDataset) ||
		errors.Is(err, dataset.ErrMissingIDColumn) ||
		errors.Is(err, domain.ErrEmptyDataset) ||
		errors.Is(err, domain.ErrTooFewLocations)
}
