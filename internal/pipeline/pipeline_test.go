package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/couchcryptid/ncr-risk-service/internal/dataset"
	"github.com/couchcryptid/ncr-risk-service/internal/domain"
	"github.com/couchcryptid/ncr-risk-service/internal/observability"
	"github.com/couchcryptid/ncr-risk-service/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockSource struct {
	ds    domain.Dataset
	err   error
	ready error
	calls int
	mu    sync.Mutex
}

func (m *mockSource) Load(_ context.Context) (domain.Dataset, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.err != nil {
		return domain.Dataset{}, m.err
	}
	return m.ds, nil
}

func (m *mockSource) CheckReadiness(_ context.Context) error { return m.ready }

type mockGeocoder struct {
	names []string
}

func (m *mockGeocoder) ForwardGeocode(_ context.Context, name, _ string) (domain.GeocodingResult, error) {
	m.names = append(m.names, name)
	return domain.GeocodingResult{Lat: 14.5, Lon: 121.0}, nil
}

type mockPublisher struct {
	published []domain.ScoredTable
	err       error
}

func (m *mockPublisher) Publish(_ context.Context, table domain.ScoredTable) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, table)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr(f float64) *float64 { return &f }

func threeTierDataset() domain.Dataset {
	return domain.Dataset{
		HazardColumns: []string{"flood"},
		Locations: []domain.Location{
			{ID: "A", Lat: ptr(14.6), Lon: ptr(120.98), Hazards: map[string]string{"flood": "high"}},
			{ID: "B", Hazards: map[string]string{"flood": "low"}},
			{ID: "C", Lat: ptr(14.55), Lon: ptr(121.02), Hazards: map[string]string{"flood": "medium"}},
		},
	}
}

func newPipeline(src pipeline.Source, opts ...pipeline.Option) (*pipeline.Pipeline, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	km := domain.NewKMeans(domain.DefaultSeed, domain.DefaultInits)
	return pipeline.New(src, km, discardLogger(), metrics, opts...), metrics
}

// --- tests ---

func TestPipeline_Score_ThreeTiers(t *testing.T) {
	p, metrics := newPipeline(&mockSource{ds: threeTierDataset()})

	table, err := p.Score(context.Background())
	require.NoError(t, err)

	got := map[string]domain.Tier{}
	for _, row := range table.Rows {
		got[row.ID] = row.PredictedRisk
	}
	want := map[string]domain.Tier{"A": domain.TierHigh, "B": domain.TierLow, "C": domain.TierMedium}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tiers mismatch (-want +got):\n%s", diff)
	}

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ScoringRuns.WithLabelValues("success")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(metrics.LocationsScored), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.TierAssignments.WithLabelValues("high")), 0)
}

func TestPipeline_Score_RecomputesEveryCall(t *testing.T) {
	src := &mockSource{ds: threeTierDataset()}
	p, _ := newPipeline(src)

	first, err := p.Score(context.Background())
	require.NoError(t, err)
	second, err := p.Score(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, src.calls)
	assert.Equal(t, first, second)
}

func TestPipeline_Score_ConcurrentCallsAgree(t *testing.T) {
	p, _ := newPipeline(&mockSource{ds: threeTierDataset()})

	want, err := p.Score(context.Background())
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]domain.ScoredTable, 8)
	errs := make([]error, len(results))
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = p.Score(context.Background())
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, want, results[i])
	}
}

func TestPipeline_Score_InvalidRatingsCounted(t *testing.T) {
	ds := threeTierDataset()
	ds.Locations = append(ds.Locations, domain.Location{ID: "D", Hazards: map[string]string{"flood": "extreme"}})
	p, metrics := newPipeline(&mockSource{ds: ds})

	_, err := p.Score(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.InvalidRatings), 0)
}

func TestPipeline_Score_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     *mockSource
		outcome string
		target  error
	}{
		{
			name:    "dataset missing",
			src:     &mockSource{err: fmt.Errorf("%w: data/risk.csv", dataset.ErrNotFound)},
			outcome: "not_found",
			target:  dataset.ErrNotFound,
		},
		{
			name:    "empty dataset",
			src:     &mockSource{ds: domain.Dataset{HazardColumns: []string{"flood"}}},
			outcome: "invalid",
			target:  domain.ErrEmptyDataset,
		},
		{
			name: "identical locations",
			src: &mockSource{ds: domain.Dataset{
				HazardColumns: []string{"flood"},
				Locations: []domain.Location{
					{ID: "A", Hazards: map[string]string{"flood": "low"}},
					{ID: "B", Hazards: map[string]string{"flood": "low"}},
					{ID: "C", Hazards: map[string]string{"flood": "low"}},
				},
			}},
			outcome: "invalid",
			target:  domain.ErrTooFewLocations,
		},
		{
			name:    "read failure",
			src:     &mockSource{err: errors.New("disk on fire")},
			outcome: "error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, metrics := newPipeline(tt.src)

			_, err := p.Score(context.Background())
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			assert.InDelta(t, 1, testutil.ToFloat64(metrics.ScoringRuns.WithLabelValues(tt.outcome)), 0)
		})
	}
}

func TestPipeline_Records_CityAndHazard(t *testing.T) {
	p, _ := newPipeline(&mockSource{ds: threeTierDataset()})

	view, err := p.Records(context.Background(), " a , c", "FLOOD")
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "lat", "lon", "flood", "predicted_risk", "recommendation"}, view.Columns)
	require.Equal(t, 2, view.Len())
	assert.Equal(t, "A", view.Records[0].String("id"))
	assert.Equal(t, "high", view.Records[0].String("predicted_risk"))
	assert.Equal(t, "C", view.Records[1].String("id"))
}

func TestPipeline_Records_NoMatchIsEmptyNotError(t *testing.T) {
	p, _ := newPipeline(&mockSource{ds: threeTierDataset()})

	view, err := p.Records(context.Background(), "Cebu", "")
	require.NoError(t, err)
	assert.Zero(t, view.Len())
}

func TestPipeline_WithGeocoder_FillsOnlyMissing(t *testing.T) {
	geo := &mockGeocoder{}
	p, _ := newPipeline(&mockSource{ds: threeTierDataset()}, pipeline.WithGeocoder(geo, "Metro Manila, Philippines"))

	table, err := p.Score(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"B"}, geo.names)
	for _, row := range table.Rows {
		assert.True(t, row.HasCoordinates(), row.ID)
	}
}

func TestPipeline_WithGeocoder_TiersUnchanged(t *testing.T) {
	plain, _ := newPipeline(&mockSource{ds: threeTierDataset()})
	geocoded, _ := newPipeline(&mockSource{ds: threeTierDataset()}, pipeline.WithGeocoder(&mockGeocoder{}, "Metro Manila, Philippines"))

	want, err := plain.Score(context.Background())
	require.NoError(t, err)
	got, err := geocoded.Score(context.Background())
	require.NoError(t, err)

	require.Equal(t, want.Len(), got.Len())
	for i := range want.Rows {
		assert.Equal(t, want.Rows[i].ID, got.Rows[i].ID)
		assert.Equal(t, want.Rows[i].PredictedRisk, got.Rows[i].PredictedRisk, want.Rows[i].ID)
	}
}

func TestPipeline_Summary(t *testing.T) {
	p, _ := newPipeline(&mockSource{ds: threeTierDataset()})

	summary, err := p.Summary(context.Background(), "")
	require.NoError(t, err)

	want := []domain.TierSummary{
		{Tier: domain.TierLow, Recommendation: domain.AdvisoryLow, Locations: []string{"B"}},
		{Tier: domain.TierMedium, Recommendation: domain.AdvisoryMedium, Locations: []string{"C"}},
		{Tier: domain.TierHigh, Recommendation: domain.AdvisoryHigh, Locations: []string{"A"}},
	}
	if diff := cmp.Diff(want, summary); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestPipeline_Publish(t *testing.T) {
	p, _ := newPipeline(&mockSource{ds: threeTierDataset()})
	pub := &mockPublisher{}

	n, err := p.Publish(context.Background(), pub, "A")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, pub.published, 1)
	assert.Equal(t, "A", pub.published[0].Rows[0].ID)

	n, err = p.Publish(context.Background(), pub, "Cebu")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, pub.published, 1, "empty selection is not published")
}

func TestPipeline_Publish_Error(t *testing.T) {
	p, _ := newPipeline(&mockSource{ds: threeTierDataset()})

	_, err := p.Publish(context.Background(), &mockPublisher{err: errors.New("broker down")}, "")
	require.Error(t, err)
}

func TestPipeline_CheckReadiness(t *testing.T) {
	p, _ := newPipeline(&mockSource{ready: dataset.ErrNotFound})
	assert.ErrorIs(t, p.CheckReadiness(context.Background()), dataset.ErrNotFound)

	p, _ = newPipeline(&mockSource{})
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestIsInvalidData(t *testing.T) {
	assert.True(t, pipeline.IsInvalidData(fmt.Errorf("cluster: %w", domain.ErrTooFewLocations)))
	assert.True(t, pipeline.IsInvalidData(dataset.ErrInvalidDataset))
	assert.False(t, pipeline.IsInvalidData(dataset.ErrNotFound))
}
