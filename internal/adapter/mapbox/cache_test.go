package mapbox

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/couchcryptid/ncr-risk-service/internal/domain"
	"github.com/couchcryptid/ncr-risk-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingGeocoder struct {
	mu     sync.Mutex
	calls  int
	result domain.GeocodingResult
	err    error
}

func (m *countingGeocoder) ForwardGeocode(_ context.Context, _, _ string) (domain.GeocodingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.result, m.err
}

var pasig = domain.GeocodingResult{Lat: 14.5764, Lon: 121.0851, PlaceName: "Pasig", FormattedAddress: "Pasig, Metro Manila, Philippines"}

func TestCachedGeocoder_CacheHit(t *testing.T) {
	inner := &countingGeocoder{result: pasig}
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedGeocoder(inner, 10, metrics)

	r1, err := cached.ForwardGeocode(context.Background(), "Pasig", "Metro Manila, Philippines")
	require.NoError(t, err)
	r2, err := cached.ForwardGeocode(context.Background(), " PASIG ", "metro manila, philippines")
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, 1, inner.calls, "normalized name and region share one entry")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("miss")), 0)
}

func TestCachedGeocoder_DifferentKeysMiss(t *testing.T) {
	inner := &countingGeocoder{result: pasig}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	_, _ = cached.ForwardGeocode(context.Background(), "Pasig", "Metro Manila, Philippines")
	_, _ = cached.ForwardGeocode(context.Background(), "Taguig", "Metro Manila, Philippines")

	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 2, cached.Len())
}

func TestCachedGeocoder_EmptyAndErrorsNotCached(t *testing.T) {
	inner := &countingGeocoder{}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	_, _ = cached.ForwardGeocode(context.Background(), "Atlantis", "")
	_, _ = cached.ForwardGeocode(context.Background(), "Atlantis", "")
	assert.Equal(t, 2, inner.calls)

	inner.err = errors.New("timeout")
	_, err := cached.ForwardGeocode(context.Background(), "Pasig", "")
	require.Error(t, err)
	assert.Zero(t, cached.Len())
}

func TestCachedGeocoder_EvictsLeastRecentlyUsed(t *testing.T) {
	inner := &countingGeocoder{result: pasig}
	cached := NewCachedGeocoder(inner, 2, observability.NewMetricsForTesting())
	ctx := context.Background()

	_, _ = cached.ForwardGeocode(ctx, "a", "")
	_, _ = cached.ForwardGeocode(ctx, "b", "")
	_, _ = cached.ForwardGeocode(ctx, "a", "") // promotes "a"
	_, _ = cached.ForwardGeocode(ctx, "c", "") // evicts "b"
	require.Equal(t, 3, inner.calls)

	_, _ = cached.ForwardGeocode(ctx, "a", "")
	assert.Equal(t, 3, inner.calls, "a is still cached")

	_, _ = cached.ForwardGeocode(ctx, "b", "")
	assert.Equal(t, 4, inner.calls, "b was evicted")
}

func TestCachedGeocoder_Concurrent(t *testing.T) {
	inner := &countingGeocoder{result: pasig}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cached.ForwardGeocode(context.Background(), "Pasig", "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, cached.Len())
}
