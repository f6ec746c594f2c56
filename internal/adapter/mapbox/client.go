package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/ncr-risk-service/internal/domain"
	"github.com/couchcryptid/ncr-risk-service/internal/observability"
)

const defaultBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"

// ncrBBox bounds the National Capital Region as minLon,minLat,maxLon,maxLat.
const ncrBBox = "120.90,14.35,121.15,14.78"

// minRelevance is the lowest Mapbox relevance accepted as a match.
const minRelevance = 0.5

// Client implements domain.Geocoder using the Mapbox forward geocoding API,
// restricted to the NCR bounding box.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a Mapbox geocoding client.
func NewClient(token string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		logger:     logger,
		metrics:    metrics,
	}
}

// ForwardGeocode resolves a location name within region, e.g.
// "Pasig, Metro Manila, Philippines". A missing or low-relevance match is an
// empty result, not an error.
func (c *Client) ForwardGeocode(ctx context.Context, name, region string) (domain.GeocodingResult, error) {
	query := name
	if region != "" {
		query = fmt.Sprintf("%s, %s", name, region)
	}

	start := time.Now()
	best, err := c.lookup(ctx, query)
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeocodingResult{}, err
	}

	result, ok := best.toResult()
	if !ok {
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		if best != nil {
			c.logger.Debug("weak geocode match ignored", "query", query, "match", best.PlaceName, "relevance", best.Relevance)
		}
		return domain.GeocodingResult{}, nil
	}

	c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	c.logger.Debug("location geocoded", "query", query, "lat", result.Lat, "lon", result.Lon)
	return result, nil
}

// lookup returns the top feature for query, or nil when Mapbox has none.
func (c *Client) lookup(ctx context.Context, query string) (*feature, error) {
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"country":      {"ph"},
		"bbox":         {ncrBBox},
		"types":        {"place,locality,neighborhood"},
	}
	endpoint := fmt.Sprintf("%s/%s.json?%s", c.baseURL, url.PathEscape(query), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forward geocode %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode mapbox response: %w", err)
	}
	if len(payload.Features) == 0 {
		return nil, nil
	}
	return &payload.Features[0], nil
}

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Center    []float64 `json:"center"` // [lon, lat]
	PlaceName string    `json:"place_name"`
	Text      string    `json:"text"`
	Relevance float64   `json:"relevance"`
}

func (f *feature) toResult() (domain.GeocodingResult, bool) {
	if f == nil || len(f.Center) != 2 || f.Relevance < minRelevance {
		return domain.GeocodingResult{}, false
	}
	return domain.GeocodingResult{
		Lon:              f.Center[0],
		Lat:              f.Center[1],
		FormattedAddress: f.PlaceName,
		PlaceName:        f.Text,
		Confidence:       f.Relevance,
	}, true
}
