package domain

import (
	"context"
	"log/slog"
)

// EnrichWithGeocoding fills lat/lon for locations that have no coordinates.
// Locations that already have both are never touched. If geocoder is nil or a
// lookup fails, the location keeps its missing coordinates (graceful
// degradation). Once ctx is done no further lookups are made. The returned
// dataset shares no location values with ds.
func EnrichWithGeocoding(ctx context.Context, ds Dataset, geocoder Geocoder, region string, logger *slog.Logger) Dataset {
	if geocoder == nil {
		return ds
	}

	out := Dataset{HazardColumns: ds.HazardColumns, Locations: make([]Location, len(ds.Locations))}
	copy(out.Locations, ds.Locations)

	for i := range out.Locations {
		loc := &out.Locations[i]
		if loc.HasCoordinates() || loc.ID == "" {
			continue
		}
		if ctx.Err() != nil {
			logger.Warn("geocoding stopped", "remaining", len(out.Locations)-i, "error", ctx.Err())
			break
		}

		result, err := geocoder.ForwardGeocode(ctx, loc.ID, region)
		if err != nil {
			logger.Warn("forward geocoding failed",
				"location", loc.ID,
				"region", region,
				"error", err,
			)
			continue
		}
		if !result.Found() {
			logger.Debug("no geocoding match", "location", loc.ID, "region", region)
			continue
		}

		lat, lon := result.Lat, result.Lon
		loc.Lat = &lat
		loc.Lon = &lon
	}
	return out
}
