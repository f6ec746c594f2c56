package domain

// Tier is the externally meaningful risk classification of a location.
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// Tiers lists every tier in ascending severity order.
var Tiers = []Tier{TierLow, TierMedium, TierHigh}

// Valid reports whether t is one of the three known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierLow, TierMedium, TierHigh:
		return true
	default:
		return false
	}
}

// Column names that never hold hazard ratings.
const (
	ColumnID             = "id"
	ColumnPlace          = "place"
	ColumnCluster        = "cluster"
	ColumnPredictedRisk  = "predicted_risk"
	ColumnLat            = "lat"
	ColumnLon            = "lon"
	ColumnRecommendation = "recommendation"
)

var nonHazardColumns = map[string]bool{
	ColumnID:             true,
	ColumnPlace:          true,
	ColumnCluster:        true,
	ColumnPredictedRisk:  true,
	ColumnLat:            true,
	ColumnLon:            true,
	ColumnRecommendation: true,
}

// IsHazardColumn reports whether a dataset column holds hazard ratings.
// idColumn is the dataset's location-name column, which is excluded as well.
func IsHazardColumn(name, idColumn string) bool {
	return name != idColumn && !nonHazardColumns[name]
}

// Location is one monitored location as read from the dataset.
type Location struct {
	ID    string
	Place string
	Lat   *float64
	Lon   *float64

	// Hazards holds the raw rating per hazard column; "" means missing.
	Hazards map[string]string
}

// HasCoordinates reports whether both lat and lon are known.
func (l Location) HasCoordinates() bool {
	return l.Lat != nil && l.Lon != nil
}

// Dataset is the in-memory table read from the source, before scoring.
type Dataset struct {
	// HazardColumns keeps the dataset's column order.
	HazardColumns []string
	Locations     []Location
}

// ScoredLocation is a location after the pipeline assigned it a tier.
type ScoredLocation struct {
	Location
	Cluster        int
	PredictedRisk  Tier
	Recommendation string
}

// ScoredTable is the full scored dataset for one request.
type ScoredTable struct {
	HazardColumns []string
	Rows          []ScoredLocation
}

// Len returns the number of scored rows.
func (t ScoredTable) Len() int { return len(t.Rows) }
