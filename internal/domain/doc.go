// Package domain models hazard-exposure ratings for National Capital Region
// (NCR) locations and the scoring steps that turn them into risk tiers.
//
// # Data Source
//
// The dataset is a CSV with one row per monitored location. The id column
// (configurable, "id" by default) names the location; "place", "lat" and
// "lon" are descriptive. Every other column is a hazard type (flood,
// earthquake, fire, ...) rated on a three-level ordinal scale.
//
// # Rating Conventions
//
// Ratings are case-insensitive and surrounding whitespace is ignored:
//
//	low    → 1
//	medium → 2
//	high   → 3
//
// Empty cells are missing. Any other value (e.g. "severe", "n/a") is counted
// as invalid and then treated as missing, so it is filled by imputation like
// an empty cell. The loader never rejects a dataset for a bad rating.
//
// # Scoring
//
// Each request recomputes the whole model from the current dataset:
//
//	encode → impute (column mode) → standardize → k-means (k=3) → tier → recommend
//
// Cluster ids from k-means are arbitrary. [LabelTiers] orders clusters by
// their mean standardized severity and maps them to low, medium and high, so
// a cluster id only has meaning within the request that produced it.
//
// # Matching
//
// Location and hazard filters compare keys normalized by [NormalizeKey]:
// lowercased with all whitespace removed, so " Quezon City " matches
// "quezoncity".
package domain
