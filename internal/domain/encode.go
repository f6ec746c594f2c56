package domain

import (
	"math"
	"strings"
)

// Ordinal severities for the three rating levels.
const (
	SeverityLow    = 1.0
	SeverityMedium = 2.0
	SeverityHigh   = 3.0
)

// InvalidRating records a hazard cell whose value is outside {low, medium, high}.
type InvalidRating struct {
	LocationID string
	Hazard     string
	Value      string
}

// Encoding is the numeric form of a dataset: one row per location, one column
// per hazard in Dataset.HazardColumns order. Missing cells are NaN.
type Encoding struct {
	Matrix  [][]float64
	Invalid []InvalidRating
}

// EncodeRating maps a categorical rating to its ordinal severity. The second
// return value is false for empty or unrecognized values.
func EncodeRating(value string) (float64, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "low":
		return SeverityLow, true
	case "medium":
		return SeverityMedium, true
	case "high":
		return SeverityHigh, true
	default:
		return math.NaN(), false
	}
}

// Encode converts every hazard rating to its ordinal severity. Unrecognized
// values become NaN like empty cells and are reported in Encoding.Invalid.
func Encode(ds Dataset) Encoding {
	enc := Encoding{Matrix: make([][]float64, len(ds.Locations))}
	for i, loc := range ds.Locations {
		row := make([]float64, len(ds.HazardColumns))
		for j, h := range ds.HazardColumns {
			raw := loc.Hazards[h]
			v, ok := EncodeRating(raw)
			if !ok && strings.TrimSpace(raw) != "" {
				enc.Invalid = append(enc.Invalid, InvalidRating{LocationID: loc.ID, Hazard: h, Value: raw})
			}
			row[j] = v
		}
		enc.Matrix[i] = row
	}
	return enc
}
