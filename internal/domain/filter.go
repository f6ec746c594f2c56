package domain

import (
	"strings"
	"unicode"
)

// NormalizeKey lowercases s and removes all whitespace, so that
// " Quezon City " and "quezoncity" compare equal.
func NormalizeKey(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}

// FilterLocations keeps the rows whose id matches one of the comma-separated
// cities. An empty filter returns the table unchanged; a filter that matches
// nothing returns an empty table.
func FilterLocations(t ScoredTable, cities string) ScoredTable {
	wanted := make(map[string]bool)
	for _, c := range strings.Split(cities, ",") {
		if k := NormalizeKey(c); k != "" {
			wanted[k] = true
		}
	}
	if len(wanted) == 0 {
		return t
	}

	out := ScoredTable{HazardColumns: t.HazardColumns, Rows: make([]ScoredLocation, 0, len(t.Rows))}
	for _, row := range t.Rows {
		if wanted[NormalizeKey(row.ID)] {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// MatchHazard returns the hazard column matching name under NormalizeKey, or
// false if name is empty or matches no column.
func MatchHazard(hazardColumns []string, name string) (string, bool) {
	key := NormalizeKey(name)
	if key == "" {
		return "", false
	}
	for _, h := range hazardColumns {
		if NormalizeKey(h) == key {
			return h, true
		}
	}
	return "", false
}

// SelectColumns returns the export columns for a hazard filter. A matched
// hazard yields id, lat, lon, the hazard, predicted_risk and recommendation.
// Otherwise every hazard column follows predicted_risk and recommendation.
func SelectColumns(hazardColumns []string, hazard string) []string {
	if h, ok := MatchHazard(hazardColumns, hazard); ok {
		return []string{ColumnID, ColumnLat, ColumnLon, h, ColumnPredictedRisk, ColumnRecommendation}
	}
	cols := []string{ColumnID, ColumnLat, ColumnLon, ColumnPredictedRisk, ColumnRecommendation}
	return append(cols, hazardColumns...)
}
