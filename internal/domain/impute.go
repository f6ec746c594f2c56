package domain

import "math"

// DefaultSeverity fills a hazard column that has no observed rating at all.
const DefaultSeverity = SeverityMedium

// ImputeMode returns a copy of m where every NaN is replaced by the most
// frequent observed value of its column. Ties resolve to the lowest severity.
func ImputeMode(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = append([]float64(nil), row...)
	}
	if len(m) == 0 {
		return out
	}

	for j := range m[0] {
		fill := columnMode(m, j)
		for i := range out {
			if math.IsNaN(out[i][j]) {
				out[i][j] = fill
			}
		}
	}
	return out
}

// columnMode counts the ordinal levels directly; severities are small
// integers so the count array indexes by value.
func columnMode(m [][]float64, j int) float64 {
	var counts [int(SeverityHigh) + 1]int
	for _, row := range m {
		v := row[j]
		if math.IsNaN(v) {
			continue
		}
		counts[int(v)]++
	}

	best, bestCount := DefaultSeverity, 0
	for level := int(SeverityLow); level <= int(SeverityHigh); level++ {
		if counts[level] > bestCount {
			best, bestCount = float64(level), counts[level]
		}
	}
	return best
}
