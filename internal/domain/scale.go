package domain

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// minStdDev is the spread below which a column is treated as constant.
const minStdDev = 1e-12

// Standardize rescales each column of m to zero mean and unit population
// variance. A constant column becomes all zeros.
func Standardize(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i := range m {
		out[i] = make([]float64, len(m[i]))
	}
	if len(m) == 0 {
		return out
	}

	col := make([]float64, len(m))
	for j := range m[0] {
		for i := range m {
			col[i] = m[i][j]
		}
		mean, variance := stat.PopMeanVariance(col, nil)
		std := math.Sqrt(variance)
		for i := range m {
			if std < minStdDev {
				out[i][j] = 0
				continue
			}
			out[i][j] = (m[i][j] - mean) / std
		}
	}
	return out
}
