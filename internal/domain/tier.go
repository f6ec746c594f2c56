package domain

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ClusterScore is the mean standardized severity of one cluster.
type ClusterScore struct {
	Cluster int
	Score   float64
	Members int
}

// LabelTiers orders the clusters by mean severity and maps the lowest to
// TierLow, the next to TierMedium and the highest to TierHigh. A cluster's
// severity is the mean over its members of each member's mean across hazard
// columns. Equal scores keep ascending cluster-id order. Clusters without
// members get no tier.
func LabelTiers(points [][]float64, labels []int, k int) (map[int]Tier, []ClusterScore) {
	sums := make([]float64, k)
	counts := make([]int, k)
	for i, p := range points {
		rowMean := 0.0
		if len(p) > 0 {
			rowMean = stat.Mean(p, nil)
		}
		sums[labels[i]] += rowMean
		counts[labels[i]]++
	}

	scores := make([]ClusterScore, 0, k)
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			continue
		}
		scores = append(scores, ClusterScore{Cluster: c, Score: sums[c] / float64(counts[c]), Members: counts[c]})
	}
	sort.SliceStable(scores, func(a, b int) bool { return scores[a].Score < scores[b].Score })

	tiers := make(map[int]Tier, len(scores))
	for rank, s := range scores {
		if rank >= len(Tiers) {
			break
		}
		tiers[s.Cluster] = Tiers[rank]
	}
	return tiers, scores
}
