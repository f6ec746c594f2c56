package domain

import (
	"errors"
	"fmt"
)

// ErrEmptyDataset is returned when there are no locations to score.
var ErrEmptyDataset = errors.New("dataset has no locations")

// ScoreReport describes one scoring run for logging and metrics.
type ScoreReport struct {
	Locations     int
	HazardColumns int
	Invalid       []InvalidRating
	Inertia       float64
	Clusters      []ClusterScore
}

// Score runs the full model over ds: encode, impute, standardize, cluster,
// label and recommend. Nothing is retained between calls.
func Score(ds Dataset, km KMeans) (ScoredTable, ScoreReport, error) {
	report := ScoreReport{Locations: len(ds.Locations), HazardColumns: len(ds.HazardColumns)}
	if len(ds.Locations) == 0 {
		return ScoredTable{}, report, ErrEmptyDataset
	}

	enc := Encode(ds)
	report.Invalid = enc.Invalid

	features := Standardize(ImputeMode(enc.Matrix))

	clustering, err := km.Fit(features)
	if err != nil {
		return ScoredTable{}, report, fmt.Errorf("cluster locations: %w", err)
	}
	report.Inertia = clustering.Inertia

	tiers, scores := LabelTiers(features, clustering.Labels, km.K)
	report.Clusters = scores

	table := ScoredTable{
		HazardColumns: append([]string(nil), ds.HazardColumns...),
		Rows:          make([]ScoredLocation, len(ds.Locations)),
	}
	for i, loc := range ds.Locations {
		cluster := clustering.Labels[i]
		tier := tiers[cluster]
		table.Rows[i] = ScoredLocation{
			Location:       loc,
			Cluster:        cluster,
			PredictedRisk:  tier,
			Recommendation: Recommend(tier),
		}
	}
	return table, report, nil
}
