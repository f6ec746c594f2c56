package domain

// TierSummary lists the locations assigned to one tier.
type TierSummary struct {
	Tier           Tier     `json:"predicted_risk"`
	Recommendation string   `json:"recommendation"`
	Locations      []string `json:"locations"`
}

// Summarize groups the table's location ids by tier, lowest tier first.
// Tiers with no locations are omitted.
func Summarize(t ScoredTable) []TierSummary {
	byTier := make(map[Tier][]string)
	for _, row := range t.Rows {
		byTier[row.PredictedRisk] = append(byTier[row.PredictedRisk], row.ID)
	}

	out := make([]TierSummary, 0, len(Tiers))
	for _, tier := range Tiers {
		ids := byTier[tier]
		if len(ids) == 0 {
			continue
		}
		out = append(out, TierSummary{Tier: tier, Recommendation: Recommend(tier), Locations: ids})
	}
	return out
}

// HighRiskLocations returns the ids of locations labeled high, in table order.
func HighRiskLocations(t ScoredTable) []string {
	var ids []string
	for _, row := range t.Rows {
		if row.PredictedRisk == TierHigh {
			ids = append(ids, row.ID)
		}
	}
	return ids
}
