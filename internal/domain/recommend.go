package domain

// Advisories per tier.
const (
	AdvisoryLow    = "Stay alert, monitor weather updates."
	AdvisoryMedium = "Prepare emergency kit and evacuation plan."
	AdvisoryHigh   = "Follow LGU evacuation orders immediately."
)

// Recommend returns the fixed advisory for a tier, or "" for an unknown tier.
func Recommend(t Tier) string {
	switch t {
	case TierLow:
		return AdvisoryLow
	case TierMedium:
		return AdvisoryMedium
	case TierHigh:
		return AdvisoryHigh
	default:
		return ""
	}
}
