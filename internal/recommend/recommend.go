// Package recommend holds the pure decision function that turns an oracle
// estimate into a trade recommendation.
package recommend

// Action is a trade recommendation.
type Action string

const (
	BuyYes Action = "BUY_YES"
	BuyNo  Action = "BUY_NO"
	Skip   Action = "SKIP"
)

// Recommend derives an action from an estimate. Edge and confidence are in
// percentage points, as are both thresholds. No side effects, no I/O.
func Recommend(edge, confidence, edgeThreshold, confidenceThreshold float64) Action {
	if confidence > confidenceThreshold {
		if edge > edgeThreshold {
			return BuyYes
		}
		if edge < -edgeThreshold {
			return BuyNo
		}
	}
	return Skip
}
