package optimize

// spreadTol absorbs float rounding in the spread comparison so a later
// price exactly spread above the current one still qualifies
// (0.30 - 0.20 evaluates below 0.10 in float64).
const spreadTol = 1e-9

// ChargeEligible derives the per-hour grid-charge permission flags. Hour h
// is eligible when some later hour's price exceeds price[h] by at least
// spread, i.e. a provable discount exists. The array is computed once per
// optimization and handed to the constraint builder; ineligible hours get
// a hard zero bound on grid charging rather than an objective penalty.
func ChargeEligible(prices []float64, spread float64) []bool {
	eligible := make([]bool, len(prices))
	maxLater := 0.0
	haveLater := false
	for h := len(prices) - 1; h >= 0; h-- {
		eligible[h] = haveLater && maxLater-prices[h] >= spread-spreadTol
		if !haveLater || prices[h] > maxLater {
			maxLater = prices[h]
			haveLater = true
		}
	}
	return eligible
}
