package model

import "math"

// DispatchResult holds one day of simulated energy flows. Battery flow is
// signed: positive values discharge into the load, negative values charge
// the battery.
type DispatchResult struct {
	GridDrawWh    []float64
	BatteryFlowWh []float64
	CostEur       []float64
	SoCWh         []float64
	CurtailedWh   []float64

	TotalCostEur float64
	TotalGridKWh float64

	// WeightedAvgPrice is total cost over total grid consumption in
	// EUR/kWh. Nil for flat tariffs and when no energy was drawn at all.
	WeightedAvgPrice *float64
}

// NewDispatchResult preallocates all per-hour series for one day.
func NewDispatchResult() *DispatchResult {
	return &DispatchResult{
		GridDrawWh:    make([]float64, Hours),
		BatteryFlowWh: make([]float64, Hours),
		CostEur:       make([]float64, Hours),
		SoCWh:         make([]float64, Hours),
		CurtailedWh:   make([]float64, Hours),
	}
}

// Finalize computes the daily totals from the per-hour series and, for
// dynamic tariffs, the consumption-weighted average price.
func (r *DispatchResult) Finalize(dynamicTariff bool) {
	var cost, wh float64
	for h := 0; h < Hours; h++ {
		cost += r.CostEur[h]
		wh += r.GridDrawWh[h]
	}
	r.TotalCostEur = Round2(cost)
	r.TotalGridKWh = Round2(wh / 1000)
	if dynamicTariff && wh > 0 {
		w := Round4(cost / (wh / 1000))
		r.WeightedAvgPrice = &w
	}
}

// Round2 rounds to two decimals, the reporting precision for Wh amounts
// and daily totals.
func Round2(v float64) float64 { return math.Round(v*100) / 100 }

// Round4 rounds to four decimals, the reporting precision for prices and
// hourly costs.
func Round4(v float64) float64 { return math.Round(v*10000) / 10000 }
