// Package simulate implements the rule-based household dispatcher. It runs
// a single greedy forward pass over the day with a fixed priority order:
// PV covers the load, surplus PV charges the battery, the battery covers
// the remaining deficit, the grid covers the rest.
package simulate

import (
	"math"

	"github.com/kwhlab/battsim/core/model"
)

// Run simulates one day of dispatch under the greedy policy. A flat tariff
// corresponds to model 1, hourly market prices to model 2; the energy
// balance is identical, only pricing and the weighted average differ.
func Run(load, pv model.HourlyProfile, price model.PriceSeries, batt model.BatteryConfig) (*model.DispatchResult, error) {
	if err := load.Validate("load"); err != nil {
		return nil, err
	}
	if err := pv.Validate("pv"); err != nil {
		return nil, err
	}
	if err := price.Validate(); err != nil {
		return nil, err
	}
	if err := batt.Validate(); err != nil {
		return nil, err
	}

	res := model.NewDispatchResult()
	socWh := batt.InitialWh()
	minWh := batt.MinWh()
	maxWh := batt.MaxWh()

	for h := 0; h < model.Hours; h++ {
		direct := math.Min(pv[h], load[h])
		surplus := pv[h] - direct
		deficit := load[h] - direct

		charge := math.Min(surplus, math.Min(batt.MaxChargeW, maxWh-socWh))
		socWh += charge
		surplus -= charge

		discharge := math.Min(deficit, math.Min(batt.MaxDischargeW, socWh-minWh))
		socWh -= discharge
		deficit -= discharge

		cost := deficit / 1000 * price.At(h)

		res.GridDrawWh[h] = model.Round2(deficit)
		res.BatteryFlowWh[h] = model.Round2(discharge - charge)
		res.CostEur[h] = model.Round4(cost)
		res.SoCWh[h] = model.Round2(socWh)
		res.CurtailedWh[h] = model.Round2(surplus)
	}

	res.Finalize(price.IsDynamic())
	return res, nil
}
