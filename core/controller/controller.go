// Package controller integrates an external rule-based battery controller
// into the simulation. The controller itself is opaque: it only decides a
// discharge-permission mode per hour, and the energy balance here applies
// that mode on top of the greedy dispatch rules.
package controller

import (
	"math"

	"github.com/kwhlab/battsim/core/model"
)

// Mode is the discharge-permission decision for one hour.
type Mode int

const (
	DischargeAllowed Mode = iota
	AvoidDischarge
	ChargeFromGrid
)

func (m Mode) String() string {
	switch m {
	case DischargeAllowed:
		return "discharge_allowed"
	case AvoidDischarge:
		return "avoid_discharge"
	case ChargeFromGrid:
		return "charge_from_grid"
	}
	return "unknown"
}

// ModeDecider is the single capability required from an external
// controller. Any conforming implementation, including a test double, can
// drive the simulation.
type ModeDecider interface {
	DecideMode(hour int, prices model.PriceSeries, socWh float64) Mode
}

// DeciderFunc adapts a plain function to the ModeDecider interface.
type DeciderFunc func(hour int, prices model.PriceSeries, socWh float64) Mode

func (f DeciderFunc) DecideMode(hour int, prices model.PriceSeries, socWh float64) Mode {
	return f(hour, prices, socWh)
}

// Run simulates one day under the decider's per-hour modes. PV always
// covers the load first and surplus PV always charges the battery; the
// mode controls battery discharge and additional grid charging.
func Run(load, pv model.HourlyProfile, price model.PriceSeries, batt model.BatteryConfig, dec ModeDecider) (*model.DispatchResult, error) {
	if dec == nil {
		return nil, &model.InvalidInputError{Reason: "mode decider is required"}
	}
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
		mode := dec.DecideMode(h, price, socWh)

		direct := math.Min(pv[h], load[h])
		surplus := pv[h] - direct
		deficit := load[h] - direct

		charge := math.Min(surplus, math.Min(batt.MaxChargeW, maxWh-socWh))
		socWh += charge
		surplus -= charge

		var discharge float64
		if mode == DischargeAllowed {
			discharge = math.Min(deficit, math.Min(batt.MaxDischargeW, socWh-minWh))
			socWh -= discharge
			deficit -= discharge
		}

		var gridCharge float64
		if mode == ChargeFromGrid {
			gridCharge = math.Min(batt.MaxChargeW-charge, maxWh-socWh)
			gridCharge = math.Max(gridCharge, 0)
			socWh += gridCharge
		}

		grid := deficit + gridCharge
		cost := grid / 1000 * price.At(h)

		res.GridDrawWh[h] = model.Round2(grid)
		res.BatteryFlowWh[h] = model.Round2(discharge - charge - gridCharge)
		res.CostEur[h] = model.Round4(cost)
		res.SoCWh[h] = model.Round2(socWh)
		res.CurtailedWh[h] = model.Round2(surplus)
	}

	res.Finalize(price.IsDynamic())
	return res, nil
}
