package controller

import (
	"sort"

	"github.com/kwhlab/battsim/core/model"
)

// SpreadDecider is a minimal conforming controller used when no external
// one is wired in. It splits the day into price terciles: cheap hours may
// charge from the grid when a later hour repays at least Spread, expensive
// hours may discharge, and the rest preserve charge. Flat tariffs always
// allow discharge.
type SpreadDecider struct {
	Spread float64
}

func (d SpreadDecider) DecideMode(hour int, prices model.PriceSeries, socWh float64) Mode {
	if !prices.IsDynamic() {
		return DischargeAllowed
	}
	dyn := prices.Dynamic()
	sorted := append([]float64(nil), dyn...)
	sort.Float64s(sorted)
	cheap := sorted[len(sorted)/3-1]
	expensive := sorted[2*len(sorted)/3]

	p := dyn[hour]
	if p >= expensive {
		return DischargeAllowed
	}
	if p <= cheap {
		for h2 := hour + 1; h2 < len(dyn); h2++ {
			// Inclusive with a rounding tolerance, like the optimizer's
			// charge gate.
			if dyn[h2]-p >= d.Spread-1e-9 {
				return ChargeFromGrid
			}
		}
	}
	return AvoidDischarge
}
