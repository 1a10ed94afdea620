// Package optimize implements the cost-optimal household dispatcher. It
// formulates the day as a linear program over six non-negative flow
// variables per hour and solves it with gonum's simplex implementation.
package optimize

import (
	"context"
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/kwhlab/battsim/core/model"
)

// zeroTol is the magnitude below which solver outputs are reported as
// exactly zero.
const zeroTol = 1e-6

// simplexTol is the pivot tolerance passed to the simplex solver.
const simplexTol = 1e-7

// Per-hour variable offsets within one LP block.
const (
	varGridToLoad = iota
	varGridToBatt
	varPVToLoad
	varPVToBatt
	varBattToLoad
	varCurtail
	numFlows
)

// lpSolve points to the function used to solve the LP. Tests override it
// to simulate solver failures.
var lpSolve = solveLP

// solveLP runs the simplex algorithm on the standard-form problem
// minimize c'x subject to Ax = b, x >= 0.
func solveLP(c []float64, a *mat.Dense, b []float64) ([]float64, error) {
	_, x, err := lp.Simplex(c, a, b, simplexTol, nil)
	return x, err
}

// Optimize computes the cost-minimal dispatch schedule for one day. The
// price series must be dynamic. Grid charging is permitted only in hours
// flagged by ChargeEligible for the given spread. The solve runs until ctx
// is done; cancellation and infeasibility both surface as
// *model.InfeasibleModelError.
func Optimize(ctx context.Context, load, pv model.HourlyProfile, price model.PriceSeries, batt model.BatteryConfig, priceSpread float64) (*model.DispatchResult, error) {
	if err := load.Validate("load"); err != nil {
		return nil, err
	}
	if err := pv.Validate("pv"); err != nil {
		return nil, err
	}
	if err := price.Validate(); err != nil {
		return nil, err
	}
	if !price.IsDynamic() {
		return nil, &model.InvalidInputError{Reason: "optimizer requires a dynamic price series"}
	}
	if math.IsNaN(priceSpread) || math.IsInf(priceSpread, 0) {
		return nil, &model.ValidationError{Field: "price_spread", Reason: "not a finite number"}
	}
	// Bound ordering is deliberately left to the LP: malformed SoC windows
	// or negative power caps make the model infeasible instead of being
	// rejected up front.
	if err := batt.CheckFinite(); err != nil {
		return nil, err
	}

	prices := price.Dynamic()
	eligible := ChargeEligible(prices, priceSpread)
	c, a, b := buildProblem(load, pv, prices, batt, eligible)

	x, err := solveWithContext(ctx, c, a, b)
	if err != nil {
		return nil, err
	}
	return extract(x, prices, batt.MinWh()), nil
}

// Variable layout: 24 blocks of six flow variables, then 24 shifted SoC
// variables (soc - min bound), then one slack per charge-cap,
// discharge-cap and SoC-upper row.
func buildProblem(load, pv model.HourlyProfile, prices []float64, batt model.BatteryConfig, eligible []bool) ([]float64, *mat.Dense, []float64) {
	const n = model.Hours
	socBase := n * numFlows
	chargeSlack := socBase + n
	dischargeSlack := chargeSlack + n
	socSlack := dischargeSlack + n
	cols := socSlack + n

	gateRows := 0
	for _, ok := range eligible {
		if !ok {
			gateRows++
		}
	}
	rows := 6*n + gateRows

	a := mat.NewDense(rows, cols, nil)
	b := make([]float64, rows)
	c := make([]float64, cols)

	minWh := batt.MinWh()
	span := batt.MaxWh() - minWh

	row := 0
	for h := 0; h < n; h++ {
		base := h * numFlows
		c[base+varGridToLoad] = prices[h] / 1000
		c[base+varGridToBatt] = prices[h] / 1000

		// PV balance: pv_to_load + pv_to_batt + curtail == pv[h]
		a.Set(row, base+varPVToLoad, 1)
		a.Set(row, base+varPVToBatt, 1)
		a.Set(row, base+varCurtail, 1)
		b[row] = pv[h]
		row++

		// Load balance: pv_to_load + batt_to_load + grid_to_load == load[h]
		a.Set(row, base+varPVToLoad, 1)
		a.Set(row, base+varBattToLoad, 1)
		a.Set(row, base+varGridToLoad, 1)
		b[row] = load[h]
		row++

		// Charge power cap with slack.
		a.Set(row, base+varPVToBatt, 1)
		a.Set(row, base+varGridToBatt, 1)
		a.Set(row, chargeSlack+h, 1)
		b[row] = batt.MaxChargeW
		row++

		// Discharge power cap with slack.
		a.Set(row, base+varBattToLoad, 1)
		a.Set(row, dischargeSlack+h, 1)
		b[row] = batt.MaxDischargeW
		row++

		// SoC recurrence: soc[h] = soc[h-1] + charge - discharge.
		a.Set(row, socBase+h, 1)
		a.Set(row, base+varPVToBatt, -1)
		a.Set(row, base+varGridToBatt, -1)
		a.Set(row, base+varBattToLoad, 1)
		if h == 0 {
			b[row] = batt.InitialWh() - minWh
		} else {
			a.Set(row, socBase+h-1, -1)
			b[row] = 0
		}
		row++

		// SoC upper bound with slack. The lower bound is the variable's
		// own non-negativity.
		a.Set(row, socBase+h, 1)
		a.Set(row, socSlack+h, 1)
		b[row] = span
		row++
	}

	for h := 0; h < n; h++ {
		if eligible[h] {
			continue
		}
		a.Set(row, h*numFlows+varGridToBatt, 1)
		b[row] = 0
		row++
	}

	// The simplex routine expects non-negative right-hand sides.
	for i := 0; i < rows; i++ {
		if b[i] < 0 {
			b[i] = -b[i]
			for j := 0; j < cols; j++ {
				a.Set(i, j, -a.At(i, j))
			}
		}
	}
	return c, a, b
}

// solveWithContext runs the solver in a goroutine so the caller can bound
// the solve by wall clock. A cancelled context is reported the same way as
// an infeasible model.
func solveWithContext(ctx context.Context, c []float64, a *mat.Dense, b []float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, &model.InfeasibleModelError{Status: "timeout", Err: err}
	}

	type solved struct {
		x   []float64
		err error
	}
	ch := make(chan solved, 1)
	go func() {
		x, err := lpSolve(c, a, b)
		ch <- solved{x: x, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, &model.InfeasibleModelError{Status: "timeout", Err: ctx.Err()}
	case s := <-ch:
		if s.err != nil {
			status := "solver"
			if errors.Is(s.err, lp.ErrInfeasible) {
				status = "infeasible"
			}
			return nil, &model.InfeasibleModelError{Status: status, Err: s.err}
		}
		return s.x, nil
	}
}

func extract(x []float64, prices []float64, minWh float64) *model.DispatchResult {
	res := model.NewDispatchResult()
	socBase := model.Hours * numFlows

	for h := 0; h < model.Hours; h++ {
		base := h * numFlows
		gl := clean(x[base+varGridToLoad])
		gb := clean(x[base+varGridToBatt])
		pb := clean(x[base+varPVToBatt])
		bl := clean(x[base+varBattToLoad])
		cu := clean(x[base+varCurtail])
		soc := clean(x[socBase+h]) + minWh

		grid := gl + gb
		res.GridDrawWh[h] = model.Round2(grid)
		res.BatteryFlowWh[h] = model.Round2(bl - pb - gb)
		res.CostEur[h] = model.Round4(grid / 1000 * prices[h])
		res.SoCWh[h] = model.Round2(soc)
		res.CurtailedWh[h] = model.Round2(cu)
	}
	res.Finalize(true)
	return res
}

// clean snaps solver noise below the reporting tolerance to zero.
func clean(v float64) float64 {
	if math.Abs(v) < zeroTol {
		return 0
	}
	return v
}
