package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/kwhlab/battsim/core/model"
)

// Row is one hour of the flat result ledger.
type Row struct {
	Hour          int     `json:"hour"`
	GridDrawWh    float64 `json:"grid_draw_wh"`
	BatteryFlowWh float64 `json:"battery_flow_wh"`
	CostEur       float64 `json:"cost_eur"`
	SoCWh         float64 `json:"soc_wh"`
}

// Ledger is the serializable form of a DispatchResult.
type Ledger struct {
	Rows             []Row    `json:"rows"`
	TotalCostEur     float64  `json:"total_cost_eur"`
	TotalGridKWh     float64  `json:"total_grid_kwh"`
	WeightedAvgPrice *float64 `json:"weighted_avg_price"`
}

// NewLedger flattens a DispatchResult into 24 rows plus totals.
func NewLedger(res *model.DispatchResult) Ledger {
	rows := make([]Row, model.Hours)
	for h := 0; h < model.Hours; h++ {
		rows[h] = Row{
			Hour:          h,
			GridDrawWh:    res.GridDrawWh[h],
			BatteryFlowWh: res.BatteryFlowWh[h],
			CostEur:       res.CostEur[h],
			SoCWh:         res.SoCWh[h],
		}
	}
	return Ledger{
		Rows:             rows,
		TotalCostEur:     res.TotalCostEur,
		TotalGridKWh:     res.TotalGridKWh,
		WeightedAvgPrice: res.WeightedAvgPrice,
	}
}

// WriteJSON writes the ledger to w in JSON format.
func WriteJSON(w io.Writer, res *model.DispatchResult) error {
	enc := json.NewEncoder(w)
	return enc.Encode(NewLedger(res))
}

// WriteCSV writes the ledger to w as CSV with a header row.
func WriteCSV(w io.Writer, res *model.DispatchResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"hour", "grid_draw_wh", "battery_flow_wh", "cost_eur", "soc_wh"}); err != nil {
		return err
	}
	for _, r := range NewLedger(res).Rows {
		rec := []string{
			strconv.Itoa(r.Hour),
			strconv.FormatFloat(r.GridDrawWh, 'f', -1, 64),
			strconv.FormatFloat(r.BatteryFlowWh, 'f', -1, 64),
			strconv.FormatFloat(r.CostEur, 'f', -1, 64),
			strconv.FormatFloat(r.SoCWh, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
