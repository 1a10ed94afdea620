// Package simulate exposes the dispatchers over HTTP in the flat tabular
// form consumed by the front-end.
package simulate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kwhlab/battsim/core/controller"
	"github.com/kwhlab/battsim/core/logger"
	coremetrics "github.com/kwhlab/battsim/core/metrics"
	"github.com/kwhlab/battsim/core/model"
	"github.com/kwhlab/battsim/core/optimize"
	"github.com/kwhlab/battsim/core/simulate"
	"github.com/kwhlab/battsim/infra/mqtt"
	"github.com/kwhlab/battsim/pkg/export"
)

// Request selects a model and carries the full simulation input.
type Request struct {
	Model int `json:"model"`

	LoadWh []float64 `json:"load_wh"`
	PVWh   []float64 `json:"pv_wh"`

	StaticPrice *float64  `json:"static_price_eur_kwh,omitempty"`
	Prices      []float64 `json:"prices_eur_kwh,omitempty"`

	Battery     BatteryRequest `json:"battery"`
	PriceSpread float64        `json:"price_spread_eur_kwh"`
}

// BatteryRequest mirrors model.BatteryConfig with optional SoC bounds.
type BatteryRequest struct {
	CapacityWh    float64  `json:"capacity_wh"`
	MaxChargeW    float64  `json:"max_charge_w"`
	MaxDischargeW float64  `json:"max_discharge_w"`
	InitialSoC    float64  `json:"initial_soc"`
	MinSoC        *float64 `json:"min_soc,omitempty"`
	MaxSoC        *float64 `json:"max_soc,omitempty"`
}

func (b BatteryRequest) toConfig() model.BatteryConfig {
	cfg := model.NewBatteryConfig(b.CapacityWh, b.MaxChargeW, b.MaxDischargeW, b.InitialSoC)
	if b.MinSoC != nil {
		cfg.MinSoC = *b.MinSoC
	}
	if b.MaxSoC != nil {
		cfg.MaxSoC = *b.MaxSoC
	}
	return cfg
}

// Response wraps the result ledger with the request id.
type Response struct {
	SimulationID string `json:"simulation_id"`
	Model        int    `json:"model"`
	export.Ledger
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves POST /api/simulate.
type Handler struct {
	log           logger.Logger
	sink          coremetrics.MetricsSink
	pub           mqtt.Publisher
	decider       controller.ModeDecider
	solveTimeout  time.Duration
	defaultSpread float64
}

// NewHandler wires the dispatchers to HTTP. sink, pub and decider may be
// nil; solveTimeout bounds the LP solve for model 3. defaultSpread fills
// in when a request omits price_spread_eur_kwh, matching the offline CLI.
func NewHandler(log logger.Logger, sink coremetrics.MetricsSink, pub mqtt.Publisher, decider controller.ModeDecider, solveTimeout time.Duration, defaultSpread float64) *Handler {
	if sink == nil {
		sink = coremetrics.NopSink{}
	}
	if solveTimeout <= 0 {
		solveTimeout = 5 * time.Second
	}
	return &Handler{log: log, sink: sink, pub: pub, decider: decider, solveTimeout: solveTimeout, defaultSpread: defaultSpread}
}

func modelName(m int) string {
	switch m {
	case 1:
		return "static_rule_based"
	case 2:
		return "dynamic_rule_based"
	case 3:
		return "optimal"
	case 4:
		return "external_controller"
	}
	return "unknown"
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	id := uuid.NewString()
	start := time.Now()
	res, err := h.run(r.Context(), req)
	rec := coremetrics.SimulationRecord{
		ID:              id,
		Model:           modelName(req.Model),
		DurationSeconds: time.Since(start).Seconds(),
	}

	if err != nil {
		status, outcome := classify(err)
		rec.Outcome = outcome
		if err := h.sink.RecordSimulation(rec); err != nil {
			h.log.Warnf("record simulation: %v", err)
		}
		h.log.Warnf("simulation %s failed: %v", id, err)
		writeError(w, status, err.Error())
		return
	}

	rec.Outcome = "ok"
	rec.TotalCostEur = res.TotalCostEur
	rec.TotalGridKWh = res.TotalGridKWh
	if err := h.sink.RecordSimulation(rec); err != nil {
		h.log.Warnf("record simulation: %v", err)
	}
	if h.pub != nil {
		if err := h.pub.PublishSchedule(rec.Model, res); err != nil {
			h.log.Warnf("publish schedule: %v", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	resp := Response{SimulationID: id, Model: req.Model, Ledger: export.NewLedger(res)}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Errorf("encode response: %v", err)
	}
}

func (h *Handler) run(ctx context.Context, req Request) (*model.DispatchResult, error) {
	batt := req.Battery.toConfig()
	price, err := h.price(req)
	if err != nil {
		return nil, err
	}

	spread := req.PriceSpread
	if spread == 0 {
		spread = h.defaultSpread
	}

	switch req.Model {
	case 1, 2:
		return simulate.Run(req.LoadWh, req.PVWh, price, batt)
	case 3:
		ctx, cancel := context.WithTimeout(ctx, h.solveTimeout)
		defer cancel()
		return optimize.Optimize(ctx, req.LoadWh, req.PVWh, price, batt, spread)
	case 4:
		dec := h.decider
		if dec == nil {
			dec = controller.SpreadDecider{Spread: spread}
		}
		return controller.Run(req.LoadWh, req.PVWh, price, batt, dec)
	default:
		return nil, &model.InvalidInputError{Reason: "model must be 1, 2, 3 or 4"}
	}
}

func (h *Handler) price(req Request) (model.PriceSeries, error) {
	switch req.Model {
	case 1:
		if req.StaticPrice == nil {
			return model.PriceSeries{}, &model.ValidationError{Field: "static_price_eur_kwh", Reason: "required for model 1"}
		}
		return model.StaticPrice(*req.StaticPrice), nil
	default:
		if req.Prices == nil {
			if req.StaticPrice != nil && req.Model == 4 {
				return model.StaticPrice(*req.StaticPrice), nil
			}
			return model.PriceSeries{}, &model.ValidationError{Field: "prices_eur_kwh", Reason: "required for this model"}
		}
		return model.DynamicPrices(req.Prices), nil
	}
}

func classify(err error) (int, string) {
	var verr *model.ValidationError
	var ierr *model.InvalidInputError
	var ferr *model.InfeasibleModelError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "validation"
	case errors.As(err, &ierr):
		return http.StatusBadRequest, "validation"
	case errors.As(err, &ferr):
		return http.StatusUnprocessableEntity, "infeasible"
	default:
		return http.StatusInternalServerError, "error"
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: msg})
}
