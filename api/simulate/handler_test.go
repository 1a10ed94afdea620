package simulate

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	coremetrics "github.com/kwhlab/battsim/core/metrics"
	"github.com/kwhlab/battsim/core/model"
	"github.com/kwhlab/battsim/infra/logger"
	"github.com/kwhlab/battsim/infra/mqtt"
)

type captureSink struct {
	mu   sync.Mutex
	recs []coremetrics.SimulationRecord
}

func (c *captureSink) RecordSimulation(rec coremetrics.SimulationRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recs = append(c.recs, rec)
	return nil
}

func (c *captureSink) Close() {}

func postRequest(t *testing.T, h http.Handler, req Request) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/simulate", bytes.NewReader(body)))
	return rec
}

func baseRequest(modelNum int) Request {
	load := make([]float64, model.Hours)
	pv := make([]float64, model.Hours)
	for i := range load {
		load[i] = 500
	}
	pv[12] = 3000
	price := 0.30
	req := Request{
		Model:   modelNum,
		LoadWh:  load,
		PVWh:    pv,
		Battery: BatteryRequest{CapacityWh: 5000, MaxChargeW: 2000, MaxDischargeW: 2000},
	}
	switch modelNum {
	case 1:
		req.StaticPrice = &price
	default:
		prices := make([]float64, model.Hours)
		for i := range prices {
			prices[i] = 0.1
			if i >= 12 {
				prices[i] = 0.4
			}
		}
		req.Prices = prices
		req.PriceSpread = 0.1
	}
	return req
}

func TestHandlerStaticModel(t *testing.T) {
	sink := &captureSink{}
	pub := mqtt.NewMockPublisher()
	h := NewHandler(logger.NopLogger{}, sink, pub, nil, time.Second, 0)

	rec := postRequest(t, h, baseRequest(1))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SimulationID == "" {
		t.Fatal("missing simulation id")
	}
	if len(resp.Rows) != model.Hours {
		t.Fatalf("expected %d rows got %d", model.Hours, len(resp.Rows))
	}
	if resp.WeightedAvgPrice != nil {
		t.Fatal("weighted price must be null for model 1")
	}
	if len(sink.recs) != 1 || sink.recs[0].Outcome != "ok" {
		t.Fatalf("expected one ok record, got %+v", sink.recs)
	}
	if len(pub.Published) != 1 {
		t.Fatalf("expected one published schedule, got %d", len(pub.Published))
	}
}

func TestHandlerOptimalModel(t *testing.T) {
	h := NewHandler(logger.NopLogger{}, nil, nil, nil, 5*time.Second, 0)
	rec := postRequest(t, h, baseRequest(3))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.WeightedAvgPrice == nil {
		t.Fatal("expected weighted price for the dynamic tariff")
	}
}

func TestHandlerDefaultPriceSpread(t *testing.T) {
	h := NewHandler(logger.NopLogger{}, nil, nil, nil, 5*time.Second, 0.1)

	// A request omitting the spread must dispatch exactly like one that
	// spells out the configured default.
	omitted := baseRequest(3)
	omitted.PriceSpread = 0
	recOmitted := postRequest(t, h, omitted)
	if recOmitted.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", recOmitted.Code, recOmitted.Body.String())
	}
	recExplicit := postRequest(t, h, baseRequest(3))
	if recExplicit.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", recExplicit.Code, recExplicit.Body.String())
	}

	var a, b Response
	if err := json.Unmarshal(recOmitted.Body.Bytes(), &a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := json.Unmarshal(recExplicit.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(a.Ledger, b.Ledger) {
		t.Fatalf("omitted spread dispatched differently: %+v vs %+v", a.Ledger, b.Ledger)
	}
}

func TestHandlerControllerModel(t *testing.T) {
	h := NewHandler(logger.NopLogger{}, nil, nil, nil, time.Second, 0)
	rec := postRequest(t, h, baseRequest(4))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandlerValidationFailure(t *testing.T) {
	sink := &captureSink{}
	h := NewHandler(logger.NopLogger{}, sink, nil, nil, time.Second, 0)

	req := baseRequest(2)
	req.LoadWh = req.LoadWh[:10]
	rec := postRequest(t, h, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if len(sink.recs) != 1 || sink.recs[0].Outcome != "validation" {
		t.Fatalf("expected one validation record, got %+v", sink.recs)
	}
}

func TestHandlerInfeasibleModel(t *testing.T) {
	h := NewHandler(logger.NopLogger{}, nil, nil, nil, time.Second, 0)

	req := baseRequest(3)
	minSoC, maxSoC := 0.9, 0.1
	req.Battery.InitialSoC = 0.5
	req.Battery.MinSoC = &minSoC
	req.Battery.MaxSoC = &maxSoC
	rec := postRequest(t, h, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandlerUnknownModel(t *testing.T) {
	h := NewHandler(logger.NopLogger{}, nil, nil, nil, time.Second, 0)
	rec := postRequest(t, h, baseRequest(9))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestHandlerMethodNotAllowed(t *testing.T) {
	h := NewHandler(logger.NopLogger{}, nil, nil, nil, time.Second, 0)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/simulate", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", rec.Code)
	}
}

func TestExampleHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewExampleHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/example", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var body map[string][]float64
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body["load_wh"]) != model.Hours || len(body["pv_wh"]) != model.Hours {
		t.Fatal("example profiles must cover the full day")
	}
}
