package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/kwhlab/battsim/core/model"
)

func sampleResult() *model.DispatchResult {
	res := model.NewDispatchResult()
	for h := 0; h < model.Hours; h++ {
		res.GridDrawWh[h] = float64(h * 100)
		res.CostEur[h] = float64(h) * 0.03
		res.SoCWh[h] = 500
	}
	res.Finalize(true)
	return res
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleResult()); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != model.Hours+1 {
		t.Fatalf("expected %d records got %d", model.Hours+1, len(records))
	}
	if records[0][0] != "hour" {
		t.Fatalf("unexpected header %v", records[0])
	}
	if records[3][1] != "200" {
		t.Fatalf("expected grid 200 in row 3, got %s", records[3][1])
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleResult()); err != nil {
		t.Fatalf("write json: %v", err)
	}
	var ledger Ledger
	if err := json.Unmarshal(buf.Bytes(), &ledger); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(ledger.Rows) != model.Hours {
		t.Fatalf("expected %d rows got %d", model.Hours, len(ledger.Rows))
	}
	if ledger.Rows[5].GridDrawWh != 500 {
		t.Fatalf("expected 500 got %v", ledger.Rows[5].GridDrawWh)
	}
	if ledger.WeightedAvgPrice == nil {
		t.Fatal("expected weighted price in ledger")
	}
}
