package simulate

import (
	"encoding/json"
	"net/http"
)

// Example day profiles offered to the front-end as a starting point: a
// typical household load curve and a clear-sky PV curve, both in Wh.
var (
	exampleLoadWh = []float64{
		300, 250, 200, 180, 200, 350, 500, 600, 400, 350,
		300, 350, 400, 350, 300, 400, 600, 800, 900, 700,
		600, 500, 400, 350,
	}
	examplePVWh = []float64{
		0, 0, 0, 0, 0, 50, 200, 400, 600, 800,
		900, 950, 900, 800, 600, 400, 200, 50, 0, 0,
		0, 0, 0, 0,
	}
)

// NewExampleHandler serves GET /api/example with the sample profiles.
func NewExampleHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string][]float64{
			"load_wh": exampleLoadWh,
			"pv_wh":   examplePVWh,
		})
	})
}
