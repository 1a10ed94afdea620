// Package pricefeed supplies validated day-ahead price series to the
// dispatchers. The core performs no network I/O itself; this package is
// the collaborator that does.
package pricefeed

import (
	"context"

	"github.com/kwhlab/battsim/core/model"
)

// Provider returns one day of prices. Implementations must return a
// series that passes model.PriceSeries.Validate.
type Provider interface {
	Prices(ctx context.Context) (model.PriceSeries, error)
}

// Static always returns the same flat tariff.
type Static struct {
	EurPerKWh float64
}

func (s Static) Prices(context.Context) (model.PriceSeries, error) {
	return model.StaticPrice(s.EurPerKWh), nil
}

// Config defines the market data endpoint.
type Config struct {
	BaseURL        string `json:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
}
