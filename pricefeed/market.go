package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kwhlab/battsim/core/logger"
	"github.com/kwhlab/battsim/core/model"
)

// MarketClient fetches day-ahead exchange prices from an aWATTar-style
// marketdata endpoint. Prices arrive in EUR/MWh and are converted to
// EUR/kWh.
type MarketClient struct {
	baseURL string
	client  *http.Client
	log     logger.Logger
}

// NewMarketClient creates a client for the given endpoint.
func NewMarketClient(cfg Config, log logger.Logger) *MarketClient {
	return &MarketClient{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		log:     log,
	}
}

type marketResponse struct {
	Data []marketEntry `json:"data"`
}

type marketEntry struct {
	StartTimestamp int64   `json:"start_timestamp"`
	MarketPrice    float64 `json:"marketprice"` // EUR/MWh
}

// Prices fetches the next day of hourly prices. The endpoint must return
// exactly one entry per hour.
func (c *MarketClient) Prices(ctx context.Context) (model.PriceSeries, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/marketdata", nil)
	if err != nil {
		return model.PriceSeries{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return model.PriceSeries{}, fmt.Errorf("fetch market data: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return model.PriceSeries{}, fmt.Errorf("market data: unexpected status %d", resp.StatusCode)
	}

	var body marketResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return model.PriceSeries{}, fmt.Errorf("decode market data: %w", err)
	}
	if len(body.Data) != model.Hours {
		return model.PriceSeries{}, &model.ValidationError{
			Field:  "price",
			Reason: fmt.Sprintf("market feed returned %d hours, expected %d", len(body.Data), model.Hours),
		}
	}

	prices := make([]float64, model.Hours)
	for i, e := range body.Data {
		prices[i] = e.MarketPrice / 1000
	}
	series := model.DynamicPrices(prices)
	if err := series.Validate(); err != nil {
		return model.PriceSeries{}, err
	}
	c.log.Debugw("fetched day-ahead prices", map[string]any{"hours": len(prices)})
	return series, nil
}
