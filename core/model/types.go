package model

import (
	"fmt"
	"math"
)

// Hours is the fixed simulation horizon. All profiles and dynamic price
// series cover exactly one day at hourly resolution.
const Hours = 24

// HourlyProfile holds one day of hourly energy values in Wh, hour 0..23.
type HourlyProfile []float64

// Validate checks the length and that every value is finite and non-negative.
func (p HourlyProfile) Validate(name string) error {
	if len(p) != Hours {
		return &ValidationError{Field: name, Reason: fmt.Sprintf("expected %d values, got %d", Hours, len(p))}
	}
	for h, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &ValidationError{Field: name, Reason: fmt.Sprintf("hour %d is not a finite number", h)}
		}
		if v < 0 {
			return &ValidationError{Field: name, Reason: fmt.Sprintf("hour %d is negative", h)}
		}
	}
	return nil
}

// PriceSeries is either a flat tariff applied to all hours or one day of
// hourly market prices. Prices are in EUR/kWh; dynamic prices may be
// negative.
type PriceSeries struct {
	static  float64
	dynamic []float64
}

// StaticPrice returns a series applying the same tariff to every hour.
func StaticPrice(eurPerKWh float64) PriceSeries {
	return PriceSeries{static: eurPerKWh}
}

// DynamicPrices returns a series of hourly market prices. The slice is
// copied so the caller may reuse its buffer.
func DynamicPrices(eurPerKWh []float64) PriceSeries {
	d := make([]float64, len(eurPerKWh))
	copy(d, eurPerKWh)
	return PriceSeries{dynamic: d}
}

// IsDynamic reports whether the series carries per-hour market prices.
func (p PriceSeries) IsDynamic() bool { return p.dynamic != nil }

// At resolves the price for the given hour.
func (p PriceSeries) At(hour int) float64 {
	if p.dynamic != nil {
		return p.dynamic[hour]
	}
	return p.static
}

// Dynamic returns a copy of the hourly prices, or nil for a flat tariff.
func (p PriceSeries) Dynamic() []float64 {
	if p.dynamic == nil {
		return nil
	}
	d := make([]float64, len(p.dynamic))
	copy(d, p.dynamic)
	return d
}

// Validate checks the series length and that every price is finite.
func (p PriceSeries) Validate() error {
	if p.dynamic == nil {
		if math.IsNaN(p.static) || math.IsInf(p.static, 0) {
			return &ValidationError{Field: "price", Reason: "static price is not a finite number"}
		}
		return nil
	}
	if len(p.dynamic) != Hours {
		return &ValidationError{Field: "price", Reason: fmt.Sprintf("expected %d dynamic prices, got %d", Hours, len(p.dynamic))}
	}
	for h, v := range p.dynamic {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &ValidationError{Field: "price", Reason: fmt.Sprintf("hour %d is not a finite number", h)}
		}
	}
	return nil
}

// BatteryConfig describes the storage unit attached to the household.
// Power limits act as per-hour energy caps: at hourly resolution W and Wh
// are numerically identical.
type BatteryConfig struct {
	CapacityWh    float64
	MaxChargeW    float64
	MaxDischargeW float64
	InitialSoC    float64 // fraction of capacity at hour 0
	MinSoC        float64 // lower usable bound, fraction
	MaxSoC        float64 // upper usable bound, fraction
}

// NewBatteryConfig returns a config with the full SoC window usable.
func NewBatteryConfig(capacityWh, maxChargeW, maxDischargeW, initialSoC float64) BatteryConfig {
	return BatteryConfig{
		CapacityWh:    capacityWh,
		MaxChargeW:    maxChargeW,
		MaxDischargeW: maxDischargeW,
		InitialSoC:    initialSoC,
		MinSoC:        0,
		MaxSoC:        1,
	}
}

// CheckFinite rejects NaN or infinite parameters. Bound ordering is not
// checked here; the optimizer surfaces malformed bounds as an infeasible
// model instead.
func (b BatteryConfig) CheckFinite() error {
	fields := map[string]float64{
		"capacity_wh":      b.CapacityWh,
		"max_charge_w":     b.MaxChargeW,
		"max_discharge_w":  b.MaxDischargeW,
		"initial_soc":      b.InitialSoC,
		"min_soc_fraction": b.MinSoC,
		"max_soc_fraction": b.MaxSoC,
	}
	for name, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &ValidationError{Field: name, Reason: "not a finite number"}
		}
	}
	return nil
}

// Validate checks all battery invariants. A zero capacity is allowed and
// turns the battery into a pass-through.
func (b BatteryConfig) Validate() error {
	if err := b.CheckFinite(); err != nil {
		return err
	}
	if b.CapacityWh < 0 {
		return &ValidationError{Field: "capacity_wh", Reason: "must be >= 0"}
	}
	if b.MaxChargeW < 0 {
		return &ValidationError{Field: "max_charge_w", Reason: "must be >= 0"}
	}
	if b.MaxDischargeW < 0 {
		return &ValidationError{Field: "max_discharge_w", Reason: "must be >= 0"}
	}
	if b.MinSoC < 0 || b.MaxSoC > 1 {
		return &ValidationError{Field: "soc_fraction", Reason: "window must lie within [0, 1]"}
	}
	if b.MinSoC > b.InitialSoC || b.InitialSoC > b.MaxSoC {
		return &ValidationError{Field: "initial_soc", Reason: "must satisfy min_soc <= initial_soc <= max_soc"}
	}
	return nil
}

// MinWh returns the lower SoC bound in Wh.
func (b BatteryConfig) MinWh() float64 { return b.MinSoC * b.CapacityWh }

// MaxWh returns the upper SoC bound in Wh.
func (b BatteryConfig) MaxWh() float64 { return b.MaxSoC * b.CapacityWh }

// InitialWh returns the stored energy at hour 0 in Wh.
func (b BatteryConfig) InitialWh() float64 { return b.InitialSoC * b.CapacityWh }
