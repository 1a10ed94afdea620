package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kwhlab/battsim/core/model"
)

// Scenario is one offline simulation input, loadable from a YAML or JSON
// file for the simulate subcommand.
type Scenario struct {
	Model       int             `json:"model"`
	LoadWh      []float64       `json:"load_wh"`
	PVWh        []float64       `json:"pv_wh"`
	StaticPrice *float64        `json:"static_price_eur_kwh"`
	Prices      []float64       `json:"prices_eur_kwh"`
	Battery     ScenarioBattery `json:"battery"`
	PriceSpread float64         `json:"price_spread_eur_kwh"`
}

// ScenarioBattery mirrors model.BatteryConfig with optional SoC bounds.
type ScenarioBattery struct {
	CapacityWh    float64  `json:"capacity_wh"`
	MaxChargeW    float64  `json:"max_charge_w"`
	MaxDischargeW float64  `json:"max_discharge_w"`
	InitialSoC    float64  `json:"initial_soc"`
	MinSoC        *float64 `json:"min_soc"`
	MaxSoC        *float64 `json:"max_soc"`
}

// LoadScenario reads a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported scenario format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	var s Scenario
	if err := k.UnmarshalWithConf("", &s, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	return &s, nil
}

// Price resolves the scenario's tariff. Model 1 requires a static price,
// the other models a dynamic series.
func (s *Scenario) Price() (model.PriceSeries, error) {
	if s.Model == 1 {
		if s.StaticPrice == nil {
			return model.PriceSeries{}, fmt.Errorf("model 1 requires static_price_eur_kwh")
		}
		return model.StaticPrice(*s.StaticPrice), nil
	}
	if s.Prices == nil {
		if s.StaticPrice != nil && s.Model == 4 {
			return model.StaticPrice(*s.StaticPrice), nil
		}
		return model.PriceSeries{}, fmt.Errorf("model %d requires prices_eur_kwh", s.Model)
	}
	return model.DynamicPrices(s.Prices), nil
}

// BatteryConfig converts the scenario battery to the core config.
func (s *Scenario) BatteryConfig() model.BatteryConfig {
	cfg := model.NewBatteryConfig(s.Battery.CapacityWh, s.Battery.MaxChargeW, s.Battery.MaxDischargeW, s.Battery.InitialSoC)
	if s.Battery.MinSoC != nil {
		cfg.MinSoC = *s.Battery.MinSoC
	}
	if s.Battery.MaxSoC != nil {
		cfg.MaxSoC = *s.Battery.MaxSoC
	}
	return cfg
}
