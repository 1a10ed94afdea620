package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  addr: ":9999"
logging:
  level: debug
metrics:
  prometheus_enabled: true
solver:
  timeout_millis: 250
  default_price_spread: 0.05
pricefeed:
  base_url: "https://api.example.test"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Metrics.PrometheusEnabled)
	assert.Equal(t, "9090", cfg.Metrics.PrometheusPort)
	assert.Equal(t, 250, cfg.Solver.TimeoutMillis)
	assert.Equal(t, 0.05, cfg.Solver.DefaultPriceSpread)
	assert.Equal(t, "https://api.example.test", cfg.PriceFeed.BaseURL)
	assert.Equal(t, 10, cfg.PriceFeed.TimeoutSeconds)
}

func TestLoadDefaults(t *testing.T) {
	path := writeFile(t, "config.json", `{}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 5000, cfg.Solver.TimeoutMillis)
	assert.Equal(t, "battsim", cfg.MQTT.ClientID)
}

func TestLoadRejectsUnknownLevel(t *testing.T) {
	path := writeFile(t, "config.yaml", "logging:\n  level: verbose\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsUnknownLogFormat(t *testing.T) {
	path := writeFile(t, "config.yaml", "logging:\n  format: xml\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadUnsupportedFormat(t *testing.T) {
	path := writeFile(t, "config.toml", "x = 1")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadScenario(t *testing.T) {
	path := writeFile(t, "scenario.yaml", `
model: 3
load_wh: [500, 500, 500, 500, 500, 500, 500, 500, 500, 500, 500, 500, 500, 500, 500, 500, 500, 500, 500, 500, 500, 500, 500, 500]
pv_wh: [0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 3000, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0]
prices_eur_kwh: [0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.4, 0.4, 0.4, 0.4, 0.4, 0.4, 0.4, 0.4, 0.4, 0.4, 0.4, 0.4]
price_spread_eur_kwh: 0.1
battery:
  capacity_wh: 5000
  max_charge_w: 2000
  max_discharge_w: 2000
  initial_soc: 0.2
  min_soc: 0.1
`)
	scen, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, 3, scen.Model)
	assert.Len(t, scen.LoadWh, 24)

	price, err := scen.Price()
	require.NoError(t, err)
	assert.True(t, price.IsDynamic())

	batt := scen.BatteryConfig()
	assert.Equal(t, 5000.0, batt.CapacityWh)
	assert.Equal(t, 0.1, batt.MinSoC)
	assert.Equal(t, 1.0, batt.MaxSoC)
}

func TestScenarioPriceRequirements(t *testing.T) {
	s := &Scenario{Model: 1}
	_, err := s.Price()
	require.Error(t, err)

	s = &Scenario{Model: 3}
	_, err = s.Price()
	require.Error(t, err)

	static := 0.3
	s = &Scenario{Model: 1, StaticPrice: &static}
	price, err := s.Price()
	require.NoError(t, err)
	assert.False(t, price.IsDynamic())
}
