package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kwhlab/battsim/core/metrics"
	"github.com/kwhlab/battsim/infra/mqtt"
	"github.com/kwhlab/battsim/pricefeed"
)

type Config struct {
	Server    ServerConfig     `json:"server"`
	Logging   LoggingConfig    `json:"logging"`
	Metrics   metrics.Config   `json:"metrics"`
	MQTT      mqtt.Config      `json:"mqtt"`
	PriceFeed pricefeed.Config `json:"pricefeed"`
	Solver    SolverConfig     `json:"solver"`
}

// ServerConfig defines the HTTP listen address of the simulation API.
type ServerConfig struct {
	Addr string `json:"addr"`
}

// SetDefaults applies sane defaults.
func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

// SolverConfig bounds the LP solve and carries the default price spread
// used when a request omits one.
type SolverConfig struct {
	TimeoutMillis      int     `json:"timeout_millis"`
	DefaultPriceSpread float64 `json:"default_price_spread"`
}

// SetDefaults applies sane defaults.
func (c *SolverConfig) SetDefaults() {
	if c.TimeoutMillis <= 0 {
		c.TimeoutMillis = 5000
	}
}

// Validate checks mandatory fields.
func (c SolverConfig) Validate() error {
	if c.DefaultPriceSpread < 0 {
		return fmt.Errorf("default_price_spread must be >= 0")
	}
	return nil
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("B_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "b_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Server.SetDefaults()
	cfg.Logging.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.MQTT.SetDefaults()
	cfg.PriceFeed.SetDefaults()
	cfg.Solver.SetDefaults()
	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Solver.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
