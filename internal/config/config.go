// Package config loads batch-run configuration from YAML files.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"dividend-strategy-lab/internal/domain"
)

var (
	ErrNoInstruments = errors.New("config: at least one instrument is required")
	ErrNoStrategies  = errors.New("config: at least one strategy is required")
)

// Config is the top-level configuration for a pipeline run.
type Config struct {
	Instruments    []Instrument     `yaml:"instruments"`
	InitialCapital float64          `yaml:"initial_capital"`
	CostRate       float64          `yaml:"cost_rate"`
	RiskFreeRate   float64          `yaml:"risk_free_rate"`
	Strategies     []StrategyConfig `yaml:"strategies"`
	MonteCarlo     MonteCarlo       `yaml:"monte_carlo"`
	Optimizer      Optimizer        `yaml:"optimizer"`
	Storage        Storage          `yaml:"storage"`
}

// Instrument names one symbol and where its bar history comes from.
type Instrument struct {
	Symbol  string `yaml:"symbol"`
	CSVPath string `yaml:"csv_path"` // optional; empty means read from the bar store
}

// StrategyConfig mirrors domain.StrategyConfig in YAML form.
type StrategyConfig struct {
	Type            string `yaml:"type"`
	EntryDaysBefore *int   `yaml:"entry_days_before,omitempty"`
	ExitDaysAfter   *int   `yaml:"exit_days_after,omitempty"`
}

// MonteCarlo holds resampling simulation settings.
type MonteCarlo struct {
	Enabled        bool   `yaml:"enabled"`
	NumSimulations int    `yaml:"num_simulations"`
	Method         string `yaml:"method"`
	Seed           int64  `yaml:"seed"`
	BlockSize      int    `yaml:"block_size"`
	FailurePolicy  string `yaml:"failure_policy"`
	Strategy       string `yaml:"strategy"` // strategy type the simulations run, default BUY_AND_HOLD
}

// Optimizer holds portfolio construction settings.
type Optimizer struct {
	Method             string  `yaml:"method"`
	MaxVolatility      float64 `yaml:"max_volatility"`
	DefaultCorrelation float64 `yaml:"default_correlation"`
	MaxIterations      int     `yaml:"max_iterations"`
}

// Storage selects the persistence backends. Empty DSNs mean in-memory.
type Storage struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
}

// Load reads, defaults and validates the YAML config at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.InitialCapital == 0 {
		c.InitialCapital = 100000
	}
	if c.MonteCarlo.NumSimulations == 0 {
		c.MonteCarlo.NumSimulations = 1000
	}
	if c.MonteCarlo.Method == "" {
		c.MonteCarlo.Method = domain.ResampleBootstrap
	}
	if c.MonteCarlo.BlockSize == 0 {
		c.MonteCarlo.BlockSize = 5
	}
	if c.MonteCarlo.FailurePolicy == "" {
		c.MonteCarlo.FailurePolicy = "exclude"
	}
	if c.MonteCarlo.Strategy == "" {
		c.MonteCarlo.Strategy = domain.StrategyTypeBuyAndHold
	}
	if c.Optimizer.Method == "" {
		c.Optimizer.Method = domain.OptimizeMaxSharpe
	}
	if c.Optimizer.MaxVolatility == 0 {
		c.Optimizer.MaxVolatility = 0.15
	}
	if c.Optimizer.DefaultCorrelation == 0 {
		c.Optimizer.DefaultCorrelation = 0.3
	}
}

// Validate checks cross-field constraints after defaulting.
func (c *Config) Validate() error {
	if len(c.Instruments) == 0 {
		return ErrNoInstruments
	}
	for i, inst := range c.Instruments {
		if inst.Symbol == "" {
			return fmt.Errorf("config: instrument %d has no symbol", i)
		}
	}
	if len(c.Strategies) == 0 {
		return ErrNoStrategies
	}
	for i, s := range c.Strategies {
		if s.Type == "" {
			return fmt.Errorf("config: strategy %d has no type", i)
		}
	}
	if c.InitialCapital <= 0 {
		return fmt.Errorf("config: initial_capital must be positive, got %v", c.InitialCapital)
	}
	if c.CostRate < 0 {
		return fmt.Errorf("config: cost_rate must be non-negative, got %v", c.CostRate)
	}
	switch c.MonteCarlo.Method {
	case domain.ResampleBootstrap, domain.ResampleBlockBootstrap, domain.ResampleRandomWalk:
	default:
		return fmt.Errorf("config: unknown monte_carlo method %q", c.MonteCarlo.Method)
	}
	switch c.Optimizer.Method {
	case domain.OptimizeMaxSharpe, domain.OptimizeMinVariance, domain.OptimizeEqualWeight:
	default:
		return fmt.Errorf("config: unknown optimizer method %q", c.Optimizer.Method)
	}
	if c.Optimizer.MaxVolatility <= 0 {
		return fmt.Errorf("config: optimizer max_volatility must be positive, got %v", c.Optimizer.MaxVolatility)
	}
	return nil
}

// DomainStrategies converts the YAML strategy list into domain configs.
func (c *Config) DomainStrategies() []domain.StrategyConfig {
	out := make([]domain.StrategyConfig, len(c.Strategies))
	for i, s := range c.Strategies {
		out[i] = domain.StrategyConfig{
			StrategyType:    s.Type,
			EntryDaysBefore: s.EntryDaysBefore,
			ExitDaysAfter:   s.ExitDaysAfter,
		}
	}
	return out
}
