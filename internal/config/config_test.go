package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dividend-strategy-lab/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
instruments:
  - symbol: SCHD
    csv_path: testdata/schd.csv
  - symbol: VYM
initial_capital: 50000
cost_rate: 0.001
risk_free_rate: 0.04
strategies:
  - type: BUY_AND_HOLD
  - type: DIVIDEND_CAPTURE
    entry_days_before: 3
    exit_days_after: 2
monte_carlo:
  enabled: true
  num_simulations: 500
  method: block_bootstrap
  seed: 42
  block_size: 10
optimizer:
  method: min_variance
  max_volatility: 0.20
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.Instruments, 2)
	assert.Equal(t, "SCHD", cfg.Instruments[0].Symbol)
	assert.Equal(t, "testdata/schd.csv", cfg.Instruments[0].CSVPath)
	assert.InDelta(t, 50000.0, cfg.InitialCapital, 1e-9)
	assert.InDelta(t, 0.001, cfg.CostRate, 1e-9)
	assert.InDelta(t, 0.04, cfg.RiskFreeRate, 1e-9)

	strategies := cfg.DomainStrategies()
	require.Len(t, strategies, 2)
	assert.Equal(t, domain.StrategyTypeBuyAndHold, strategies[0].StrategyType)
	require.NotNil(t, strategies[1].EntryDaysBefore)
	assert.Equal(t, 3, *strategies[1].EntryDaysBefore)
	require.NotNil(t, strategies[1].ExitDaysAfter)
	assert.Equal(t, 2, *strategies[1].ExitDaysAfter)

	assert.True(t, cfg.MonteCarlo.Enabled)
	assert.Equal(t, 500, cfg.MonteCarlo.NumSimulations)
	assert.Equal(t, domain.ResampleBlockBootstrap, cfg.MonteCarlo.Method)
	assert.Equal(t, int64(42), cfg.MonteCarlo.Seed)
	assert.Equal(t, 10, cfg.MonteCarlo.BlockSize)

	assert.Equal(t, domain.OptimizeMinVariance, cfg.Optimizer.Method)
	assert.InDelta(t, 0.20, cfg.Optimizer.MaxVolatility, 1e-9)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
instruments:
  - symbol: SCHD
strategies:
  - type: BUY_AND_HOLD
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.InDelta(t, 100000.0, cfg.InitialCapital, 1e-9)
	assert.Equal(t, 1000, cfg.MonteCarlo.NumSimulations)
	assert.Equal(t, domain.ResampleBootstrap, cfg.MonteCarlo.Method)
	assert.Equal(t, 5, cfg.MonteCarlo.BlockSize)
	assert.Equal(t, "exclude", cfg.MonteCarlo.FailurePolicy)
	assert.Equal(t, domain.StrategyTypeBuyAndHold, cfg.MonteCarlo.Strategy)
	assert.Equal(t, domain.OptimizeMaxSharpe, cfg.Optimizer.Method)
	assert.InDelta(t, 0.15, cfg.Optimizer.MaxVolatility, 1e-9)
	assert.InDelta(t, 0.3, cfg.Optimizer.DefaultCorrelation, 1e-9)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"no instruments": `
strategies:
  - type: BUY_AND_HOLD
`,
		"no strategies": `
instruments:
  - symbol: SCHD
`,
		"blank symbol": `
instruments:
  - symbol: ""
strategies:
  - type: BUY_AND_HOLD
`,
		"negative capital": `
instruments:
  - symbol: SCHD
initial_capital: -1
strategies:
  - type: BUY_AND_HOLD
`,
		"unknown mc method": `
instruments:
  - symbol: SCHD
strategies:
  - type: BUY_AND_HOLD
monte_carlo:
  method: jackknife
`,
		"unknown optimizer method": `
instruments:
  - symbol: SCHD
strategies:
  - type: BUY_AND_HOLD
optimizer:
  method: max_profit
`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
