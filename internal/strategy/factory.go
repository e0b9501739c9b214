package strategy

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"dividend-strategy-lab/internal/domain"
)

// Factory errors
var (
	ErrUnknownStrategyType    = errors.New("unknown strategy type")
	ErrMissingEntryDaysBefore = errors.New("DIVIDEND_CAPTURE requires EntryDaysBefore")
	ErrMissingExitDaysAfter   = errors.New("DIVIDEND_CAPTURE/CUSTOM_DIVIDEND_CAPTURE requires ExitDaysAfter")
)

// Factory builds a Strategy from its validated configuration.
type Factory func(cfg domain.StrategyConfig) (Strategy, error)

// Registry maps strategy types to factories. The built-in types are
// registered at construction; additional implementations register
// explicitly; there is no plugin discovery.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a Registry pre-populated with the built-in strategies.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register(domain.StrategyTypeBuyAndHold, fromBuyAndHoldConfig)
	r.Register(domain.StrategyTypeDividendCapture, fromDividendCaptureConfig)
	r.Register(domain.StrategyTypeCustomDividendCapture, fromCustomDividendCaptureConfig)
	return r
}

// Register adds or replaces the factory for a strategy type.
func (r *Registry) Register(strategyType string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strategyType] = f
}

// Build constructs a Strategy for the config's type.
// Returns ErrUnknownStrategyType for unregistered types.
func (r *Registry) Build(cfg domain.StrategyConfig) (Strategy, error) {
	r.mu.RLock()
	f, ok := r.factories[cfg.StrategyType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategyType, cfg.StrategyType)
	}
	return f(cfg)
}

// Types returns the sorted registered strategy types.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

var defaultRegistry = NewRegistry()

// FromConfig builds a Strategy from the default registry.
// Validates required parameters per strategy type.
func FromConfig(cfg domain.StrategyConfig) (Strategy, error) {
	return defaultRegistry.Build(cfg)
}

// fromBuyAndHoldConfig creates BuyAndHoldStrategy from config.
func fromBuyAndHoldConfig(_ domain.StrategyConfig) (Strategy, error) {
	return NewBuyAndHoldStrategy(), nil
}

// fromDividendCaptureConfig creates DividendCaptureStrategy from config.
func fromDividendCaptureConfig(cfg domain.StrategyConfig) (Strategy, error) {
	if cfg.EntryDaysBefore == nil {
		return nil, ErrMissingEntryDaysBefore
	}
	if cfg.ExitDaysAfter == nil {
		return nil, ErrMissingExitDaysAfter
	}
	return NewDividendCaptureStrategy(*cfg.EntryDaysBefore, *cfg.ExitDaysAfter), nil
}

// fromCustomDividendCaptureConfig creates CustomDividendCaptureStrategy from config.
func fromCustomDividendCaptureConfig(cfg domain.StrategyConfig) (Strategy, error) {
	if cfg.ExitDaysAfter == nil {
		return nil, ErrMissingExitDaysAfter
	}
	return NewCustomDividendCaptureStrategy(*cfg.ExitDaysAfter), nil
}
