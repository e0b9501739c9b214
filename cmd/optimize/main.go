// Package main provides the portfolio optimization entry point. It reads
// per-instrument statistics from a CSV file, applies the selection rules,
// and solves for portfolio weights.
package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"dividend-strategy-lab/internal/domain"
	"dividend-strategy-lab/internal/portfolio"
)

func main() {
	// Parse flags
	statsCSV := flag.String("stats-csv", "", "CSV with instrument statistics (required)")
	method := flag.String("method", domain.OptimizeMaxSharpe, "Method: max_sharpe, min_variance, equal_weight")
	maxVolatility := flag.Float64("max-volatility", 0.15, "Portfolio volatility ceiling")
	defaultCorrelation := flag.Float64("default-correlation", 0.3, "Pairwise correlation when none supplied")
	riskFreeRate := flag.Float64("risk-free-rate", 0, "Annualized risk-free rate")
	frontierPoints := flag.Int("frontier", 0, "Efficient frontier points to compute (0 = skip)")
	outputJSON := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[optimize] ", log.LstdFlags)

	if *statsCSV == "" {
		logger.Fatal("--stats-csv is required")
	}

	instruments, err := loadStats(*statsCSV)
	if err != nil {
		logger.Fatalf("load stats: %v", err)
	}
	logger.Printf("Loaded %d instruments from %s", len(instruments), *statsCSV)

	opts := portfolio.Options{
		MaxVolatility:      *maxVolatility,
		RiskFreeRate:       *riskFreeRate,
		DefaultCorrelation: *defaultCorrelation,
	}

	result, err := portfolio.Optimize(instruments, strings.ToLower(*method), opts)
	if err != nil {
		logger.Fatalf("optimize failed: %v", err)
	}

	var frontier []domain.FrontierPoint
	if *frontierPoints > 0 {
		frontier, err = portfolio.EfficientFrontier(instruments, *frontierPoints, opts)
		if err != nil {
			logger.Fatalf("frontier failed: %v", err)
		}
	}

	if *outputJSON {
		out := struct {
			Optimization *domain.OptimizationResult `json:"optimization"`
			Frontier     []domain.FrontierPoint     `json:"frontier,omitempty"`
		}{result, frontier}
		encoded, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(encoded))
	} else {
		printResult(result, frontier)
	}
}

// loadStats reads instrument statistics from a CSV file. Expected header:
// symbol,expected_return,volatility,buy_hold_return,dividend_capture_return,ex_dividend_day
func loadStats(path string) ([]domain.InstrumentStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.New("missing header row")
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"symbol", "expected_return", "volatility"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing %q column", required)
		}
	}

	var out []domain.InstrumentStats
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		field := func(name string) string {
			idx, ok := cols[name]
			if !ok || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}
		number := func(name string) (float64, error) {
			raw := field(name)
			if raw == "" {
				return 0, nil
			}
			return strconv.ParseFloat(raw, 64)
		}

		inst := domain.InstrumentStats{
			Symbol:          field("symbol"),
			ExDividendDay:   field("ex_dividend_day"),
			StrategyReturns: make(map[string]float64),
		}
		if inst.Symbol == "" {
			return nil, fmt.Errorf("line %d: blank symbol", line)
		}
		if inst.ExpectedReturn, err = number("expected_return"); err != nil {
			return nil, fmt.Errorf("line %d: expected_return: %w", line, err)
		}
		if inst.Volatility, err = number("volatility"); err != nil {
			return nil, fmt.Errorf("line %d: volatility: %w", line, err)
		}

		if v, err := number("buy_hold_return"); err == nil {
			inst.StrategyReturns[domain.StrategyTypeBuyAndHold] = v
		} else {
			return nil, fmt.Errorf("line %d: buy_hold_return: %w", line, err)
		}
		if v, err := number("dividend_capture_return"); err == nil {
			inst.StrategyReturns[domain.StrategyTypeDividendCapture] = v
		} else {
			return nil, fmt.Errorf("line %d: dividend_capture_return: %w", line, err)
		}

		out = append(out, inst)
	}
	if len(out) == 0 {
		return nil, errors.New("no instrument rows")
	}
	return out, nil
}

// printResult outputs a human-readable optimization summary.
func printResult(r *domain.OptimizationResult, frontier []domain.FrontierPoint) {
	fmt.Println()
	fmt.Println("=== Optimization Result ===")
	fmt.Printf("Method:             %s\n", r.Method)
	fmt.Printf("Expected Return:    %.2f%%\n", r.ExpectedReturn*100)
	fmt.Printf("Volatility:         %.4f\n", r.Volatility)
	fmt.Printf("Sharpe:             %.2f\n", r.SharpeRatio)
	fmt.Println()

	fmt.Println("Weights:")
	symbols := make([]string, 0, len(r.Weights))
	for symbol := range r.Weights {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	for _, symbol := range symbols {
		fmt.Printf("  %-8s %6.2f%%  %s\n", symbol, r.Weights[symbol]*100, r.SelectionRationale[symbol])
	}
	fmt.Println()

	fmt.Println("Constraints:")
	names := make([]string, 0, len(r.ConstraintsSatisfied))
	for name := range r.ConstraintsSatisfied {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		status := "FAIL"
		if r.ConstraintsSatisfied[name] {
			status = "OK"
		}
		fmt.Printf("  %-20s %s\n", name, status)
	}

	if len(frontier) > 0 {
		fmt.Println()
		fmt.Println("Efficient Frontier:")
		fmt.Println("  Return    Volatility  Sharpe")
		for _, p := range frontier {
			fmt.Printf("  %7.4f   %9.4f  %6.2f\n", p.Return, p.Volatility, p.Sharpe)
		}
	}
}
