// Package csvload reads daily bar history from CSV files so strategies can
// run against exported market data without a database.
//
// Expected header: date,open,high,low,close,volume[,dividend]. Dates are
// YYYY-MM-DD and parsed as UTC. The dividend column is optional and defaults
// to zero when absent.
package csvload

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"dividend-strategy-lab/internal/domain"
	"dividend-strategy-lab/internal/storage"
)

const dateLayout = "2006-01-02"

var (
	ErrMissingHeader = errors.New("csvload: missing or malformed header row")
	ErrNoRows        = errors.New("csvload: file contains no data rows")
)

var requiredColumns = []string{"date", "open", "high", "low", "close", "volume"}

// Load reads all bars from a CSV file, sorted order is whatever the file has.
func Load(path string) ([]domain.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csvload: open %s: %w", path, err)
	}
	defer f.Close()

	bars, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("csvload: %s: %w", path, err)
	}
	return bars, nil
}

// Read parses bars from an already opened CSV stream.
func Read(r io.Reader) ([]domain.Bar, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, ErrMissingHeader
	}
	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var bars []domain.Bar
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bar, err := parseBar(record, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, ErrNoRows
	}
	return bars, nil
}

// LoadIntoStore reads a CSV file and inserts its bars under the given symbol.
func LoadIntoStore(ctx context.Context, store storage.BarStore, symbol, path string) (int, error) {
	bars, err := Load(path)
	if err != nil {
		return 0, err
	}
	if err := store.InsertBulk(ctx, symbol, bars); err != nil {
		return 0, fmt.Errorf("csvload: insert %s: %w", symbol, err)
	}
	return len(bars), nil
}

func columnIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: no %q column", ErrMissingHeader, name)
		}
	}
	return cols, nil
}

func parseBar(record []string, cols map[string]int) (domain.Bar, error) {
	field := func(name string) (string, bool) {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return "", false
		}
		return strings.TrimSpace(record[idx]), true
	}

	dateStr, _ := field("date")
	date, err := time.ParseInLocation(dateLayout, dateStr, time.UTC)
	if err != nil {
		return domain.Bar{}, fmt.Errorf("bad date %q: %w", dateStr, err)
	}

	bar := domain.Bar{Date: date}
	numeric := []struct {
		name string
		dst  *float64
	}{
		{"open", &bar.Open},
		{"high", &bar.High},
		{"low", &bar.Low},
		{"close", &bar.Close},
		{"volume", &bar.Volume},
	}
	for _, n := range numeric {
		raw, _ := field(n.name)
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.Bar{}, fmt.Errorf("bad %s %q: %w", n.name, raw, err)
		}
		*n.dst = v
	}

	if raw, ok := field("dividend"); ok && raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.Bar{}, fmt.Errorf("bad dividend %q: %w", raw, err)
		}
		bar.Dividend = v
	}
	return bar, nil
}
