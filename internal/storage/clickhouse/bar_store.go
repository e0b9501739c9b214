package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"dividend-strategy-lab/internal/domain"
	"dividend-strategy-lab/internal/storage"
)

// BarStore implements storage.BarStore using ClickHouse.
type BarStore struct {
	conn *Conn
}

// NewBarStore creates a new BarStore.
func NewBarStore(conn *Conn) *BarStore {
	return &BarStore{conn: conn}
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

// InsertBulk adds bars for one symbol. MergeTree does not enforce
// uniqueness at insert time, so duplicates are checked explicitly before
// sending the batch.
func (s *BarStore) InsertBulk(ctx context.Context, symbol string, bars []domain.Bar) error {
	if symbol == "" || len(bars) == 0 {
		return storage.ErrInvalidInput
	}

	seen := make(map[time.Time]struct{}, len(bars))
	for _, b := range bars {
		if _, dup := seen[b.Date]; dup {
			return storage.ErrDuplicateKey
		}
		seen[b.Date] = struct{}{}
	}

	existing, err := s.existingDates(ctx, symbol)
	if err != nil {
		return fmt.Errorf("check existing dates: %w", err)
	}
	for _, b := range bars {
		if _, dup := existing[b.Date]; dup {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO bars (symbol, date, open, high, low, close, volume, dividend)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	for _, b := range bars {
		err = batch.Append(symbol, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume, b.Dividend)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetBySymbol retrieves the full series, ordered by date ASC.
func (s *BarStore) GetBySymbol(ctx context.Context, symbol string) ([]domain.Bar, error) {
	query := `
		SELECT date, open, high, low, close, volume, dividend
		FROM bars FINAL
		WHERE symbol = ?
		ORDER BY date ASC
	`
	rows, err := s.conn.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()

	bars, err := scanBars(rows)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, storage.ErrNotFound
	}
	return bars, nil
}

// GetByDateRange retrieves bars within [start, end] inclusive.
func (s *BarStore) GetByDateRange(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	query := `
		SELECT date, open, high, low, close, volume, dividend
		FROM bars FINAL
		WHERE symbol = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`
	rows, err := s.conn.Query(ctx, query, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("query bars by range: %w", err)
	}
	defer rows.Close()

	bars, err := scanBars(rows)
	if err != nil {
		return nil, err
	}
	// Distinguish an unknown symbol from an empty window.
	if len(bars) == 0 {
		known, err := s.symbolExists(ctx, symbol)
		if err != nil {
			return nil, err
		}
		if !known {
			return nil, storage.ErrNotFound
		}
	}
	return bars, nil
}

// Symbols lists all stored symbols in lexical order.
func (s *BarStore) Symbols(ctx context.Context) ([]string, error) {
	rows, err := s.conn.Query(ctx, `SELECT DISTINCT symbol FROM bars ORDER BY symbol ASC`)
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		out = append(out, sym)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate symbols: %w", err)
	}
	return out, nil
}

func (s *BarStore) existingDates(ctx context.Context, symbol string) (map[time.Time]struct{}, error) {
	rows, err := s.conn.Query(ctx, `SELECT date FROM bars FINAL WHERE symbol = ?`, symbol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[time.Time]struct{})
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out[d.UTC()] = struct{}{}
	}
	return out, rows.Err()
}

func (s *BarStore) symbolExists(ctx context.Context, symbol string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count() FROM bars WHERE symbol = ?`, symbol).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count symbol rows: %w", err)
	}
	return count > 0, nil
}

func scanBars(rows driver.Rows) ([]domain.Bar, error) {
	var out []domain.Bar
	for rows.Next() {
		var b domain.Bar
		err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.Dividend)
		if err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Date = b.Date.UTC()
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bars: %w", err)
	}
	return out, nil
}
