package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/synthx/elastic-engine/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// All monetary values are stored as NUMERIC for exact decimal precision.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed journal.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) InsertTrade(ctx context.Context, r *model.TradeRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO trades (id, account, symbol_id, symbol, kind, amount, value, tax, price, block, timestamp)
		 VALUES ($1, $2, $3, $4, $5, $6::NUMERIC, $7::NUMERIC, $8::NUMERIC, $9::NUMERIC, $10, $11)`,
		r.ID, r.Account, r.SymbolID, r.Symbol, r.Kind,
		r.Amount.String(), r.Value.String(), r.Tax.String(), r.Price.String(),
		r.Block, r.Timestamp,
	)
	return err
}

func (s *PostgresStore) TradesBySymbol(ctx context.Context, symbolID uint32, limit int) ([]model.TradeRecord, error) {
	q := `SELECT id, account, symbol_id, symbol, kind,
	             amount::TEXT, value::TEXT, tax::TEXT, price::TEXT, block, timestamp
	      FROM trades WHERE symbol_id = $1 ORDER BY timestamp DESC`
	args := []interface{}{symbolID}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("trades by symbol %d: %w", symbolID, err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

func (s *PostgresStore) TradesByAccount(ctx context.Context, account string) ([]model.TradeRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, account, symbol_id, symbol, kind,
		        amount::TEXT, value::TEXT, tax::TEXT, price::TEXT, block, timestamp
		 FROM trades WHERE account = $1 ORDER BY timestamp DESC`, account)
	if err != nil {
		return nil, fmt.Errorf("trades by account %s: %w", account, err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// pgxRows is the row subset scanTrades needs.
type pgxRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanTrades(rows pgxRows) ([]model.TradeRecord, error) {
	var trades []model.TradeRecord
	for rows.Next() {
		var r model.TradeRecord
		var amountS, valueS, taxS, priceS string

		if err := rows.Scan(&r.ID, &r.Account, &r.SymbolID, &r.Symbol, &r.Kind,
			&amountS, &valueS, &taxS, &priceS, &r.Block, &r.Timestamp); err != nil {
			return nil, err
		}

		r.Amount, _ = decimal.NewFromString(amountS)
		r.Value, _ = decimal.NewFromString(valueS)
		r.Tax, _ = decimal.NewFromString(taxS)
		r.Price, _ = decimal.NewFromString(priceS)

		trades = append(trades, r)
	}
	return trades, rows.Err()
}
