// Package store defines the trade journal for the ledger engine: an
// append-only record of executed trades used by history and analytics
// reads. Implementations include PostgreSQL (source of truth), Redis
// (read-through cache), and in-memory (for testing).
//
// The journal is not the accounting state — balances, reserves, and
// supply live in the engine. Journal writes are analytics.
package store

import (
	"context"

	"github.com/synthx/elastic-engine/internal/model"
)

// Store is the journal interface.
type Store interface {
	// InsertTrade appends an immutable trade record.
	InsertTrade(ctx context.Context, rec *model.TradeRecord) error

	// TradesBySymbol returns trades for a symbol, most recent first,
	// up to limit (0 = no limit).
	TradesBySymbol(ctx context.Context, symbolID uint32, limit int) ([]model.TradeRecord, error)

	// TradesByAccount returns all trades for an account, most recent first.
	TradesByAccount(ctx context.Context, account string) ([]model.TradeRecord, error)
}
