// Package model defines the core domain types shared across the ledger engine.
// All monetary values use shopspring/decimal — never float64 for money.
package model

import (
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Hash is a 32-byte symbol name hash (Keccak-256).
type Hash [32]byte

// Hex returns the hash as a 0x-prefixed lowercase hex string.
func (h Hash) Hex() string {
	return "0x" + hex.EncodeToString(h[:])
}

// MarshalJSON encodes the hash as a hex string.
func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Hex())
}

// Symbol is one tracked price symbol and its elastic balance sheet.
// Created by the registry; mutated by trades and rebase; never deleted,
// only deactivated.
type Symbol struct {
	ID                 uint32          `json:"id" db:"id"` // dense, assigned from 1 in creation order
	Name               string          `json:"name" db:"name"`
	NameHash           Hash            `json:"name_hash" db:"name_hash"`
	Active             bool            `json:"active" db:"active"`
	LastPrice          decimal.Decimal `json:"last_price" db:"last_price"` // 8-decimal fixed point
	LastPriceTimestamp time.Time       `json:"last_price_timestamp" db:"last_price_timestamp"`
	ReserveBalance     decimal.Decimal `json:"reserve_balance" db:"reserve_balance"` // ETH held against this symbol
	TotalSupply        decimal.Decimal `json:"total_supply" db:"total_supply"`       // signed: sum of all balances
	HolderCount        uint32          `json:"holder_count" db:"holder_count"`
}

// TradeRecord is an immutable record of an executed trade.
// Once created, these are never modified or deleted.
type TradeRecord struct {
	ID        string          `json:"id" db:"id"`
	Account   string          `json:"account" db:"account"`
	SymbolID  uint32          `json:"symbol_id" db:"symbol_id"`
	Symbol    string          `json:"symbol" db:"symbol"`
	Kind      string          `json:"kind" db:"kind"`     // "buy", "sell", "short"
	Amount    decimal.Decimal `json:"amount" db:"amount"` // tokens moved
	Value     decimal.Decimal `json:"value" db:"value"`   // ETH side of the trade
	Tax       decimal.Decimal `json:"tax" db:"tax"`
	Price     decimal.Decimal `json:"price" db:"price"` // oracle price at execution
	Block     uint64          `json:"block" db:"block"`
	Timestamp time.Time       `json:"timestamp" db:"timestamp"`
}

// Trade kinds recorded in the journal.
const (
	KindBuy   = "buy"
	KindSell  = "sell"
	KindShort = "short"
)

// LongPosition is a leveraged ETH stake tracking one symbol's price.
// At most one open position per holder.
type LongPosition struct {
	SymbolID   uint32          `json:"symbol_id"`
	EthAmount  decimal.Decimal `json:"eth_amount"` // posted collateral
	EntryPrice decimal.Decimal `json:"entry_price"`
	OpenedAt   time.Time       `json:"opened_at"`
}

// PositionInfo is the read-model for an open long position, with PnL
// computed on demand against the current price.
type PositionInfo struct {
	SymbolID   uint32          `json:"symbol_id"`
	Symbol     string          `json:"symbol"`
	EthAmount  decimal.Decimal `json:"eth_amount"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	OpenedAt   time.Time       `json:"opened_at"`
	CurrentPnL decimal.Decimal `json:"current_pnl"`
}

// PendingWithdrawal is one timelocked tax withdrawal request.
type PendingWithdrawal struct {
	Amount      decimal.Decimal `json:"amount"`
	RequestedAt time.Time       `json:"requested_at"`
	Completed   bool            `json:"completed"`
}

// SymbolStats is the per-symbol snapshot returned to read clients.
type SymbolStats struct {
	Symbol      string          `json:"symbol"`
	Active      bool            `json:"active"`
	Price       decimal.Decimal `json:"price"`
	Reserve     decimal.Decimal `json:"reserve"`
	TotalSupply decimal.Decimal `json:"total_supply"`
	HolderCount uint32          `json:"holder_count"`
}
