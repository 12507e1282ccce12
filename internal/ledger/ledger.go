// Package ledger implements the multi-asset synthetic trading engine: a
// shared contract tracking, per price symbol, an elastic-supply balance
// sheet, an ETH reserve, leveraged long positions, and short exposure
// recorded as negative balances.
//
// Every state-mutating entry point runs atomically under the guard's
// reentrancy lock; all outbound payouts happen strictly after state is
// final. All monetary values use shopspring/decimal — never float64 for
// money.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/synthx/elastic-engine/internal/guard"
	"github.com/synthx/elastic-engine/internal/model"
	"github.com/synthx/elastic-engine/internal/oracle"
	"github.com/synthx/elastic-engine/internal/pricing"
	"github.com/synthx/elastic-engine/internal/registry"
	"github.com/synthx/elastic-engine/internal/store"
)

// Config holds the engine parameters.
type Config struct {
	Owner             string
	TaxBps            int64           // trade tax in basis points of value
	CollateralRatio   decimal.Decimal // short collateral vs mark value
	MaxOperators      int             // bounded operator set, owner counted
	MinTradeGapBlocks uint64          // blocks between trades per (symbol, account)
	StalenessBound    time.Duration   // max oracle reading age
	MinRebaseInterval time.Duration   // per-symbol minimum between rebases
	MinPositionSize   decimal.Decimal // minimum ETH for openLong
	MaxImpactBps      int64           // max reserve outflow per trade; 0 disables
	WithdrawalDelay   time.Duration   // timelock on delayed withdrawals
}

// DefaultConfig returns the observed production parameters: 5% tax, 1.5x
// short collateral, 5 operators, same-block trades rejected, 2-day
// withdrawal delay. The impact cap starts disabled.
func DefaultConfig(owner string) Config {
	return Config{
		Owner:             owner,
		TaxBps:            500,
		CollateralRatio:   decimal.NewFromFloat(1.5),
		MaxOperators:      5,
		MinTradeGapBlocks: 1,
		StalenessBound:    time.Hour,
		MinRebaseInterval: 15 * time.Second,
		MinPositionSize:   decimal.NewFromFloat(0.01),
		MaxImpactBps:      0,
		WithdrawalDelay:   48 * time.Hour,
	}
}

// Ledger is the accounting engine. All access to its state goes through
// its operations; there is no teardown — the state lives for the
// process's duration.
type Ledger struct {
	cfg     Config
	clock   guard.BlockClock
	guard   *guard.Guard
	curve   *pricing.Curve
	reg     *registry.Registry
	bank    *Bank
	payer   Payer
	journal store.Store

	balances        map[uint32]map[string]decimal.Decimal // signed: negative = short
	shortCollateral map[uint32]map[string]decimal.Decimal
	allowances      map[uint32]map[string]map[string]decimal.Decimal // symbol → owner → spender
	positions       map[string]*model.LongPosition
	collectedTaxes  decimal.Decimal
	pending         []model.PendingWithdrawal
	tradesPerHour   map[uint32]map[int64]uint64
}

// New creates an engine with the given parameters, clock, and trade
// journal. The internal bank is the default payout path.
func New(cfg Config, clock guard.BlockClock, journal store.Store) (*Ledger, error) {
	if cfg.Owner == "" {
		return nil, fmt.Errorf("%w: owner required", ErrInvalidInput)
	}
	curve, err := pricing.NewCurve(cfg.TaxBps, cfg.CollateralRatio)
	if err != nil {
		return nil, err
	}
	bank := NewBank()
	return &Ledger{
		cfg:             cfg,
		clock:           clock,
		guard:           guard.New(cfg.Owner, cfg.MaxOperators, cfg.MinTradeGapBlocks),
		curve:           curve,
		reg:             registry.New(),
		bank:            bank,
		payer:           bank,
		journal:         journal,
		balances:        make(map[uint32]map[string]decimal.Decimal),
		shortCollateral: make(map[uint32]map[string]decimal.Decimal),
		allowances:      make(map[uint32]map[string]map[string]decimal.Decimal),
		positions:       make(map[string]*model.LongPosition),
		tradesPerHour:   make(map[uint32]map[int64]uint64),
	}, nil
}

// Bank returns the internal cash ledger.
func (l *Ledger) Bank() *Bank { return l.bank }

// SetPayer replaces the outbound settlement path. Intended for hosting
// runtimes that settle externally; the default pays into the bank.
func (l *Ledger) SetPayer(p Payer) { l.payer = p }

// Owner returns the owner address.
func (l *Ledger) Owner() string { return l.guard.Owner() }

// --- Admin: symbols, operators, pause ---

// AddSymbol registers a new symbol backed by the given price feed. The
// name is taken from the feed description and the initial price from the
// first oracle read. Owner/operator only.
func (l *Ledger) AddSymbol(ctx context.Context, caller string, feed oracle.PriceFeed) (*model.Symbol, error) {
	if err := l.guard.RequireOperator(caller); err != nil {
		return nil, err
	}
	release, err := l.guard.Enter()
	if err != nil {
		return nil, err
	}
	defer release()

	round, err := feed.LatestRound(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStalePrice, err)
	}
	now := l.clock.Now()
	if !oracle.Fresh(round, now, l.cfg.StalenessBound) {
		return nil, fmt.Errorf("%w: feed %s", ErrStalePrice, feed.Description())
	}

	sym, err := l.reg.Add(feed, round.Price, round.UpdatedAt)
	if err != nil {
		return nil, err
	}

	slog.Info("symbol added",
		"id", sym.ID,
		"symbol", sym.Name,
		"price", sym.LastPrice.String(),
	)
	return sym, nil
}

// DeactivateSymbol marks a symbol inactive. Existing holders may still
// sell and close positions; buys, new shorts, and new longs are rejected.
// Owner/operator only.
func (l *Ledger) DeactivateSymbol(caller string, id uint32) error {
	if err := l.guard.RequireOperator(caller); err != nil {
		return err
	}
	release, err := l.guard.Enter()
	if err != nil {
		return err
	}
	defer release()

	if err := l.reg.Deactivate(id); err != nil {
		return err
	}
	slog.Info("symbol deactivated", "id", id)
	return nil
}

// AddOperator registers an operator. Owner only; the set is bounded.
func (l *Ledger) AddOperator(caller, addr string) error {
	return l.guard.AddOperator(caller, addr)
}

// IsOperator reports whether addr is the owner or an operator.
func (l *Ledger) IsOperator(addr string) bool { return l.guard.IsOperator(addr) }

// Pause stops trading entry points. Operator-gated; administrative and
// withdrawal operations stay available.
func (l *Ledger) Pause(caller string) error { return l.guard.Pause(caller) }

// Unpause resumes trading. Operator-gated.
func (l *Ledger) Unpause(caller string) error { return l.guard.Unpause(caller) }

// Paused reports the pause switch.
func (l *Ledger) Paused() bool { return l.guard.Paused() }

// --- Tax vault & withdrawal timelock ---

// WithdrawTaxes transfers the full collected tax balance to the owner
// immediately and resets it. Owner only.
func (l *Ledger) WithdrawTaxes(caller string) (decimal.Decimal, error) {
	if err := l.guard.RequireOwner(caller); err != nil {
		return decimal.Zero, err
	}
	release, err := l.guard.Enter()
	if err != nil {
		return decimal.Zero, err
	}
	defer release()

	amount := l.collectedTaxes
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, nil
	}
	l.collectedTaxes = decimal.Zero

	slog.Info("taxes withdrawn", "amount", amount.String())
	l.payer.Pay(l.guard.Owner(), amount)
	return amount, nil
}

// InitiateWithdrawal records a delayed withdrawal request for the current
// tax balance. Owner only. Returns the request index.
func (l *Ledger) InitiateWithdrawal(caller string) (int, error) {
	if err := l.guard.RequireOwner(caller); err != nil {
		return 0, err
	}
	release, err := l.guard.Enter()
	if err != nil {
		return 0, err
	}
	defer release()

	l.pending = append(l.pending, model.PendingWithdrawal{
		Amount:      l.collectedTaxes,
		RequestedAt: l.clock.Now(),
	})
	idx := len(l.pending) - 1
	slog.Info("withdrawal initiated", "index", idx, "amount", l.pending[idx].Amount.String())
	return idx, nil
}

// CompleteWithdrawal pays a pending request once its delay has elapsed.
// The payout is bounded by the remaining tax balance; a request completes
// exactly once. Owner only.
func (l *Ledger) CompleteWithdrawal(caller string, index int) (decimal.Decimal, error) {
	if err := l.guard.RequireOwner(caller); err != nil {
		return decimal.Zero, err
	}
	release, err := l.guard.Enter()
	if err != nil {
		return decimal.Zero, err
	}
	defer release()

	if index < 0 || index >= len(l.pending) {
		return decimal.Zero, fmt.Errorf("%w: withdrawal index %d", ErrInvalidInput, index)
	}
	req := &l.pending[index]
	if req.Completed {
		return decimal.Zero, fmt.Errorf("%w: withdrawal %d already completed", ErrInvalidInput, index)
	}
	if l.clock.Now().Sub(req.RequestedAt) < l.cfg.WithdrawalDelay {
		return decimal.Zero, ErrTimelockNotElapsed
	}

	amount := req.Amount
	if amount.GreaterThan(l.collectedTaxes) {
		amount = l.collectedTaxes
	}
	req.Completed = true
	l.collectedTaxes = l.collectedTaxes.Sub(amount)

	slog.Info("withdrawal completed", "index", index, "amount", amount.String())
	if amount.IsPositive() {
		l.payer.Pay(l.guard.Owner(), amount)
	}
	return amount, nil
}

// --- Internal helpers (caller holds the guard lock) ---

// freshPrice reads the symbol's feed and enforces the staleness bound.
func (l *Ledger) freshPrice(ctx context.Context, sym *model.Symbol) (decimal.Decimal, error) {
	feed, err := l.reg.FeedByID(sym.ID)
	if err != nil {
		return decimal.Zero, err
	}
	round, err := feed.LatestRound(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrStalePrice, err)
	}
	if !oracle.Fresh(round, l.clock.Now(), l.cfg.StalenessBound) {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrStalePrice, sym.Name)
	}
	return round.Price, nil
}

// balance returns the signed balance for (symbol, account).
func (l *Ledger) balance(symbolID uint32, account string) decimal.Decimal {
	return l.balances[symbolID][account]
}

// setBalance writes a balance and keeps the symbol's holder count in step.
func (l *Ledger) setBalance(sym *model.Symbol, account string, bal decimal.Decimal) {
	m := l.balances[sym.ID]
	if m == nil {
		m = make(map[string]decimal.Decimal)
		l.balances[sym.ID] = m
	}
	old := m[account]
	if old.IsZero() && !bal.IsZero() {
		sym.HolderCount++
	} else if !old.IsZero() && bal.IsZero() {
		sym.HolderCount--
	}
	if bal.IsZero() {
		delete(m, account)
	} else {
		m[account] = bal
	}
}

// creditBalance adds tokens to an account's signed balance. When the
// account was short, a proportional share of its posted collateral is
// freed and returned for payout after state is final.
func (l *Ledger) creditBalance(sym *model.Symbol, account string, tokens decimal.Decimal) decimal.Decimal {
	prev := l.balance(sym.ID, account)
	l.setBalance(sym, account, prev.Add(tokens))

	if !prev.IsNegative() {
		return decimal.Zero
	}
	held := l.shortCollateral[sym.ID][account]
	if !held.IsPositive() {
		return decimal.Zero
	}

	short := prev.Neg()
	var freed decimal.Decimal
	if tokens.GreaterThanOrEqual(short) {
		freed = held // short fully covered
	} else {
		frac := tokens.DivRound(short, pricing.TokenScale)
		freed = held.Mul(frac).Round(pricing.TokenScale)
	}
	remaining := held.Sub(freed)
	if remaining.IsPositive() {
		l.shortCollateral[sym.ID][account] = remaining
	} else {
		delete(l.shortCollateral[sym.ID], account)
	}
	return freed
}

// checkImpact enforces the optional per-trade reserve outflow cap.
func (l *Ledger) checkImpact(sym *model.Symbol, outflow decimal.Decimal) error {
	if l.cfg.MaxImpactBps <= 0 {
		return nil
	}
	limit := sym.ReserveBalance.Mul(decimal.NewFromInt(l.cfg.MaxImpactBps)).Div(pricing.BpsDenominator)
	if outflow.GreaterThan(limit) {
		return fmt.Errorf("%w: outflow %s exceeds %s", ErrPriceImpact, outflow, limit)
	}
	return nil
}

// countTrade bumps the per-hour analytics counter and the rate window.
func (l *Ledger) countTrade(symbolID uint32, account string, block uint64, now time.Time) {
	l.guard.RecordTrade(symbolID, account, block)
	hours := l.tradesPerHour[symbolID]
	if hours == nil {
		hours = make(map[int64]uint64)
		l.tradesPerHour[symbolID] = hours
	}
	hours[now.Unix()/3600]++
}

// appendJournal records a trade in the journal. Journal writes are
// analytics, not ledger state: failures are logged, not surfaced.
func (l *Ledger) appendJournal(ctx context.Context, rec *model.TradeRecord) {
	if l.journal == nil {
		return
	}
	if err := l.journal.InsertTrade(ctx, rec); err != nil {
		slog.Warn("journal write failed", "trade", rec.ID, "err", err)
	}
}

func logTrade(kind, symbol, account string, amount, value, price decimal.Decimal) {
	slog.Info("trade executed",
		"kind", kind,
		"symbol", symbol,
		"account", account,
		"amount", amount.String(),
		"value", value.String(),
		"price", price.String(),
	)
}

func newTradeRecord(sym *model.Symbol, account, kind string, amount, value, tax, price decimal.Decimal, block uint64, ts time.Time) *model.TradeRecord {
	return &model.TradeRecord{
		ID:        uuid.New().String(),
		Account:   account,
		SymbolID:  sym.ID,
		Symbol:    sym.Name,
		Kind:      kind,
		Amount:    amount,
		Value:     value,
		Tax:       tax,
		Price:     price,
		Block:     block,
		Timestamp: ts,
	}
}
