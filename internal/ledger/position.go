package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/synthx/elastic-engine/internal/guard"
	"github.com/synthx/elastic-engine/internal/model"
	"github.com/synthx/elastic-engine/internal/pricing"
)

// OpenLong opens a leveraged long on a symbol with the attached ETH as
// collateral. One open position per account; the collateral joins the
// symbol's reserve.
func (l *Ledger) OpenLong(ctx context.Context, account string, symbolID uint32, value decimal.Decimal) error {
	release, err := l.guard.Enter()
	if err != nil {
		return err
	}
	defer release()

	if l.guard.Paused() {
		return guard.ErrPaused
	}
	if account == "" {
		return fmt.Errorf("%w: account required", ErrInvalidInput)
	}
	if value.LessThan(l.cfg.MinPositionSize) {
		return fmt.Errorf("%w: value %s below minimum %s", ErrInvalidInput, value, l.cfg.MinPositionSize)
	}
	if _, open := l.positions[account]; open {
		return ErrPositionOpen
	}

	sym, err := l.reg.ByID(symbolID)
	if err != nil {
		return err
	}
	if !sym.Active {
		return fmt.Errorf("%w: %s", ErrSymbolInactive, sym.Name)
	}

	price, err := l.freshPrice(ctx, sym)
	if err != nil {
		return err
	}

	if err := l.bank.Debit(account, value); err != nil {
		return err
	}

	sym.ReserveBalance = sym.ReserveBalance.Add(value)
	l.positions[account] = &model.LongPosition{
		SymbolID:   symbolID,
		EthAmount:  value,
		EntryPrice: price,
		OpenedAt:   l.clock.Now(),
	}

	logTrade("open_long", sym.Name, account, decimal.Zero, value, price)
	return nil
}

// CloseLong settles and deletes the account's open position. The payout
// is the collateral plus signed PnL, floored at zero and bounded by the
// symbol's reserve; it is transferred after the position is deleted.
func (l *Ledger) CloseLong(ctx context.Context, account string) (decimal.Decimal, error) {
	release, err := l.guard.Enter()
	if err != nil {
		return decimal.Zero, err
	}
	defer release()

	if l.guard.Paused() {
		return decimal.Zero, guard.ErrPaused
	}
	pos, open := l.positions[account]
	if !open {
		return decimal.Zero, ErrNoPosition
	}

	sym, err := l.reg.ByID(pos.SymbolID)
	if err != nil {
		return decimal.Zero, err
	}
	price, err := l.freshPrice(ctx, sym)
	if err != nil {
		return decimal.Zero, err
	}

	payout := pos.EthAmount.Add(positionPnL(pos, price))
	if payout.IsNegative() {
		payout = decimal.Zero
	}
	if payout.GreaterThan(sym.ReserveBalance) {
		payout = sym.ReserveBalance
	}

	sym.ReserveBalance = sym.ReserveBalance.Sub(payout)
	delete(l.positions, account)

	logTrade("close_long", sym.Name, account, decimal.Zero, payout, price)

	if payout.IsPositive() {
		l.payer.Pay(account, payout)
	}
	return payout, nil
}

// PositionInfo returns the account's open position with PnL computed on
// demand against the current price.
func (l *Ledger) PositionInfo(ctx context.Context, account string) (*model.PositionInfo, error) {
	release, err := l.guard.Enter()
	if err != nil {
		return nil, err
	}
	defer release()

	pos, open := l.positions[account]
	if !open {
		return nil, ErrNoPosition
	}
	sym, err := l.reg.ByID(pos.SymbolID)
	if err != nil {
		return nil, err
	}
	price, err := l.freshPrice(ctx, sym)
	if err != nil {
		return nil, err
	}

	return &model.PositionInfo{
		SymbolID:   pos.SymbolID,
		Symbol:     sym.Name,
		EthAmount:  pos.EthAmount,
		EntryPrice: pos.EntryPrice,
		OpenedAt:   pos.OpenedAt,
		CurrentPnL: positionPnL(pos, price),
	}, nil
}

// positionPnL computes ethAmount * (price/entry - 1), signed.
func positionPnL(pos *model.LongPosition, price decimal.Decimal) decimal.Decimal {
	ratio := price.DivRound(pos.EntryPrice, pricing.TokenScale)
	return pos.EthAmount.Mul(ratio.Sub(decimal.NewFromInt(1))).Round(pricing.TokenScale)
}
