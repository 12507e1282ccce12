package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/synthx/elastic-engine/internal/guard"
	"github.com/synthx/elastic-engine/internal/model"
)

// Buy mints tokens against attached ETH value. The 5% tax is deducted
// from value before the net amount joins the reserve; tokens are priced
// inversely to the symbol price, so cheaper assets mint more tokens per
// ETH. A buy against a short balance shrinks it toward zero and frees a
// proportional share of the posted collateral.
func (l *Ledger) Buy(ctx context.Context, account string, symbolID uint32, value, minOut decimal.Decimal) (decimal.Decimal, error) {
	release, err := l.guard.Enter()
	if err != nil {
		return decimal.Zero, err
	}
	defer release()

	if l.guard.Paused() {
		return decimal.Zero, guard.ErrPaused
	}
	if account == "" || value.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("%w: account and positive value required", ErrInvalidInput)
	}

	sym, err := l.reg.ByID(symbolID)
	if err != nil {
		return decimal.Zero, err
	}
	if !sym.Active {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrSymbolInactive, sym.Name)
	}

	block := l.clock.BlockNumber()
	if err := l.guard.CheckTradeGap(symbolID, account, block); err != nil {
		return decimal.Zero, err
	}

	price, err := l.freshPrice(ctx, sym)
	if err != nil {
		return decimal.Zero, err
	}

	tokens, tax, err := l.curve.TokensOut(value, price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if tokens.LessThan(minOut) {
		return decimal.Zero, fmt.Errorf("%w: out %s < min %s", ErrSlippage, tokens, minOut)
	}

	if err := l.bank.Debit(account, value); err != nil {
		return decimal.Zero, err
	}

	// Effects: reserve, supply, balance, tax — all before any payout.
	sym.ReserveBalance = sym.ReserveBalance.Add(value.Sub(tax))
	sym.TotalSupply = sym.TotalSupply.Add(tokens)
	freed := l.creditBalance(sym, account, tokens)
	l.collectedTaxes = l.collectedTaxes.Add(tax)

	now := l.clock.Now()
	l.countTrade(symbolID, account, block, now)
	l.appendJournal(ctx, newTradeRecord(sym, account, model.KindBuy, tokens, value, tax, price, block, now))

	logTrade("buy", sym.Name, account, tokens, value, price)

	if freed.IsPositive() {
		l.payer.Pay(account, freed)
	}
	return tokens, nil
}

// Sell burns tokens for ETH from the reserve when the account holds
// enough balance. When it does not (including zero), the call instead
// opens or extends a short position: the balance goes below zero by
// amount, collateral of at least the mark value times the collateral
// ratio must be attached, and the net sale proceeds are paid out of the
// reserve. Returns the ETH paid to the caller.
func (l *Ledger) Sell(ctx context.Context, account string, symbolID uint32, amount, collateral decimal.Decimal) (decimal.Decimal, error) {
	release, err := l.guard.Enter()
	if err != nil {
		return decimal.Zero, err
	}
	defer release()

	if l.guard.Paused() {
		return decimal.Zero, guard.ErrPaused
	}
	if account == "" || amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("%w: account and positive amount required", ErrInvalidInput)
	}

	sym, err := l.reg.ByID(symbolID)
	if err != nil {
		return decimal.Zero, err
	}

	block := l.clock.BlockNumber()
	if err := l.guard.CheckTradeGap(symbolID, account, block); err != nil {
		return decimal.Zero, err
	}

	price, err := l.freshPrice(ctx, sym)
	if err != nil {
		return decimal.Zero, err
	}

	if l.balance(symbolID, account).GreaterThanOrEqual(amount) {
		return l.sellHolding(ctx, sym, account, amount, price, block)
	}
	return l.openShort(ctx, sym, account, amount, collateral, price, block)
}

// sellHolding burns amount from a long balance. Allowed for deactivated
// symbols so holders can always exit.
func (l *Ledger) sellHolding(ctx context.Context, sym *model.Symbol, account string, amount, price decimal.Decimal, block uint64) (decimal.Decimal, error) {
	gross, tax, net, err := l.curve.ValueOut(amount, price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if gross.GreaterThan(sym.ReserveBalance) {
		return decimal.Zero, fmt.Errorf("%w: need %s, reserve %s", ErrReserveExhausted, gross, sym.ReserveBalance)
	}
	if err := l.checkImpact(sym, gross); err != nil {
		return decimal.Zero, err
	}

	sym.ReserveBalance = sym.ReserveBalance.Sub(gross)
	sym.TotalSupply = sym.TotalSupply.Sub(amount)
	l.setBalance(sym, account, l.balance(sym.ID, account).Sub(amount))
	l.collectedTaxes = l.collectedTaxes.Add(tax)

	now := l.clock.Now()
	l.countTrade(sym.ID, account, block, now)
	l.appendJournal(ctx, newTradeRecord(sym, account, model.KindSell, amount, gross, tax, price, block, now))

	logTrade("sell", sym.Name, account, amount, net, price)

	l.payer.Pay(account, net)
	return net, nil
}

// openShort records negative balance backed by posted collateral and pays
// out the net sale proceeds. New shorts require an active symbol.
func (l *Ledger) openShort(ctx context.Context, sym *model.Symbol, account string, amount, collateral, price decimal.Decimal, block uint64) (decimal.Decimal, error) {
	if !sym.Active {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrSymbolInactive, sym.Name)
	}

	required := l.curve.RequiredCollateral(amount, price)
	if collateral.LessThan(required) {
		return decimal.Zero, fmt.Errorf("%w: posted %s, need %s", ErrInsufficientCollateral, collateral, required)
	}

	gross, tax, net, err := l.curve.ValueOut(amount, price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if gross.GreaterThan(sym.ReserveBalance) {
		return decimal.Zero, fmt.Errorf("%w: need %s, reserve %s", ErrReserveExhausted, gross, sym.ReserveBalance)
	}
	if err := l.checkImpact(sym, gross); err != nil {
		return decimal.Zero, err
	}

	if err := l.bank.Debit(account, collateral); err != nil {
		return decimal.Zero, err
	}

	sym.ReserveBalance = sym.ReserveBalance.Sub(gross)
	sym.TotalSupply = sym.TotalSupply.Sub(amount)
	l.setBalance(sym, account, l.balance(sym.ID, account).Sub(amount))
	held := l.shortCollateral[sym.ID]
	if held == nil {
		held = make(map[string]decimal.Decimal)
		l.shortCollateral[sym.ID] = held
	}
	held[account] = held[account].Add(collateral)
	l.collectedTaxes = l.collectedTaxes.Add(tax)

	now := l.clock.Now()
	l.countTrade(sym.ID, account, block, now)
	l.appendJournal(ctx, newTradeRecord(sym, account, model.KindShort, amount, gross, tax, price, block, now))

	logTrade("short", sym.Name, account, amount, net, price)

	l.payer.Pay(account, net)
	return net, nil
}

// Transfer moves long balance between accounts within one symbol. Only
// positive balance moves; a recipient covering a short frees collateral
// the same way a buy does.
func (l *Ledger) Transfer(from, to string, symbolID uint32, amount decimal.Decimal) error {
	release, err := l.guard.Enter()
	if err != nil {
		return err
	}
	defer release()
	return l.transferLocked(from, to, symbolID, amount)
}

// Approve sets a spender's allowance over the owner's balance for one
// symbol. Allowed while paused: approvals move no value.
func (l *Ledger) Approve(owner, spender string, symbolID uint32, amount decimal.Decimal) error {
	release, err := l.guard.Enter()
	if err != nil {
		return err
	}
	defer release()

	if owner == "" || spender == "" || amount.IsNegative() {
		return fmt.Errorf("%w: owner, spender, non-negative amount required", ErrInvalidInput)
	}
	if _, err := l.reg.ByID(symbolID); err != nil {
		return err
	}

	bySym := l.allowances[symbolID]
	if bySym == nil {
		bySym = make(map[string]map[string]decimal.Decimal)
		l.allowances[symbolID] = bySym
	}
	byOwner := bySym[owner]
	if byOwner == nil {
		byOwner = make(map[string]decimal.Decimal)
		bySym[owner] = byOwner
	}
	byOwner[spender] = amount
	return nil
}

// Allowance returns the remaining approved amount.
func (l *Ledger) Allowance(owner, spender string, symbolID uint32) decimal.Decimal {
	release, err := l.guard.Enter()
	if err != nil {
		return decimal.Zero
	}
	defer release()
	return l.allowances[symbolID][owner][spender]
}

// TransferFrom moves balance on behalf of an approving owner, consuming
// allowance.
func (l *Ledger) TransferFrom(spender, from, to string, symbolID uint32, amount decimal.Decimal) error {
	release, err := l.guard.Enter()
	if err != nil {
		return err
	}
	defer release()

	allowed := l.allowances[symbolID][from][spender]
	if allowed.LessThan(amount) {
		return fmt.Errorf("%w: allowed %s, need %s", ErrInsufficientAllowance, allowed, amount)
	}
	if err := l.transferLocked(from, to, symbolID, amount); err != nil {
		return err
	}
	l.allowances[symbolID][from][spender] = allowed.Sub(amount)
	return nil
}

func (l *Ledger) transferLocked(from, to string, symbolID uint32, amount decimal.Decimal) error {
	if l.guard.Paused() {
		return guard.ErrPaused
	}
	if from == "" || to == "" || from == to || amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: distinct accounts and positive amount required", ErrInvalidInput)
	}
	sym, err := l.reg.ByID(symbolID)
	if err != nil {
		return err
	}

	bal := l.balance(symbolID, from)
	if bal.LessThan(amount) {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance, bal, amount)
	}

	l.setBalance(sym, from, bal.Sub(amount))
	freed := l.creditBalance(sym, to, amount)

	if freed.IsPositive() {
		l.payer.Pay(to, freed)
	}
	return nil
}
