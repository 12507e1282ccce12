package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/synthx/elastic-engine/internal/model"
)

// Read operations. Reads take the guard lock too, so no caller ever
// observes a partially updated state.

// BalanceOf returns the signed balance for (symbol, account). Negative
// means open short exposure.
func (l *Ledger) BalanceOf(symbolID uint32, account string) (decimal.Decimal, error) {
	release, err := l.guard.Enter()
	if err != nil {
		return decimal.Zero, err
	}
	defer release()
	if _, err := l.reg.ByID(symbolID); err != nil {
		return decimal.Zero, err
	}
	return l.balance(symbolID, account), nil
}

// TotalSupplyBySymbol returns the signed total supply for a symbol.
func (l *Ledger) TotalSupplyBySymbol(symbolID uint32) (decimal.Decimal, error) {
	release, err := l.guard.Enter()
	if err != nil {
		return decimal.Zero, err
	}
	defer release()
	sym, err := l.reg.ByID(symbolID)
	if err != nil {
		return decimal.Zero, err
	}
	return sym.TotalSupply, nil
}

// SymbolByID returns a copy of the symbol record.
func (l *Ledger) SymbolByID(id uint32) (model.Symbol, error) {
	release, err := l.guard.Enter()
	if err != nil {
		return model.Symbol{}, err
	}
	defer release()
	sym, err := l.reg.ByID(id)
	if err != nil {
		return model.Symbol{}, err
	}
	return *sym, nil
}

// IDBySymbol returns the id for a symbol name.
func (l *Ledger) IDBySymbol(name string) (uint32, error) {
	release, err := l.guard.Enter()
	if err != nil {
		return 0, err
	}
	defer release()
	return l.reg.IDByName(name)
}

// SymbolHash returns the name hash for a registered symbol name.
func (l *Ledger) SymbolHash(name string) (model.Hash, error) {
	release, err := l.guard.Enter()
	if err != nil {
		return model.Hash{}, err
	}
	defer release()
	return l.reg.HashByName(name)
}

// Symbols returns copies of all symbol records in creation order.
func (l *Ledger) Symbols() ([]model.Symbol, error) {
	release, err := l.guard.Enter()
	if err != nil {
		return nil, err
	}
	defer release()
	all := l.reg.All()
	out := make([]model.Symbol, len(all))
	for i, sym := range all {
		out[i] = *sym
	}
	return out, nil
}

// SymbolStats returns the per-symbol snapshot for read clients.
func (l *Ledger) SymbolStats(id uint32) (model.SymbolStats, error) {
	release, err := l.guard.Enter()
	if err != nil {
		return model.SymbolStats{}, err
	}
	defer release()
	sym, err := l.reg.ByID(id)
	if err != nil {
		return model.SymbolStats{}, err
	}
	return model.SymbolStats{
		Symbol:      sym.Name,
		Active:      sym.Active,
		Price:       sym.LastPrice,
		Reserve:     sym.ReserveBalance,
		TotalSupply: sym.TotalSupply,
		HolderCount: sym.HolderCount,
	}, nil
}

// ShortPosition returns the account's negative balance for a symbol, or
// zero when the account is not short.
func (l *Ledger) ShortPosition(symbolID uint32, account string) (decimal.Decimal, error) {
	release, err := l.guard.Enter()
	if err != nil {
		return decimal.Zero, err
	}
	defer release()
	if _, err := l.reg.ByID(symbolID); err != nil {
		return decimal.Zero, err
	}
	bal := l.balance(symbolID, account)
	if bal.IsNegative() {
		return bal, nil
	}
	return decimal.Zero, nil
}

// PositionType reports whether the account is short on the symbol and
// its signed balance.
func (l *Ledger) PositionType(symbolID uint32, account string) (bool, decimal.Decimal, error) {
	release, err := l.guard.Enter()
	if err != nil {
		return false, decimal.Zero, err
	}
	defer release()
	if _, err := l.reg.ByID(symbolID); err != nil {
		return false, decimal.Zero, err
	}
	bal := l.balance(symbolID, account)
	return bal.IsNegative(), bal, nil
}

// ShortCollateral returns the ETH posted against an account's short.
func (l *Ledger) ShortCollateral(symbolID uint32, account string) (decimal.Decimal, error) {
	release, err := l.guard.Enter()
	if err != nil {
		return decimal.Zero, err
	}
	defer release()
	if _, err := l.reg.ByID(symbolID); err != nil {
		return decimal.Zero, err
	}
	return l.shortCollateral[symbolID][account], nil
}

// TradesPerHour returns the analytics counter for (symbol, hourBucket),
// where hourBucket is unix time divided by 3600.
func (l *Ledger) TradesPerHour(symbolID uint32, hourBucket int64) uint64 {
	release, err := l.guard.Enter()
	if err != nil {
		return 0
	}
	defer release()
	return l.tradesPerHour[symbolID][hourBucket]
}

// CollectedTaxes returns the accrued, unwithdrawn tax balance.
func (l *Ledger) CollectedTaxes() decimal.Decimal {
	release, err := l.guard.Enter()
	if err != nil {
		return decimal.Zero
	}
	defer release()
	return l.collectedTaxes
}

// PendingWithdrawals returns copies of the timelocked withdrawal requests.
func (l *Ledger) PendingWithdrawals() []model.PendingWithdrawal {
	release, err := l.guard.Enter()
	if err != nil {
		return nil
	}
	defer release()
	out := make([]model.PendingWithdrawal, len(l.pending))
	copy(out, l.pending)
	return out
}
