package ledger

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// Payer is the outbound settlement capability. The engine calls Pay
// strictly after all state mutation, and by then the trade is final:
// Pay cannot fail, so an implementation that settles externally must
// absorb delivery problems itself (queue, retry) rather than report
// them back. An implementation that re-enters the engine hits the
// reentrancy guard and the nested call fails.
type Payer interface {
	Pay(account string, amount decimal.Decimal)
}

// Bank is the internal ETH cash ledger: accounts are funded by Deposit,
// debited when value is attached to a trade, and credited by payouts.
// The hosting runtime decides how cash enters and leaves the process.
type Bank struct {
	mu       sync.Mutex
	balances map[string]decimal.Decimal
}

// NewBank creates an empty cash ledger.
func NewBank() *Bank {
	return &Bank{balances: make(map[string]decimal.Decimal)}
}

// Deposit funds an account.
func (b *Bank) Deposit(account string, amount decimal.Decimal) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[account] = b.balances[account].Add(amount)
}

// Debit removes amount from an account, failing when the balance cannot
// cover it.
func (b *Bank) Debit(account string, amount decimal.Decimal) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	bal := b.balances[account]
	if bal.LessThan(amount) {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientFunds, bal, amount)
	}
	b.balances[account] = bal.Sub(amount)
	return nil
}

// Pay credits an account. Bank is the default Payer.
func (b *Bank) Pay(account string, amount decimal.Decimal) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[account] = b.balances[account].Add(amount)
}

// BalanceOf returns an account's cash balance.
func (b *Bank) BalanceOf(account string) decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[account]
}
