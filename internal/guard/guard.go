// Package guard implements the protection layer around the ledger engine:
// a reentrancy lock, a per-(symbol, account) trade-rate limiter, a pause
// switch, and a bounded operator set.
//
// Trade functions pay out to caller-controlled code after mutating state,
// so every state-mutating entry point acquires the lock for its full
// duration; a nested entry fails instead of deadlocking.
package guard

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrReentrancy is returned when a call enters the engine while
	// another call holds the lock.
	ErrReentrancy = errors.New("guard: reentrant call")

	// ErrPaused is returned by trading entry points while paused.
	ErrPaused = errors.New("guard: contract paused")

	// ErrUnauthorized is returned when the caller lacks the required role.
	ErrUnauthorized = errors.New("guard: unauthorized")

	// ErrTooManyOperators is returned when the operator set is full.
	ErrTooManyOperators = errors.New("guard: too many operators")

	// ErrRateLimited is returned when a second trade on the same
	// (symbol, account) arrives before the minimum block gap has elapsed.
	ErrRateLimited = errors.New("guard: trade rate limited")
)

// tradeKey identifies one (symbol, account) trade window.
type tradeKey struct {
	symbolID uint32
	account  string
}

// Guard holds the protection state. The owner is a distinguished address
// counted as a member of the bounded operator set.
type Guard struct {
	mu sync.Mutex // the engine-wide reentrancy lock

	state struct {
		sync.Mutex // protects the fields below, never held across calls out
		paused     bool
		operators  map[string]bool
		lastTrade  map[tradeKey]uint64
	}

	owner        string
	maxOperators int
	minTradeGap  uint64
}

// New creates a guard. maxOperators counts the owner; minTradeGap is the
// minimum number of blocks between trades on one (symbol, account) — a
// gap of 1 rejects same-block trades.
func New(owner string, maxOperators int, minTradeGap uint64) *Guard {
	g := &Guard{
		owner:        owner,
		maxOperators: maxOperators,
		minTradeGap:  minTradeGap,
	}
	g.state.operators = map[string]bool{owner: true}
	g.state.lastTrade = make(map[tradeKey]uint64)
	return g
}

// Enter acquires the reentrancy lock. On success it returns a release
// function that must be deferred; a nested entry fails with
// ErrReentrancy instead of blocking.
func (g *Guard) Enter() (func(), error) {
	if !g.mu.TryLock() {
		return nil, ErrReentrancy
	}
	return g.mu.Unlock, nil
}

// Owner returns the owner address.
func (g *Guard) Owner() string { return g.owner }

// RequireOwner fails with ErrUnauthorized unless caller is the owner.
func (g *Guard) RequireOwner(caller string) error {
	if caller != g.owner {
		return fmt.Errorf("%w: owner required", ErrUnauthorized)
	}
	return nil
}

// RequireOperator fails with ErrUnauthorized unless caller is the owner
// or a registered operator.
func (g *Guard) RequireOperator(caller string) error {
	g.state.Lock()
	defer g.state.Unlock()
	if !g.state.operators[caller] {
		return fmt.Errorf("%w: operator required", ErrUnauthorized)
	}
	return nil
}

// AddOperator registers an operator address. Owner-only; fails with
// ErrTooManyOperators once the bounded set (owner included) is full.
func (g *Guard) AddOperator(caller, addr string) error {
	if err := g.RequireOwner(caller); err != nil {
		return err
	}
	if addr == "" {
		return fmt.Errorf("%w: empty operator address", ErrUnauthorized)
	}
	g.state.Lock()
	defer g.state.Unlock()
	if g.state.operators[addr] {
		return nil
	}
	if len(g.state.operators) >= g.maxOperators {
		return ErrTooManyOperators
	}
	g.state.operators[addr] = true
	return nil
}

// IsOperator reports whether addr is the owner or an operator.
func (g *Guard) IsOperator(addr string) bool {
	g.state.Lock()
	defer g.state.Unlock()
	return g.state.operators[addr]
}

// Pause stops trading entry points. Operator-gated.
func (g *Guard) Pause(caller string) error {
	if err := g.RequireOperator(caller); err != nil {
		return err
	}
	g.state.Lock()
	defer g.state.Unlock()
	g.state.paused = true
	return nil
}

// Unpause resumes trading. Operator-gated.
func (g *Guard) Unpause(caller string) error {
	if err := g.RequireOperator(caller); err != nil {
		return err
	}
	g.state.Lock()
	defer g.state.Unlock()
	g.state.paused = false
	return nil
}

// Paused reports the pause switch.
func (g *Guard) Paused() bool {
	g.state.Lock()
	defer g.state.Unlock()
	return g.state.paused
}

// CheckTradeGap rejects a trade when the account last traded this symbol
// fewer than minTradeGap blocks ago.
func (g *Guard) CheckTradeGap(symbolID uint32, account string, block uint64) error {
	g.state.Lock()
	defer g.state.Unlock()
	last, ok := g.state.lastTrade[tradeKey{symbolID, account}]
	if ok && block < last+g.minTradeGap {
		return fmt.Errorf("%w: last trade at block %d", ErrRateLimited, last)
	}
	return nil
}

// RecordTrade stores the block of a successful trade for the window check.
func (g *Guard) RecordTrade(symbolID uint32, account string, block uint64) {
	g.state.Lock()
	defer g.state.Unlock()
	g.state.lastTrade[tradeKey{symbolID, account}] = block
}
