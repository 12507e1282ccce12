package ledger

import "errors"

// Failure taxonomy for the accounting engine. Guard-layer failures
// (reentrancy, pause, roles, rate limiting) come from internal/guard;
// registry failures (duplicate, not found) from internal/registry.
var (
	// ErrInvalidInput covers bad accounts, non-positive amounts, and
	// malformed requests.
	ErrInvalidInput = errors.New("ledger: invalid input")

	// ErrSymbolInactive is returned when the operation is not permitted
	// against a deactivated symbol.
	ErrSymbolInactive = errors.New("ledger: symbol inactive")

	// ErrStalePrice is returned when the oracle reading is non-positive
	// or older than the staleness bound.
	ErrStalePrice = errors.New("ledger: stale price")

	// ErrPriceImpact is returned when a trade would drain more than the
	// configured fraction of the reserve.
	ErrPriceImpact = errors.New("ledger: price impact too high")

	// ErrInsufficientBalance is returned when a transfer exceeds the
	// sender's long balance.
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")

	// ErrInsufficientAllowance is returned when a delegated transfer
	// exceeds the approved amount.
	ErrInsufficientAllowance = errors.New("ledger: insufficient allowance")

	// ErrInsufficientCollateral is returned when a short open posts less
	// than the required collateral.
	ErrInsufficientCollateral = errors.New("ledger: insufficient collateral")

	// ErrInsufficientFunds is returned when the account's cash balance
	// cannot cover the attached value.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")

	// ErrReserveExhausted is returned when an operation would drive a
	// symbol's reserve below zero.
	ErrReserveExhausted = errors.New("ledger: reserve exhausted")

	// ErrSlippage is returned when a buy mints fewer tokens than minOut.
	ErrSlippage = errors.New("ledger: slippage exceeded")

	// ErrNoPosition is returned when the account has no open long position.
	ErrNoPosition = errors.New("ledger: no position")

	// ErrPositionOpen is returned when the account already has an open
	// long position.
	ErrPositionOpen = errors.New("ledger: position already open")

	// ErrTimelockNotElapsed is returned when a delayed withdrawal is
	// completed before the configured delay has passed.
	ErrTimelockNotElapsed = errors.New("ledger: withdrawal delay not met")
)
