// Package oracle defines the price feed capability consumed by the ledger
// engine. A feed exposes a single latest-round read; concrete providers
// live outside this repository. The engine treats a non-positive price or
// an updatedAt older than its staleness bound as unusable.
package oracle

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNoRound is returned by a feed that has never produced a reading.
var ErrNoRound = errors.New("oracle: no round available")

// RoundData is one oracle reading. Price uses 8-decimal fixed point
// carried as a decimal (e.g. BTC at $50,000 is 50000.00000000).
type RoundData struct {
	RoundID         uint64
	Price           decimal.Decimal
	StartedAt       time.Time
	UpdatedAt       time.Time
	AnsweredInRound uint64
}

// PriceFeed is the read contract for one symbol's price source.
type PriceFeed interface {
	// Description returns the symbol name this feed tracks (e.g. "BTC").
	Description() string

	// LatestRound returns the most recent reading.
	LatestRound(ctx context.Context) (RoundData, error)
}

// Fresh reports whether a round is usable at time now: positive price and
// updated within the staleness bound.
func Fresh(r RoundData, now time.Time, bound time.Duration) bool {
	if r.Price.LessThanOrEqual(decimal.Zero) {
		return false
	}
	return now.Sub(r.UpdatedAt) <= bound
}
