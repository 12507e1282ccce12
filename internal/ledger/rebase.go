package ledger

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/synthx/elastic-engine/internal/guard"
	"github.com/synthx/elastic-engine/internal/oracle"
	"github.com/synthx/elastic-engine/internal/pricing"
)

// RebaseEvent describes one symbol's applied rebase.
type RebaseEvent struct {
	SymbolID uint32          `json:"symbol_id"`
	Symbol   string          `json:"symbol"`
	Factor   decimal.Decimal `json:"factor"`
	Price    decimal.Decimal `json:"price"`
}

// Rebase rescales every active symbol's supply and all holder balances —
// long and short alike — by the price movement since the last rebase.
// Permissionless. A symbol is skipped (not an error) when its minimum
// rebase interval has not elapsed, its feed is stale or non-positive, or
// its last price is zero. Returns the applied rebases.
func (l *Ledger) Rebase(ctx context.Context) ([]RebaseEvent, error) {
	release, err := l.guard.Enter()
	if err != nil {
		return nil, err
	}
	defer release()

	if l.guard.Paused() {
		return nil, guard.ErrPaused
	}

	now := l.clock.Now()
	var events []RebaseEvent

	for _, sym := range l.reg.All() {
		if !sym.Active {
			continue
		}
		if now.Sub(sym.LastPriceTimestamp) < l.cfg.MinRebaseInterval {
			continue
		}
		feed, err := l.reg.FeedByID(sym.ID)
		if err != nil {
			continue
		}
		round, err := feed.LatestRound(ctx)
		if err != nil || !oracle.Fresh(round, now, l.cfg.StalenessBound) {
			continue
		}

		p0 := sym.LastPrice
		p1 := round.Price
		if p0.LessThanOrEqual(decimal.Zero) {
			// First usable reading: anchor the price, nothing to scale.
			sym.LastPrice = p1
			sym.LastPriceTimestamp = now
			continue
		}

		factor, err := pricing.Factor(p0, p1)
		if err != nil {
			continue
		}
		sym.LastPrice = p1
		sym.LastPriceTimestamp = now
		if factor.Equal(decimal.NewFromInt(1)) {
			continue
		}

		// Scale every signed balance and recompute the supply as their
		// sum so conservation holds exactly after rounding. setBalance
		// prunes entries rounded to zero and keeps the holder count in
		// step; deleting during the range is safe.
		newSupply := decimal.Zero
		for account, bal := range l.balances[sym.ID] {
			scaled := pricing.Scale(bal, factor)
			l.setBalance(sym, account, scaled)
			newSupply = newSupply.Add(scaled)
		}
		sym.TotalSupply = newSupply

		events = append(events, RebaseEvent{
			SymbolID: sym.ID,
			Symbol:   sym.Name,
			Factor:   factor,
			Price:    p1,
		})
		slog.Info("rebase applied",
			"symbol", sym.Name,
			"factor", factor.String(),
			"price", p1.String(),
			"supply", newSupply.String(),
		)
	}
	return events, nil
}
