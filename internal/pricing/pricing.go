// Package pricing implements the reserve bonding math for the elastic
// ledger: token mint/burn amounts against an ETH reserve, trade tax,
// short collateral requirements, and the rebase scaling factor.
//
// Tokens are priced inversely to the symbol price: one ETH of net value
// mints priceUnit/price tokens, so cheaper assets mint proportionally
// more tokens per ETH. All monetary values use shopspring/decimal —
// never float64 for money.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrNonPositivePrice is returned when a quote is requested against a
	// zero or negative price.
	ErrNonPositivePrice = errors.New("pricing: price must be positive")

	// ErrNonPositiveAmount is returned for zero or negative trade sizes.
	ErrNonPositiveAmount = errors.New("pricing: amount must be positive")

	// PriceUnit is the oracle fixed-point scale (8 decimals): a price of
	// exactly PriceUnit mints one token per ETH of net value.
	PriceUnit = decimal.New(1, 8)

	// TokenScale is the number of decimal places token amounts are
	// rounded to.
	TokenScale int32 = 18

	// BpsDenominator is the basis-point denominator for the tax rate.
	BpsDenominator = decimal.NewFromInt(10000)
)

// Curve holds the trade parameters: tax rate in basis points and the
// short collateral ratio. It is stateless — reserve and supply are
// passed as arguments, not stored.
type Curve struct {
	taxBps          decimal.Decimal
	collateralRatio decimal.Decimal
}

// NewCurve creates a curve with the given tax (basis points, e.g. 500 =
// 5%) and short collateral ratio (e.g. 1.5).
func NewCurve(taxBps int64, collateralRatio decimal.Decimal) (*Curve, error) {
	if taxBps < 0 || taxBps >= 10000 {
		return nil, errors.New("pricing: tax must be in [0, 10000) basis points")
	}
	if collateralRatio.LessThan(decimal.NewFromInt(1)) {
		return nil, errors.New("pricing: collateral ratio must be >= 1")
	}
	return &Curve{
		taxBps:          decimal.NewFromInt(taxBps),
		collateralRatio: collateralRatio,
	}, nil
}

// Tax returns the tax deducted from an ETH value: value * taxBps / 10000.
func (c *Curve) Tax(value decimal.Decimal) decimal.Decimal {
	return value.Mul(c.taxBps).Div(BpsDenominator)
}

// TokensOut quotes a buy: the tax deducted from value and the tokens
// minted from the remaining net value at the given price.
//
//	tokens = (value - tax) * PriceUnit / price
func (c *Curve) TokensOut(value, price decimal.Decimal) (tokens, tax decimal.Decimal, err error) {
	if value.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, decimal.Zero, ErrNonPositiveAmount
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, decimal.Zero, ErrNonPositivePrice
	}
	tax = c.Tax(value)
	net := value.Sub(tax)
	tokens = net.Mul(PriceUnit).DivRound(price, TokenScale)
	return tokens, tax, nil
}

// ValueOut quotes a sell of token amount at the given price: the gross
// ETH value removed from the reserve, the tax withheld, and the net
// payout to the seller.
func (c *Curve) ValueOut(amount, price decimal.Decimal) (gross, tax, net decimal.Decimal, err error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, decimal.Zero, decimal.Zero, ErrNonPositiveAmount
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, decimal.Zero, decimal.Zero, ErrNonPositivePrice
	}
	gross = amount.Mul(price).DivRound(PriceUnit, TokenScale)
	tax = c.Tax(gross)
	return gross, tax, gross.Sub(tax), nil
}

// RequiredCollateral returns the ETH a short seller must post to open a
// short of the given token amount: mark-to-market value times the
// collateral ratio.
func (c *Curve) RequiredCollateral(amount, price decimal.Decimal) decimal.Decimal {
	mark := amount.Mul(price).DivRound(PriceUnit, TokenScale)
	return mark.Mul(c.collateralRatio)
}

// MarkValue returns the current ETH value of a token amount.
func MarkValue(amount, price decimal.Decimal) decimal.Decimal {
	return amount.Mul(price).DivRound(PriceUnit, TokenScale)
}

// Factor computes the rebase scaling factor p1/p0 as a decimal ratio,
// never truncated to an integer.
func Factor(p0, p1 decimal.Decimal) (decimal.Decimal, error) {
	if p0.LessThanOrEqual(decimal.Zero) || p1.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrNonPositivePrice
	}
	return p1.DivRound(p0, TokenScale), nil
}

// Scale applies a rebase factor to a signed balance, preserving sign.
func Scale(balance, factor decimal.Decimal) decimal.Decimal {
	return balance.Mul(factor).Round(TokenScale)
}
