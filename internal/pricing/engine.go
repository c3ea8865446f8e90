// Package pricing computes effective presale prices and converts between
// token units and stablecoin amounts.
package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"presale-gateway/internal/domain"
)

// Contribution amounts are quoted to 6 decimal places, matching the
// stablecoin mint's precision.
const stableScale = 6

// Caps and misconfiguration errors surfaced to intent issuance.
var (
	// ErrPriceNotConfigured means the base price is unset or non-positive.
	ErrPriceNotConfigured = errors.New("presale price not configured")

	// ErrBelowMinimum means the contribution is under the configured floor.
	ErrBelowMinimum = errors.New("contribution below minimum")

	// ErrAboveMaximum means the contribution is over the configured ceiling.
	ErrAboveMaximum = errors.New("contribution above maximum")
)

// Engine derives quotes from static sale parameters. Gating state is an
// input; the engine itself never touches the chain.
type Engine struct {
	basePrice   decimal.Decimal
	discountBps int
	minStable   *decimal.Decimal
	maxStable   *decimal.Decimal
}

// NewEngine creates a pricing engine. basePrice is the undiscounted price of
// one token in stablecoin units; discountBps applies only to gated buyers.
func NewEngine(basePrice decimal.Decimal, discountBps int, minStable, maxStable *decimal.Decimal) *Engine {
	return &Engine{
		basePrice:   basePrice,
		discountBps: discountBps,
		minStable:   minStable,
		maxStable:   maxStable,
	}
}

// Configured reports whether a positive base price is set.
func (e *Engine) Configured() bool {
	return e.basePrice.IsPositive()
}

// Quote computes the effective price for a buyer. The discount is
// bps/10000 off the base price, rounded half away from zero to 6 places.
func (e *Engine) Quote(gated bool) (domain.PriceQuote, error) {
	if !e.Configured() {
		return domain.PriceQuote{}, ErrPriceNotConfigured
	}

	q := domain.PriceQuote{
		BasePriceUSDC:      e.basePrice,
		DiscountBps:        e.discountBps,
		Gated:              gated,
		EffectivePriceUSDC: e.basePrice,
		MinUSDC:            e.minStable,
		MaxUSDC:            e.maxStable,
	}

	if gated && e.discountBps > 0 {
		factor := decimal.NewFromInt(int64(10000 - e.discountBps)).Div(decimal.NewFromInt(10000))
		q.EffectivePriceUSDC = e.basePrice.Mul(factor).Round(stableScale)
	}

	return q, nil
}

// ToStableAmount converts a token quantity into the stablecoin amount due at
// the quoted price, rounded half away from zero to 6 places.
func ToStableAmount(tokens decimal.Decimal, quote domain.PriceQuote) decimal.Decimal {
	return tokens.Mul(quote.EffectivePriceUSDC).Round(stableScale)
}

// ToTokenAmount converts a stablecoin amount into whole token units at the
// quoted price. Division truncates toward zero; buyers never receive a
// fractional unit rounded up.
func ToTokenAmount(stable decimal.Decimal, quote domain.PriceQuote) (decimal.Decimal, error) {
	if !quote.EffectivePriceUSDC.IsPositive() {
		return decimal.Zero, ErrPriceNotConfigured
	}
	return stable.DivRound(quote.EffectivePriceUSDC, stableScale+2).Floor(), nil
}

// CheckCaps validates a stablecoin contribution against the configured
// per-transaction floor and ceiling.
func (e *Engine) CheckCaps(stable decimal.Decimal) error {
	if e.minStable != nil && stable.LessThan(*e.minStable) {
		return fmt.Errorf("%w: %s < %s", ErrBelowMinimum, stable, e.minStable)
	}
	if e.maxStable != nil && stable.GreaterThan(*e.maxStable) {
		return fmt.Errorf("%w: %s > %s", ErrAboveMaximum, stable, e.maxStable)
	}
	return nil
}
