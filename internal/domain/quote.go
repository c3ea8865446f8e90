package domain

import "github.com/shopspring/decimal"

// PriceQuote is the effective pricing for one buyer at one point in time.
// Derived from configuration plus the gating-asset check; never persisted.
type PriceQuote struct {
	BasePriceUSDC      decimal.Decimal
	DiscountBps        int
	Gated              bool
	EffectivePriceUSDC decimal.Decimal

	// MinUSDC and MaxUSDC are contribution caps in stablecoin units.
	// Nil means the bound is not configured.
	MinUSDC *decimal.Decimal
	MaxUSDC *decimal.Decimal
}

// DistributionBucket is one named share of total supply, in basis points.
type DistributionBucket struct {
	Name     string `json:"name"`
	ShareBps int    `json:"share_bps"`
}

// DistributionSchedule is the fixed supply split published via the status
// endpoint. Shares must sum to at most 10000 bps.
type DistributionSchedule []DistributionBucket

// TotalBps returns the summed share of all buckets.
func (s DistributionSchedule) TotalBps() int {
	total := 0
	for _, b := range s {
		total += b.ShareBps
	}
	return total
}
