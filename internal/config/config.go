// Package config builds the explicit runtime configuration passed into every
// component. Nothing in this repository reads the environment after startup;
// handlers receive a Config value and treat it as immutable.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"presale-gateway/internal/domain"
)

// Presale phases. "closed" rejects all contribution intents.
const (
	PhasePre    = "pre"
	PhaseOpen   = "open"
	PhaseClosed = "closed"
)

// Scan defaults for the settlement matcher.
const (
	DefaultScanWindow = 64
	DefaultScanBatch  = 8
)

// Storage TTLs. Pending intents expire quickly; settled intents are kept
// longer for audit.
const (
	DefaultPendingIntentTTL = 7 * 24 * time.Hour
	DefaultSettledIntentTTL = 60 * 24 * time.Hour
	DefaultEarlyIntentTTL   = 30 * 24 * time.Hour
	DefaultClaimJobTTL      = 3 * 24 * time.Hour
)

// Config is the full runtime configuration.
type Config struct {
	// RPCEndpoints is the ordered failover list of Solana JSON-RPC URLs.
	RPCEndpoints []string

	// WSEndpoint enables the deposit-address log watcher when set.
	WSEndpoint string

	StableMint string // stablecoin (USDC) mint, required
	TokenMint  string // sale token mint, informational
	GateMint   string // gating collectible mint, empty disables the discount

	// DepositOwner is the wallet that receives contributions (the Solana Pay
	// recipient). DepositATA is its stablecoin token account, the address
	// whose history the matcher scans.
	DepositOwner string
	DepositATA   string

	Phase         string
	BasePriceUSDC decimal.Decimal
	DiscountBps   int

	MinContributionUSDC *decimal.Decimal
	MaxContributionUSDC *decimal.Decimal

	EarlyClaimEnabled bool
	EarlyClaimFeeUSDC decimal.Decimal

	TGETimestamp    int64
	AirdropBonusBps int
	SupplyTotal     int64
	Distribution    domain.DistributionSchedule

	// PayLabel and PayMessage are embedded in issued payment-request URIs.
	PayLabel   string
	PayMessage string

	ScanWindow int
	ScanBatch  int

	PendingIntentTTL time.Duration
	SettledIntentTTL time.Duration
	EarlyIntentTTL   time.Duration
	ClaimJobTTL      time.Duration

	// AllowedOrigins is the CORS allow-list. Entries may carry a single
	// "*." host wildcard; "*" allows everything.
	AllowedOrigins []string
}

// FromEnv builds a Config from an environment lookup function, applying
// defaults for everything optional. Call Validate before use.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		RPCEndpoints:     splitList(getenv("SOLANA_RPC_ENDPOINTS")),
		WSEndpoint:       getenv("SOLANA_WS_ENDPOINT"),
		StableMint:       getenv("STABLE_MINT"),
		TokenMint:        getenv("TOKEN_MINT"),
		GateMint:         getenv("GATE_MINT"),
		DepositOwner:     getenv("DEPOSIT_OWNER"),
		DepositATA:       getenv("DEPOSIT_ATA"),
		Phase:            defaultString(getenv("PRESALE_PHASE"), PhaseOpen),
		PayLabel:         defaultString(getenv("PAY_LABEL"), "Token Presale"),
		PayMessage:       defaultString(getenv("PAY_MESSAGE"), "Presale Deposit"),
		ScanWindow:       DefaultScanWindow,
		ScanBatch:        DefaultScanBatch,
		PendingIntentTTL: DefaultPendingIntentTTL,
		SettledIntentTTL: DefaultSettledIntentTTL,
		EarlyIntentTTL:   DefaultEarlyIntentTTL,
		ClaimJobTTL:      DefaultClaimJobTTL,
		AllowedOrigins:   splitList(defaultString(getenv("ALLOWED_ORIGINS"), "*")),
	}

	var err error
	if cfg.BasePriceUSDC, err = parseDecimal(getenv("PRESALE_PRICE_USDC"), decimal.Zero); err != nil {
		return nil, fmt.Errorf("PRESALE_PRICE_USDC: %w", err)
	}
	if cfg.EarlyClaimFeeUSDC, err = parseDecimal(getenv("EARLY_CLAIM_FEE_USDC"), decimal.NewFromInt(1)); err != nil {
		return nil, fmt.Errorf("EARLY_CLAIM_FEE_USDC: %w", err)
	}
	if cfg.MinContributionUSDC, err = parseOptionalDecimal(getenv("PRESALE_MIN_USDC")); err != nil {
		return nil, fmt.Errorf("PRESALE_MIN_USDC: %w", err)
	}
	if cfg.MaxContributionUSDC, err = parseOptionalDecimal(getenv("PRESALE_MAX_USDC")); err != nil {
		return nil, fmt.Errorf("PRESALE_MAX_USDC: %w", err)
	}
	if cfg.DiscountBps, err = parseInt(getenv("DISCOUNT_BPS"), 0); err != nil {
		return nil, fmt.Errorf("DISCOUNT_BPS: %w", err)
	}
	if cfg.AirdropBonusBps, err = parseInt(getenv("AIRDROP_BONUS_BPS"), 0); err != nil {
		return nil, fmt.Errorf("AIRDROP_BONUS_BPS: %w", err)
	}
	if cfg.ScanWindow, err = parseInt(getenv("SETTLEMENT_SCAN_WINDOW"), DefaultScanWindow); err != nil {
		return nil, fmt.Errorf("SETTLEMENT_SCAN_WINDOW: %w", err)
	}

	tge, err := parseInt64(getenv("TGE_TS"), 0)
	if err != nil {
		return nil, fmt.Errorf("TGE_TS: %w", err)
	}
	cfg.TGETimestamp = tge

	supply, err := parseInt64(getenv("SUPPLY_TOTAL"), 0)
	if err != nil {
		return nil, fmt.Errorf("SUPPLY_TOTAL: %w", err)
	}
	cfg.SupplyTotal = supply

	cfg.EarlyClaimEnabled = getenv("EARLY_CLAIM_ENABLED") == "true"
	cfg.Distribution = DefaultDistribution()

	return cfg, nil
}

// DefaultDistribution is the published eight-bucket supply split.
func DefaultDistribution() domain.DistributionSchedule {
	return domain.DistributionSchedule{
		{Name: "presale", ShareBps: 1000},
		{Name: "dex_liquidity", ShareBps: 2000},
		{Name: "staking", ShareBps: 700},
		{Name: "ecosystem", ShareBps: 2000},
		{Name: "treasury", ShareBps: 1500},
		{Name: "team", ShareBps: 1000},
		{Name: "airdrop_nft", ShareBps: 1000},
		{Name: "buyback_reserve", ShareBps: 800},
	}
}

// Validate checks cross-field constraints that would otherwise surface as
// confusing per-request failures.
func (c *Config) Validate() error {
	if len(c.RPCEndpoints) == 0 {
		return fmt.Errorf("at least one RPC endpoint is required")
	}
	if c.StableMint == "" {
		return fmt.Errorf("stable mint is required")
	}
	if c.DepositOwner == "" {
		return fmt.Errorf("deposit owner is required")
	}
	if c.DepositATA == "" {
		return fmt.Errorf("deposit token account is required")
	}
	switch c.Phase {
	case PhasePre, PhaseOpen, PhaseClosed:
	default:
		return fmt.Errorf("unknown presale phase %q", c.Phase)
	}
	if c.DiscountBps < 0 || c.DiscountBps > 10000 {
		return fmt.Errorf("discount bps %d out of range [0,10000]", c.DiscountBps)
	}
	if c.MinContributionUSDC != nil && c.MaxContributionUSDC != nil &&
		c.MinContributionUSDC.GreaterThan(*c.MaxContributionUSDC) {
		return fmt.Errorf("min contribution exceeds max contribution")
	}
	if total := c.Distribution.TotalBps(); total > 10000 {
		return fmt.Errorf("distribution schedule sums to %d bps, exceeds 10000", total)
	}
	if c.ScanWindow <= 0 {
		return fmt.Errorf("scan window must be positive")
	}
	if c.ScanBatch <= 0 {
		return fmt.Errorf("scan batch must be positive")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		// Deduplicate, preserving order.
		seen := false
		for _, existing := range out {
			if existing == part {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, part)
		}
	}
	return out
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func parseDecimal(s string, def decimal.Decimal) (decimal.Decimal, error) {
	if s == "" {
		return def, nil
	}
	return decimal.NewFromString(s)
}

func parseOptionalDecimal(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseInt(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

func parseInt64(s string, def int64) (int64, error) {
	if s == "" {
		return def, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
