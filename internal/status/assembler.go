// Package status assembles the public sale-status snapshot.
package status

import (
	"context"

	"github.com/shopspring/decimal"

	"presale-gateway/internal/config"
	"presale-gateway/internal/domain"
	"presale-gateway/internal/ledger"
)

// EarlyClaim is the early-claim section of the snapshot.
type EarlyClaim struct {
	Enabled       bool            `json:"enabled"`
	FlatUSDC      decimal.Decimal `json:"flat_usdc"`
	FeeDestWallet string          `json:"fee_dest_wallet"`
}

// Snapshot is the public configuration and tokenomics summary. Everything in
// it is static configuration; nothing requires a chain read.
type Snapshot struct {
	RPCURL string `json:"rpc_url"`

	TokenMint string `json:"token_mint"`
	USDCMint  string `json:"usdc_mint"`

	PresaleState string `json:"presale_state"`
	TGETs        *int64 `json:"tge_ts"`

	DepositUSDCATA   string `json:"deposit_usdc_ata"`
	DepositUSDCOwner string `json:"deposit_usdc_owner"`

	PresaleMinUSDC *decimal.Decimal `json:"presale_min_usdc"`
	PresaleMaxUSDC *decimal.Decimal `json:"presale_max_usdc"`

	PresalePriceUSDC *decimal.Decimal `json:"presale_price_usdc"`
	DiscountBps      int              `json:"discount_bps"`

	EarlyClaim EarlyClaim `json:"early_claim"`

	AirdropBonusBps int                         `json:"airdrop_bonus_bps"`
	SupplyTotal     int64                       `json:"supply_total"`
	Distribution    domain.DistributionSchedule `json:"distribution"`
}

// Balances reports a wallet's holdings. Degraded reads report zeros and
// gate_ok=false instead of failing the request.
type Balances struct {
	USDC   UIAmount `json:"usdc"`
	Token  UIAmount `json:"token"`
	GateOK bool     `json:"gate_ok"`
}

// UIAmount wraps a balance in the wallet-facing shape.
type UIAmount struct {
	UIAmount decimal.Decimal `json:"uiAmount"`
}

// Assembler builds status snapshots and wallet balance summaries.
type Assembler struct {
	cfg   *config.Config
	chain *ledger.Facade
}

// NewAssembler creates a status assembler.
func NewAssembler(cfg *config.Config, chain *ledger.Facade) *Assembler {
	return &Assembler{cfg: cfg, chain: chain}
}

// Snapshot renders the public status payload.
func (a *Assembler) Snapshot() *Snapshot {
	s := &Snapshot{
		TokenMint:        a.cfg.TokenMint,
		USDCMint:         a.cfg.StableMint,
		PresaleState:     a.cfg.Phase,
		DepositUSDCATA:   a.cfg.DepositATA,
		DepositUSDCOwner: a.cfg.DepositOwner,
		PresaleMinUSDC:   a.cfg.MinContributionUSDC,
		PresaleMaxUSDC:   a.cfg.MaxContributionUSDC,
		DiscountBps:      a.cfg.DiscountBps,
		EarlyClaim: EarlyClaim{
			Enabled:       a.cfg.EarlyClaimEnabled,
			FlatUSDC:      a.cfg.EarlyClaimFeeUSDC,
			FeeDestWallet: a.cfg.DepositOwner,
		},
		AirdropBonusBps: a.cfg.AirdropBonusBps,
		SupplyTotal:     a.cfg.SupplyTotal,
		Distribution:    a.cfg.Distribution,
	}

	// Clients get the primary endpoint; the server fails over internally.
	if len(a.cfg.RPCEndpoints) > 0 {
		s.RPCURL = a.cfg.RPCEndpoints[0]
	}

	if a.cfg.TGETimestamp > 0 {
		ts := a.cfg.TGETimestamp
		s.TGETs = &ts
	}

	if a.cfg.BasePriceUSDC.IsPositive() {
		price := a.cfg.BasePriceUSDC
		s.PresalePriceUSDC = &price
	}

	return s
}

// WalletBalances reads a wallet's stablecoin and sale-token balances plus
// its gating status.
func (a *Assembler) WalletBalances(ctx context.Context, wallet string) *Balances {
	b := &Balances{
		USDC:  UIAmount{UIAmount: a.chain.TokenBalance(ctx, wallet, a.cfg.StableMint)},
		Token: UIAmount{UIAmount: decimal.Zero},
	}

	if a.cfg.TokenMint != "" {
		b.Token = UIAmount{UIAmount: a.chain.TokenBalance(ctx, wallet, a.cfg.TokenMint)}
	}

	if a.cfg.GateMint != "" {
		b.GateOK = a.chain.HoldsAsset(ctx, wallet, a.cfg.GateMint)
	}

	return b
}
