// Package intent issues payment intents for presale contributions and
// early-claim fees.
package intent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"presale-gateway/internal/config"
	"presale-gateway/internal/domain"
	"presale-gateway/internal/ledger"
	"presale-gateway/internal/observability"
	"presale-gateway/internal/payrequest"
	"presale-gateway/internal/pricing"
	"presale-gateway/internal/reference"
	"presale-gateway/internal/solana"
	"presale-gateway/internal/storage"
)

// Client-facing issuance errors.
var (
	// ErrPresaleClosed means the sale phase does not accept contributions.
	ErrPresaleClosed = errors.New("presale is not open")

	// ErrInvalidAddress means the buyer address failed validation.
	ErrInvalidAddress = errors.New("invalid wallet address")

	// ErrAmountRequired means neither a stablecoin nor a token amount was
	// given.
	ErrAmountRequired = errors.New("amount required")

	// ErrAmountAmbiguous means both a stablecoin and a token amount were
	// given; exactly one is accepted.
	ErrAmountAmbiguous = errors.New("supply exactly one of the stablecoin or token amount")

	// ErrEarlyClaimDisabled means early claiming is switched off.
	ErrEarlyClaimDisabled = errors.New("early claim disabled")
)

var logger = log.New(os.Stdout, "[intent] ", log.LstdFlags|log.Lshortfile)

// Service issues intents and persists them for later settlement checks.
type Service struct {
	cfg    *config.Config
	engine *pricing.Engine
	chain  *ledger.Facade
	store  storage.IntentStore
}

// NewService creates an intent service.
func NewService(cfg *config.Config, engine *pricing.Engine, chain *ledger.Facade, store storage.IntentStore) *Service {
	return &Service{cfg: cfg, engine: engine, chain: chain, store: store}
}

// ContributionRequest is a buyer's ask to contribute. Exactly one of
// AmountUSDC or AmountTokens must be set.
type ContributionRequest struct {
	BuyerAddress string
	AmountUSDC   *decimal.Decimal
	AmountTokens *decimal.Decimal
}

// Issued is the response to a successful intent creation.
type Issued struct {
	Intent *domain.Intent
	Quote  domain.PriceQuote
	PayURI string
}

// CreateContribution issues a presale contribution intent.
func (s *Service) CreateContribution(ctx context.Context, req ContributionRequest) (*Issued, error) {
	if s.cfg.Phase != config.PhaseOpen {
		observability.RecordIntentRejected("presale_closed")
		return nil, ErrPresaleClosed
	}

	if !s.engine.Configured() {
		return nil, pricing.ErrPriceNotConfigured
	}

	if err := solana.ValidateWalletAddress(req.BuyerAddress); err != nil {
		observability.RecordIntentRejected("invalid_address")
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	gated := false
	if s.cfg.GateMint != "" {
		gated = s.chain.HoldsAsset(ctx, req.BuyerAddress, s.cfg.GateMint)
	}

	quote, err := s.engine.Quote(gated)
	if err != nil {
		return nil, err
	}

	if req.AmountUSDC != nil && req.AmountTokens != nil {
		observability.RecordIntentRejected("amount_ambiguous")
		return nil, ErrAmountAmbiguous
	}

	var amountDue decimal.Decimal
	switch {
	case req.AmountUSDC != nil && req.AmountUSDC.IsPositive():
		amountDue = req.AmountUSDC.Round(6)
	case req.AmountTokens != nil && req.AmountTokens.IsPositive():
		amountDue = pricing.ToStableAmount(*req.AmountTokens, quote)
	default:
		observability.RecordIntentRejected("amount_required")
		return nil, ErrAmountRequired
	}

	if err := s.engine.CheckCaps(amountDue); err != nil {
		observability.RecordIntentRejected("caps")
		return nil, err
	}

	return s.issue(ctx, domain.KindPresale, req.BuyerAddress, amountDue, quote, s.cfg.PendingIntentTTL)
}

// CreateEarlyClaim issues an early-claim fee intent for the flat fee.
func (s *Service) CreateEarlyClaim(ctx context.Context, buyerAddress string) (*Issued, error) {
	if !s.cfg.EarlyClaimEnabled {
		observability.RecordIntentRejected("early_claim_disabled")
		return nil, ErrEarlyClaimDisabled
	}

	if err := solana.ValidateWalletAddress(buyerAddress); err != nil {
		observability.RecordIntentRejected("invalid_address")
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	quote := domain.PriceQuote{
		BasePriceUSDC:      s.cfg.EarlyClaimFeeUSDC,
		EffectivePriceUSDC: s.cfg.EarlyClaimFeeUSDC,
	}

	return s.issue(ctx, domain.KindEarlyClaim, buyerAddress, s.cfg.EarlyClaimFeeUSDC, quote, s.cfg.EarlyIntentTTL)
}

// issue persists the intent and renders its payment URI.
func (s *Service) issue(ctx context.Context, kind domain.IntentKind, buyer string, amountDue decimal.Decimal, quote domain.PriceQuote, ttl time.Duration) (*Issued, error) {
	ref, err := reference.New()
	if err != nil {
		return nil, fmt.Errorf("generate reference: %w", err)
	}

	now := time.Now().UTC()
	intent := &domain.Intent{
		Reference:    ref,
		Kind:         kind,
		MemoTag:      reference.MemoTag(string(kind), ref),
		BuyerAddress: buyer,
		AmountDue:    amountDue,
		PriceUsed:    quote.EffectivePriceUSDC,
		Gated:        quote.Gated,
		Status:       domain.StatusPending,
		CreatedAt:    now,
	}

	if err := s.store.Put(ctx, intent, ttl); err != nil {
		return nil, fmt.Errorf("store intent: %w", err)
	}

	pay := payrequest.Request{
		Recipient: s.cfg.DepositOwner,
		Amount:    amountDue,
		SPLToken:  s.cfg.StableMint,
		Label:     s.cfg.PayLabel,
		Message:   s.cfg.PayMessage,
		Memo:      intent.MemoTag,
	}

	observability.RecordIntentCreated(string(kind))
	logger.Printf("issued %s intent %s for %s (%s USDC)", kind, ref, buyer, amountDue)

	return &Issued{
		Intent: intent,
		Quote:  quote,
		PayURI: pay.URI(),
	}, nil
}
