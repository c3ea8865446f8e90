// Package claim handles early-claim confirmations and claimable lookups.
package claim

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"presale-gateway/internal/config"
	"presale-gateway/internal/domain"
	"presale-gateway/internal/observability"
	"presale-gateway/internal/reference"
	"presale-gateway/internal/solana"
	"presale-gateway/internal/storage"
)

// Client-facing errors.
var (
	// ErrEarlyClaimDisabled means early claiming is switched off.
	ErrEarlyClaimDisabled = errors.New("early claim disabled")

	// ErrInvalidAddress means the wallet address failed validation.
	ErrInvalidAddress = errors.New("invalid wallet address")

	// ErrInvalidSignature means the fee signature is not well formed.
	ErrInvalidSignature = errors.New("invalid transaction signature")
)

var logger = log.New(os.Stdout, "[claim] ", log.LstdFlags|log.Lshortfile)

// Service queues claim jobs and serves claimable balances.
type Service struct {
	cfg   *config.Config
	store storage.ClaimStore
}

// NewService creates a claim service.
func NewService(cfg *config.Config, store storage.ClaimStore) *Service {
	return &Service{cfg: cfg, store: store}
}

// Confirm records that a buyer paid the early-claim fee and queues a
// distribution job. Only the signature's shape is validated here; the job
// processor verifies the payment on chain before releasing tokens, so a
// bogus signature wastes the submitter's time, not ours.
func (s *Service) Confirm(ctx context.Context, wallet, feeSignature string) (*domain.ClaimJob, error) {
	if !s.cfg.EarlyClaimEnabled {
		return nil, ErrEarlyClaimDisabled
	}

	if err := solana.ValidateWalletAddress(wallet); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	if err := solana.ValidateSignature(feeSignature); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	job := &domain.ClaimJob{
		JobID:        reference.NewJobID(),
		BuyerAddress: wallet,
		FeeSignature: feeSignature,
		Status:       domain.JobQueued,
		QueuedAt:     time.Now().UTC(),
	}

	if err := s.store.PutJob(ctx, job, s.cfg.ClaimJobTTL); err != nil {
		return nil, fmt.Errorf("store claim job: %w", err)
	}

	observability.RecordClaimJobQueued()
	logger.Printf("queued claim job %s for %s", job.JobID, wallet)

	return job, nil
}

// Status describes a wallet's claim position.
type Status struct {
	Wallet    string
	Claimable string
}

// StatusFor returns the claimable amount recorded for a wallet. Wallets with
// nothing recorded report "0".
func (s *Service) StatusFor(ctx context.Context, wallet string) (*Status, error) {
	if err := solana.ValidateWalletAddress(wallet); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	amount, err := s.store.Claimable(ctx, wallet)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &Status{Wallet: wallet, Claimable: "0"}, nil
		}
		return nil, fmt.Errorf("load claimable: %w", err)
	}

	return &Status{Wallet: wallet, Claimable: amount}, nil
}
