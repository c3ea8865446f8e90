// Package ledger wraps the chain RPC surface behind a small read-only facade.
// Every read fails over across the configured endpoints in order; a result
// from any endpoint wins, and only when all endpoints fail does the caller
// see an error.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/shopspring/decimal"

	"presale-gateway/internal/observability"
	"presale-gateway/internal/solana"
)

// ErrUnavailable reports that every configured endpoint failed. Callers that
// surface settlement state must map this to "unknown" rather than "pending".
var ErrUnavailable = errors.New("ledger unavailable")

var logger = log.New(os.Stdout, "[ledger] ", log.LstdFlags|log.Lshortfile)

// Facade is the single entry point for chain reads.
type Facade struct {
	clients []solana.RPCClient
}

// New creates a facade over one or more RPC clients tried in order.
func New(clients ...solana.RPCClient) (*Facade, error) {
	if len(clients) == 0 {
		return nil, fmt.Errorf("at least one RPC client required")
	}
	return &Facade{clients: clients}, nil
}

// FromEndpoints builds a facade with an HTTP client per endpoint.
func FromEndpoints(endpoints []string, opts ...solana.ClientOption) (*Facade, error) {
	clients := make([]solana.RPCClient, 0, len(endpoints))
	for _, e := range endpoints {
		clients = append(clients, solana.NewHTTPClient(e, opts...))
	}
	return New(clients...)
}

// failover runs fn against each client in order until one succeeds.
func (f *Facade) failover(ctx context.Context, op string, fn func(solana.RPCClient) error) error {
	var lastErr error
	for i, client := range f.clients {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn(client)
		if err == nil {
			return nil
		}
		lastErr = err
		if i < len(f.clients)-1 {
			logger.Printf("%s failed on endpoint %d, failing over: %v", op, i, err)
			observability.RecordRPCFailover(op)
		}
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, lastErr)
}

// TransactionDetail fetches a confirmed transaction. A nil transaction with a
// nil error means the ledger does not know the signature.
func (f *Facade) TransactionDetail(ctx context.Context, signature string) (*solana.Transaction, error) {
	var tx *solana.Transaction
	err := f.failover(ctx, "getTransaction", func(c solana.RPCClient) error {
		var err error
		tx, err = c.GetTransaction(ctx, signature)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// RecentSignatures lists up to limit signatures touching the address, most
// recent first.
func (f *Facade) RecentSignatures(ctx context.Context, address string, limit int) ([]solana.SignatureInfo, error) {
	var sigs []solana.SignatureInfo
	err := f.failover(ctx, "getSignaturesForAddress", func(c solana.RPCClient) error {
		var err error
		sigs, err = c.GetSignaturesForAddress(ctx, address, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sigs, nil
}

// TokenBalance returns the owner's total balance for a mint. Balance reads
// are best-effort: when every endpoint fails the result degrades to zero so
// display surfaces keep working.
func (f *Facade) TokenBalance(ctx context.Context, owner, mint string) decimal.Decimal {
	var total decimal.Decimal
	err := f.failover(ctx, "getTokenAccountsByOwner", func(c solana.RPCClient) error {
		var err error
		total, err = c.GetTokenBalance(ctx, owner, mint)
		return err
	})
	if err != nil {
		logger.Printf("balance read degraded to zero for mint %s: %v", mint, err)
		return decimal.Zero
	}
	return total
}

// HoldsAsset reports whether the owner holds a strictly positive balance of
// the mint. Used for discount gating; degraded reads report false, which
// denies the discount rather than the purchase.
func (f *Facade) HoldsAsset(ctx context.Context, owner, mint string) bool {
	return f.TokenBalance(ctx, owner, mint).IsPositive()
}
