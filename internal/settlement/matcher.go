// Package settlement matches pending payment intents against deposit-account
// history.
package settlement

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"presale-gateway/internal/domain"
	"presale-gateway/internal/ledger"
	"presale-gateway/internal/observability"
	"presale-gateway/internal/solana"
	"presale-gateway/internal/storage"
)

// ErrUnknownReference means no live intent exists for the reference.
var ErrUnknownReference = errors.New("unknown reference")

var logger = log.New(os.Stdout, "[settlement] ", log.LstdFlags|log.Lshortfile)

// Result is the outcome of a settlement check.
type Result struct {
	Status    domain.IntentStatus
	Intent    *domain.Intent
	Signature string
}

// Matcher scans recent deposit-account transactions for intents' memo tags.
type Matcher struct {
	chain      *ledger.Facade
	store      storage.IntentStore
	depositATA string
	stableMint string
	scanWindow int
	scanBatch  int
	settledTTL time.Duration
}

// NewMatcher creates a settlement matcher.
func NewMatcher(chain *ledger.Facade, store storage.IntentStore, depositATA, stableMint string, scanWindow, scanBatch int, settledTTL time.Duration) *Matcher {
	return &Matcher{
		chain:      chain,
		store:      store,
		depositATA: depositATA,
		stableMint: stableMint,
		scanWindow: scanWindow,
		scanBatch:  scanBatch,
		settledTTL: settledTTL,
	}
}

// Check resolves the settlement status of the intent behind ref.
//
// A settled intent answers immediately. A pending one triggers a scan of the
// deposit account's recent history; the most recent transaction carrying the
// intent's memo tag and a stablecoin balance change settles it. Ledger
// failures propagate so callers can report "unknown" instead of a misleading
// "pending".
func (m *Matcher) Check(ctx context.Context, ref string) (*Result, error) {
	start := time.Now()

	intent, err := m.store.Get(ctx, ref)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			observability.RecordSettlementCheck("unknown_ref")
			return nil, ErrUnknownReference
		}
		return nil, fmt.Errorf("load intent: %w", err)
	}

	if intent.Status == domain.StatusSettled {
		observability.RecordSettlementCheck("settled")
		return &Result{Status: domain.StatusSettled, Intent: intent, Signature: intent.SettlementSignature}, nil
	}

	sigs, err := m.chain.RecentSignatures(ctx, m.depositATA, m.scanWindow)
	if err != nil {
		observability.RecordSettlementCheck("error")
		return nil, fmt.Errorf("list deposit signatures: %w", err)
	}

	match, scanned, err := m.scan(ctx, sigs, intent.MemoTag)
	observability.RecordSettlementScan(scanned, time.Since(start).Seconds())
	if err != nil {
		observability.RecordSettlementCheck("error")
		return nil, err
	}

	if match == nil {
		observability.RecordSettlementCheck("pending")
		return &Result{Status: domain.StatusPending, Intent: intent}, nil
	}

	settledAt := time.Now().UTC()
	if match.BlockTime > 0 {
		settledAt = time.Unix(match.BlockTime, 0).UTC()
	}

	if err := m.store.MarkSettled(ctx, ref, match.Signature, settledAt, m.settledTTL); err != nil {
		return nil, fmt.Errorf("mark settled: %w", err)
	}

	logger.Printf("settled %s intent %s with %s", intent.Kind, ref, match.Signature)
	observability.RecordSettlementCheck("settled")

	settled := *intent
	settled.Status = domain.StatusSettled
	settled.SettledAt = &settledAt
	settled.SettlementSignature = match.Signature

	return &Result{Status: domain.StatusSettled, Intent: &settled, Signature: match.Signature}, nil
}

// scan fetches transactions in batches and evaluates them strictly in
// recency order, so the newest matching transaction wins even though
// fetches inside a batch run concurrently.
func (m *Matcher) scan(ctx context.Context, sigs []solana.SignatureInfo, memoTag string) (*solana.Transaction, int, error) {
	scanned := 0

	for offset := 0; offset < len(sigs); offset += m.scanBatch {
		end := offset + m.scanBatch
		if end > len(sigs) {
			end = len(sigs)
		}
		batch := sigs[offset:end]

		txs := make([]*solana.Transaction, len(batch))
		errs := make([]error, len(batch))

		var wg sync.WaitGroup
		for i, sig := range batch {
			if sig.Err != nil {
				// Failed transactions never settle anything.
				continue
			}
			wg.Add(1)
			go func(i int, signature string) {
				defer wg.Done()
				txs[i], errs[i] = m.chain.TransactionDetail(ctx, signature)
			}(i, sig.Signature)
		}
		wg.Wait()

		for i := range batch {
			if errs[i] != nil {
				return nil, scanned, fmt.Errorf("fetch transaction %s: %w", batch[i].Signature, errs[i])
			}
			tx := txs[i]
			if tx == nil {
				continue
			}
			scanned++
			if m.matches(tx, memoTag) {
				return tx, scanned, nil
			}
		}
	}

	return nil, scanned, nil
}

// matches reports whether the transaction both carries the memo tag and
// moves the stablecoin. Checking the mint keeps a log line that merely
// quotes the tag from counting as payment.
func (m *Matcher) matches(tx *solana.Transaction, memoTag string) bool {
	return m.carriesMemo(tx, memoTag) && m.movesStable(tx)
}

func (m *Matcher) carriesMemo(tx *solana.Transaction, memoTag string) bool {
	if tx.Meta != nil {
		for _, line := range tx.Meta.LogMessages {
			if strings.Contains(line, memoTag) {
				return true
			}
		}
	}
	if tx.Message != nil && bytes.Contains(tx.Message.Instructions, []byte(memoTag)) {
		return true
	}
	return false
}

func (m *Matcher) movesStable(tx *solana.Transaction) bool {
	if tx.Meta == nil {
		return false
	}
	for _, b := range tx.Meta.PreTokenBalances {
		if b.Mint == m.stableMint {
			return true
		}
	}
	for _, b := range tx.Meta.PostTokenBalances {
		if b.Mint == m.stableMint {
			return true
		}
	}
	return false
}
