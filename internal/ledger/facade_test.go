package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"presale-gateway/internal/solana"
)

// fakeRPC is a scriptable RPCClient for failover tests.
type fakeRPC struct {
	err      error
	tx       *solana.Transaction
	sigs     []solana.SignatureInfo
	balance  decimal.Decimal
	txCalls  int
	sigCalls int
	balCalls int
}

func (f *fakeRPC) GetTransaction(ctx context.Context, signature string) (*solana.Transaction, error) {
	f.txCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.tx, nil
}

func (f *fakeRPC) GetSignaturesForAddress(ctx context.Context, address string, limit int) ([]solana.SignatureInfo, error) {
	f.sigCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.sigs, nil
}

func (f *fakeRPC) GetTokenBalance(ctx context.Context, owner, mint string) (decimal.Decimal, error) {
	f.balCalls++
	if f.err != nil {
		return decimal.Zero, f.err
	}
	return f.balance, nil
}

func TestNew_RequiresClient(t *testing.T) {
	if _, err := New(); err == nil {
		t.Fatal("expected error for empty client list")
	}
}

func TestFacade_FailoverOrder(t *testing.T) {
	broken := &fakeRPC{err: errors.New("connection refused")}
	healthy := &fakeRPC{tx: &solana.Transaction{Signature: "sig1", Slot: 10}}

	f, err := New(broken, healthy)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tx, err := f.TransactionDetail(context.Background(), "sig1")
	if err != nil {
		t.Fatalf("TransactionDetail: %v", err)
	}

	if tx == nil || tx.Signature != "sig1" {
		t.Errorf("expected sig1 from fallback endpoint, got %+v", tx)
	}

	if broken.txCalls != 1 || healthy.txCalls != 1 {
		t.Errorf("expected each endpoint tried once, got %d/%d", broken.txCalls, healthy.txCalls)
	}
}

func TestFacade_FirstEndpointWins(t *testing.T) {
	first := &fakeRPC{sigs: []solana.SignatureInfo{{Signature: "a"}}}
	second := &fakeRPC{sigs: []solana.SignatureInfo{{Signature: "b"}}}

	f, _ := New(first, second)

	sigs, err := f.RecentSignatures(context.Background(), "addr", 50)
	if err != nil {
		t.Fatalf("RecentSignatures: %v", err)
	}

	if len(sigs) != 1 || sigs[0].Signature != "a" {
		t.Errorf("expected first endpoint's result, got %+v", sigs)
	}

	if second.sigCalls != 0 {
		t.Error("second endpoint should not be queried when the first succeeds")
	}
}

func TestFacade_AllEndpointsFail(t *testing.T) {
	a := &fakeRPC{err: errors.New("down")}
	b := &fakeRPC{err: errors.New("also down")}

	f, _ := New(a, b)

	_, err := f.TransactionDetail(context.Background(), "sig")
	if err == nil {
		t.Fatal("expected error when all endpoints fail")
	}

	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestFacade_BalanceDegradesToZero(t *testing.T) {
	broken := &fakeRPC{err: errors.New("down")}

	f, _ := New(broken)

	got := f.TokenBalance(context.Background(), "owner", "mint")
	if !got.IsZero() {
		t.Errorf("expected zero on degraded read, got %s", got)
	}
}

func TestFacade_HoldsAsset(t *testing.T) {
	holder := &fakeRPC{balance: decimal.NewFromInt(5)}
	empty := &fakeRPC{balance: decimal.Zero}

	f, _ := New(holder)
	if !f.HoldsAsset(context.Background(), "owner", "mint") {
		t.Error("expected positive balance to count as holding")
	}

	f, _ = New(empty)
	if f.HoldsAsset(context.Background(), "owner", "mint") {
		t.Error("expected zero balance to not count as holding")
	}
}

func TestFacade_ContextCancelled(t *testing.T) {
	a := &fakeRPC{err: errors.New("down")}
	b := &fakeRPC{tx: &solana.Transaction{}}

	f, _ := New(a, b)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.TransactionDetail(ctx, "sig")
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
