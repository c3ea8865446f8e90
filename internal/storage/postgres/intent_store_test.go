package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"presale-gateway/internal/domain"
	"presale-gateway/internal/storage"
	"presale-gateway/internal/storage/postgres"
)

func newIntent(ref string) *domain.Intent {
	return &domain.Intent{
		Reference:    ref,
		Kind:         domain.KindPresale,
		MemoTag:      "presale-" + ref,
		BuyerAddress: "buyer111",
		AmountDue:    decimal.RequireFromString("50.25"),
		PriceUsed:    decimal.RequireFromString("0.05"),
		Gated:        true,
		Status:       domain.StatusPending,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestIntentStore_PutGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewIntentStore(pool)
	ctx := context.Background()

	intent := newIntent("deadbeefdeadbeefdeadbeefdeadbeef")
	require.NoError(t, store.Put(ctx, intent, time.Hour))

	got, err := store.Get(ctx, intent.Reference)
	require.NoError(t, err)

	require.Equal(t, intent.Reference, got.Reference)
	require.Equal(t, domain.KindPresale, got.Kind)
	require.Equal(t, intent.MemoTag, got.MemoTag)
	require.Equal(t, domain.StatusPending, got.Status)
	require.True(t, got.Gated)
	require.True(t, intent.AmountDue.Equal(got.AmountDue), "amount %s != %s", intent.AmountDue, got.AmountDue)
	require.True(t, intent.PriceUsed.Equal(got.PriceUsed))
	require.Empty(t, got.SettlementSignature)
	require.Nil(t, got.SettledAt)
}

func TestIntentStore_DuplicateReference(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewIntentStore(pool)
	ctx := context.Background()

	intent := newIntent("aaaabbbbccccddddaaaabbbbccccdddd")
	require.NoError(t, store.Put(ctx, intent, time.Hour))

	err := store.Put(ctx, intent, time.Hour)
	require.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestIntentStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewIntentStore(pool)

	_, err := store.Get(context.Background(), "11112222333344441111222233334444")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntentStore_ExpiredRowBehavesAsMissing(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewIntentStore(pool)
	ctx := context.Background()

	intent := newIntent("55556666777788885555666677778888")
	intent.CreatedAt = time.Now().UTC().Add(-2 * time.Hour)
	require.NoError(t, store.Put(ctx, intent, time.Hour))

	_, err := store.Get(ctx, intent.Reference)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntentStore_MarkSettled(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewIntentStore(pool)
	ctx := context.Background()

	intent := newIntent("9999aaaabbbbcccc9999aaaabbbbcccc")
	require.NoError(t, store.Put(ctx, intent, time.Hour))

	settledAt := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, store.MarkSettled(ctx, intent.Reference, "sig1", settledAt, 24*time.Hour))

	got, err := store.Get(ctx, intent.Reference)
	require.NoError(t, err)
	require.Equal(t, domain.StatusSettled, got.Status)
	require.Equal(t, "sig1", got.SettlementSignature)
	require.NotNil(t, got.SettledAt)
	require.WithinDuration(t, settledAt, *got.SettledAt, time.Millisecond)

	// Second settlement keeps the first signature.
	require.NoError(t, store.MarkSettled(ctx, intent.Reference, "sig2", settledAt.Add(time.Minute), 24*time.Hour))

	got, err = store.Get(ctx, intent.Reference)
	require.NoError(t, err)
	require.Equal(t, "sig1", got.SettlementSignature)
}

func TestIntentStore_MarkSettledNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewIntentStore(pool)

	err := store.MarkSettled(context.Background(), "ddddeeeeffff0000ddddeeeeffff0000", "sig", time.Now().UTC(), time.Hour)
	require.ErrorIs(t, err, storage.ErrNotFound)
}
