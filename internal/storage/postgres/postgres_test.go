package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoinknow/curve-engine/internal/storage"
	"github.com/yoinknow/curve-engine/internal/storage/models"
	"go.uber.org/zap/zaptest"
)

func newTestStore(t *testing.T) storage.RecordStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	store, err := Open("sqlite", dsn, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, store.RunMigrations())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func trade(mint, side string, at time.Time, buyback bool) *models.TradeRecord {
	return &models.TradeRecord{
		EventID:     uuid.NewString(),
		Mint:        mint,
		Trader:      "trader",
		Side:        side,
		SolAmount:   1_000,
		TokenAmount: 10,
		TradedAt:    at,
		IsBuyback:   buyback,
		EntryState:  "active",
		EntryRank:   1,
	}
}

func TestSaveAndListTrades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveTrade(ctx, trade("mintA", "buy", base, false)))
	require.NoError(t, store.SaveTrade(ctx, trade("mintA", "sell", base.Add(time.Hour), true)))
	require.NoError(t, store.SaveTrade(ctx, trade("mintB", "buy", base.Add(2*time.Hour), false)))

	all, err := store.ListTrades(ctx, storage.TradeFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "mintA", all[0].Mint)

	byMint, err := store.ListTrades(ctx, storage.TradeFilter{Mint: "mintA"})
	require.NoError(t, err)
	assert.Len(t, byMint, 2)

	buybacks, err := store.ListTrades(ctx, storage.TradeFilter{OnlyBuybacks: true})
	require.NoError(t, err)
	require.Len(t, buybacks, 1)
	assert.Equal(t, "sell", buybacks[0].Side)

	window, err := store.ListTrades(ctx, storage.TradeFilter{Start: base.Add(30 * time.Minute), End: base.Add(90 * time.Minute)})
	require.NoError(t, err)
	assert.Len(t, window, 1)

	limited, err := store.ListTrades(ctx, storage.TradeFilter{Side: "buy", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestDuplicateEventRejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tr := trade("mintA", "buy", time.Now().UTC(), false)
	require.NoError(t, store.SaveTrade(ctx, tr))

	dup := *tr
	dup.ID = 0
	assert.Error(t, store.SaveTrade(ctx, &dup))
}

func TestClaimsAndSnapshots(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.SaveClaim(ctx, &models.ClaimRecord{Mint: "mintA", Claimer: "a", Kind: models.ClaimEarlyBird, Amount: 50, Position: 1, ClaimedAt: now}))
	require.NoError(t, store.SaveClaim(ctx, &models.ClaimRecord{Mint: "mintB", Claimer: "b", Kind: models.ClaimCreatorFees, Amount: 70, ClaimedAt: now}))
	require.NoError(t, store.SaveCurveSnapshot(ctx, &models.CurveSnapshot{Mint: "mintA", TakenAt: now, Reason: "completed", Complete: true}))

	claims, err := store.ListClaims(ctx, "mintA")
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, uint64(50), claims[0].Amount)

	all, err := store.ListClaims(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "", zaptest.NewLogger(t))
	assert.Error(t, err)
}
