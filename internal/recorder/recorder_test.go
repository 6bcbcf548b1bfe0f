package recorder

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoinknow/curve-engine/internal/domain"
	"github.com/yoinknow/curve-engine/internal/events"
	"github.com/yoinknow/curve-engine/internal/storage"
	"github.com/yoinknow/curve-engine/internal/storage/models"
	"go.uber.org/zap/zaptest"
)

type flakyStore struct {
	mu        sync.Mutex
	failures  int
	trades    []*models.TradeRecord
	claims    []*models.ClaimRecord
	snapshots []*models.CurveSnapshot
}

func (s *flakyStore) fail() error {
	if s.failures > 0 {
		s.failures--
		return errors.New("connection reset")
	}
	return nil
}

func (s *flakyStore) SaveTrade(_ context.Context, t *models.TradeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	s.trades = append(s.trades, t)
	return nil
}

func (s *flakyStore) ListTrades(context.Context, storage.TradeFilter) ([]*models.TradeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trades, nil
}

func (s *flakyStore) SaveCurveSnapshot(_ context.Context, snap *models.CurveSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	s.snapshots = append(s.snapshots, snap)
	return nil
}

func (s *flakyStore) SaveClaim(_ context.Context, c *models.ClaimRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	s.claims = append(s.claims, c)
	return nil
}

func (s *flakyStore) ListClaims(context.Context, string) ([]*models.ClaimRecord, error) {
	return s.claims, nil
}

func (s *flakyStore) RunMigrations() error { return nil }

func (s *flakyStore) Close() error { return nil }

type staticCurves map[solana.PublicKey]*domain.Curve

func (m staticCurves) Curve(_ context.Context, mint solana.PublicKey) (*domain.Curve, error) {
	c, ok := m[mint]
	if !ok {
		return nil, domain.ErrCurveNotFound
	}
	return c, nil
}

func fastOptions() Options {
	return Options{MaxTries: 3, InitialInterval: time.Millisecond, MaxElapsedTime: time.Second}
}

func sampleTrade() *events.TradeEvent {
	return &events.TradeEvent{
		BaseEvent:    events.NewBase(events.CurveTraded, time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)),
		Mint:         solana.NewWallet().PublicKey(),
		User:         solana.NewWallet().PublicKey(),
		IsBuy:        false,
		SolAmount:    30_030,
		TokenAmount:  1_000,
		UserPosition: math.MaxUint64,
		IsBuyback:    true,
		BurnAmount:   10,
	}
}

func TestTradeRecordFromEvent(t *testing.T) {
	ev := sampleTrade()
	rec := TradeRecordFromEvent(ev)

	assert.Len(t, rec.EventID, 36)
	assert.Equal(t, ev.Mint.String(), rec.Mint)
	assert.Equal(t, ev.User.String(), rec.Trader)
	assert.Equal(t, "sell", rec.Side)
	assert.Equal(t, "revoked", rec.EntryState)
	assert.Zero(t, rec.EntryRank)
	assert.True(t, rec.IsBuyback)
	assert.Equal(t, ev.Timestamp(), rec.TradedAt)
}

func TestHandleRetriesTransientFailures(t *testing.T) {
	store := &flakyStore{failures: 2}
	r := New(store, nil, zaptest.NewLogger(t), fastOptions())

	require.NoError(t, r.Handle(context.Background(), sampleTrade()))
	assert.Len(t, store.trades, 1)

	saved, failed := r.Stats()
	assert.Equal(t, uint64(1), saved)
	assert.Zero(t, failed)
}

func TestHandleGivesUp(t *testing.T) {
	store := &flakyStore{failures: 10}
	r := New(store, nil, zaptest.NewLogger(t), fastOptions())

	assert.Error(t, r.Handle(context.Background(), sampleTrade()))
	assert.Empty(t, store.trades)

	_, failed := r.Stats()
	assert.Equal(t, uint64(1), failed)
}

func TestHandleClaimsAndSnapshots(t *testing.T) {
	store := &flakyStore{}
	mint := solana.NewWallet().PublicKey()
	// к моменту записи кривая уже изменилась: награды частично выплачены
	curves := staticCurves{mint: {Mint: mint, Complete: true, EarlyBirdPool: 1}}
	r := New(store, curves, zaptest.NewLogger(t), fastOptions())
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, r.Handle(ctx, &events.EarlyBirdClaimedEvent{
		BaseEvent: events.NewBase(events.EarlyBirdClaimed, now),
		User:      solana.NewWallet().PublicKey(),
		Mint:      mint,
		Amount:    29_999,
		Position:  1,
	}))
	require.NoError(t, r.Handle(ctx, &events.CreatorFeeClaimedEvent{
		BaseEvent: events.NewBase(events.CreatorFeesClaimed, now),
		Mint:      mint,
		Claimer:   solana.NewWallet().PublicKey(),
		Amount:    90,
	}))
	require.NoError(t, r.Handle(ctx, &events.CompleteEvent{
		BaseEvent:            events.NewBase(events.CurveCompleted, now),
		Mint:                 mint,
		EarlyBirdPool:        59_999,
		VirtualTokenReserves: 202_000,
		VirtualSolReserves:   150_000_000,
		CirculatingSupply:    800_000,
	}))

	require.Len(t, store.claims, 2)
	assert.Equal(t, models.ClaimEarlyBird, store.claims[0].Kind)
	assert.Equal(t, uint64(1), store.claims[0].Position)
	assert.Equal(t, models.ClaimCreatorFees, store.claims[1].Kind)

	require.Len(t, store.snapshots, 1)
	assert.Equal(t, ReasonCompleted, store.snapshots[0].Reason)
	assert.Equal(t, uint64(59_999), store.snapshots[0].EarlyBirdPool)
	assert.Equal(t, uint64(202_000), store.snapshots[0].VirtualTokenReserves)
	assert.Equal(t, uint64(150_000_000), store.snapshots[0].VirtualSolReserves)
	assert.Equal(t, uint64(800_000), store.snapshots[0].CirculatingSupply)
	assert.Zero(t, store.snapshots[0].RealTokenReserves)
	assert.True(t, store.snapshots[0].Complete)

	// unknown curves are not retried
	err := r.Handle(ctx, &events.WithdrawEvent{
		BaseEvent: events.NewBase(events.CurveWithdrawn, now),
		Mint:      solana.NewWallet().PublicKey(),
	})
	assert.ErrorIs(t, err, domain.ErrCurveNotFound)
}

func TestAttachReceivesBusEvents(t *testing.T) {
	store := &flakyStore{}
	bus := events.NewBus(zaptest.NewLogger(t), 16)
	r := New(store, nil, zaptest.NewLogger(t), fastOptions())
	r.Attach(bus)

	require.NoError(t, bus.PublishSync(context.Background(), sampleTrade()))
	assert.Len(t, store.trades, 1)

	r.Detach()
	require.NoError(t, bus.PublishSync(context.Background(), sampleTrade()))
	assert.Len(t, store.trades, 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Shutdown(ctx))
}
