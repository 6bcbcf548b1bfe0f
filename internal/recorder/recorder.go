// internal/recorder/recorder.go
package recorder

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/yoinknow/curve-engine/internal/domain"
	"github.com/yoinknow/curve-engine/internal/events"
	"github.com/yoinknow/curve-engine/internal/storage"
	"github.com/yoinknow/curve-engine/internal/storage/models"
	"go.uber.org/zap"
)

// Snapshot reasons.
const (
	ReasonCompleted = "completed"
	ReasonWithdrawn = "withdrawn"
)

// CurveSource supplies current curve state for snapshots.
type CurveSource interface {
	Curve(ctx context.Context, mint solana.PublicKey) (*domain.Curve, error)
}

// Options tune the retry policy.
type Options struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultOptions retries a write five times starting at 100ms.
func DefaultOptions() Options {
	return Options{
		MaxTries:        5,
		InitialInterval: 100 * time.Millisecond,
		MaxElapsedTime:  15 * time.Second,
	}
}

// Recorder persists trade, claim and lifecycle events to a RecordStore.
type Recorder struct {
	store  storage.RecordStore
	curves CurveSource
	logger *zap.Logger
	opts   Options

	mu   sync.Mutex
	subs []events.Subscription

	saved  atomic.Uint64
	failed atomic.Uint64
}

// New creates a recorder. curves may be nil, in which case lifecycle events
// are not snapshotted.
func New(store storage.RecordStore, curves CurveSource, logger *zap.Logger, opts Options) *Recorder {
	if opts.MaxTries == 0 {
		opts.MaxTries = DefaultOptions().MaxTries
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = DefaultOptions().InitialInterval
	}
	if opts.MaxElapsedTime <= 0 {
		opts.MaxElapsedTime = DefaultOptions().MaxElapsedTime
	}
	return &Recorder{
		store:  store,
		curves: curves,
		logger: logger.Named("recorder"),
		opts:   opts,
	}
}

// Attach subscribes the recorder to the event types it persists.
func (r *Recorder) Attach(bus *events.Bus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range []events.EventType{
		events.CurveTraded,
		events.CurveCompleted,
		events.CurveWithdrawn,
		events.CreatorFeesClaimed,
		events.EarlyBirdClaimed,
	} {
		r.subs = append(r.subs, bus.Subscribe(t, r))
	}
}

// Detach removes all subscriptions.
func (r *Recorder) Detach() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		s.Unsubscribe()
	}
	r.subs = nil
}

// Stats returns saved and failed write counts.
func (r *Recorder) Stats() (saved, failed uint64) {
	return r.saved.Load(), r.failed.Load()
}

// Handle implements events.Handler.
func (r *Recorder) Handle(ctx context.Context, event events.Event) error {
	var save func(context.Context) error

	switch e := event.(type) {
	case *events.TradeEvent:
		rec := TradeRecordFromEvent(e)
		save = func(ctx context.Context) error { return r.store.SaveTrade(ctx, rec) }
	case *events.CreatorFeeClaimedEvent:
		rec := &models.ClaimRecord{
			Mint:      e.Mint.String(),
			Claimer:   e.Claimer.String(),
			Kind:      models.ClaimCreatorFees,
			Amount:    e.Amount,
			ClaimedAt: e.Timestamp(),
		}
		save = func(ctx context.Context) error { return r.store.SaveClaim(ctx, rec) }
	case *events.EarlyBirdClaimedEvent:
		rec := &models.ClaimRecord{
			Mint:      e.Mint.String(),
			Claimer:   e.User.String(),
			Kind:      models.ClaimEarlyBird,
			Amount:    e.Amount,
			Position:  e.Position,
			ClaimedAt: e.Timestamp(),
		}
		save = func(ctx context.Context) error { return r.store.SaveClaim(ctx, rec) }
	case *events.CompleteEvent:
		// снимок из события, а не из текущей кривой
		snap := SnapshotFromComplete(e)
		save = func(ctx context.Context) error { return r.store.SaveCurveSnapshot(ctx, snap) }
	case *events.WithdrawEvent:
		save = r.snapshotFunc(e.Mint, ReasonWithdrawn, e.Timestamp())
	default:
		return nil
	}
	if save == nil {
		return nil
	}

	return r.withRetry(ctx, event.Type(), save)
}

func (r *Recorder) snapshotFunc(mint solana.PublicKey, reason string, at time.Time) func(context.Context) error {
	if r.curves == nil {
		return nil
	}
	return func(ctx context.Context) error {
		c, err := r.curves.Curve(ctx, mint)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to read curve %s: %w", mint, err))
		}
		return r.store.SaveCurveSnapshot(ctx, SnapshotFromCurve(c, reason, at))
	}
}

func (r *Recorder) withRetry(ctx context.Context, t events.EventType, save func(context.Context) error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.opts.InitialInterval

	notify := func(err error, d time.Duration) {
		r.logger.Warn("Retrying record write",
			zap.String("event_type", string(t)),
			zap.Duration("backoff", d),
			zap.Error(err))
	}

	operation := func() (struct{}, error) {
		return struct{}{}, save(ctx)
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(r.opts.MaxTries),
		backoff.WithMaxElapsedTime(r.opts.MaxElapsedTime),
		backoff.WithNotify(notify))
	if err != nil {
		r.failed.Add(1)
		r.logger.Error("Failed to persist event",
			zap.String("event_type", string(t)),
			zap.Error(err))
		return err
	}

	r.saved.Add(1)
	return nil
}

// TradeRecordFromEvent flattens a trade event into its table row.
func TradeRecordFromEvent(e *events.TradeEvent) *models.TradeRecord {
	pos := domain.EntryPositionFromUint64(e.UserPosition)
	return &models.TradeRecord{
		EventID:     uuid.NewString(),
		Mint:        e.Mint.String(),
		Trader:      e.User.String(),
		Side:        e.Side(),
		SolAmount:   e.SolAmount,
		TokenAmount: e.TokenAmount,
		TradedAt:    e.Timestamp(),

		VirtualSolReserves:   e.VirtualSolReserves,
		VirtualTokenReserves: e.VirtualTokenReserves,
		RealSolReserves:      e.RealSolReserves,
		RealTokenReserves:    e.RealTokenReserves,
		CirculatingSupply:    e.CirculatingSupply,

		CreatorFeeAmount: e.CreatorFeeAmount,
		CreatorFeePool:   e.CreatorFeePool,
		TreasuryFeePool:  e.TreasuryFeePool,
		EarlyBirdPool:    e.EarlyBirdPool,
		FeeRecipient:     e.FeeRecipient.String(),

		IsBuyback:          e.IsBuyback,
		BurnAmount:         e.BurnAmount,
		PricePerToken:      e.PriceLamportsPerToken,
		TotalBurnedSupply:  e.TotalBurnedSupply,
		TotalTreasurySpent: e.TotalTreasurySpent,

		EntryState:  pos.Kind().String(),
		EntryRank:   pos.Rank(),
		UserBalance: e.UserBalance,
		IsEarlyBird: e.IsEarlyBird,
	}
}

// SnapshotFromCurve copies the persisted subset of curve state.
func SnapshotFromCurve(c *domain.Curve, reason string, at time.Time) *models.CurveSnapshot {
	return &models.CurveSnapshot{
		Mint:                 c.Mint.String(),
		TakenAt:              at,
		Reason:               reason,
		VirtualTokenReserves: c.VirtualTokenReserves,
		VirtualSolReserves:   c.VirtualSolReserves,
		RealTokenReserves:    c.RealTokenReserves,
		RealSolReserves:      c.RealSolReserves,
		CirculatingSupply:    c.CirculatingSupply,
		TotalBurnedSupply:    c.TotalBurnedSupply,
		EarlyBirdPool:        c.EarlyBirdPool,
		Complete:             c.Complete,
	}
}

// SnapshotFromComplete builds the completion snapshot from the values the
// draining buy committed.
func SnapshotFromComplete(e *events.CompleteEvent) *models.CurveSnapshot {
	return &models.CurveSnapshot{
		Mint:                 e.Mint.String(),
		TakenAt:              e.Timestamp(),
		Reason:               ReasonCompleted,
		VirtualTokenReserves: e.VirtualTokenReserves,
		VirtualSolReserves:   e.VirtualSolReserves,
		RealTokenReserves:    e.RealTokenReserves,
		RealSolReserves:      e.RealSolReserves,
		CirculatingSupply:    e.CirculatingSupply,
		TotalBurnedSupply:    e.TotalBurnedSupply,
		EarlyBirdPool:        e.EarlyBirdPool,
		Complete:             true,
	}
}
