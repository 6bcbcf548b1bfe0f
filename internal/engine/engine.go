// internal/engine/engine.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	"github.com/yoinknow/curve-engine/internal/buyback"
	"github.com/yoinknow/curve-engine/internal/curve"
	"github.com/yoinknow/curve-engine/internal/domain"
	"github.com/yoinknow/curve-engine/internal/events"
	"github.com/yoinknow/curve-engine/internal/storage"
	"go.uber.org/zap"
)

// Operation names used for logs and metrics.
const (
	OpInitialize           = "initialize"
	OpConfigure            = "configure"
	OpLaunch               = "launch"
	OpBuy                  = "buy"
	OpSell                 = "sell"
	OpClaimCreatorFees     = "claim_creator_fees"
	OpClaimEarlyBird       = "claim_early_bird"
	OpWithdraw             = "withdraw"
	OpReassignFeeRecipient = "reassign_fee_recipient"
	OpRegisterIdentity     = "register_identity"
	OpCancelIdentity       = "cancel_identity"
)

// Observer receives the outcome of every write operation.
type Observer interface {
	ObserveOperation(op string, elapsed time.Duration, err error)
}

// Config holds engine dependencies.
type Config struct {
	Logger            *zap.Logger
	Store             storage.StateStore
	Publisher         events.Publisher
	Clock             clockwork.Clock
	Observer          Observer
	ProgramID         solana.PublicKey
	WithdrawAuthority solana.PublicKey
	PlatformAuthority solana.PublicKey
}

// Engine executes curve operations. Every write runs on cloned state and is
// committed in one batch only after all of its preconditions passed.
type Engine struct {
	logger    *zap.Logger
	store     storage.StateStore
	publisher events.Publisher
	clock     clockwork.Clock
	observer  Observer
	buyback   *buyback.Controller

	programID         solana.PublicKey
	withdrawAuthority solana.PublicKey
	platformAuthority solana.PublicKey

	// globalMu: write lock for config changes, read lock for everything else
	globalMu   sync.RWMutex
	identityMu sync.RWMutex

	locksMu   sync.Mutex
	mintLocks map[solana.PublicKey]*sync.Mutex
}

// New creates an engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, errors.New("state store is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	logger := cfg.Logger.Named("engine")

	return &Engine{
		logger:            logger,
		store:             cfg.Store,
		publisher:         cfg.Publisher,
		clock:             cfg.Clock,
		observer:          cfg.Observer,
		buyback:           buyback.NewController(logger),
		programID:         cfg.ProgramID,
		withdrawAuthority: cfg.WithdrawAuthority,
		platformAuthority: cfg.PlatformAuthority,
		mintLocks:         make(map[solana.PublicKey]*sync.Mutex),
	}, nil
}

// lockMint serializes operations on one asset.
func (e *Engine) lockMint(mint solana.PublicKey) func() {
	e.locksMu.Lock()
	mu, ok := e.mintLocks[mint]
	if !ok {
		mu = &sync.Mutex{}
		e.mintLocks[mint] = mu
	}
	e.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

func (e *Engine) observe(op string, start time.Time, errp *error) {
	var err error
	if errp != nil {
		err = *errp
	}
	if err != nil {
		e.logger.Debug("Operation rejected",
			zap.String("op", op),
			zap.String("kind", string(domain.KindOf(err))),
			zap.Error(err))
	}
	if e.observer != nil {
		e.observer.ObserveOperation(op, e.clock.Since(start), err)
	}
}

func (e *Engine) now() time.Time {
	return e.clock.Now()
}

// loadGlobal returns the configuration, failing if Initialize has not run.
func (e *Engine) loadGlobal(ctx context.Context) (*domain.GlobalConfig, error) {
	g, err := e.store.Global(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, domain.ErrNotInitialized
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load global config: %w", err)
	}
	if !g.Initialized {
		return nil, domain.ErrNotInitialized
	}
	return g, nil
}

// loadCurve returns a private copy of the curve for mint and checks that the
// stored record belongs to it.
func (e *Engine) loadCurve(ctx context.Context, mint solana.PublicKey) (*domain.Curve, error) {
	c, err := e.store.Curve(ctx, mint)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, domain.ErrCurveNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load curve %s: %w", mint, err)
	}
	if !c.Mint.Equals(mint) {
		return nil, domain.ErrMintDoesNotMatchBondingCurve
	}
	expected, err := curve.DeriveCurveAddress(e.programID, mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive curve address: %w", err)
	}
	if !c.Address.Equals(expected) {
		return nil, domain.ErrMintDoesNotMatchBondingCurve
	}
	return c.Clone(), nil
}

// loadHolder returns a private copy of the holder record, or a fresh one.
func (e *Engine) loadHolder(ctx context.Context, mint, user solana.PublicKey) (*domain.HolderRecord, error) {
	h, err := e.store.Holder(ctx, mint, user)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.NewHolderRecord(mint, user), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load holder %s: %w", user, err)
	}
	return h.Clone(), nil
}

func (e *Engine) identityByWallet(ctx context.Context, wallet solana.PublicKey) (*domain.StreamerIdentity, error) {
	ident, err := e.store.IdentityByWallet(ctx, wallet)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return ident, err
}

func (e *Engine) identityByStreamerID(ctx context.Context, id string) (*domain.StreamerIdentity, error) {
	ident, err := e.store.IdentityByStreamerID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return ident, err
}

func (e *Engine) commit(ctx context.Context, changes *storage.Changes) error {
	if err := e.store.Commit(ctx, changes); err != nil {
		return fmt.Errorf("failed to commit state: %w", err)
	}
	return nil
}

// publish hands committed events to the bus. Delivery failures never undo a
// committed operation.
func (e *Engine) publish(evts ...events.Event) {
	if e.publisher == nil {
		return
	}
	for _, ev := range evts {
		if err := e.publisher.Publish(ev); err != nil {
			e.logger.Warn("Failed to publish event",
				zap.String("type", string(ev.Type())),
				zap.Error(err))
		}
	}
}
