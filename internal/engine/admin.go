// internal/engine/admin.go
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/yoinknow/curve-engine/internal/curve"
	"github.com/yoinknow/curve-engine/internal/domain"
	"github.com/yoinknow/curve-engine/internal/events"
	"github.com/yoinknow/curve-engine/internal/identity"
	"github.com/yoinknow/curve-engine/internal/storage"
	"github.com/yoinknow/curve-engine/internal/utils/safemath"
	"go.uber.org/zap"
)

// Params is the full parameter set written by Configure.
type Params struct {
	FeeRecipient                solana.PublicKey
	InitialVirtualTokenReserves uint64
	InitialVirtualSolReserves   uint64
	InitialRealTokenReserves    uint64
	TokenTotalSupply            uint64
	FeeBasisPoints              uint64
	FeeShares                   domain.FeeShares
	BuybacksEnabled             bool
	Buyback                     domain.BuybackParams
	EarlyBird                   domain.EarlyBirdParams
}

// LaunchParams describe a new curve.
type LaunchParams struct {
	Mint       solana.PublicKey
	Name       string
	Symbol     string
	URI        string
	StreamerID *string
}

// Initialize makes caller the config authority and enables buybacks.
func (e *Engine) Initialize(ctx context.Context, caller solana.PublicKey) (cfg *domain.GlobalConfig, err error) {
	defer e.observe(OpInitialize, e.now(), &err)

	e.globalMu.Lock()
	defer e.globalMu.Unlock()

	g, err := e.store.Global(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		g = &domain.GlobalConfig{}
	case err != nil:
		return nil, fmt.Errorf("failed to load global config: %w", err)
	case g.Initialized:
		return nil, domain.ErrAlreadyInitialized
	}

	next := *g
	next.Authority = caller
	next.Initialized = true
	next.BuybacksEnabled = true

	if err := e.commit(ctx, &storage.Changes{Global: &next}); err != nil {
		return nil, err
	}

	e.logger.Info("✅ Engine initialized", zap.String("authority", caller.String()))
	return &next, nil
}

// Configure overwrites the global parameters. Only the config authority may
// call it, and the fee shares must cover exactly 10000 bps.
func (e *Engine) Configure(ctx context.Context, caller solana.PublicKey, p Params) (ev *events.SetParamsEvent, err error) {
	defer e.observe(OpConfigure, e.now(), &err)

	e.globalMu.Lock()
	defer e.globalMu.Unlock()

	g, err := e.loadGlobal(ctx)
	if err != nil {
		return nil, err
	}
	if !caller.Equals(g.Authority) {
		return nil, domain.ErrNotAuthorized
	}
	if err := p.FeeShares.Validate(); err != nil {
		return nil, err
	}
	if err := p.Buyback.Validate(); err != nil {
		return nil, err
	}

	next := *g
	next.FeeRecipient = p.FeeRecipient
	next.InitialVirtualTokenReserves = p.InitialVirtualTokenReserves
	next.InitialVirtualSolReserves = p.InitialVirtualSolReserves
	next.InitialRealTokenReserves = p.InitialRealTokenReserves
	next.TokenTotalSupply = p.TokenTotalSupply
	next.FeeBasisPoints = p.FeeBasisPoints
	next.FeeShares = p.FeeShares
	next.BuybacksEnabled = p.BuybacksEnabled
	next.Buyback = p.Buyback
	next.EarlyBird = p.EarlyBird

	if err := e.commit(ctx, &storage.Changes{Global: &next}); err != nil {
		return nil, err
	}

	ev = &events.SetParamsEvent{
		BaseEvent:                   events.NewBase(events.ConfigUpdated, e.now()),
		FeeRecipient:                p.FeeRecipient,
		InitialVirtualTokenReserves: p.InitialVirtualTokenReserves,
		InitialVirtualSolReserves:   p.InitialVirtualSolReserves,
		InitialRealTokenReserves:    p.InitialRealTokenReserves,
		TokenTotalSupply:            p.TokenTotalSupply,
		FeeBasisPoints:              p.FeeBasisPoints,
		CreatorFeeShare:             p.FeeShares.Creator,
		PlatformFeeShare:            p.FeeShares.Platform,
		TreasuryFeeShare:            p.FeeShares.Treasury,
		BuybacksEnabled:             p.BuybacksEnabled,
	}
	e.publish(ev)

	e.logger.Info("Global parameters updated",
		zap.Uint64("fee_bps", p.FeeBasisPoints),
		zap.Bool("buybacks_enabled", p.BuybacksEnabled),
		zap.Bool("early_bird_enabled", p.EarlyBird.Enabled),
		zap.Uint64("early_bird_cutoff", p.EarlyBird.Cutoff))
	return ev, nil
}

// Launch creates a curve for a new mint from the configured initial reserves.
func (e *Engine) Launch(ctx context.Context, creator solana.PublicKey, p LaunchParams) (ev *events.CreateEvent, err error) {
	defer e.observe(OpLaunch, e.now(), &err)

	e.globalMu.RLock()
	defer e.globalMu.RUnlock()

	g, err := e.loadGlobal(ctx)
	if err != nil {
		return nil, err
	}
	if p.StreamerID != nil {
		if err := identity.ValidateStreamerID(*p.StreamerID); err != nil {
			return nil, err
		}
	}

	unlock := e.lockMint(p.Mint)
	defer unlock()

	if _, err := e.store.Curve(ctx, p.Mint); err == nil {
		return nil, domain.ErrCurveExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to check curve %s: %w", p.Mint, err)
	}

	address, err := curve.DeriveCurveAddress(e.programID, p.Mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive curve address: %w", err)
	}

	c := &domain.Curve{
		Mint:                 p.Mint,
		Address:              address,
		VirtualTokenReserves: g.InitialVirtualTokenReserves,
		VirtualSolReserves:   g.InitialVirtualSolReserves,
		RealTokenReserves:    g.InitialRealTokenReserves,
		TokenTotalSupply:     g.TokenTotalSupply,
		CirculatingSupply:    g.TokenTotalSupply,
		CreatorWallet:        creator,
	}
	if p.StreamerID != nil {
		id := *p.StreamerID
		c.CreatorStreamerID = &id
	}

	if err := e.commit(ctx, &storage.Changes{Curves: []*domain.Curve{c}}); err != nil {
		return nil, err
	}

	ev = &events.CreateEvent{
		BaseEvent:    events.NewBase(events.CurveCreated, e.now()),
		Name:         p.Name,
		Symbol:       p.Symbol,
		URI:          p.URI,
		Mint:         p.Mint,
		BondingCurve: address,
		User:         creator,
	}
	e.publish(ev)

	e.logger.Info("🚀 Curve launched",
		zap.String("mint", p.Mint.String()),
		zap.String("symbol", p.Symbol),
		zap.String("creator", creator.String()),
		zap.Uint64("virtual_token_reserves", c.VirtualTokenReserves),
		zap.Uint64("virtual_sol_reserves", c.VirtualSolReserves))
	return ev, nil
}

// Withdraw sweeps a completed curve to the withdraw authority. The unclaimed
// creator fee balance stays behind in the real sol reserve.
func (e *Engine) Withdraw(ctx context.Context, caller, mint solana.PublicKey) (ev *events.WithdrawEvent, err error) {
	defer e.observe(OpWithdraw, e.now(), &err)

	e.globalMu.RLock()
	defer e.globalMu.RUnlock()

	unlock := e.lockMint(mint)
	defer unlock()

	c, err := e.loadCurve(ctx, mint)
	if err != nil {
		return nil, err
	}
	if !c.Complete {
		return nil, domain.ErrBondingCurveNotComplete
	}
	if !caller.Equals(e.withdrawAuthority) {
		return nil, domain.ErrNotAuthorized
	}

	creatorFees := c.CreatorFeePool
	sol, err := safemath.CheckedSub(c.RealSolReserves, creatorFees)
	if err != nil {
		return nil, domain.ErrArithmeticOverflow
	}
	tokens := c.RealTokenReserves

	c.RealSolReserves = creatorFees
	c.VirtualSolReserves = 0
	c.RealTokenReserves = 0
	c.VirtualTokenReserves = 0

	if err := e.commit(ctx, &storage.Changes{Curves: []*domain.Curve{c}}); err != nil {
		return nil, err
	}

	ev = &events.WithdrawEvent{
		BaseEvent:            events.NewBase(events.CurveWithdrawn, e.now()),
		Mint:                 mint,
		Authority:            caller,
		SolAmount:            sol,
		TokenAmount:          tokens,
		CreatorFeesPreserved: creatorFees,
	}
	e.publish(ev)

	e.logger.Info("Curve withdrawn",
		zap.String("mint", mint.String()),
		zap.Uint64("sol_amount", sol),
		zap.Uint64("token_amount", tokens),
		zap.Uint64("creator_fees_preserved", creatorFees))
	return ev, nil
}

// ReassignFeeRecipient is the platform override of a curve's creator wallet
// and streamer id.
func (e *Engine) ReassignFeeRecipient(ctx context.Context, caller, mint, newRecipient solana.PublicKey, newStreamerID *string) (ev *events.CtoEvent, err error) {
	defer e.observe(OpReassignFeeRecipient, e.now(), &err)

	if !caller.Equals(e.platformAuthority) {
		return nil, domain.ErrNotAuthorized
	}
	if newStreamerID != nil {
		if err := identity.ValidateStreamerID(*newStreamerID); err != nil {
			return nil, err
		}
	}

	e.globalMu.RLock()
	defer e.globalMu.RUnlock()

	unlock := e.lockMint(mint)
	defer unlock()

	c, err := e.loadCurve(ctx, mint)
	if err != nil {
		return nil, err
	}

	oldCreator := c.CreatorWallet
	oldStreamerID := c.CreatorStreamerID

	c.CreatorWallet = newRecipient
	c.CreatorStreamerID = nil
	if newStreamerID != nil {
		id := *newStreamerID
		c.CreatorStreamerID = &id
	}

	if err := e.commit(ctx, &storage.Changes{Curves: []*domain.Curve{c}}); err != nil {
		return nil, err
	}

	ev = &events.CtoEvent{
		BaseEvent:         events.NewBase(events.FeeRecipientReassigned, e.now()),
		Mint:              mint,
		OldCreator:        oldCreator,
		OldStreamerID:     oldStreamerID,
		NewCreator:        newRecipient,
		NewStreamerID:     c.CreatorStreamerID,
		PlatformAuthority: caller,
	}
	e.publish(ev)

	e.logger.Info("Fee recipient reassigned",
		zap.String("mint", mint.String()),
		zap.String("old_creator", oldCreator.String()),
		zap.String("new_creator", newRecipient.String()))
	return ev, nil
}
