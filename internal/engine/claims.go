// internal/engine/claims.go
package engine

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/yoinknow/curve-engine/internal/domain"
	"github.com/yoinknow/curve-engine/internal/earlybird"
	"github.com/yoinknow/curve-engine/internal/events"
	"github.com/yoinknow/curve-engine/internal/identity"
	"github.com/yoinknow/curve-engine/internal/storage"
	"go.uber.org/zap"
)

// ClaimCreatorFees pays the entire creator fee pool to claimer.
func (e *Engine) ClaimCreatorFees(ctx context.Context, claimer, mint solana.PublicKey) (ev *events.CreatorFeeClaimedEvent, err error) {
	defer e.observe(OpClaimCreatorFees, e.now(), &err)

	e.globalMu.RLock()
	defer e.globalMu.RUnlock()
	e.identityMu.RLock()
	defer e.identityMu.RUnlock()

	unlock := e.lockMint(mint)
	defer unlock()

	c, err := e.loadCurve(ctx, mint)
	if err != nil {
		return nil, err
	}
	amount := c.CreatorFeePool
	if amount == 0 {
		return nil, domain.ErrNoFeesToClaim
	}

	var ident *domain.StreamerIdentity
	if _, ok := c.StreamerID(); ok && !claimer.Equals(e.withdrawAuthority) {
		if ident, err = e.identityByWallet(ctx, claimer); err != nil {
			return nil, err
		}
	}
	if err := identity.AuthorizeCreatorClaim(c, claimer, e.withdrawAuthority, ident); err != nil {
		return nil, err
	}

	c.CreatorFeePool = 0

	if err := e.commit(ctx, &storage.Changes{Curves: []*domain.Curve{c}}); err != nil {
		return nil, err
	}

	ev = &events.CreatorFeeClaimedEvent{
		BaseEvent:        events.NewBase(events.CreatorFeesClaimed, e.now()),
		Mint:             mint,
		Claimer:          claimer,
		Amount:           amount,
		TotalFeesAccrued: c.TotalFeesAccrued,
	}
	e.publish(ev)

	e.logger.Info("💰 Creator fees claimed",
		zap.String("mint", mint.String()),
		zap.String("claimer", claimer.String()),
		zap.Uint64("amount", amount))
	return ev, nil
}

// ClaimEarlyBirdReward pays the per-seat share frozen at completion to an
// eligible holder, once.
func (e *Engine) ClaimEarlyBirdReward(ctx context.Context, user, mint solana.PublicKey) (ev *events.EarlyBirdClaimedEvent, err error) {
	defer e.observe(OpClaimEarlyBird, e.now(), &err)

	e.globalMu.RLock()
	defer e.globalMu.RUnlock()

	g, err := e.loadGlobal(ctx)
	if err != nil {
		return nil, err
	}

	unlock := e.lockMint(mint)
	defer unlock()

	c, err := e.loadCurve(ctx, mint)
	if err != nil {
		return nil, err
	}
	h, err := e.loadHolder(ctx, mint, user)
	if err != nil {
		return nil, err
	}

	amount, err := earlybird.Claim(c, h, g.EarlyBird)
	if err != nil {
		return nil, err
	}

	if err := e.commit(ctx, &storage.Changes{
		Curves:  []*domain.Curve{c},
		Holders: []*domain.HolderRecord{h},
	}); err != nil {
		return nil, err
	}

	ev = &events.EarlyBirdClaimedEvent{
		BaseEvent: events.NewBase(events.EarlyBirdClaimed, e.now()),
		User:      user,
		Mint:      mint,
		Amount:    amount,
		Position:  h.Entry.Rank(),
	}
	e.publish(ev)

	e.logger.Info("🐦 Early bird reward claimed",
		zap.String("mint", mint.String()),
		zap.String("user", user.String()),
		zap.Uint64("position", h.Entry.Rank()),
		zap.Uint64("amount", amount),
		zap.Uint64("pool_left", c.EarlyBirdPool))
	return ev, nil
}
