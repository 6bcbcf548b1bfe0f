// internal/engine/identity.go
package engine

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/yoinknow/curve-engine/internal/domain"
	"github.com/yoinknow/curve-engine/internal/events"
	"github.com/yoinknow/curve-engine/internal/identity"
	"github.com/yoinknow/curve-engine/internal/storage"
	"go.uber.org/zap"
)

// RegisterStreamerIdentity binds streamerID to wallet. Platform authority only.
func (e *Engine) RegisterStreamerIdentity(ctx context.Context, caller, wallet solana.PublicKey, streamerID string) (ident *domain.StreamerIdentity, err error) {
	defer e.observe(OpRegisterIdentity, e.now(), &err)

	if !caller.Equals(e.platformAuthority) {
		return nil, domain.ErrNotAuthorized
	}

	e.identityMu.Lock()
	defer e.identityMu.Unlock()

	byWallet, err := e.identityByWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}
	byID, err := e.identityByStreamerID(ctx, streamerID)
	if err != nil {
		return nil, err
	}

	now := e.now()
	ident, err = identity.Register(byWallet, byID, wallet, streamerID, now.Unix())
	if err != nil {
		return nil, err
	}

	if err := e.commit(ctx, &storage.Changes{PutIdentities: []*domain.StreamerIdentity{ident}}); err != nil {
		return nil, err
	}

	e.publish(&events.StreamerIdentityEvent{
		BaseEvent:  events.NewBase(events.IdentityRegistered, now),
		User:       wallet,
		StreamerID: streamerID,
	})

	e.logger.Info("Streamer identity registered",
		zap.String("wallet", wallet.String()),
		zap.String("streamer_id", streamerID))
	return ident, nil
}

// CancelStreamerIdentity removes the binding of streamerID to wallet.
// Platform authority only.
func (e *Engine) CancelStreamerIdentity(ctx context.Context, caller, wallet solana.PublicKey, streamerID string) (err error) {
	defer e.observe(OpCancelIdentity, e.now(), &err)

	if !caller.Equals(e.platformAuthority) {
		return domain.ErrNotAuthorized
	}

	e.identityMu.Lock()
	defer e.identityMu.Unlock()

	byWallet, err := e.identityByWallet(ctx, wallet)
	if err != nil {
		return err
	}
	byID, err := e.identityByStreamerID(ctx, streamerID)
	if err != nil {
		return err
	}
	if err := identity.Cancel(byWallet, byID, wallet, streamerID); err != nil {
		return err
	}

	if err := e.commit(ctx, &storage.Changes{DeleteIdentities: []*domain.StreamerIdentity{byWallet}}); err != nil {
		return err
	}

	e.publish(&events.StreamerIdentityEvent{
		BaseEvent:  events.NewBase(events.IdentityCancelled, e.now()),
		User:       wallet,
		StreamerID: streamerID,
	})

	e.logger.Info("Streamer identity cancelled",
		zap.String("wallet", wallet.String()),
		zap.String("streamer_id", streamerID))
	return nil
}
