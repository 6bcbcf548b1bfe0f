// internal/engine/queries.go
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/yoinknow/curve-engine/internal/curve"
	"github.com/yoinknow/curve-engine/internal/domain"
	"github.com/yoinknow/curve-engine/internal/fees"
	"github.com/yoinknow/curve-engine/internal/storage"
	"github.com/yoinknow/curve-engine/internal/utils/safemath"
)

// Quote is a read-only trade preview.
type Quote struct {
	Tokens uint64 `json:"tokens"`
	Sol    uint64 `json:"sol"`
	Fee    uint64 `json:"fee"`
	// Total is cost+fee for a buy and proceeds-fee for a sell.
	Total uint64 `json:"total"`
}

// Global returns the current configuration.
func (e *Engine) Global(ctx context.Context) (*domain.GlobalConfig, error) {
	e.globalMu.RLock()
	defer e.globalMu.RUnlock()
	return e.loadGlobal(ctx)
}

// Curve returns a snapshot of the curve for mint.
func (e *Engine) Curve(ctx context.Context, mint solana.PublicKey) (*domain.Curve, error) {
	unlock := e.lockMint(mint)
	defer unlock()
	return e.loadCurve(ctx, mint)
}

// Curves lists every launched curve.
func (e *Engine) Curves(ctx context.Context) ([]*domain.Curve, error) {
	return e.store.ListCurves(ctx)
}

// Holder returns the holder record of user on mint.
func (e *Engine) Holder(ctx context.Context, mint, user solana.PublicKey) (*domain.HolderRecord, error) {
	h, err := e.store.Holder(ctx, mint, user)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, domain.ErrHolderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load holder %s: %w", user, err)
	}
	return h, nil
}

// QuoteBuy previews a buy of amount tokens, clamped like Buy.
func (e *Engine) QuoteBuy(ctx context.Context, mint solana.PublicKey, amount uint64) (Quote, error) {
	g, c, err := e.snapshot(ctx, mint)
	if err != nil {
		return Quote{}, err
	}
	if c.Complete {
		return Quote{}, domain.ErrBondingCurveComplete
	}

	tokens := curve.ClampBuyAmount(c, amount)
	cost, ok := curve.QuoteBuyChecked(c, tokens)
	if tokens == 0 || !ok {
		return Quote{}, domain.ErrInvalidAmount
	}
	fee := fees.Compute(cost, g.FeeBasisPoints)
	return Quote{Tokens: tokens, Sol: cost, Fee: fee, Total: safemath.SaturatingAdd(cost, fee)}, nil
}

// QuoteSell previews a sell of amount tokens.
func (e *Engine) QuoteSell(ctx context.Context, mint solana.PublicKey, amount uint64) (Quote, error) {
	g, c, err := e.snapshot(ctx, mint)
	if err != nil {
		return Quote{}, err
	}
	if c.Complete {
		return Quote{}, domain.ErrBondingCurveComplete
	}
	if amount == 0 {
		return Quote{}, domain.ErrInvalidAmount
	}

	output := curve.QuoteSell(c, amount)
	fee := fees.Compute(output, g.FeeBasisPoints)
	return Quote{Tokens: amount, Sol: output, Fee: fee, Total: safemath.SaturatingSub(output, fee)}, nil
}

// EstimateTokensForSol previews how many tokens a budget of lamports buys.
func (e *Engine) EstimateTokensForSol(ctx context.Context, mint solana.PublicKey, lamports uint64) (curve.Estimate, error) {
	g, c, err := e.snapshot(ctx, mint)
	if err != nil {
		return curve.Estimate{}, err
	}
	return curve.EstimateTokensForSol(c, lamports, g.FeeBasisPoints), nil
}

func (e *Engine) snapshot(ctx context.Context, mint solana.PublicKey) (*domain.GlobalConfig, *domain.Curve, error) {
	e.globalMu.RLock()
	defer e.globalMu.RUnlock()

	g, err := e.loadGlobal(ctx)
	if err != nil {
		return nil, nil, err
	}

	unlock := e.lockMint(mint)
	defer unlock()

	c, err := e.loadCurve(ctx, mint)
	if err != nil {
		return nil, nil, err
	}
	return g, c, nil
}
