// internal/engine/trade.go
package engine

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/yoinknow/curve-engine/internal/buyback"
	"github.com/yoinknow/curve-engine/internal/curve"
	"github.com/yoinknow/curve-engine/internal/domain"
	"github.com/yoinknow/curve-engine/internal/earlybird"
	"github.com/yoinknow/curve-engine/internal/events"
	"github.com/yoinknow/curve-engine/internal/fees"
	"github.com/yoinknow/curve-engine/internal/holder"
	"github.com/yoinknow/curve-engine/internal/storage"
	"github.com/yoinknow/curve-engine/internal/utils/safemath"
	"go.uber.org/zap"
)

// Buy purchases up to amount tokens from the curve for user. The amount is
// clamped to the curve's real token reserve; cost plus fee must not exceed
// maxSolCost.
func (e *Engine) Buy(ctx context.Context, user, mint solana.PublicKey, amount, maxSolCost uint64) (trade *events.TradeEvent, err error) {
	defer e.observe(OpBuy, e.now(), &err)

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
	if c.Complete {
		return nil, domain.ErrBondingCurveComplete
	}

	// 1. Quote the clamped amount and check slippage
	tokens := curve.ClampBuyAmount(c, amount)
	if tokens == 0 {
		return nil, domain.ErrInvalidAmount
	}
	cost, ok := curve.QuoteBuyChecked(c, tokens)
	if !ok {
		return nil, domain.ErrInvalidAmount
	}
	fee := fees.Compute(cost, g.FeeBasisPoints)
	total, err := safemath.CheckedAdd(cost, fee)
	if err != nil {
		return nil, domain.ErrArithmeticOverflow
	}
	if total > maxSolCost {
		return nil, domain.NewBuySlippageError(maxSolCost, total)
	}

	h, err := e.loadHolder(ctx, mint, user)
	if err != nil {
		return nil, err
	}

	// 2. Reserves
	drained, err := curve.ApplyBuy(c, tokens, cost)
	if err != nil {
		return nil, err
	}

	// 3. Fees
	split := fees.SplitFee(fee, g.FeeShares)
	if err := fees.Book(c, split); err != nil {
		return nil, err
	}

	// 4. Holder and early bird rank
	if err := holder.Credit(h, tokens); err != nil {
		return nil, err
	}
	holder.AddVolume(h, cost)
	entry, err := earlybird.OnBuy(c, h, cost, g.EarlyBird)
	if err != nil {
		return nil, err
	}

	// 5. Completion
	var completed *events.CompleteEvent
	if drained {
		c.Complete = true
		share := earlybird.Finalize(c)
		completed = &events.CompleteEvent{
			BaseEvent:     events.NewBase(events.CurveCompleted, e.now()),
			User:          user,
			Mint:          mint,
			BondingCurve:  c.Address,
			EarlyBirdPool: c.EarlyBirdPool,
		}
		e.logger.Info("🏁 Curve complete",
			zap.String("mint", mint.String()),
			zap.Uint64("early_bird_valid_count", c.EarlyBirdValidCount),
			zap.Uint64("early_bird_share_per_seat", share))
	}

	// 6. Buyback
	bb, err := e.buyback.Run(c, g.BuybacksEnabled, g.Buyback)
	if err != nil {
		return nil, err
	}

	trade = newTradeEvent(e.now(), g, c, h, true, cost, tokens, split, bb)
	if completed != nil {
		completed.VirtualTokenReserves = c.VirtualTokenReserves
		completed.VirtualSolReserves = c.VirtualSolReserves
		completed.RealTokenReserves = c.RealTokenReserves
		completed.RealSolReserves = c.RealSolReserves
		completed.CirculatingSupply = c.CirculatingSupply
		completed.TotalBurnedSupply = c.TotalBurnedSupply
	}

	if err := e.commit(ctx, &storage.Changes{
		Curves:  []*domain.Curve{c},
		Holders: []*domain.HolderRecord{h},
	}); err != nil {
		return nil, err
	}

	if completed != nil {
		e.publish(completed)
	}
	e.publish(trade)

	logger := e.logger.With(zap.String("mint", mint.String()), zap.String("user", user.String()))
	if entry.Qualified {
		logger.Info("🐦 Early bird seat assigned",
			zap.Uint64("rank", entry.Rank),
			zap.Uint64("cutoff", g.EarlyBird.Cutoff))
	} else if entry.Assigned {
		logger.Debug("Entry rank assigned outside cutoff", zap.Uint64("rank", entry.Rank))
	}
	logger.Debug("Buy executed",
		zap.Uint64("tokens", tokens),
		zap.Uint64("cost", cost),
		zap.Uint64("fee", fee),
		zap.Uint64("real_token_reserves", c.RealTokenReserves),
		zap.Bool("buyback", bb.Fired))
	return trade, nil
}

// Sell returns amount tokens to the curve. Proceeds net of fee must be at
// least minSolOutput. Any sell revokes the seller's early bird rank.
func (e *Engine) Sell(ctx context.Context, user, mint solana.PublicKey, amount, minSolOutput uint64) (trade *events.TradeEvent, err error) {
	defer e.observe(OpSell, e.now(), &err)

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
	if c.Complete {
		return nil, domain.ErrBondingCurveComplete
	}
	if amount == 0 {
		return nil, domain.ErrInvalidAmount
	}

	// 1. Quote and check slippage
	output := curve.QuoteSell(c, amount)
	fee := fees.Compute(output, g.FeeBasisPoints)
	received := safemath.SaturatingSub(output, fee)
	if received < minSolOutput {
		return nil, domain.NewSellSlippageError(minSolOutput, received)
	}

	h, err := e.loadHolder(ctx, mint, user)
	if err != nil {
		return nil, err
	}
	if err := holder.Debit(h, amount); err != nil {
		return nil, err
	}

	// 2. Reserves
	curve.ApplySell(c, amount, output, fee)

	// 3. Fees
	split := fees.SplitFee(fee, g.FeeShares)
	if err := fees.Book(c, split); err != nil {
		return nil, err
	}

	// 4. Early bird revocation
	revoked := earlybird.OnSell(c, h, g.EarlyBird)

	// 5. Buyback
	bb, err := e.buyback.Run(c, g.BuybacksEnabled, g.Buyback)
	if err != nil {
		return nil, err
	}

	trade = newTradeEvent(e.now(), g, c, h, false, output, amount, split, bb)

	if err := e.commit(ctx, &storage.Changes{
		Curves:  []*domain.Curve{c},
		Holders: []*domain.HolderRecord{h},
	}); err != nil {
		return nil, err
	}
	e.publish(trade)

	logger := e.logger.With(zap.String("mint", mint.String()), zap.String("user", user.String()))
	if revoked > 0 {
		logger.Info("🚫 Early bird rank revoked", zap.Uint64("rank", revoked))
	}
	logger.Debug("Sell executed",
		zap.Uint64("tokens", amount),
		zap.Uint64("output", output),
		zap.Uint64("fee", fee),
		zap.Bool("buyback", bb.Fired))
	return trade, nil
}

func newTradeEvent(now time.Time, g *domain.GlobalConfig, c *domain.Curve, h *domain.HolderRecord,
	isBuy bool, sol, tokens uint64, split fees.Split, bb buyback.Result) *events.TradeEvent {
	return &events.TradeEvent{
		BaseEvent:   events.NewBase(events.CurveTraded, now),
		Mint:        c.Mint,
		SolAmount:   sol,
		TokenAmount: tokens,
		IsBuy:       isBuy,
		User:        h.User,

		VirtualSolReserves:   c.VirtualSolReserves,
		VirtualTokenReserves: c.VirtualTokenReserves,
		CirculatingSupply:    c.CirculatingSupply,
		RealTokenReserves:    c.RealTokenReserves,
		RealSolReserves:      c.RealSolReserves,

		CreatorFeePool:           c.CreatorFeePool,
		TreasuryFeePool:          c.TreasuryFeePool,
		TotalFeesAccrued:         c.TotalFeesAccrued,
		TotalTreasuryFeesAccrued: c.TotalTreasuryFeesAccrued,
		CreatorFeeAmount:         split.Creator,
		FeeRecipient:             c.CreatorWallet,

		IsBuyback:             bb.Fired,
		BurnAmount:            bb.Burned,
		PriceLamportsPerToken: bb.PricePerToken,
		TotalBurnedSupply:     c.TotalBurnedSupply,
		TotalTreasurySpent:    c.TotalTreasurySpent,

		EarlyBirdPool:             c.EarlyBirdPool,
		TotalEarlyBirdFeesAccrued: c.TotalEarlyBirdFeesAccrued,

		UserPosition:        h.Entry.Uint64(),
		UserBalance:         h.Balance,
		EarlyBirdCutoff:     g.EarlyBird.Cutoff,
		TotalBuyers:         c.TotalBuyers,
		EarlyBirdValidCount: c.EarlyBirdValidCount,
		IsEarlyBird:         earlybird.IsEarlyBird(h, g.EarlyBird),
	}
}
