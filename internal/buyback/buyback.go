// internal/buyback/buyback.go
package buyback

import (
	"github.com/yoinknow/curve-engine/internal/curve"
	"github.com/yoinknow/curve-engine/internal/domain"
	"github.com/yoinknow/curve-engine/internal/utils/safemath"
	"go.uber.org/zap"
)

// SkipReason explains why a buyback evaluation did not execute.
type SkipReason string

const (
	SkipNone          SkipReason = ""
	SkipDisabled      SkipReason = "disabled"
	SkipBurnCap       SkipReason = "burn_cap_reached"
	SkipNoTreasury    SkipReason = "no_treasury"
	SkipUnsafeQuote   SkipReason = "unsafe_quote"
	SkipNoTrigger     SkipReason = "no_trigger"
	SkipZeroAmount    SkipReason = "zero_amount"
	SkipCurveComplete SkipReason = "curve_complete"
)

// Result describes one evaluation of the controller.
type Result struct {
	Fired         bool       `json:"fired"`
	Amount        uint64     `json:"amount"`
	Cost          uint64     `json:"cost"`
	Burned        uint64     `json:"burned"`
	PricePerToken uint64     `json:"price_per_token"`
	SkipReason    SkipReason `json:"skip_reason,omitempty"`

	MarketLot  uint64 `json:"market_lot"`
	BackingLot uint64 `json:"backing_lot"`
	EmaLot     uint64 `json:"ema_lot"`
	Threshold  uint64 `json:"threshold"`
}

// Controller runs the treasury buyback-and-burn loop after each trade.
type Controller struct {
	logger *zap.Logger
}

// NewController создает контроллер выкупа
func NewController(logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{logger: logger.Named("buyback")}
}

// BurnBps is the lifetime burned share of total supply in basis points.
func BurnBps(c *domain.Curve) uint64 {
	if c.TokenTotalSupply == 0 {
		return 0
	}
	return safemath.BpsOf(c.TotalBurnedSupply, c.TokenTotalSupply)
}

// BurnHeadroom is how many more tokens may be burned before the lifetime cap
// of maxBurnBps of total supply is reached.
func BurnHeadroom(c *domain.Curve, maxBurnBps uint16) uint64 {
	limit := safemath.Bps(c.TokenTotalSupply, uint64(maxBurnBps))
	return safemath.SaturatingSub(limit, c.TotalBurnedSupply)
}

// LotFor is one whole token, or less when the virtual reserve is thinner.
func LotFor(c *domain.Curve) uint64 {
	return min(curve.LotSize, safemath.SaturatingSub(c.VirtualTokenReserves, 1))
}

// BackingPerLot is treasury lamports attributable to one lot of circulating supply.
func BackingPerLot(c *domain.Curve, lot uint64) uint64 {
	if c.Complete || lot == 0 || c.CirculatingSupply == 0 {
		return 0
	}
	return safemath.MulDivSaturating(c.TreasuryFeePool, lot, c.CirculatingSupply)
}

// UpdateEMA folds price into the curve's lot-price average. The first
// observation seeds it.
func UpdateEMA(c *domain.Curve, price uint64, alphaBps uint16) {
	if c.EmaLotPrice == 0 {
		c.EmaLotPrice = price
		return
	}
	a := min(uint64(alphaBps), safemath.BpsDenominator)
	fresh := new256(price, a)
	old := new256(c.EmaLotPrice, safemath.BpsDenominator-a)
	c.EmaLotPrice = divBps(fresh.Add(fresh, old))
}

// TriggerThreshold = max(backing*mult, ema*drop), both in basis points.
func TriggerThreshold(backingLot, emaLot uint64, p domain.BuybackParams) uint64 {
	backingThr := safemath.Bps(backingLot, uint64(p.BackingMultBps))
	emaThr := safemath.Bps(emaLot, uint64(p.EmaDropBps))
	return max(backingThr, emaThr)
}

// ShouldTrigger fires when the market is at or under the threshold and either
// backing clears the floor or the price has halved against the EMA.
func ShouldTrigger(marketLot, backingLot, emaLot, threshold uint64, p domain.BuybackParams) bool {
	if marketLot > threshold {
		return false
	}
	significantDrop := marketLot <= emaLot/2
	return backingLot >= p.MinBackingLamports || significantDrop
}

// SupplyCap bounds a single buyback to a share of on-curve inventory. Never
// rounds to zero while inventory remains.
func SupplyCap(c *domain.Curve, maxSupplyBps uint16) uint64 {
	rtok := c.RealTokenReserves
	if rtok == 0 {
		return 0
	}
	capTokens := max(safemath.SaturatingMul(rtok, uint64(maxSupplyBps))/safemath.BpsDenominator, 1)
	return min(capTokens, rtok)
}

// Size picks the buyback amount for the treasury budget. Zero means nothing
// affordable fits the caps. The amount never exceeds the remaining burn
// headroom, fallbacks included.
func Size(c *domain.Curve, lot uint64, p domain.BuybackParams) uint64 {
	tpool := c.TreasuryFeePool
	budget := safemath.Bps(tpool, uint64(p.SpendBps))
	capTokens := min(SupplyCap(c, p.MaxSupplyBps), BurnHeadroom(c, p.MaxBurnPercentageBps))
	if capTokens == 0 {
		return 0
	}

	// inversion rounds down but the quote rounds up by one lamport
	amount := min(curve.TokensForBudget(c, safemath.SaturatingSub(budget, 1)), capTokens)

	if amount == 0 {
		if cost, ok := curve.QuoteBuyChecked(c, 1); ok && tpool >= cost {
			amount = 1
		}
	}
	if amount == 0 && lot > 0 && capTokens >= lot {
		if cost, ok := curve.QuoteBuyChecked(c, lot); ok && tpool >= cost {
			amount = lot
		}
	}
	return amount
}

// Execute spends cost from the treasury pool on amount tokens and burns them
// when the curve still custodies that inventory. The transition saturates.
func Execute(c *domain.Curve, amount, cost uint64) Result {
	inventory := c.RealTokenReserves

	c.TreasuryFeePool = safemath.SaturatingSub(c.TreasuryFeePool, cost)
	curve.ApplyBuySaturating(c, amount, cost)

	var burned uint64
	if amount > 0 && inventory >= amount {
		burned = amount
		c.CirculatingSupply = safemath.SaturatingSub(c.CirculatingSupply, burned)
		c.TotalBurnedSupply = safemath.SaturatingAdd(c.TotalBurnedSupply, burned)
	}
	c.TotalTreasurySpent = safemath.SaturatingAdd(c.TotalTreasurySpent, cost)

	var price uint64
	if amount > 0 {
		price = cost / amount
	}
	return Result{
		Fired:         true,
		Amount:        amount,
		Cost:          cost,
		Burned:        burned,
		PricePerToken: price,
	}
}

// Run evaluates and, when triggered, executes one buyback on c. The EMA is
// updated on every evaluation that reaches the market quote, fired or not.
func (bc *Controller) Run(c *domain.Curve, enabled bool, p domain.BuybackParams) (Result, error) {
	logger := bc.logger.With(zap.String("mint", c.Mint.String()))

	if !enabled {
		return Result{SkipReason: SkipDisabled}, nil
	}
	if c.Complete {
		return Result{SkipReason: SkipCurveComplete}, nil
	}

	burnBps := BurnBps(c)
	if burnBps >= uint64(p.MaxBurnPercentageBps) || BurnHeadroom(c, p.MaxBurnPercentageBps) == 0 {
		logger.Debug("Max burn percentage reached",
			zap.Uint64("burn_bps", burnBps),
			zap.Uint16("max_burn_bps", p.MaxBurnPercentageBps),
			zap.Uint64("total_burned", c.TotalBurnedSupply))
		return Result{SkipReason: SkipBurnCap}, nil
	}

	if c.VirtualTokenReserves <= 1 || c.TreasuryFeePool == 0 {
		return Result{SkipReason: SkipNoTreasury}, nil
	}

	lot := LotFor(c)
	marketLot, ok := curve.QuoteBuyChecked(c, lot)
	if !ok {
		logger.Debug("Unsafe lot quote", zap.Uint64("lot", lot))
		return Result{SkipReason: SkipUnsafeQuote}, nil
	}

	backingLot := BackingPerLot(c, lot)
	UpdateEMA(c, marketLot, p.EmaAlphaBps)
	emaLot := c.EmaLotPrice
	threshold := TriggerThreshold(backingLot, emaLot, p)

	res := Result{MarketLot: marketLot, BackingLot: backingLot, EmaLot: emaLot, Threshold: threshold}

	logger.Debug("Buyback check",
		zap.Uint64("lot", lot),
		zap.Uint64("market_lot", marketLot),
		zap.Uint64("backing_lot", backingLot),
		zap.Uint64("ema_lot", emaLot),
		zap.Uint64("threshold", threshold),
		zap.Uint64("treasury", c.TreasuryFeePool))

	if !ShouldTrigger(marketLot, backingLot, emaLot, threshold, p) {
		res.SkipReason = SkipNoTrigger
		return res, nil
	}

	amount := Size(c, lot, p)
	if amount == 0 {
		logger.Debug("Amount is zero after sizing and fallbacks")
		res.SkipReason = SkipZeroAmount
		return res, nil
	}

	cost, ok := curve.QuoteBuyChecked(c, amount)
	if !ok {
		res.SkipReason = SkipUnsafeQuote
		return res, nil
	}
	if c.TreasuryFeePool < cost {
		return res, domain.ErrInsufficientTreasuryFunds
	}

	exec := Execute(c, amount, cost)
	exec.MarketLot, exec.BackingLot, exec.EmaLot, exec.Threshold = marketLot, backingLot, emaLot, threshold

	logger.Info("🔥 Buyback executed",
		zap.Uint64("amount", exec.Amount),
		zap.Uint64("cost", exec.Cost),
		zap.Uint64("burned", exec.Burned),
		zap.Uint64("treasury_left", c.TreasuryFeePool))

	return exec, nil
}
