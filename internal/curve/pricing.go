// internal/curve/pricing.go
package curve

import (
	"math"

	"github.com/yoinknow/curve-engine/internal/domain"
	"github.com/yoinknow/curve-engine/internal/utils/safemath"
)

const (
	// TokenDecimals of every mint launched on a curve.
	TokenDecimals = 6
	// SolDecimals is lamports per SOL as a power of ten.
	SolDecimals = 9
	// LotSize is one whole token in atomic units.
	LotSize uint64 = 1_000_000
)

// QuoteBuyChecked returns the reserve-currency cost of buying amount tokens.
// ok is false when amount >= virtual token reserves or the quote overflows.
// A zero amount quotes zero.
func QuoteBuyChecked(c *domain.Curve, amount uint64) (cost uint64, ok bool) {
	if amount == 0 {
		return 0, true
	}
	if amount >= c.VirtualTokenReserves {
		return 0, false
	}
	q, err := safemath.MulDiv(amount, c.VirtualSolReserves, c.VirtualTokenReserves-amount)
	if err != nil {
		return 0, false
	}
	return safemath.SaturatingAdd(q, 1), true
}

// QuoteBuy is the unchecked quote. Unsafe amounts quote MaxUint64 so that any
// slippage bound rejects them.
func QuoteBuy(c *domain.Curve, amount uint64) uint64 {
	if amount == 0 {
		return 1
	}
	cost, ok := QuoteBuyChecked(c, amount)
	if !ok {
		return math.MaxUint64
	}
	return cost
}

// QuoteSell returns the gross reserve-currency proceeds of selling amount tokens.
func QuoteSell(c *domain.Curve, amount uint64) uint64 {
	den := safemath.SaturatingAdd(c.VirtualTokenReserves, amount)
	return safemath.MulDivSaturating(amount, c.VirtualSolReserves, den)
}

// ClampBuyAmount limits a buy request to the tokens still held by the curve.
func ClampBuyAmount(c *domain.Curve, requested uint64) uint64 {
	return min(requested, c.RealTokenReserves)
}

// TokensForBudget inverts the buy formula: dt = b*vTok/(vSol+b), capped at vTok-1.
func TokensForBudget(c *domain.Curve, budget uint64) uint64 {
	if budget == 0 {
		return 0
	}
	den := safemath.SaturatingAdd(c.VirtualSolReserves, budget)
	if den == 0 {
		return 0
	}
	dt := safemath.MulDivSaturating(budget, c.VirtualTokenReserves, den)
	return min(dt, safemath.SaturatingSub(c.VirtualTokenReserves, 1))
}
