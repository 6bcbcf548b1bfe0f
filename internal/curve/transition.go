// internal/curve/transition.go
package curve

import (
	"github.com/yoinknow/curve-engine/internal/domain"
	"github.com/yoinknow/curve-engine/internal/utils/safemath"
)

// ApplyBuy moves tokens out of and cost into both the virtual and real reserves.
// It reports whether the buy drained the real token reserve.
func ApplyBuy(c *domain.Curve, tokens, cost uint64) (drained bool, err error) {
	vTok, err := safemath.CheckedSub(c.VirtualTokenReserves, tokens)
	if err != nil {
		return false, domain.ErrArithmeticOverflow
	}
	rTok, err := safemath.CheckedSub(c.RealTokenReserves, tokens)
	if err != nil {
		return false, domain.ErrArithmeticOverflow
	}
	vSol, err := safemath.CheckedAdd(c.VirtualSolReserves, cost)
	if err != nil {
		return false, domain.ErrArithmeticOverflow
	}
	rSol, err := safemath.CheckedAdd(c.RealSolReserves, cost)
	if err != nil {
		return false, domain.ErrArithmeticOverflow
	}

	c.VirtualTokenReserves = vTok
	c.RealTokenReserves = rTok
	c.VirtualSolReserves = vSol
	c.RealSolReserves = rSol
	return tokens > 0 && rTok == 0, nil
}

// ApplyBuySaturating is the buy transition used by the buyback controller,
// which clamps instead of failing.
func ApplyBuySaturating(c *domain.Curve, tokens, cost uint64) {
	c.VirtualTokenReserves = safemath.SaturatingSub(c.VirtualTokenReserves, tokens)
	c.VirtualSolReserves = safemath.SaturatingAdd(c.VirtualSolReserves, cost)
	c.RealTokenReserves = safemath.SaturatingSub(c.RealTokenReserves, tokens)
	c.RealSolReserves = safemath.SaturatingAdd(c.RealSolReserves, cost)
}

// ApplySell returns tokens to the curve. The seller receives output-fee, so
// real reserves are debited by that amount only; the fee stays on the curve
// and is split into pools by the caller.
func ApplySell(c *domain.Curve, tokens, output, fee uint64) {
	c.VirtualTokenReserves = safemath.SaturatingAdd(c.VirtualTokenReserves, tokens)
	c.RealTokenReserves = safemath.SaturatingAdd(c.RealTokenReserves, tokens)
	c.VirtualSolReserves = safemath.SaturatingSub(c.VirtualSolReserves, output)
	c.RealSolReserves = safemath.SaturatingSub(c.RealSolReserves, safemath.SaturatingSub(output, fee))
}
