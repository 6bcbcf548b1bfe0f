package buyback

import (
	"github.com/holiman/uint256"
	"github.com/yoinknow/curve-engine/internal/utils/safemath"
)

func new256(v, weight uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(v), uint256.NewInt(weight))
}

// divBps narrows a weighted sum back to 64 bits. The sum of two weights is
// 10000 so the quotient always fits.
func divBps(sum *uint256.Int) uint64 {
	return sum.Div(sum, uint256.NewInt(safemath.BpsDenominator)).Uint64()
}
