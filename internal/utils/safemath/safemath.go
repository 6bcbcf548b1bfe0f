// internal/utils/safemath/safemath.go
package safemath

import (
	"errors"
	"math"

	"github.com/holiman/uint256"
)

// BpsDenominator is 100% expressed in basis points.
const BpsDenominator uint64 = 10_000

var (
	ErrOverflow       = errors.New("safemath: overflow")
	ErrUnderflow      = errors.New("safemath: underflow")
	ErrDivisionByZero = errors.New("safemath: division by zero")
)

// CheckedAdd returns a+b or ErrOverflow if the sum wraps.
func CheckedAdd(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrOverflow
	}
	return sum, nil
}

// CheckedSub returns a-b or ErrUnderflow if b > a.
func CheckedSub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrUnderflow
	}
	return a - b, nil
}

// SaturatingAdd clamps at MaxUint64.
func SaturatingAdd(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return math.MaxUint64
	}
	return sum
}

// SaturatingSub clamps at zero.
func SaturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// SaturatingMul clamps at MaxUint64.
func SaturatingMul(a, b uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > math.MaxUint64/b {
		return math.MaxUint64
	}
	return a * b
}

// mulDiv computes floor(a*b/d) in 256-bit space. d must be non-zero.
func mulDiv(a, b, d uint64) *uint256.Int {
	num := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	return num.Div(num, uint256.NewInt(d))
}

// MulDiv widens a*b before dividing by d and narrows the result back to 64 bits.
func MulDiv(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrDivisionByZero
	}
	q := mulDiv(a, b, d)
	if !q.IsUint64() {
		return 0, ErrOverflow
	}
	return q.Uint64(), nil
}

// MulDivSaturating is MulDiv with the result clamped to MaxUint64. Returns 0 when d is 0.
func MulDivSaturating(a, b, d uint64) uint64 {
	if d == 0 {
		return 0
	}
	q := mulDiv(a, b, d)
	if !q.IsUint64() {
		return math.MaxUint64
	}
	return q.Uint64()
}

// Bps returns floor(value*bps/10000).
func Bps(value, bps uint64) uint64 {
	return MulDivSaturating(value, bps, BpsDenominator)
}

// BpsOf returns part/whole in basis points, 0 when whole is 0.
func BpsOf(part, whole uint64) uint64 {
	return MulDivSaturating(part, BpsDenominator, whole)
}
