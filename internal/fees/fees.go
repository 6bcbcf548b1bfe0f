// internal/fees/fees.go
package fees

import (
	"github.com/yoinknow/curve-engine/internal/domain"
	"github.com/yoinknow/curve-engine/internal/utils/safemath"
)

// Split is one trade fee divided across its recipients. Each share is floored
// independently; Dust is the remainder nobody receives.
type Split struct {
	Total     uint64 `json:"total"`
	Platform  uint64 `json:"platform"`
	Creator   uint64 `json:"creator"`
	Treasury  uint64 `json:"treasury"`
	EarlyBird uint64 `json:"early_bird"`
	Dust      uint64 `json:"dust"`
}

// Compute returns floor(value * feeBps / 10000).
func Compute(value, feeBps uint64) uint64 {
	return safemath.Bps(value, feeBps)
}

// SplitFee divides fee by shares.
func SplitFee(fee uint64, shares domain.FeeShares) Split {
	s := Split{
		Total:     fee,
		Platform:  safemath.Bps(fee, shares.Platform),
		Creator:   safemath.Bps(fee, shares.Creator),
		Treasury:  safemath.Bps(fee, shares.Treasury),
		EarlyBird: safemath.Bps(fee, shares.EarlyBird),
	}
	paid := s.Platform + s.Creator + s.Treasury + s.EarlyBird
	s.Dust = safemath.SaturatingSub(fee, paid)
	return s
}

// Book credits the retained shares to the curve pools and lifetime counters.
// The platform share is paid out immediately and is not booked. On overflow
// the curve is left untouched.
func Book(c *domain.Curve, s Split) error {
	type entry struct {
		dst *uint64
		v   uint64
	}
	entries := []entry{
		{&c.CreatorFeePool, s.Creator},
		{&c.TreasuryFeePool, s.Treasury},
		{&c.EarlyBirdPool, s.EarlyBird},
		{&c.TotalFeesAccrued, s.Creator},
		{&c.TotalTreasuryFeesAccrued, s.Treasury},
		{&c.TotalEarlyBirdFeesAccrued, s.EarlyBird},
	}

	next := make([]uint64, len(entries))
	for i, e := range entries {
		v, err := safemath.CheckedAdd(*e.dst, e.v)
		if err != nil {
			return domain.ErrArithmeticOverflow
		}
		next[i] = v
	}
	for i, e := range entries {
		*e.dst = next[i]
	}
	return nil
}
