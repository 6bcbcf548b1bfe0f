// internal/earlybird/earlybird.go
package earlybird

import (
	"github.com/yoinknow/curve-engine/internal/domain"
	"github.com/yoinknow/curve-engine/internal/utils/safemath"
)

// Entry is what a buy did to the holder's position.
type Entry struct {
	Assigned  bool   // первая квалифицирующая покупка
	Rank      uint64 // назначенная позиция
	Qualified bool   // позиция в пределах cutoff и программа включена
}

// IsEarlyBird reports whether h holds an active seat within the cutoff.
func IsEarlyBird(h *domain.HolderRecord, p domain.EarlyBirdParams) bool {
	return h.Entry.WithinCutoff(p.Cutoff)
}

// OnBuy assigns the next entry rank to a holder's first buy of at least the
// minimum size. Smaller first buys leave the holder unranked so a later buy
// can still qualify. Revoked holders never re-enter.
func OnBuy(c *domain.Curve, h *domain.HolderRecord, cost uint64, p domain.EarlyBirdParams) (Entry, error) {
	if !h.Entry.IsNeverEntered() || cost < p.MinBuyLamports {
		return Entry{}, nil
	}

	buyers, err := safemath.CheckedAdd(c.TotalBuyers, 1)
	if err != nil {
		return Entry{}, domain.ErrArithmeticOverflow
	}
	c.TotalBuyers = buyers
	h.Entry = domain.ActivePosition(buyers)

	e := Entry{Assigned: true, Rank: buyers}
	if p.Enabled && buyers <= p.Cutoff {
		c.EarlyBirdValidCount = safemath.SaturatingAdd(c.EarlyBirdValidCount, 1)
		e.Qualified = true
	}
	return e, nil
}

// OnSell permanently revokes an active position and frees its seat. Returns
// the rank that was revoked, zero if nothing changed.
func OnSell(c *domain.Curve, h *domain.HolderRecord, p domain.EarlyBirdParams) uint64 {
	if !h.Entry.IsActive() {
		return 0
	}
	rank := h.Entry.Rank()
	if rank <= p.Cutoff {
		c.EarlyBirdValidCount = safemath.SaturatingSub(c.EarlyBirdValidCount, 1)
	}
	h.Entry = domain.RevokedPosition()
	return rank
}

// Finalize freezes the equal per-seat share at completion. The share is left
// at zero when there are no valid seats or nothing in the pool.
func Finalize(c *domain.Curve) uint64 {
	if c.EarlyBirdValidCount == 0 || c.EarlyBirdPool == 0 {
		return 0
	}
	c.EarlyBirdSharePerSeat = c.EarlyBirdPool / c.EarlyBirdValidCount
	return c.EarlyBirdSharePerSeat
}

// Claim pays the frozen share to an eligible holder exactly once.
func Claim(c *domain.Curve, h *domain.HolderRecord, p domain.EarlyBirdParams) (uint64, error) {
	if !p.Enabled {
		return 0, domain.ErrEarlyBirdDisabled
	}
	if !c.Complete {
		return 0, domain.ErrCurveNotComplete
	}
	if !IsEarlyBird(h, p) {
		return 0, domain.ErrNotEarlyBird
	}
	if h.FeesClaimed != 0 {
		return 0, domain.ErrAlreadyClaimedEarlyBird
	}
	share := c.EarlyBirdSharePerSeat
	if share == 0 {
		return 0, domain.ErrNoRewardsToClaim
	}

	pool, err := safemath.CheckedSub(c.EarlyBirdPool, share)
	if err != nil {
		return 0, domain.ErrArithmeticOverflow
	}
	claimed, err := safemath.CheckedAdd(h.FeesClaimed, share)
	if err != nil {
		return 0, domain.ErrArithmeticOverflow
	}
	c.EarlyBirdPool = pool
	h.FeesClaimed = claimed
	return share, nil
}
