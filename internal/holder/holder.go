// Package holder keeps per-participant balances and volume in step with trades.
package holder

import (
	"github.com/yoinknow/curve-engine/internal/domain"
	"github.com/yoinknow/curve-engine/internal/utils/safemath"
)

// Credit adds bought tokens to the holder balance.
func Credit(h *domain.HolderRecord, tokens uint64) error {
	b, err := safemath.CheckedAdd(h.Balance, tokens)
	if err != nil {
		return domain.ErrArithmeticOverflow
	}
	h.Balance = b
	return nil
}

// Debit removes sold tokens. Selling more than the recorded balance is an
// arithmetic error, not a partial sell.
func Debit(h *domain.HolderRecord, tokens uint64) error {
	b, err := safemath.CheckedSub(h.Balance, tokens)
	if err != nil {
		return domain.ErrArithmeticOverflow
	}
	h.Balance = b
	return nil
}

// AddVolume accumulates lifetime traded lamports.
func AddVolume(h *domain.HolderRecord, lamports uint64) {
	h.TotalVolume = safemath.SaturatingAdd(h.TotalVolume, lamports)
}
