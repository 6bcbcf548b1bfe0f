// internal/domain/curve.go
package domain

import (
	"github.com/gagliardetto/solana-go"
)

// Curve is the per-asset bonding curve state. Terminal once Complete.
type Curve struct {
	Mint    solana.PublicKey `json:"mint"`
	Address solana.PublicKey `json:"address"`

	VirtualTokenReserves uint64 `json:"virtual_token_reserves"`
	VirtualSolReserves   uint64 `json:"virtual_sol_reserves"`
	RealTokenReserves    uint64 `json:"real_token_reserves"`
	RealSolReserves      uint64 `json:"real_sol_reserves"`
	TokenTotalSupply     uint64 `json:"token_total_supply"`
	CirculatingSupply    uint64 `json:"circulating_supply"`
	Complete             bool   `json:"complete"`

	CreatorWallet     solana.PublicKey `json:"creator_wallet"`
	CreatorStreamerID *string          `json:"creator_streamer_id,omitempty"`

	CreatorFeePool           uint64 `json:"creator_fee_pool"`
	TreasuryFeePool          uint64 `json:"treasury_fee_pool"`
	TotalFeesAccrued         uint64 `json:"total_fees_accrued"`
	TotalTreasuryFeesAccrued uint64 `json:"total_treasury_fees_accrued"`
	EmaLotPrice              uint64 `json:"ema_lot_price"`

	TotalBurnedSupply  uint64 `json:"total_burned_supply"`
	TotalTreasurySpent uint64 `json:"total_treasury_spent"`

	EarlyBirdPool             uint64 `json:"early_bird_pool"`
	TotalBuyers               uint64 `json:"total_buyers"`
	TotalEarlyBirdFeesAccrued uint64 `json:"total_early_bird_fees_accrued"`
	EarlyBirdValidCount       uint64 `json:"early_bird_valid_count"`
	EarlyBirdSharePerSeat     uint64 `json:"early_bird_share_per_seat"`
}

// Clone returns a deep copy for all-or-nothing mutation.
func (c *Curve) Clone() *Curve {
	if c == nil {
		return nil
	}
	cp := *c
	if c.CreatorStreamerID != nil {
		id := *c.CreatorStreamerID
		cp.CreatorStreamerID = &id
	}
	return &cp
}

// StreamerID returns the creator streamer id and whether one is set.
func (c *Curve) StreamerID() (string, bool) {
	if c.CreatorStreamerID == nil {
		return "", false
	}
	return *c.CreatorStreamerID, true
}
