// internal/domain/config.go
package domain

import (
	"github.com/gagliardetto/solana-go"
)

// FeeShares split a trade fee four ways, in basis points. Sum must be 10000.
type FeeShares struct {
	Platform  uint64 `json:"platform" mapstructure:"platform" yaml:"platform"`
	Creator   uint64 `json:"creator" mapstructure:"creator" yaml:"creator"`
	Treasury  uint64 `json:"treasury" mapstructure:"treasury" yaml:"treasury"`
	EarlyBird uint64 `json:"early_bird" mapstructure:"early_bird" yaml:"early_bird"`
}

// Validate enforces that the shares cover exactly 100%.
func (s FeeShares) Validate() error {
	total := uint64(0)
	for _, v := range []uint64{s.Platform, s.Creator, s.Treasury, s.EarlyBird} {
		if v > 10_000 {
			return ErrInvalidFeeShares
		}
		total += v
	}
	if total != 10_000 {
		return ErrInvalidFeeShares
	}
	return nil
}

// BuybackParams tune the buyback/burn controller.
type BuybackParams struct {
	BackingMultBps       uint16 `json:"backing_mult_bps" mapstructure:"backing_mult_bps" yaml:"backing_mult_bps"`
	EmaDropBps           uint16 `json:"ema_drop_bps" mapstructure:"ema_drop_bps" yaml:"ema_drop_bps"`
	EmaAlphaBps          uint16 `json:"ema_alpha_bps" mapstructure:"ema_alpha_bps" yaml:"ema_alpha_bps"`
	SpendBps             uint16 `json:"spend_bps" mapstructure:"spend_bps" yaml:"spend_bps"`
	MaxSupplyBps         uint16 `json:"max_supply_bps" mapstructure:"max_supply_bps" yaml:"max_supply_bps"`
	MinBackingLamports   uint64 `json:"min_backing_lamports" mapstructure:"min_backing_lamports" yaml:"min_backing_lamports"`
	MaxBurnPercentageBps uint16 `json:"max_burn_percentage_bps" mapstructure:"max_burn_percentage_bps" yaml:"max_burn_percentage_bps"`
}

// Validate rejects share-of-whole fields above 100%. Multipliers
// (BackingMultBps, EmaDropBps) may exceed 10000.
func (p BuybackParams) Validate() error {
	for _, v := range []uint16{p.EmaAlphaBps, p.SpendBps, p.MaxSupplyBps, p.MaxBurnPercentageBps} {
		if v > 10_000 {
			return ErrInvalidBuybackParams
		}
	}
	return nil
}

// DefaultBuybackParams: 1.10x backing, 0.95x EMA, 20% smoothing, 20% spend,
// 10% on-curve cap, 25% lifetime burn cap.
func DefaultBuybackParams() BuybackParams {
	return BuybackParams{
		BackingMultBps:       11_000,
		EmaDropBps:           9_500,
		EmaAlphaBps:          2_000,
		SpendBps:             2_000,
		MaxSupplyBps:         1_000,
		MinBackingLamports:   0,
		MaxBurnPercentageBps: 2_500,
	}
}

// EarlyBirdParams configure the early participant reward program.
type EarlyBirdParams struct {
	Enabled        bool   `json:"enabled" mapstructure:"enabled" yaml:"enabled"`
	Cutoff         uint64 `json:"cutoff" mapstructure:"cutoff" yaml:"cutoff"`
	MinBuyLamports uint64 `json:"min_buy_lamports" mapstructure:"min_buy_lamports" yaml:"min_buy_lamports"`
}

// GlobalConfig is the single process-wide parameter set. Only the engine's
// Initialize and Configure operations write it.
type GlobalConfig struct {
	Initialized                 bool             `json:"initialized"`
	Authority                   solana.PublicKey `json:"authority"`
	FeeRecipient                solana.PublicKey `json:"fee_recipient"`
	InitialVirtualTokenReserves uint64           `json:"initial_virtual_token_reserves"`
	InitialVirtualSolReserves   uint64           `json:"initial_virtual_sol_reserves"`
	InitialRealTokenReserves    uint64           `json:"initial_real_token_reserves"`
	TokenTotalSupply            uint64           `json:"token_total_supply"`
	FeeBasisPoints              uint64           `json:"fee_basis_points"`
	FeeShares                   FeeShares        `json:"fee_shares"`
	BuybacksEnabled             bool             `json:"buybacks_enabled"`
	Buyback                     BuybackParams    `json:"buyback"`
	EarlyBird                   EarlyBirdParams  `json:"early_bird"`
}
