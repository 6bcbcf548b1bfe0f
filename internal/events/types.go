// internal/events/types.go
package events

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// EventType represents the type of event.
type EventType string

const (
	// Curve lifecycle
	CurveCreated   EventType = "curve.created"
	CurveTraded    EventType = "curve.trade"
	CurveCompleted EventType = "curve.completed"
	CurveWithdrawn EventType = "curve.withdrawn"

	FeeRecipientReassigned EventType = "curve.fee_recipient_reassigned"

	// Administrative
	ConfigUpdated EventType = "config.updated"

	// Claims
	CreatorFeesClaimed EventType = "fees.creator_claimed"
	EarlyBirdClaimed   EventType = "earlybird.claimed"

	// Streamer identities
	IdentityRegistered EventType = "identity.registered"
	IdentityCancelled  EventType = "identity.cancelled"
)

// AllTypes lists every event type the engine publishes.
func AllTypes() []EventType {
	return []EventType{
		CurveCreated, CurveTraded, CurveCompleted, CurveWithdrawn,
		FeeRecipientReassigned, ConfigUpdated,
		CreatorFeesClaimed, EarlyBirdClaimed,
		IdentityRegistered, IdentityCancelled,
	}
}

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType EventType `json:"type"`
	EventTime time.Time `json:"time"`
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// NewBase stamps an event of type t at now, truncated to whole seconds.
func NewBase(t EventType, now time.Time) BaseEvent {
	return BaseEvent{EventType: t, EventTime: now.UTC().Truncate(time.Second)}
}

// CreateEvent is emitted when a curve is launched.
type CreateEvent struct {
	BaseEvent
	Name         string           `json:"name"`
	Symbol       string           `json:"symbol"`
	URI          string           `json:"uri"`
	Mint         solana.PublicKey `json:"mint"`
	BondingCurve solana.PublicKey `json:"bonding_curve"`
	User         solana.PublicKey `json:"user"`
}

// TradeEvent is the full post-trade record of a buy or sell, including any
// buyback that ran inside it.
type TradeEvent struct {
	BaseEvent
	Mint        solana.PublicKey `json:"mint"`
	SolAmount   uint64           `json:"sol_amount"`
	TokenAmount uint64           `json:"token_amount"`
	IsBuy       bool             `json:"is_buy"`
	User        solana.PublicKey `json:"user"`

	VirtualSolReserves   uint64 `json:"virtual_sol_reserves"`
	VirtualTokenReserves uint64 `json:"virtual_token_reserves"`
	CirculatingSupply    uint64 `json:"circulating_supply"`
	RealTokenReserves    uint64 `json:"real_token_reserves"`
	RealSolReserves      uint64 `json:"real_sol_reserves"`

	CreatorFeePool           uint64           `json:"creator_fee_pool"`
	TreasuryFeePool          uint64           `json:"treasury_fee_pool"`
	TotalFeesAccrued         uint64           `json:"total_fees_accrued"`
	TotalTreasuryFeesAccrued uint64           `json:"total_treasury_fees_accrued"`
	CreatorFeeAmount         uint64           `json:"creator_fee_amount"`
	FeeRecipient             solana.PublicKey `json:"fee_recipient"`

	IsBuyback             bool   `json:"is_buyback"`
	BurnAmount            uint64 `json:"burn_amount"`
	PriceLamportsPerToken uint64 `json:"price_lamports_per_token"`
	TotalBurnedSupply     uint64 `json:"total_burned_supply"`
	TotalTreasurySpent    uint64 `json:"total_treasury_spent"`

	EarlyBirdPool             uint64 `json:"early_bird_pool"`
	TotalEarlyBirdFeesAccrued uint64 `json:"total_early_bird_fees_accrued"`

	// UserPosition uses the wire encoding: 0 unranked, MaxUint64 revoked.
	UserPosition        uint64 `json:"user_position"`
	UserBalance         uint64 `json:"user_balance"`
	EarlyBirdCutoff     uint64 `json:"early_bird_cutoff"`
	TotalBuyers         uint64 `json:"total_buyers"`
	EarlyBirdValidCount uint64 `json:"early_bird_valid_count"`
	IsEarlyBird         bool   `json:"is_early_bird"`
}

// Side is "buy" or "sell".
func (e *TradeEvent) Side() string {
	if e.IsBuy {
		return "buy"
	}
	return "sell"
}

// CompleteEvent is emitted by the buy that drains the curve. The reserve
// fields carry the curve as committed by that buy and are not part of the
// wire encoding.
type CompleteEvent struct {
	BaseEvent
	User          solana.PublicKey `json:"user"`
	Mint          solana.PublicKey `json:"mint"`
	BondingCurve  solana.PublicKey `json:"bonding_curve"`
	EarlyBirdPool uint64           `json:"early_bird_pool"`

	VirtualTokenReserves uint64 `json:"virtual_token_reserves"`
	VirtualSolReserves   uint64 `json:"virtual_sol_reserves"`
	RealTokenReserves    uint64 `json:"real_token_reserves"`
	RealSolReserves      uint64 `json:"real_sol_reserves"`
	CirculatingSupply    uint64 `json:"circulating_supply"`
	TotalBurnedSupply    uint64 `json:"total_burned_supply"`
}

// WithdrawEvent is emitted when the withdraw authority sweeps a completed curve.
type WithdrawEvent struct {
	BaseEvent
	Mint                 solana.PublicKey `json:"mint"`
	Authority            solana.PublicKey `json:"authority"`
	SolAmount            uint64           `json:"sol_amount"`
	TokenAmount          uint64           `json:"token_amount"`
	CreatorFeesPreserved uint64           `json:"creator_fees_preserved"`
}

// SetParamsEvent mirrors a successful Configure.
type SetParamsEvent struct {
	BaseEvent
	FeeRecipient                solana.PublicKey `json:"fee_recipient"`
	InitialVirtualTokenReserves uint64           `json:"initial_virtual_token_reserves"`
	InitialVirtualSolReserves   uint64           `json:"initial_virtual_sol_reserves"`
	InitialRealTokenReserves    uint64           `json:"initial_real_token_reserves"`
	TokenTotalSupply            uint64           `json:"token_total_supply"`
	FeeBasisPoints              uint64           `json:"fee_basis_points"`
	CreatorFeeShare             uint64           `json:"creator_fee_share"`
	PlatformFeeShare            uint64           `json:"platform_fee_share"`
	TreasuryFeeShare            uint64           `json:"treasury_fee_share"`
	BuybacksEnabled             bool             `json:"buybacks_enabled"`
}

// CreatorFeeClaimedEvent is emitted when the creator pool is swept.
type CreatorFeeClaimedEvent struct {
	BaseEvent
	Mint             solana.PublicKey `json:"mint"`
	Claimer          solana.PublicKey `json:"claimer"`
	Amount           uint64           `json:"amount"`
	TotalFeesAccrued uint64           `json:"total_fees_accrued"`
}

// EarlyBirdClaimedEvent is emitted for each paid seat.
type EarlyBirdClaimedEvent struct {
	BaseEvent
	User     solana.PublicKey `json:"user"`
	Mint     solana.PublicKey `json:"mint"`
	Amount   uint64           `json:"amount"`
	Position uint64           `json:"position"`
}

// CtoEvent records a privileged fee recipient reassignment.
type CtoEvent struct {
	BaseEvent
	Mint              solana.PublicKey `json:"mint"`
	OldCreator        solana.PublicKey `json:"old_creator"`
	OldStreamerID     *string          `json:"old_streamer_id,omitempty"`
	NewCreator        solana.PublicKey `json:"new_creator"`
	NewStreamerID     *string          `json:"new_streamer_id,omitempty"`
	PlatformAuthority solana.PublicKey `json:"platform_authority"`
}

// StreamerIdentityEvent covers both registration and cancellation; the
// event type tells them apart.
type StreamerIdentityEvent struct {
	BaseEvent
	User       solana.PublicKey `json:"user"`
	StreamerID string           `json:"streamer_id"`
}
