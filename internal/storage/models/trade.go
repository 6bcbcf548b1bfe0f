// internal/storage/models/trade.go
package models

import "time"

// TradeRecord is one persisted trade event.
type TradeRecord struct {
	BaseModel
	EventID     string    `gorm:"unique;not null;type:varchar(36)"`
	Mint        string    `gorm:"index;not null;type:varchar(44)"`
	Trader      string    `gorm:"index;not null;type:varchar(44)"`
	Side        string    `gorm:"index;not null;type:varchar(4)"`
	SolAmount   uint64    `gorm:"not null"`
	TokenAmount uint64    `gorm:"not null"`
	TradedAt    time.Time `gorm:"index;not null"`

	VirtualSolReserves   uint64
	VirtualTokenReserves uint64
	RealSolReserves      uint64
	RealTokenReserves    uint64
	CirculatingSupply    uint64

	CreatorFeeAmount uint64
	CreatorFeePool   uint64
	TreasuryFeePool  uint64
	EarlyBirdPool    uint64
	FeeRecipient     string `gorm:"type:varchar(44)"`

	IsBuyback          bool `gorm:"index"`
	BurnAmount         uint64
	PricePerToken      uint64
	TotalBurnedSupply  uint64
	TotalTreasurySpent uint64

	// EntryState is never_entered, active or revoked; EntryRank is set when active.
	EntryState  string `gorm:"type:varchar(16)"`
	EntryRank   uint64
	UserBalance uint64
	IsEarlyBird bool
}
