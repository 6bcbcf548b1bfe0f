// internal/storage/models/curve.go
package models

import "time"

// CurveSnapshot captures curve state at a point in time.
type CurveSnapshot struct {
	BaseModel
	Mint                 string    `gorm:"index;not null;type:varchar(44)"`
	TakenAt              time.Time `gorm:"index;not null"`
	Reason               string    `gorm:"type:varchar(20)"`
	VirtualTokenReserves uint64
	VirtualSolReserves   uint64
	RealTokenReserves    uint64
	RealSolReserves      uint64
	CirculatingSupply    uint64
	TotalBurnedSupply    uint64
	EarlyBirdPool        uint64
	Complete             bool
}

// ClaimRecord is a creator fee or early bird payout.
type ClaimRecord struct {
	BaseModel
	Mint      string `gorm:"index;not null;type:varchar(44)"`
	Claimer   string `gorm:"index;not null;type:varchar(44)"`
	Kind      string `gorm:"not null;type:varchar(20)"`
	Amount    uint64 `gorm:"not null"`
	Position  uint64
	ClaimedAt time.Time `gorm:"index;not null"`
}
