// internal/domain/holder.go
package domain

import (
	"github.com/gagliardetto/solana-go"
)

// HolderRecord is per (asset, participant) bookkeeping.
type HolderRecord struct {
	Mint        solana.PublicKey `json:"mint"`
	User        solana.PublicKey `json:"user"`
	Balance     uint64           `json:"balance"`
	FeesClaimed uint64           `json:"fees_claimed"`
	Entry       EntryPosition    `json:"entry"`
	TotalVolume uint64           `json:"total_volume"`
}

// NewHolderRecord returns an empty record for a first interaction.
func NewHolderRecord(mint, user solana.PublicKey) *HolderRecord {
	return &HolderRecord{Mint: mint, User: user}
}

func (h *HolderRecord) Clone() *HolderRecord {
	if h == nil {
		return nil
	}
	cp := *h
	return &cp
}
