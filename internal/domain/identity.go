// internal/domain/identity.go
package domain

import (
	"github.com/gagliardetto/solana-go"
)

// StreamerIdentity binds an off-platform streamer id to one wallet.
type StreamerIdentity struct {
	Wallet       solana.PublicKey `json:"wallet"`
	StreamerID   string           `json:"streamer_id"`
	Verified     bool             `json:"verified"`
	RegisteredAt int64            `json:"registered_at"`
}
