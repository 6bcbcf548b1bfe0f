// internal/identity/identity.go
package identity

import (
	"github.com/gagliardetto/solana-go"
	"github.com/yoinknow/curve-engine/internal/domain"
)

// MaxStreamerIDLength in bytes.
const MaxStreamerIDLength = 50

// ValidateStreamerID checks the 1..50 byte length rule.
func ValidateStreamerID(id string) error {
	if len(id) == 0 || len(id) > MaxStreamerIDLength {
		return domain.ErrInvalidStreamerID
	}
	return nil
}

// Register binds id to wallet. byWallet and byID are the identities currently
// held by that wallet and under that id; either existing blocks registration.
func Register(byWallet, byID *domain.StreamerIdentity, wallet solana.PublicKey, id string, now int64) (*domain.StreamerIdentity, error) {
	if err := ValidateStreamerID(id); err != nil {
		return nil, err
	}
	if byID != nil || byWallet != nil {
		return nil, domain.ErrStreamerIDAlreadyRegistered
	}
	return &domain.StreamerIdentity{
		Wallet:       wallet,
		StreamerID:   id,
		Verified:     true,
		RegisteredAt: now,
	}, nil
}

// Cancel checks that both the wallet record and the id record describe the
// same binding before it may be removed.
func Cancel(byWallet, byID *domain.StreamerIdentity, wallet solana.PublicKey, id string) error {
	if byWallet == nil || byID == nil {
		return domain.ErrInvalidStreamerID
	}
	if byWallet.StreamerID != id || byID.StreamerID != id {
		return domain.ErrInvalidStreamerID
	}
	if !byWallet.Wallet.Equals(wallet) || !byID.Wallet.Equals(wallet) {
		return domain.ErrUnauthorizedUser
	}
	return nil
}

// Verify reports whether ident is a verified binding of id to wallet.
func Verify(ident *domain.StreamerIdentity, wallet solana.PublicKey, id string) bool {
	return ident != nil && ident.Verified && ident.Wallet.Equals(wallet) && ident.StreamerID == id
}

// AuthorizeCreatorClaim decides who may sweep a curve's creator fee pool:
// the withdraw authority always; otherwise the verified streamer when the
// curve carries a streamer id, or the creator wallet when it does not.
func AuthorizeCreatorClaim(c *domain.Curve, claimer, withdrawAuthority solana.PublicKey, ident *domain.StreamerIdentity) error {
	if claimer.Equals(withdrawAuthority) {
		return nil
	}
	if id, ok := c.StreamerID(); ok {
		if Verify(ident, claimer, id) {
			return nil
		}
		return domain.ErrUnauthorizedCreator
	}
	if claimer.Equals(c.CreatorWallet) {
		return nil
	}
	return domain.ErrUnauthorizedCreator
}
