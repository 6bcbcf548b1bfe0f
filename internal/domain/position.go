// internal/domain/position.go
package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// PositionKind is the state of a holder's early-bird rank.
type PositionKind uint8

const (
	// NeverEntered: no qualifying first buy yet.
	NeverEntered PositionKind = iota
	// Active: ranked, not revoked.
	Active
	// Revoked: sold at least once after ranking. Terminal.
	Revoked
)

func (k PositionKind) String() string {
	switch k {
	case NeverEntered:
		return "never_entered"
	case Active:
		return "active"
	case Revoked:
		return "revoked"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// EntryPosition is the tagged rank variant {NeverEntered, Active(rank), Revoked}.
// The zero value is NeverEntered.
type EntryPosition struct {
	kind PositionKind
	rank uint64
}

// ActivePosition returns Active(rank). Rank must be >= 1.
func ActivePosition(rank uint64) EntryPosition {
	return EntryPosition{kind: Active, rank: rank}
}

// RevokedPosition returns the terminal Revoked state.
func RevokedPosition() EntryPosition {
	return EntryPosition{kind: Revoked}
}

func (p EntryPosition) Kind() PositionKind { return p.kind }

func (p EntryPosition) IsActive() bool { return p.kind == Active }

func (p EntryPosition) IsRevoked() bool { return p.kind == Revoked }

func (p EntryPosition) IsNeverEntered() bool { return p.kind == NeverEntered }

// Rank returns the active rank, 0 otherwise.
func (p EntryPosition) Rank() uint64 {
	if p.kind != Active {
		return 0
	}
	return p.rank
}

// WithinCutoff reports whether the position is an active rank <= cutoff.
func (p EntryPosition) WithinCutoff(cutoff uint64) bool {
	return p.kind == Active && p.rank <= cutoff
}

// Uint64 is the legacy wire encoding: 0, rank, or MaxUint64.
func (p EntryPosition) Uint64() uint64 {
	switch p.kind {
	case Active:
		return p.rank
	case Revoked:
		return math.MaxUint64
	default:
		return 0
	}
}

// EntryPositionFromUint64 decodes the legacy wire encoding.
func EntryPositionFromUint64(v uint64) EntryPosition {
	switch v {
	case 0:
		return EntryPosition{}
	case math.MaxUint64:
		return RevokedPosition()
	default:
		return ActivePosition(v)
	}
}

func (p EntryPosition) String() string {
	if p.kind == Active {
		return fmt.Sprintf("active(%d)", p.rank)
	}
	return p.kind.String()
}

type entryPositionJSON struct {
	State string `json:"state"`
	Rank  uint64 `json:"rank,omitempty"`
}

func (p EntryPosition) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryPositionJSON{State: p.kind.String(), Rank: p.Rank()})
}

func (p *EntryPosition) UnmarshalJSON(data []byte) error {
	var raw entryPositionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.State {
	case "", NeverEntered.String():
		*p = EntryPosition{}
	case Active.String():
		if raw.Rank == 0 {
			return fmt.Errorf("active entry position without rank")
		}
		*p = ActivePosition(raw.Rank)
	case Revoked.String():
		*p = RevokedPosition()
	default:
		return fmt.Errorf("unknown entry position state %q", raw.State)
	}
	return nil
}
