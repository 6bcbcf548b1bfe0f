// internal/events/codec.go
package events

import (
	"bytes"
	"crypto/sha256"
	stdbin "encoding/binary"
	"errors"
	"fmt"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// ErrUnknownEvent is returned for events without a wire layout.
var ErrUnknownEvent = errors.New("unknown event")

// ErrDiscriminatorMismatch is returned when decoding bytes of another event.
var ErrDiscriminatorMismatch = errors.New("event discriminator mismatch")

var le = stdbin.LittleEndian

// Discriminator is the 8-byte event tag: sha256("event:<Name>")[:8].
func Discriminator(name string) [8]byte {
	var d [8]byte
	hash := sha256.Sum256([]byte("event:" + name))
	copy(d[:], hash[:8])
	return d
}

// WireName maps an event to its wire struct name.
func WireName(event Event) (string, error) {
	switch event.(type) {
	case *CreateEvent:
		return "CreateEvent", nil
	case *TradeEvent:
		return "TradeEvent", nil
	case *CompleteEvent:
		return "CompleteEvent", nil
	case *WithdrawEvent:
		return "WithdrawEvent", nil
	case *SetParamsEvent:
		return "SetParamsEvent", nil
	case *CreatorFeeClaimedEvent:
		return "CreatorFeeClaimedEvent", nil
	case *EarlyBirdClaimedEvent:
		return "EarlyBirdClaimed", nil
	case *CtoEvent:
		return "CtoEvent", nil
	case *StreamerIdentityEvent:
		if event.Type() == IdentityCancelled {
			return "StreamerIdentityCancelledEvent", nil
		}
		return "StreamerIdentityRegisteredEvent", nil
	}
	return "", fmt.Errorf("%w: %T", ErrUnknownEvent, event)
}

// writer accumulates the first encoding error.
type writer struct {
	enc *bin.Encoder
	err error
}

func (w *writer) u64(v uint64) {
	if w.err == nil {
		w.err = w.enc.WriteUint64(v, le)
	}
}

func (w *writer) i64(v int64) {
	if w.err == nil {
		w.err = w.enc.WriteInt64(v, le)
	}
}

func (w *writer) boolean(v bool) {
	if w.err == nil {
		w.err = w.enc.WriteBool(v)
	}
}

func (w *writer) key(k solana.PublicKey) {
	if w.err == nil {
		w.err = w.enc.WriteBytes(k[:], false)
	}
}

func (w *writer) str(s string) {
	if w.err == nil {
		w.err = w.enc.WriteUint32(uint32(len(s)), le)
	}
	if w.err == nil {
		w.err = w.enc.WriteBytes([]byte(s), false)
	}
}

func (w *writer) optStr(s *string) {
	if s == nil {
		if w.err == nil {
			w.err = w.enc.WriteUint8(0)
		}
		return
	}
	if w.err == nil {
		w.err = w.enc.WriteUint8(1)
	}
	w.str(*s)
}

func (w *writer) ts(t time.Time) {
	w.i64(t.Unix())
}

// Encode renders event as discriminator + borsh body.
func Encode(event Event) ([]byte, error) {
	name, err := WireName(event)
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	disc := Discriminator(name)
	buf.Write(disc[:])
	w := &writer{enc: bin.NewBorshEncoder(buf)}

	switch e := event.(type) {
	case *CreateEvent:
		w.str(e.Name)
		w.str(e.Symbol)
		w.str(e.URI)
		w.key(e.Mint)
		w.key(e.BondingCurve)
		w.key(e.User)
	case *TradeEvent:
		encodeTrade(w, e)
	case *CompleteEvent:
		w.key(e.User)
		w.key(e.Mint)
		w.key(e.BondingCurve)
		w.ts(e.EventTime)
		w.u64(e.EarlyBirdPool)
	case *WithdrawEvent:
		w.key(e.Mint)
		w.key(e.Authority)
		w.u64(e.SolAmount)
		w.u64(e.TokenAmount)
		w.u64(e.CreatorFeesPreserved)
		w.ts(e.EventTime)
	case *SetParamsEvent:
		w.key(e.FeeRecipient)
		w.u64(e.InitialVirtualTokenReserves)
		w.u64(e.InitialVirtualSolReserves)
		w.u64(e.InitialRealTokenReserves)
		w.u64(e.TokenTotalSupply)
		w.u64(e.FeeBasisPoints)
		w.u64(e.CreatorFeeShare)
		w.u64(e.PlatformFeeShare)
		w.u64(e.TreasuryFeeShare)
		w.boolean(e.BuybacksEnabled)
	case *CreatorFeeClaimedEvent:
		w.key(e.Mint)
		w.key(e.Claimer)
		w.u64(e.Amount)
		w.u64(e.TotalFeesAccrued)
		w.ts(e.EventTime)
	case *EarlyBirdClaimedEvent:
		w.key(e.User)
		w.key(e.Mint)
		w.u64(e.Amount)
		w.u64(e.Position)
		w.ts(e.EventTime)
	case *CtoEvent:
		w.key(e.Mint)
		w.key(e.OldCreator)
		w.optStr(e.OldStreamerID)
		w.key(e.NewCreator)
		w.optStr(e.NewStreamerID)
		w.key(e.PlatformAuthority)
		w.ts(e.EventTime)
	case *StreamerIdentityEvent:
		w.key(e.User)
		w.str(e.StreamerID)
		w.ts(e.EventTime)
	}
	if w.err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, w.err)
	}
	return buf.Bytes(), nil
}

// Порядок полей совпадает с TradeEvent программы.
func encodeTrade(w *writer, e *TradeEvent) {
	w.key(e.Mint)
	w.u64(e.SolAmount)
	w.u64(e.TokenAmount)
	w.boolean(e.IsBuy)
	w.key(e.User)
	w.ts(e.EventTime)
	w.u64(e.VirtualSolReserves)
	w.u64(e.VirtualTokenReserves)
	w.u64(e.CirculatingSupply)
	w.u64(e.RealTokenReserves)
	w.u64(e.RealSolReserves)
	w.u64(e.CreatorFeePool)
	w.u64(e.TreasuryFeePool)
	w.u64(e.TotalFeesAccrued)
	w.u64(e.TotalTreasuryFeesAccrued)
	w.u64(e.CreatorFeeAmount)
	w.key(e.FeeRecipient)
	w.boolean(e.IsBuyback)
	w.u64(e.BurnAmount)
	w.u64(e.PriceLamportsPerToken)
	w.u64(e.TotalBurnedSupply)
	w.u64(e.TotalTreasurySpent)
	w.u64(e.EarlyBirdPool)
	w.u64(e.TotalEarlyBirdFeesAccrued)
	w.u64(e.UserPosition)
	w.u64(e.UserBalance)
	w.u64(e.EarlyBirdCutoff)
	w.u64(e.TotalBuyers)
	w.u64(e.EarlyBirdValidCount)
	w.boolean(e.IsEarlyBird)
}

// reader mirrors writer for decoding.
type reader struct {
	dec *bin.Decoder
	err error
}

func (r *reader) u64() uint64 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint64(le)
	r.err = err
	return v
}

func (r *reader) i64() int64 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadInt64(le)
	r.err = err
	return v
}

func (r *reader) boolean() bool {
	if r.err != nil {
		return false
	}
	v, err := r.dec.ReadBool()
	r.err = err
	return v
}

func (r *reader) key() solana.PublicKey {
	if r.err != nil {
		return solana.PublicKey{}
	}
	b, err := r.dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		r.err = err
		return solana.PublicKey{}
	}
	return solana.PublicKeyFromBytes(b)
}

// DecodeTrade parses bytes produced by Encode for a TradeEvent.
func DecodeTrade(data []byte) (*TradeEvent, error) {
	disc := Discriminator("TradeEvent")
	if len(data) < len(disc) || !bytes.Equal(data[:len(disc)], disc[:]) {
		return nil, ErrDiscriminatorMismatch
	}
	r := &reader{dec: bin.NewBorshDecoder(data[len(disc):])}

	e := &TradeEvent{}
	e.EventType = CurveTraded
	e.Mint = r.key()
	e.SolAmount = r.u64()
	e.TokenAmount = r.u64()
	e.IsBuy = r.boolean()
	e.User = r.key()
	e.EventTime = time.Unix(r.i64(), 0).UTC()
	e.VirtualSolReserves = r.u64()
	e.VirtualTokenReserves = r.u64()
	e.CirculatingSupply = r.u64()
	e.RealTokenReserves = r.u64()
	e.RealSolReserves = r.u64()
	e.CreatorFeePool = r.u64()
	e.TreasuryFeePool = r.u64()
	e.TotalFeesAccrued = r.u64()
	e.TotalTreasuryFeesAccrued = r.u64()
	e.CreatorFeeAmount = r.u64()
	e.FeeRecipient = r.key()
	e.IsBuyback = r.boolean()
	e.BurnAmount = r.u64()
	e.PriceLamportsPerToken = r.u64()
	e.TotalBurnedSupply = r.u64()
	e.TotalTreasurySpent = r.u64()
	e.EarlyBirdPool = r.u64()
	e.TotalEarlyBirdFeesAccrued = r.u64()
	e.UserPosition = r.u64()
	e.UserBalance = r.u64()
	e.EarlyBirdCutoff = r.u64()
	e.TotalBuyers = r.u64()
	e.EarlyBirdValidCount = r.u64()
	e.IsEarlyBird = r.boolean()

	if r.err != nil {
		return nil, fmt.Errorf("decode TradeEvent: %w", r.err)
	}
	return e, nil
}
