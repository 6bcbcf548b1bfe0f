package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoinknow/curve-engine/internal/buyback"
	"github.com/yoinknow/curve-engine/internal/curve"
	"github.com/yoinknow/curve-engine/internal/domain"
	"github.com/yoinknow/curve-engine/internal/events"
	"github.com/yoinknow/curve-engine/internal/fees"
	"github.com/yoinknow/curve-engine/internal/storage"
	"github.com/yoinknow/curve-engine/internal/storage/kv"
	"go.uber.org/zap/zaptest"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturePublisher) Publish(ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *capturePublisher) types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type())
	}
	return out
}

type opCount struct {
	mu     sync.Mutex
	counts map[string]int
	errs   map[string]int
}

func (o *opCount) ObserveOperation(op string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.counts[op]++
	if err != nil {
		o.errs[op]++
	}
}

type fixture struct {
	eng       *Engine
	store     *kv.Store
	pub       *capturePublisher
	ops       *opCount
	authority solana.PublicKey
	withdraw  solana.PublicKey
	platform  solana.PublicKey
	creator   solana.PublicKey
}

func testParams() Params {
	return Params{
		FeeRecipient:                solana.NewWallet().PublicKey(),
		InitialVirtualTokenReserves: 1_000_000,
		InitialVirtualSolReserves:   30_000_000,
		InitialRealTokenReserves:    800_000,
		TokenTotalSupply:            1_000_000,
		FeeBasisPoints:              100,
		FeeShares:                   domain.FeeShares{Platform: 5000, Creator: 3000, Treasury: 1500, EarlyBird: 500},
		BuybacksEnabled:             false,
		Buyback:                     domain.DefaultBuybackParams(),
		EarlyBird:                   domain.EarlyBirdParams{Enabled: true, Cutoff: 2, MinBuyLamports: 10_000},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store := kv.NewStore(kv.NewMemDB(), logger)
	t.Cleanup(func() { _ = store.Close() })

	f := &fixture{
		store:     store,
		pub:       &capturePublisher{},
		ops:       &opCount{counts: map[string]int{}, errs: map[string]int{}},
		authority: solana.NewWallet().PublicKey(),
		withdraw:  solana.NewWallet().PublicKey(),
		platform:  solana.NewWallet().PublicKey(),
		creator:   solana.NewWallet().PublicKey(),
	}
	eng, err := New(Config{
		Logger:            logger,
		Store:             store,
		Publisher:         f.pub,
		Clock:             clockwork.NewFakeClockAt(time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)),
		Observer:          f.ops,
		ProgramID:         solana.NewWallet().PublicKey(),
		WithdrawAuthority: f.withdraw,
		PlatformAuthority: f.platform,
	})
	require.NoError(t, err)
	f.eng = eng
	return f
}

// setup initializes and configures the engine and launches one curve.
func (f *fixture) setup(t *testing.T, p Params, streamerID *string) solana.PublicKey {
	t.Helper()
	ctx := context.Background()
	_, err := f.eng.Initialize(ctx, f.authority)
	require.NoError(t, err)
	_, err = f.eng.Configure(ctx, f.authority, p)
	require.NoError(t, err)

	mint := solana.NewWallet().PublicKey()
	_, err = f.eng.Launch(ctx, f.creator, LaunchParams{Mint: mint, Name: "Horse", Symbol: "HRS", URI: "ipfs://x", StreamerID: streamerID})
	require.NoError(t, err)
	return mint
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestInitializeAndConfigure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.eng.Configure(ctx, f.authority, testParams())
	assert.ErrorIs(t, err, domain.ErrNotInitialized)

	g, err := f.eng.Initialize(ctx, f.authority)
	require.NoError(t, err)
	assert.True(t, g.Initialized)
	assert.True(t, g.BuybacksEnabled)

	_, err = f.eng.Initialize(ctx, f.authority)
	assert.ErrorIs(t, err, domain.ErrAlreadyInitialized)

	_, err = f.eng.Configure(ctx, solana.NewWallet().PublicKey(), testParams())
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	bad := testParams()
	bad.FeeShares.Treasury = 1000
	_, err = f.eng.Configure(ctx, f.authority, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidFeeShares)
	assert.Equal(t, domain.KindConfiguration, domain.KindOf(err))

	ev, err := f.eng.Configure(ctx, f.authority, testParams())
	require.NoError(t, err)
	assert.Equal(t, uint64(100), ev.FeeBasisPoints)
	assert.Equal(t, uint64(3000), ev.CreatorFeeShare)

	g, err = f.eng.Global(ctx)
	require.NoError(t, err)
	assert.Equal(t, f.authority, g.Authority)
	assert.Equal(t, uint64(2), g.EarlyBird.Cutoff)
	assert.False(t, g.BuybacksEnabled)

	assert.Equal(t, []events.EventType{events.ConfigUpdated}, f.pub.types())
	assert.Equal(t, 3, f.ops.errs[OpConfigure])
}

func TestConfigureRejectsBuybackBps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.eng.Initialize(ctx, f.authority)
	require.NoError(t, err)

	bad := testParams()
	bad.Buyback.SpendBps = 10_001
	_, err = f.eng.Configure(ctx, f.authority, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidBuybackParams)
	assert.Equal(t, domain.KindConfiguration, domain.KindOf(err))

	g, err := f.eng.Global(ctx)
	require.NoError(t, err)
	assert.Zero(t, g.Buyback.SpendBps)
	assert.Empty(t, f.pub.types())
}

func TestLaunch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.eng.Launch(ctx, f.creator, LaunchParams{Mint: solana.NewWallet().PublicKey()})
	assert.ErrorIs(t, err, domain.ErrNotInitialized)

	id := "streamer-1"
	mint := f.setup(t, testParams(), &id)

	c, err := f.eng.Curve(ctx, mint)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), c.VirtualTokenReserves)
	assert.Equal(t, uint64(30_000_000), c.VirtualSolReserves)
	assert.Equal(t, uint64(800_000), c.RealTokenReserves)
	assert.Zero(t, c.RealSolReserves)
	assert.Equal(t, c.TokenTotalSupply, c.CirculatingSupply)
	assert.Equal(t, f.creator, c.CreatorWallet)
	got, ok := c.StreamerID()
	assert.True(t, ok)
	assert.Equal(t, id, got)

	_, err = f.eng.Launch(ctx, f.creator, LaunchParams{Mint: mint})
	assert.ErrorIs(t, err, domain.ErrCurveExists)

	long := string(make([]byte, 51))
	_, err = f.eng.Launch(ctx, f.creator, LaunchParams{Mint: solana.NewWallet().PublicKey(), StreamerID: &long})
	assert.ErrorIs(t, err, domain.ErrInvalidStreamerID)

	_, err = f.eng.Curve(ctx, solana.NewWallet().PublicKey())
	assert.ErrorIs(t, err, domain.ErrCurveNotFound)
}

func TestBuyAndSell(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mint := f.setup(t, testParams(), nil)
	user := solana.NewWallet().PublicKey()

	q, err := f.eng.QuoteBuy(ctx, mint, 1_000)
	require.NoError(t, err)
	assert.Equal(t, Quote{Tokens: 1_000, Sol: 30_031, Fee: 300, Total: 30_331}, q)

	_, err = f.eng.Buy(ctx, user, mint, 1_000, 30_330)
	var slip *domain.SlippageError
	require.True(t, errors.As(err, &slip))
	assert.ErrorIs(t, err, domain.ErrTooMuchSolRequired)
	assert.Equal(t, uint64(30_331), slip.Required)

	trade, err := f.eng.Buy(ctx, user, mint, 1_000, 30_331)
	require.NoError(t, err)
	assert.True(t, trade.IsBuy)
	assert.Equal(t, uint64(30_031), trade.SolAmount)
	assert.Equal(t, uint64(1_000), trade.TokenAmount)
	assert.Equal(t, uint64(999_000), trade.VirtualTokenReserves)
	assert.Equal(t, uint64(30_030_031), trade.VirtualSolReserves)
	assert.Equal(t, uint64(799_000), trade.RealTokenReserves)
	assert.Equal(t, uint64(30_031), trade.RealSolReserves)
	assert.Equal(t, uint64(90), trade.CreatorFeeAmount)
	assert.Equal(t, uint64(90), trade.CreatorFeePool)
	assert.Equal(t, uint64(45), trade.TreasuryFeePool)
	assert.Equal(t, uint64(15), trade.EarlyBirdPool)
	assert.Equal(t, f.creator, trade.FeeRecipient)
	assert.Equal(t, uint64(1), trade.UserPosition)
	assert.Equal(t, uint64(1_000), trade.UserBalance)
	assert.True(t, trade.IsEarlyBird)
	assert.Equal(t, uint64(1), trade.EarlyBirdValidCount)
	assert.False(t, trade.IsBuyback)

	h, err := f.eng.Holder(ctx, mint, user)
	require.NoError(t, err)
	assert.Equal(t, uint64(30_031), h.TotalVolume)

	sq, err := f.eng.QuoteSell(ctx, mint, 1_000)
	require.NoError(t, err)
	assert.Equal(t, Quote{Tokens: 1_000, Sol: 30_030, Fee: 300, Total: 29_730}, sq)

	_, err = f.eng.Sell(ctx, user, mint, 1_000, 29_731)
	assert.ErrorIs(t, err, domain.ErrTooLittleSolReceived)

	trade, err = f.eng.Sell(ctx, user, mint, 1_000, 29_730)
	require.NoError(t, err)
	assert.False(t, trade.IsBuy)
	assert.Equal(t, uint64(30_030), trade.SolAmount)
	assert.Equal(t, uint64(1_000_000), trade.VirtualTokenReserves)
	assert.Equal(t, uint64(30_000_001), trade.VirtualSolReserves)
	assert.Equal(t, uint64(800_000), trade.RealTokenReserves)
	assert.Equal(t, uint64(301), trade.RealSolReserves)
	assert.Equal(t, uint64(180), trade.CreatorFeePool)
	assert.Equal(t, uint64(90), trade.TreasuryFeePool)
	assert.Equal(t, uint64(30), trade.EarlyBirdPool)
	assert.Equal(t, uint64(math.MaxUint64), trade.UserPosition)
	assert.False(t, trade.IsEarlyBird)
	assert.Zero(t, trade.EarlyBirdValidCount)
	assert.Zero(t, trade.UserBalance)

	// revoked holders never re-enter
	trade, err = f.eng.Buy(ctx, user, mint, 1_000, math.MaxUint64)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), trade.UserPosition)
	assert.Equal(t, uint64(1), trade.TotalBuyers)

	assert.Equal(t, []events.EventType{
		events.ConfigUpdated, events.CurveCreated,
		events.CurveTraded, events.CurveTraded, events.CurveTraded,
	}, f.pub.types())
}

func TestFailedTradeLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mint := f.setup(t, testParams(), nil)
	user := solana.NewWallet().PublicKey()

	before, err := f.eng.Curve(ctx, mint)
	require.NoError(t, err)

	_, err = f.eng.Buy(ctx, user, mint, 1_000, 1)
	require.Error(t, err)
	_, err = f.eng.Sell(ctx, user, mint, 1_000, 0)
	assert.ErrorIs(t, err, domain.ErrArithmeticOverflow)
	_, err = f.eng.Sell(ctx, user, mint, 0, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	after, err := f.eng.Curve(ctx, mint)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	_, err = f.eng.Holder(ctx, mint, user)
	assert.ErrorIs(t, err, domain.ErrHolderNotFound)
}

func TestCompletionAndEarlyBirdClaims(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mint := f.setup(t, testParams(), nil)
	a := solana.NewWallet().PublicKey()
	b := solana.NewWallet().PublicKey()
	c := solana.NewWallet().PublicKey()

	_, err := f.eng.Buy(ctx, a, mint, 1_000, math.MaxUint64)
	require.NoError(t, err)
	trade, err := f.eng.Buy(ctx, b, mint, 1_000, math.MaxUint64)
	require.NoError(t, err)
	assert.Equal(t, uint64(30_091), trade.SolAmount)
	assert.Equal(t, uint64(2), trade.UserPosition)

	_, err = f.eng.ClaimEarlyBirdReward(ctx, a, mint)
	assert.ErrorIs(t, err, domain.ErrCurveNotComplete)

	// requested amount is clamped to the remaining inventory
	trade, err = f.eng.Buy(ctx, c, mint, 10_000_000, math.MaxUint64)
	require.NoError(t, err)
	assert.Equal(t, uint64(798_000), trade.TokenAmount)
	assert.Equal(t, uint64(119_939_887), trade.SolAmount)
	assert.Zero(t, trade.RealTokenReserves)
	assert.Equal(t, uint64(3), trade.UserPosition)
	assert.False(t, trade.IsEarlyBird)
	assert.Equal(t, uint64(59_999), trade.EarlyBirdPool)

	types := f.pub.types()
	require.GreaterOrEqual(t, len(types), 2)
	assert.Equal(t, events.CurveCompleted, types[len(types)-2])
	assert.Equal(t, events.CurveTraded, types[len(types)-1])

	cv, err := f.eng.Curve(ctx, mint)
	require.NoError(t, err)
	assert.True(t, cv.Complete)
	assert.Equal(t, uint64(29_999), cv.EarlyBirdSharePerSeat)

	_, err = f.eng.Buy(ctx, a, mint, 1, math.MaxUint64)
	assert.ErrorIs(t, err, domain.ErrBondingCurveComplete)
	_, err = f.eng.Sell(ctx, a, mint, 1, 0)
	assert.ErrorIs(t, err, domain.ErrBondingCurveComplete)
	_, err = f.eng.QuoteBuy(ctx, mint, 1)
	assert.ErrorIs(t, err, domain.ErrBondingCurveComplete)

	for _, user := range []solana.PublicKey{a, b} {
		ev, err := f.eng.ClaimEarlyBirdReward(ctx, user, mint)
		require.NoError(t, err)
		assert.Equal(t, uint64(29_999), ev.Amount)
	}

	_, err = f.eng.ClaimEarlyBirdReward(ctx, a, mint)
	assert.ErrorIs(t, err, domain.ErrAlreadyClaimedEarlyBird)
	_, err = f.eng.ClaimEarlyBirdReward(ctx, c, mint)
	assert.ErrorIs(t, err, domain.ErrNotEarlyBird)
	_, err = f.eng.ClaimEarlyBirdReward(ctx, solana.NewWallet().PublicKey(), mint)
	assert.ErrorIs(t, err, domain.ErrNotEarlyBird)

	cv, err = f.eng.Curve(ctx, mint)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), cv.EarlyBirdPool)
	assert.Equal(t, uint64(29_999), cv.EarlyBirdSharePerSeat)
}

// Доля на место фиксируется после того, как комиссия завершающей покупки
// уже зачислена в пул.
func TestCompletionShareIncludesFinalTradeFee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := testParams()
	mint := f.setup(t, p, nil)

	for i := 0; i < 2; i++ {
		_, err := f.eng.Buy(ctx, solana.NewWallet().PublicKey(), mint, 1_000, math.MaxUint64)
		require.NoError(t, err)
	}
	before, err := f.eng.Curve(ctx, mint)
	require.NoError(t, err)
	require.NotZero(t, before.EarlyBirdPool)

	trade, err := f.eng.Buy(ctx, solana.NewWallet().PublicKey(), mint, 10_000_000, math.MaxUint64)
	require.NoError(t, err)
	ebFee := fees.SplitFee(fees.Compute(trade.SolAmount, p.FeeBasisPoints), p.FeeShares).EarlyBird
	require.NotZero(t, ebFee)
	assert.Equal(t, before.EarlyBirdPool+ebFee, trade.EarlyBirdPool)

	cv, err := f.eng.Curve(ctx, mint)
	require.NoError(t, err)
	assert.Equal(t, trade.EarlyBirdPool/2, cv.EarlyBirdSharePerSeat)
	assert.Greater(t, cv.EarlyBirdSharePerSeat, before.EarlyBirdPool/2)

	var completed *events.CompleteEvent
	for _, ev := range f.pub.events {
		if ce, ok := ev.(*events.CompleteEvent); ok {
			completed = ce
		}
	}
	require.NotNil(t, completed)
	assert.Equal(t, cv.EarlyBirdPool, completed.EarlyBirdPool)
	assert.Equal(t, cv.VirtualTokenReserves, completed.VirtualTokenReserves)
	assert.Equal(t, cv.VirtualSolReserves, completed.VirtualSolReserves)
	assert.Equal(t, cv.RealSolReserves, completed.RealSolReserves)
	assert.Equal(t, cv.CirculatingSupply, completed.CirculatingSupply)
	assert.Zero(t, completed.RealTokenReserves)
}

func TestEarlyBirdDisabledClaim(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := testParams()
	p.EarlyBird.Enabled = false
	mint := f.setup(t, p, nil)

	_, err := f.eng.ClaimEarlyBirdReward(ctx, solana.NewWallet().PublicKey(), mint)
	assert.ErrorIs(t, err, domain.ErrEarlyBirdDisabled)
}

func TestWithdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mint := f.setup(t, testParams(), nil)
	user := solana.NewWallet().PublicKey()

	_, err := f.eng.Withdraw(ctx, f.withdraw, mint)
	assert.ErrorIs(t, err, domain.ErrBondingCurveNotComplete)

	_, err = f.eng.Buy(ctx, user, mint, math.MaxUint64, math.MaxUint64)
	require.NoError(t, err)

	_, err = f.eng.Withdraw(ctx, user, mint)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	before, err := f.eng.Curve(ctx, mint)
	require.NoError(t, err)

	ev, err := f.eng.Withdraw(ctx, f.withdraw, mint)
	require.NoError(t, err)
	assert.Equal(t, before.RealSolReserves-before.CreatorFeePool, ev.SolAmount)
	assert.Equal(t, before.CreatorFeePool, ev.CreatorFeesPreserved)

	after, err := f.eng.Curve(ctx, mint)
	require.NoError(t, err)
	assert.Equal(t, before.CreatorFeePool, after.RealSolReserves)
	assert.Zero(t, after.VirtualSolReserves)
	assert.Zero(t, after.VirtualTokenReserves)
	assert.Zero(t, after.RealTokenReserves)
}

func TestClaimCreatorFees(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mint := f.setup(t, testParams(), nil)

	_, err := f.eng.ClaimCreatorFees(ctx, f.creator, mint)
	assert.ErrorIs(t, err, domain.ErrNoFeesToClaim)

	_, err = f.eng.Buy(ctx, solana.NewWallet().PublicKey(), mint, 1_000, math.MaxUint64)
	require.NoError(t, err)

	_, err = f.eng.ClaimCreatorFees(ctx, solana.NewWallet().PublicKey(), mint)
	assert.ErrorIs(t, err, domain.ErrUnauthorizedCreator)

	ev, err := f.eng.ClaimCreatorFees(ctx, f.creator, mint)
	require.NoError(t, err)
	assert.Equal(t, uint64(90), ev.Amount)
	assert.Equal(t, uint64(90), ev.TotalFeesAccrued)

	_, err = f.eng.ClaimCreatorFees(ctx, f.creator, mint)
	assert.ErrorIs(t, err, domain.ErrNoFeesToClaim)

	_, err = f.eng.Buy(ctx, solana.NewWallet().PublicKey(), mint, 1_000, math.MaxUint64)
	require.NoError(t, err)
	ev, err = f.eng.ClaimCreatorFees(ctx, f.withdraw, mint)
	require.NoError(t, err)
	assert.Equal(t, f.withdraw, ev.Claimer)
}

func TestClaimCreatorFeesWithStreamerIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := "streamer-1"
	mint := f.setup(t, testParams(), &id)
	streamer := solana.NewWallet().PublicKey()

	_, err := f.eng.Buy(ctx, solana.NewWallet().PublicKey(), mint, 1_000, math.MaxUint64)
	require.NoError(t, err)

	// the launching wallet alone is not enough once a streamer id is set
	_, err = f.eng.ClaimCreatorFees(ctx, f.creator, mint)
	assert.ErrorIs(t, err, domain.ErrUnauthorizedCreator)

	_, err = f.eng.RegisterStreamerIdentity(ctx, streamer, streamer, id)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	ident, err := f.eng.RegisterStreamerIdentity(ctx, f.platform, streamer, id)
	require.NoError(t, err)
	assert.True(t, ident.Verified)

	ev, err := f.eng.ClaimCreatorFees(ctx, streamer, mint)
	require.NoError(t, err)
	assert.Equal(t, uint64(90), ev.Amount)
}

func TestStreamerIdentityLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w1 := solana.NewWallet().PublicKey()
	w2 := solana.NewWallet().PublicKey()

	_, err := f.eng.RegisterStreamerIdentity(ctx, f.platform, w1, "")
	assert.ErrorIs(t, err, domain.ErrInvalidStreamerID)

	_, err = f.eng.RegisterStreamerIdentity(ctx, f.platform, w1, "alice")
	require.NoError(t, err)

	_, err = f.eng.RegisterStreamerIdentity(ctx, f.platform, w2, "alice")
	assert.ErrorIs(t, err, domain.ErrStreamerIDAlreadyRegistered)
	_, err = f.eng.RegisterStreamerIdentity(ctx, f.platform, w1, "bob")
	assert.ErrorIs(t, err, domain.ErrStreamerIDAlreadyRegistered)

	assert.ErrorIs(t, f.eng.CancelStreamerIdentity(ctx, w1, w1, "alice"), domain.ErrNotAuthorized)
	assert.ErrorIs(t, f.eng.CancelStreamerIdentity(ctx, f.platform, w1, "bob"), domain.ErrInvalidStreamerID)
	require.NoError(t, f.eng.CancelStreamerIdentity(ctx, f.platform, w1, "alice"))

	_, err = f.store.IdentityByWallet(ctx, w1)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = f.eng.RegisterStreamerIdentity(ctx, f.platform, w2, "alice")
	require.NoError(t, err)

	assert.Contains(t, f.pub.types(), events.IdentityCancelled)
}

func TestReassignFeeRecipient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := "old-id"
	mint := f.setup(t, testParams(), &id)
	newOwner := solana.NewWallet().PublicKey()

	_, err := f.eng.ReassignFeeRecipient(ctx, f.authority, mint, newOwner, nil)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	ev, err := f.eng.ReassignFeeRecipient(ctx, f.platform, mint, newOwner, nil)
	require.NoError(t, err)
	assert.Equal(t, f.creator, ev.OldCreator)
	require.NotNil(t, ev.OldStreamerID)
	assert.Equal(t, "old-id", *ev.OldStreamerID)
	assert.Nil(t, ev.NewStreamerID)

	c, err := f.eng.Curve(ctx, mint)
	require.NoError(t, err)
	assert.Equal(t, newOwner, c.CreatorWallet)
	_, ok := c.StreamerID()
	assert.False(t, ok)

	_, err = f.eng.Buy(ctx, solana.NewWallet().PublicKey(), mint, 1_000, math.MaxUint64)
	require.NoError(t, err)
	_, err = f.eng.ClaimCreatorFees(ctx, f.creator, mint)
	assert.ErrorIs(t, err, domain.ErrUnauthorizedCreator)
	_, err = f.eng.ClaimCreatorFees(ctx, newOwner, mint)
	assert.NoError(t, err)
}

func TestMintMismatchRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mint := f.setup(t, testParams(), nil)

	c, err := f.store.Curve(ctx, mint)
	require.NoError(t, err)
	c.Address = solana.NewWallet().PublicKey()
	require.NoError(t, f.store.Commit(ctx, &storage.Changes{Curves: []*domain.Curve{c}}))

	_, err = f.eng.Buy(ctx, solana.NewWallet().PublicKey(), mint, 1_000, math.MaxUint64)
	assert.ErrorIs(t, err, domain.ErrMintDoesNotMatchBondingCurve)
}

func TestSupplyInvariantWithBuybacks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := testParams()
	p.BuybacksEnabled = true
	p.FeeBasisPoints = 500
	p.Buyback.MaxBurnPercentageBps = 300
	mint := f.setup(t, p, nil)

	checkSupply := func(step string) {
		t.Helper()
		c, err := f.eng.Curve(ctx, mint)
		require.NoError(t, err)
		require.Equal(t, c.TokenTotalSupply, c.CirculatingSupply+c.TotalBurnedSupply, step)
		require.LessOrEqual(t, buyback.BurnBps(c), uint64(p.Buyback.MaxBurnPercentageBps), step)
		require.LessOrEqual(t, c.TotalBurnedSupply, c.TokenTotalSupply*uint64(p.Buyback.MaxBurnPercentageBps)/10_000, step)
	}

	traders := []solana.PublicKey{
		solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(),
	}
	for round := 0; round < 20; round++ {
		for i, u := range traders {
			_, err := f.eng.Buy(ctx, u, mint, 5_000, math.MaxUint64)
			require.NoError(t, err)
			checkSupply(fmt.Sprintf("round %d buy %d", round, i))
		}
		for i, u := range traders {
			h, err := f.eng.Holder(ctx, mint, u)
			require.NoError(t, err)
			if h.Balance == 0 {
				continue
			}
			_, err = f.eng.Sell(ctx, u, mint, h.Balance/2+1, 0)
			require.NoError(t, err)
			checkSupply(fmt.Sprintf("round %d sell %d", round, i))
		}
	}
}

func TestConcurrentBuysAcrossMints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mintA := f.setup(t, testParams(), nil)

	mintB := solana.NewWallet().PublicKey()
	_, err := f.eng.Launch(ctx, f.creator, LaunchParams{Mint: mintB})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		for _, mint := range []solana.PublicKey{mintA, mintB} {
			wg.Add(1)
			go func(mint solana.PublicKey) {
				defer wg.Done()
				_, err := f.eng.Buy(ctx, solana.NewWallet().PublicKey(), mint, 1_000, math.MaxUint64)
				assert.NoError(t, err)
			}(mint)
		}
	}
	wg.Wait()

	for _, mint := range []solana.PublicKey{mintA, mintB} {
		c, err := f.eng.Curve(ctx, mint)
		require.NoError(t, err)
		assert.Equal(t, uint64(800_000-8*1_000), c.RealTokenReserves)
		assert.Equal(t, uint64(8), c.TotalBuyers)
	}
}

func TestEstimateTokensForSol(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mint := f.setup(t, testParams(), nil)

	est, err := f.eng.EstimateTokensForSol(ctx, mint, 1_000_000)
	require.NoError(t, err)
	c, err := f.eng.Curve(ctx, mint)
	require.NoError(t, err)
	assert.Equal(t, curve.EstimateTokensForSol(c, 1_000_000, 100), est)
}
