// internal/runner/replay.go
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/yoinknow/curve-engine/internal/domain"
	"github.com/yoinknow/curve-engine/internal/engine"
	"github.com/yoinknow/curve-engine/internal/scenario"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Report counts replay outcomes. Failed steps do not stop the replay.
type Report struct {
	Executed int
	Failed   int
	ByKind   map[domain.ErrorKind]int
	Duration time.Duration

	mu sync.Mutex
}

func (r *Report) record(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Executed++
	if err != nil {
		r.Failed++
		r.ByKind[domain.KindOf(err)]++
	}
}

// Replay runs sc against the engine. Launches run first and in order; a
// failed launch aborts. Steps run segment by segment: identity steps alone,
// curve steps in parallel across mints and in file order within a mint.
func (r *Runner) Replay(ctx context.Context, sc *scenario.Scenario) (*Report, error) {
	start := time.Now()
	if err := sc.Bind(map[string]solana.PublicKey{
		scenario.ActorGenesisAuthority:  r.keys.GenesisAuthority,
		scenario.ActorWithdrawAuthority: r.keys.WithdrawAuthority,
		scenario.ActorPlatformAuthority: r.keys.PlatformAuthority,
	}); err != nil {
		return nil, err
	}

	for i, ln := range sc.Launches {
		_, err := r.engine.Launch(ctx, sc.Key(ln.Creator), engine.LaunchParams{
			Mint:       sc.Key(ln.Mint),
			Name:       ln.Name,
			Symbol:     ln.Symbol,
			URI:        ln.URI,
			StreamerID: ln.StreamerID,
		})
		if err != nil {
			return nil, fmt.Errorf("launch %d (%s): %w", i, ln.Mint, err)
		}
	}

	report := &Report{ByKind: make(map[domain.ErrorKind]int)}
	for _, segment := range sc.Segments() {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if len(segment) == 1 && segment[0].IsGlobal() {
			report.record(r.runStep(ctx, sc, segment[0]))
			continue
		}

		mints, groups := scenario.GroupByMint(segment)
		g, gctx := errgroup.WithContext(ctx)
		for _, name := range mints {
			steps := groups[name]
			g.Go(func() error {
				for _, st := range steps {
					if err := gctx.Err(); err != nil {
						return err
					}
					report.record(r.runStep(gctx, sc, st))
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return report, err
		}
	}

	report.Duration = time.Since(start)
	return report, nil
}

func (r *Runner) runStep(ctx context.Context, sc *scenario.Scenario, st scenario.Step) error {
	actor := sc.Key(st.Actor)
	mint := sc.Key(st.Mint)

	var err error
	switch st.Op {
	case scenario.OpBuy:
		_, err = r.engine.Buy(ctx, actor, mint, st.Amount, st.Limit)
	case scenario.OpSell:
		_, err = r.engine.Sell(ctx, actor, mint, st.Amount, st.Limit)
	case scenario.OpClaimCreatorFees:
		_, err = r.engine.ClaimCreatorFees(ctx, actor, mint)
	case scenario.OpClaimEarlyBird:
		_, err = r.engine.ClaimEarlyBirdReward(ctx, actor, mint)
	case scenario.OpWithdraw:
		_, err = r.engine.Withdraw(ctx, actor, mint)
	case scenario.OpReassignFeeRecipient:
		_, err = r.engine.ReassignFeeRecipient(ctx, actor, mint, sc.Key(st.Target), st.StreamerID)
	case scenario.OpRegisterIdentity:
		_, err = r.engine.RegisterStreamerIdentity(ctx, actor, sc.Key(st.Target), *st.StreamerID)
	case scenario.OpCancelIdentity:
		err = r.engine.CancelStreamerIdentity(ctx, actor, sc.Key(st.Target), *st.StreamerID)
	default:
		err = fmt.Errorf("unsupported operation: %q", st.Op)
	}

	if err != nil {
		r.logger.Warn("Scenario step failed",
			zap.String("op", string(st.Op)),
			zap.String("actor", st.Actor),
			zap.String("mint", st.Mint),
			zap.String("kind", string(domain.KindOf(err))),
			zap.Error(err))
	}
	return err
}
