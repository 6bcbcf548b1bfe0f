// =============================================
// File: internal/scenario/scenario.go
// =============================================
package scenario

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Op is a replayable engine operation.
type Op string

const (
	OpBuy                  Op = "buy"
	OpSell                 Op = "sell"
	OpClaimCreatorFees     Op = "claim_creator_fees"
	OpClaimEarlyBird       Op = "claim_early_bird"
	OpWithdraw             Op = "withdraw"
	OpReassignFeeRecipient Op = "reassign_fee_recipient"
	OpRegisterIdentity     Op = "register_identity"
	OpCancelIdentity       Op = "cancel_identity"
)

// Reserved actor names resolved from configuration.
const (
	ActorGenesisAuthority  = "authority"
	ActorWithdrawAuthority = "withdraw_authority"
	ActorPlatformAuthority = "platform_authority"
)

// Launch creates a curve before any step runs.
type Launch struct {
	Mint       string  `yaml:"mint"`
	Creator    string  `yaml:"creator"`
	Name       string  `yaml:"name"`
	Symbol     string  `yaml:"symbol"`
	URI        string  `yaml:"uri"`
	StreamerID *string `yaml:"streamer_id"`
}

// Step is one operation. Amount and Limit mean tokens and the slippage bound
// for trades; Target is the wallet acted upon by identity and reassign steps.
type Step struct {
	Op         Op      `yaml:"op"`
	Actor      string  `yaml:"actor"`
	Mint       string  `yaml:"mint"`
	Amount     uint64  `yaml:"amount"`
	Limit      uint64  `yaml:"limit"`
	Target     string  `yaml:"target"`
	StreamerID *string `yaml:"streamer_id"`
}

// Scenario is a YAML replay file. Actors and Mints map names to base58 keys;
// an empty key gets a fresh random one.
type Scenario struct {
	Name     string            `yaml:"name"`
	Actors   map[string]string `yaml:"actors"`
	Mints    map[string]string `yaml:"mints"`
	Launches []Launch          `yaml:"launches"`
	Steps    []Step            `yaml:"steps"`

	keys map[string]solana.PublicKey
}

// IsGlobal reports whether the step touches no single curve.
func (s Step) IsGlobal() bool {
	return s.Op == OpRegisterIdentity || s.Op == OpCancelIdentity
}

// Validate checks the step fields its op needs.
func (s Step) Validate() error {
	if s.Actor == "" {
		return fmt.Errorf("actor cannot be empty")
	}
	switch s.Op {
	case OpBuy, OpSell, OpClaimCreatorFees, OpClaimEarlyBird, OpWithdraw:
		if s.Mint == "" {
			return fmt.Errorf("mint cannot be empty")
		}
	case OpReassignFeeRecipient:
		if s.Mint == "" || s.Target == "" {
			return fmt.Errorf("mint and target are required")
		}
	case OpRegisterIdentity, OpCancelIdentity:
		if s.Target == "" || s.StreamerID == nil {
			return fmt.Errorf("target and streamer_id are required")
		}
	default:
		return fmt.Errorf("unsupported operation: %q", s.Op)
	}
	return nil
}

// Loader reads scenario files.
type Loader struct {
	logger *zap.Logger
}

func NewLoader(logger *zap.Logger) *Loader {
	return &Loader{logger: logger.Named("scenario")}
}

// Load reads path and validates every launch and step. One invalid step
// fails the whole scenario.
func (l *Loader) Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return l.Parse(data)
}

// Parse decodes and validates YAML scenario data.
func (l *Loader) Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(sc.Steps) == 0 && len(sc.Launches) == 0 {
		return nil, fmt.Errorf("no launches or steps found in scenario")
	}

	for i, ln := range sc.Launches {
		if ln.Mint == "" || ln.Creator == "" {
			return nil, fmt.Errorf("launch %d: mint and creator are required", i)
		}
	}
	for i, st := range sc.Steps {
		if err := st.Validate(); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, st.Op, err)
		}
	}

	l.logger.Info("Loaded scenario",
		zap.String("name", sc.Name),
		zap.Int("launches", len(sc.Launches)),
		zap.Int("steps", len(sc.Steps)))
	return &sc, nil
}

// Bind assigns keys to every actor and mint name. reserved supplies the
// configured authorities; names used in launches or steps but not declared
// get random keys.
func (sc *Scenario) Bind(reserved map[string]solana.PublicKey) error {
	sc.keys = make(map[string]solana.PublicKey)
	for name, key := range reserved {
		sc.keys[name] = key
	}

	declare := func(kind string, names map[string]string) error {
		for name, raw := range names {
			if _, ok := reserved[name]; ok {
				return fmt.Errorf("%s %q shadows a reserved name", kind, name)
			}
			if raw == "" {
				sc.keys[name] = solana.NewWallet().PublicKey()
				continue
			}
			key, err := solana.PublicKeyFromBase58(raw)
			if err != nil {
				return fmt.Errorf("invalid key for %s %q: %w", kind, name, err)
			}
			sc.keys[name] = key
		}
		return nil
	}
	if err := declare("actor", sc.Actors); err != nil {
		return err
	}
	if err := declare("mint", sc.Mints); err != nil {
		return err
	}

	implicit := func(name string) {
		if name == "" {
			return
		}
		if _, ok := sc.keys[name]; !ok {
			sc.keys[name] = solana.NewWallet().PublicKey()
		}
	}
	for _, ln := range sc.Launches {
		implicit(ln.Mint)
		implicit(ln.Creator)
	}
	for _, st := range sc.Steps {
		implicit(st.Actor)
		implicit(st.Mint)
		implicit(st.Target)
	}
	return nil
}

// Key returns the bound key for name. Bind must have been called.
func (sc *Scenario) Key(name string) solana.PublicKey {
	return sc.keys[name]
}

// Segments splits steps into runs of curve steps separated by global steps.
// Each returned segment is either a single global step or curve steps that
// may be grouped by mint.
func (sc *Scenario) Segments() [][]Step {
	var (
		out     [][]Step
		current []Step
	)
	for _, st := range sc.Steps {
		if st.IsGlobal() {
			if len(current) > 0 {
				out = append(out, current)
				current = nil
			}
			out = append(out, []Step{st})
			continue
		}
		current = append(current, st)
	}
	if len(current) > 0 {
		out = append(out, current)
	}
	return out
}

// GroupByMint keeps first-seen mint order and step order within a mint.
func GroupByMint(steps []Step) (mints []string, groups map[string][]Step) {
	groups = make(map[string][]Step)
	for _, st := range steps {
		if _, ok := groups[st.Mint]; !ok {
			mints = append(mints, st.Mint)
		}
		groups[st.Mint] = append(groups[st.Mint], st)
	}
	return mints, groups
}
