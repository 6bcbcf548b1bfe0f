package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const sample = `
name: smoke
actors:
  alice: ""
mints:
  horse: ""
launches:
  - mint: horse
    creator: bob
    name: Horse
    symbol: HRS
steps:
  - {op: buy, actor: alice, mint: horse, amount: 1000, limit: 40000}
  - {op: buy, actor: carol, mint: cat, amount: 10, limit: 500}
  - {op: register_identity, actor: platform_authority, target: bob, streamer_id: bobtv}
  - {op: sell, actor: alice, mint: horse, amount: 1000}
  - {op: claim_creator_fees, actor: bob, mint: horse}
`

func TestParseAndBind(t *testing.T) {
	sc, err := NewLoader(zaptest.NewLogger(t)).Parse([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, "smoke", sc.Name)
	require.Len(t, sc.Steps, 5)
	assert.Equal(t, OpBuy, sc.Steps[0].Op)
	assert.Equal(t, uint64(40_000), sc.Steps[0].Limit)
	require.NotNil(t, sc.Steps[2].StreamerID)
	assert.Equal(t, "bobtv", *sc.Steps[2].StreamerID)

	platform := solana.NewWallet().PublicKey()
	require.NoError(t, sc.Bind(map[string]solana.PublicKey{ActorPlatformAuthority: platform}))
	assert.Equal(t, platform, sc.Key(ActorPlatformAuthority))
	for _, name := range []string{"alice", "bob", "carol", "horse", "cat"} {
		assert.False(t, sc.Key(name).IsZero(), name)
	}
	assert.NotEqual(t, sc.Key("alice"), sc.Key("bob"))
}

func TestSegmentsAndGrouping(t *testing.T) {
	sc, err := NewLoader(zaptest.NewLogger(t)).Parse([]byte(sample))
	require.NoError(t, err)

	segs := sc.Segments()
	require.Len(t, segs, 3)
	assert.Len(t, segs[0], 2)
	assert.True(t, segs[1][0].IsGlobal())
	assert.Len(t, segs[2], 2)

	mints, groups := GroupByMint(segs[0])
	assert.Equal(t, []string{"horse", "cat"}, mints)
	assert.Len(t, groups["horse"], 1)

	_, groups = GroupByMint(segs[2])
	require.Len(t, groups["horse"], 2)
	assert.Equal(t, OpSell, groups["horse"][0].Op)
	assert.Equal(t, OpClaimCreatorFees, groups["horse"][1].Op)
}

func TestParseRejectsInvalidSteps(t *testing.T) {
	loader := NewLoader(zaptest.NewLogger(t))
	tests := map[string]string{
		"unknown op":       "steps:\n  - {op: mint, actor: a, mint: m}\n",
		"missing actor":    "steps:\n  - {op: buy, mint: m}\n",
		"missing mint":     "steps:\n  - {op: sell, actor: a}\n",
		"identity no id":   "steps:\n  - {op: register_identity, actor: a, target: b}\n",
		"reassign no dest": "steps:\n  - {op: reassign_fee_recipient, actor: a, mint: m}\n",
		"launch no mint":   "launches:\n  - {creator: a}\n",
		"empty":            "name: nothing\n",
		"bad yaml":         "steps: [",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := loader.Parse([]byte(body))
			assert.Error(t, err)
		})
	}
}

func TestBindRejectsBadKeys(t *testing.T) {
	sc := &Scenario{Actors: map[string]string{"alice": "not-base58"}}
	assert.Error(t, sc.Bind(nil))

	sc = &Scenario{Actors: map[string]string{ActorPlatformAuthority: ""}}
	assert.Error(t, sc.Bind(map[string]solana.PublicKey{ActorPlatformAuthority: solana.NewWallet().PublicKey()}))
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	sc, err := NewLoader(zaptest.NewLogger(t)).Load(path)
	require.NoError(t, err)
	assert.Len(t, sc.Launches, 1)

	_, err = NewLoader(zaptest.NewLogger(t)).Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
