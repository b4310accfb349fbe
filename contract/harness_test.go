package contract

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"commit-reveal-wager/sdk"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	carol = common.HexToAddress("0x00000000000000000000000000000000000ca201")
)

const (
	testStake   = 1000
	testFunding = 10_000
	t0          = 1_700_000_000
)

func testConfig() Config {
	cfg := DefaultConfig
	cfg.Stake = "1000"
	return cfg
}

func nonceOf(s string) [32]byte {
	var n [32]byte
	copy(n[:], s)
	return n
}

type harness struct {
	t     *testing.T
	store sdk.Store
	ctl   *Controller
}

// newHarness opens a controller on a fresh memory store with alice, bob
// and carol each holding testFunding.
func newHarness(t *testing.T, cfg Config, opts ...Option) *harness {
	t.Helper()
	store := sdk.NewMemStore()
	ctl, err := NewController(store, cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(ctl.Close)
	h := &harness{t: t, store: store, ctl: ctl}
	h.fund(alice, bob, carol)
	return h
}

func (h *harness) fund(addrs ...common.Address) {
	h.t.Helper()
	for _, a := range addrs {
		h.mint(a, testFunding)
	}
}

func (h *harness) mint(addr common.Address, amount uint64) {
	h.t.Helper()
	tx, err := h.store.Begin()
	require.NoError(h.t, err)
	defer tx.Discard()
	require.NoError(h.t, sdk.NewLedger(tx).Mint(addr, uint256.NewInt(amount)))
	require.NoError(h.t, tx.Commit())
}

func (h *harness) balance(addr common.Address) uint64 {
	h.t.Helper()
	tx, err := h.store.Begin()
	require.NoError(h.t, err)
	defer tx.Discard()
	bal, err := sdk.NewLedger(tx).BalanceOf(addr)
	require.NoError(h.t, err)
	return bal.Uint64()
}

func (h *harness) pot() uint64 {
	h.t.Helper()
	pot, err := h.ctl.Pot()
	require.NoError(h.t, err)
	return pot.Uint64()
}

func (h *harness) phase() Phase {
	h.t.Helper()
	p, err := h.ctl.Phase()
	require.NoError(h.t, err)
	return p
}

func (h *harness) snapshot() *Snapshot {
	h.t.Helper()
	snap, err := h.ctl.Snapshot()
	require.NoError(h.t, err)
	return snap
}

func env(sender common.Address, value uint64, ts uint64) sdk.Env {
	return sdk.NewEnv(sender, uint256.NewInt(value), ts)
}

func (h *harness) register(who common.Address, ts uint64) *Receipt {
	h.t.Helper()
	r, err := h.ctl.Register(env(who, testStake, ts))
	require.NoError(h.t, err)
	return r
}

func (h *harness) commit(who common.Address, choice uint8, nonce string, ts uint64) *Receipt {
	h.t.Helper()
	r, err := h.ctl.Commit(env(who, 0, ts), CommitmentHash(choice, nonceOf(nonce)))
	require.NoError(h.t, err)
	return r
}

func (h *harness) reveal(who common.Address, choice uint8, nonce string, ts uint64) *Receipt {
	h.t.Helper()
	r, err := h.ctl.Reveal(env(who, 0, ts), choice, nonceOf(nonce))
	require.NoError(h.t, err)
	return r
}

// toRevealOpen registers alice then bob and has both commit, alice first.
func (h *harness) toRevealOpen(aliceChoice, bobChoice uint8) {
	h.t.Helper()
	h.register(alice, t0)
	h.register(bob, t0)
	h.commit(alice, aliceChoice, "alice-secret", t0)
	h.commit(bob, bobChoice, "bob-secret", t0+10)
	require.Equal(h.t, PhaseRevealOpen, h.phase())
}

// expectRejected runs fn and checks that it failed with want and left
// session state and balances untouched.
func (h *harness) expectRejected(want error, fn func() (*Receipt, error)) {
	h.t.Helper()
	before := h.snapshot()
	balances := []uint64{h.balance(alice), h.balance(bob), h.balance(carol)}

	r, err := fn()
	require.ErrorIs(h.t, err, want)
	require.Nil(h.t, r)

	require.Equal(h.t, before, h.snapshot())
	require.Equal(h.t, balances, []uint64{h.balance(alice), h.balance(bob), h.balance(carol)})
}

func eventTypes(r *Receipt) []string {
	out := make([]string, 0, len(r.Events))
	for _, ev := range r.Events {
		out = append(out, ev.Type)
	}
	return out
}
