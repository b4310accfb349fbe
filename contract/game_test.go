package contract

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"commit-reveal-wager/sdk"
)

func sampleSession() *Session {
	return &Session{
		Phase:          PhaseOneReveal,
		Players:        [2]common.Address{alice, bob},
		Payments:       [2]uint64{2, 2},
		Commitments:    [2]common.Hash{{}, CommitmentHash(1, nonceOf("bob-secret"))},
		StartTime:      t0,
		FirstCommitter: bob,
		FirstReveal:    &Reveal{Player: alice, Choice: 0},
	}
}

func TestSessionCodecRoundTrip(t *testing.T) {
	for name, s := range map[string]*Session{
		"full":       sampleSession(),
		"one player": {Phase: PhaseOnePlayer, Players: [2]common.Address{alice}, Payments: [2]uint64{1}},
		"empty":      {},
		"no reveal":  {Phase: PhaseRevealOpen, Players: [2]common.Address{alice, bob}, StartTime: 1},
	} {
		t.Run(name, func(t *testing.T) {
			got, err := decodeSession(encodeSession(s))
			require.NoError(t, err)
			require.Equal(t, s, got)
		})
	}
}

func TestSessionCodecRejectsCorruption(t *testing.T) {
	good := encodeSession(sampleSession())

	badVersion := append([]byte{}, good...)
	badVersion[0] = codecVersion + 1

	badPhase := append([]byte{}, good...)
	badPhase[1] = 9

	for name, raw := range map[string][]byte{
		"version":   badVersion,
		"phase":     badPhase,
		"truncated": good[:len(good)-1],
		"trailing":  append(append([]byte{}, good...), 0),
		"one byte":  {codecVersion},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := decodeSession(raw)
			require.ErrorIs(t, err, ErrCorruptState)
		})
	}
}

func TestResetSessionLeavesNoState(t *testing.T) {
	store := sdk.NewMemStore()
	tx, err := store.Begin()
	require.NoError(t, err)
	require.NoError(t, saveSession(tx, sampleSession()))
	require.NoError(t, tx.Commit())
	require.Equal(t, 1, store.Len())

	tx, err = store.Begin()
	require.NoError(t, err)
	s, err := loadSession(tx)
	require.NoError(t, err)
	s.reset()
	require.NoError(t, saveSession(tx, s))
	require.NoError(t, tx.Commit())
	require.Zero(t, store.Len())
}

func TestControllerRefusesCorruptSession(t *testing.T) {
	store := sdk.NewMemStore()
	tx, err := store.Begin()
	require.NoError(t, err)
	require.NoError(t, tx.Set(sessionKey, []byte{codecVersion, 3}))
	require.NoError(t, tx.Commit())

	_, err = NewController(store, testConfig())
	require.ErrorIs(t, err, ErrCorruptState)
}

func TestStatePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	store, err := sdk.OpenPebbleStore(dir)
	require.NoError(t, err)
	ctl, err := NewController(store, testConfig())
	require.NoError(t, err)
	h := &harness{t: t, store: store, ctl: ctl}
	h.fund(alice, bob)
	h.register(alice, t0)
	h.register(bob, t0)
	h.commit(alice, 1, "alice-secret", t0+3)
	require.NoError(t, store.Close())

	store, err = sdk.OpenPebbleStore(dir)
	require.NoError(t, err)
	defer store.Close()
	ctl, err = NewController(store, testConfig())
	require.NoError(t, err)
	h = &harness{t: t, store: store, ctl: ctl}

	require.Equal(t, PhaseOneCommit, h.phase())
	first, err := ctl.FirstCommitter()
	require.NoError(t, err)
	require.Equal(t, alice, first)
	require.EqualValues(t, 2*testStake, h.pot())

	h.commit(bob, 1, "bob-secret", t0+4)
	h.reveal(alice, 1, "alice-secret", t0+5)
	h.reveal(bob, 1, "bob-secret", t0+6)
	require.EqualValues(t, testFunding+testStake, h.balance(alice))
}

// ---------- Commitment ----------

func TestCommitmentHashPacking(t *testing.T) {
	nonce := nonceOf("secret")
	packed := append([]byte{1}, nonce[:]...)
	require.Len(t, packed, 33)
	require.Equal(t, crypto.Keccak256Hash(packed), CommitmentHash(1, nonce))
	require.NotEqual(t, CommitmentHash(0, nonce), CommitmentHash(1, nonce))
}

// Known answers for keccak256(abi.encodePacked(uint8 choice, bytes32 "secret")).
func TestCommitmentHashKnownAnswers(t *testing.T) {
	nonce := nonceOf("secret")
	require.Equal(t,
		common.HexToHash("0x9f2ddddd5f78e997c4749a91f272e7c6a2cf6e8f4df0d6f1b6d349b5f106ca1a"),
		CommitmentHash(1, nonce))
	require.Equal(t,
		common.HexToHash("0x04f43fc02686655c3d5c933ce257240be57e6b8f79fa901bb96bd4c823bfe156"),
		CommitmentHash(0, nonce))
}

func TestParseNonce(t *testing.T) {
	n, err := ParseNonce("secret")
	require.NoError(t, err)
	require.Equal(t, nonceOf("secret"), n)

	hexNonce := "0x" + common.Bytes2Hex(append([]byte("secret"), make([]byte, 26)...))
	n, err = ParseNonce(hexNonce)
	require.NoError(t, err)
	require.Equal(t, nonceOf("secret"), n)

	_, err = ParseNonce("0x1234")
	require.ErrorIs(t, err, ErrMalformedPayload)
	_, err = ParseNonce("this string is much too long for bytes32")
	require.ErrorIs(t, err, ErrMalformedPayload)

	n, err = ParseNonce("")
	require.NoError(t, err)
	require.Equal(t, [32]byte{}, n)
}

func TestParseCommitment(t *testing.T) {
	h := CommitmentHash(0, nonceOf("x"))
	got, err := ParseCommitment(h.Hex())
	require.NoError(t, err)
	require.Equal(t, h, got)

	_, err = ParseCommitment("0xabcd")
	require.ErrorIs(t, err, ErrMalformedPayload)
	_, err = ParseCommitment("nothex")
	require.ErrorIs(t, err, ErrMalformedPayload)
}

// ---------- Policy ----------

func TestBuiltinPolicies(t *testing.T) {
	players := [2]common.Address{alice, bob}
	cases := []struct {
		choices     [2]uint8
		matching    common.Address
		mismatching common.Address
	}{
		{[2]uint8{0, 0}, alice, bob},
		{[2]uint8{1, 1}, alice, bob},
		{[2]uint8{0, 1}, bob, alice},
		{[2]uint8{1, 0}, bob, alice},
	}
	for _, c := range cases {
		require.Equal(t, c.matching, MatchingPolicy.Winner(players, c.choices))
		require.Equal(t, c.mismatching, MismatchingPolicy.Winner(players, c.choices))
	}

	_, err := PolicyByName("coinflip")
	require.Error(t, err)
}
