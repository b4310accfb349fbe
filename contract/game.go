package contract

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"commit-reveal-wager/sdk"
)

// ---------- State keys ----------

const (
	sessionKey = "s:session"
	metaKey    = "s:meta"
)

// codecVersion increments when the storage encoding changes.
const codecVersion uint8 = 1

// ---------- Session (binary state codec) ----------

// loadSession reads the session from state. A missing record is a fresh
// session.
func loadSession(tx sdk.Tx) (*Session, error) {
	raw, err := tx.Get(sessionKey)
	if err != nil {
		return nil, errors.Wrap(err, "reading session")
	}
	if len(raw) == 0 {
		return &Session{}, nil
	}
	return decodeSession(raw)
}

// saveSession writes the session back. A reset session is stored as an
// absent key, so reset leaves no residue in state.
func saveSession(tx sdk.Tx, s *Session) error {
	if s.Phase == PhaseEmpty {
		return tx.Delete(sessionKey)
	}
	return tx.Set(sessionKey, encodeSession(s))
}

// encodeSession serializes the session into a compact byte slice.
//
// Layout:
//
//	version | phase | 2 x (player | payments | commitment) | startTime | firstCommitter | reveal?
//
// The optional first reveal is stored as flag + player + choice.
func encodeSession(s *Session) []byte {
	out := make([]byte, 0, 2+2*(common.AddressLength+8+common.HashLength)+8+common.AddressLength+1+common.AddressLength+1)

	w8 := func(x byte) { out = append(out, x) }
	w64 := func(x uint64) {
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], x)
		out = append(out, tmp[:]...)
	}

	w8(codecVersion)
	w8(byte(s.Phase))
	for i := range s.Players {
		out = append(out, s.Players[i].Bytes()...)
		w64(s.Payments[i])
		out = append(out, s.Commitments[i].Bytes()...)
	}
	w64(s.StartTime)
	out = append(out, s.FirstCommitter.Bytes()...)

	if s.FirstReveal != nil {
		w8(1)
		out = append(out, s.FirstReveal.Player.Bytes()...)
		w8(s.FirstReveal.Choice)
	} else {
		w8(0)
	}
	return out
}

// decodeSession reconstructs a session, rejecting unknown versions and
// trailing bytes.
func decodeSession(b []byte) (*Session, error) {
	r := &rd{b: b}
	if v := r.u8(); r.err == nil && v != codecVersion {
		return nil, errors.Wrapf(ErrCorruptState, "unsupported session version %d", v)
	}
	s := &Session{}
	s.Phase = Phase(r.u8())
	for i := range s.Players {
		s.Players[i] = common.BytesToAddress(r.bytes(common.AddressLength))
		s.Payments[i] = r.u64()
		s.Commitments[i] = common.BytesToHash(r.bytes(common.HashLength))
	}
	s.StartTime = r.u64()
	s.FirstCommitter = common.BytesToAddress(r.bytes(common.AddressLength))
	if r.u8() == 1 {
		s.FirstReveal = &Reveal{
			Player: common.BytesToAddress(r.bytes(common.AddressLength)),
			Choice: r.u8(),
		}
	}
	r.mustEnd()
	if r.err != nil {
		return nil, r.err
	}
	if !s.Phase.Valid() {
		return nil, errors.Wrapf(ErrCorruptState, "phase %d out of range", s.Phase)
	}
	return s, nil
}

// ---------- Meta (immutable) ----------

// bindStake records the stake on first use and afterwards insists that every
// controller opened on this state uses the same one.
func bindStake(tx sdk.Tx, stake *uint256.Int) error {
	raw, err := tx.Get(metaKey)
	if err != nil {
		return errors.Wrap(err, "reading meta")
	}
	if len(raw) == 0 {
		b := stake.Bytes32()
		return tx.Set(metaKey, append([]byte{codecVersion}, b[:]...))
	}
	if len(raw) != 33 || raw[0] != codecVersion {
		return errors.Wrap(ErrCorruptState, "meta record")
	}
	stored := new(uint256.Int).SetBytes(raw[1:])
	if !stored.Eq(stake) {
		return errors.Wrapf(ErrStakeMismatch, "state was created with stake %s, configured %s", stored.ToBig(), stake.ToBig())
	}
	return nil
}

// ---------- Reader ----------

// rd is a binary reader over a byte slice. The first overflow is sticky:
// later reads return zero values and err keeps the original failure.
type rd struct {
	b   []byte
	i   int
	err error
}

func (r *rd) need(n int) bool {
	if r.err != nil {
		return false
	}
	if r.i+n > len(r.b) {
		r.err = errors.Wrap(ErrCorruptState, "decode overflow")
		return false
	}
	return true
}

func (r *rd) u8() byte {
	if !r.need(1) {
		return 0
	}
	v := r.b[r.i]
	r.i++
	return v
}

func (r *rd) u64() uint64 {
	if !r.need(8) {
		return 0
	}
	v := binary.BigEndian.Uint64(r.b[r.i : r.i+8])
	r.i += 8
	return v
}

func (r *rd) bytes(n int) []byte {
	if !r.need(n) {
		return nil
	}
	v := r.b[r.i : r.i+n]
	r.i += n
	return v
}

func (r *rd) mustEnd() {
	if r.err == nil && r.i != len(r.b) {
		r.err = errors.Wrap(ErrCorruptState, "trailing bytes")
	}
}
