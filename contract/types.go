package contract

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Phase is the progress counter of the single game session.
// It only moves forward within a game and drops back to PhaseEmpty on reset.
type Phase uint8

const (
	PhaseEmpty      Phase = 0 // no registrants
	PhaseOnePlayer  Phase = 1 // one registrant
	PhaseCommitOpen Phase = 2 // two registrants, no commitments
	PhaseOneCommit  Phase = 3 // one commitment received
	PhaseRevealOpen Phase = 4 // both committed, no reveals
	PhaseOneReveal  Phase = 5 // one reveal received
)

func (p Phase) Valid() bool { return p <= PhaseOneReveal }

func (p Phase) String() string {
	return p.Stage().String()
}

// StageKind names the three halves of a game.
type StageKind uint8

const (
	AwaitingPlayers StageKind = iota
	AwaitingCommitments
	AwaitingReveals
)

func (k StageKind) String() string {
	switch k {
	case AwaitingPlayers:
		return "AwaitingPlayers"
	case AwaitingCommitments:
		return "AwaitingCommitments"
	case AwaitingReveals:
		return "AwaitingReveals"
	}
	return "Unknown"
}

// Stage is the named view of a Phase: which step the game waits on and how
// many of the two actions for that step have already arrived.
type Stage struct {
	Kind     StageKind `json:"kind"`
	Received int       `json:"received"`
}

func (s Stage) String() string { return fmt.Sprintf("%s(%d)", s.Kind, s.Received) }

func (p Phase) Stage() Stage {
	switch p {
	case PhaseEmpty, PhaseOnePlayer:
		return Stage{Kind: AwaitingPlayers, Received: int(p)}
	case PhaseCommitOpen, PhaseOneCommit:
		return Stage{Kind: AwaitingCommitments, Received: int(p - PhaseCommitOpen)}
	default:
		return Stage{Kind: AwaitingReveals, Received: int(p - PhaseRevealOpen)}
	}
}

// Reveal is a disclosed choice.
type Reveal struct {
	Player common.Address `json:"player"`
	Choice uint8          `json:"choice"`
}

// Session is the persisted state of the current game. The zero value is a
// freshly reset session.
//
// Fields are indexed by player slot: slot 0 is the first registrant.
type Session struct {
	Phase          Phase
	Players        [2]common.Address
	Payments       [2]uint64
	Commitments    [2]common.Hash
	StartTime      uint64 // unix seconds of the first commitment, 0 when inactive
	FirstCommitter common.Address
	FirstReveal    *Reveal
}

// slotOf returns the player slot held by addr, or -1.
func (s *Session) slotOf(addr common.Address) int {
	if addr == (common.Address{}) {
		return -1
	}
	for i, p := range s.Players {
		if p == addr {
			return i
		}
	}
	return -1
}

// reset clears everything a finished game leaves behind.
func (s *Session) reset() {
	*s = Session{}
}

// OutcomeKind says how a game ended.
type OutcomeKind uint8

const (
	OutcomeResolved OutcomeKind = iota + 1
	OutcomeAbandoned
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeResolved:
		return "resolved"
	case OutcomeAbandoned:
		return "abandoned"
	}
	return "unknown"
}

// Outcome describes a settled game. Reveals holds the disclosed choices in
// reveal order and is empty for a commit-phase forfeiture.
type Outcome struct {
	Kind      OutcomeKind
	Winner    common.Address
	Players   [2]common.Address
	Reveals   []Reveal
	Pot       *uint256.Int
	Reason    string
	SettledAt uint64
	TxID      string
}
