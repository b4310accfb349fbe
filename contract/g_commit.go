package contract

import (
	"github.com/ethereum/go-ethereum/common"

	"commit-reveal-wager/sdk"
)

// Commit records the caller's hidden choice. A second commitment arriving
// after the deadline forfeits the pot to the first committer instead.
func (c *Controller) Commit(env sdk.Env, commitment common.Hash) (*Receipt, error) {
	return c.call(env, func(cc *callCtx) error {
		return c.commit(cc, commitment)
	})
}

func (c *Controller) commit(cc *callCtx, commitment common.Hash) error {
	s := cc.session
	caller := cc.env.Sender
	now := cc.env.Timestamp

	if s.Phase != PhaseCommitOpen && s.Phase != PhaseOneCommit {
		return ErrCommitClosed
	}
	slot := s.slotOf(caller)
	if slot < 0 || s.Commitments[slot] != (common.Hash{}) {
		return ErrNotAnActivePlayer
	}
	if commitment == (common.Hash{}) {
		return ErrEmptyCommitment
	}

	if s.Phase == PhaseOneCommit && c.expiredAt(s, now) {
		return c.forfeit(cc, s.FirstCommitter)
	}

	s.Commitments[slot] = commitment
	if s.Phase == PhaseCommitOpen {
		s.StartTime = now
		s.FirstCommitter = caller
	}
	s.Payments[slot]++
	s.Phase++

	cc.emit(NewCommitted(caller))
	c.logger.Info("commitment recorded", "player", caller, "phase", s.Phase, "startTime", s.StartTime)
	return nil
}
