package contract

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"commit-reveal-wager/sdk"
)

// Reveal discloses the caller's choice and nonce. The second valid reveal
// settles the game; a second reveal after the deadline forfeits instead.
func (c *Controller) Reveal(env sdk.Env, choice uint8, nonce [32]byte) (*Receipt, error) {
	return c.call(env, func(cc *callCtx) error {
		return c.reveal(cc, choice, nonce)
	})
}

func (c *Controller) reveal(cc *callCtx, choice uint8, nonce [32]byte) error {
	s := cc.session
	caller := cc.env.Sender
	now := cc.env.Timestamp

	// A revealed player's commitment is already zero, so a repeat reveal
	// fails here too.
	slot := s.slotOf(caller)
	if slot < 0 || s.Commitments[slot] == (common.Hash{}) || CommitmentHash(choice, nonce) != s.Commitments[slot] {
		return ErrNoPendingCommitment
	}
	if choice > 1 {
		return ErrInvalidChoice
	}
	if s.Phase != PhaseRevealOpen && s.Phase != PhaseOneReveal {
		return ErrRevealClosed
	}

	if s.Phase == PhaseOneReveal && c.expiredAt(s, now) {
		beneficiary := caller
		if c.cfg.RevealTimeoutBeneficiary == BeneficiaryRevealer && s.FirstReveal != nil {
			beneficiary = s.FirstReveal.Player
		}
		return c.forfeit(cc, beneficiary)
	}

	s.Commitments[slot] = common.Hash{}
	revealed := Reveal{Player: caller, Choice: choice}

	if s.Phase == PhaseRevealOpen {
		s.FirstReveal = &revealed
		s.Phase++
		c.logger.Info("first reveal", "player", caller, "phase", s.Phase)
		return nil
	}
	if s.FirstReveal == nil {
		return errors.Wrap(ErrCorruptState, "second reveal without a first")
	}
	return c.settle(cc, *s.FirstReveal, revealed)
}
