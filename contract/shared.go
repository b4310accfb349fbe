package contract

import (
	"github.com/pkg/errors"
)

// settle decides the winner once both choices are known, pays the pot and
// resets the session. first and second are in reveal order.
func (c *Controller) settle(cc *callCtx, first, second Reveal) error {
	s := cc.session

	// ---- Choices by slot ----
	var choices [2]uint8
	for _, r := range []Reveal{first, second} {
		slot := s.slotOf(r.Player)
		if slot < 0 {
			return errors.Wrapf(ErrCorruptState, "reveal from non-player %s", r.Player)
		}
		choices[slot] = r.Choice
	}

	// ---- Winner ----
	winner := c.policy.Winner(s.Players, choices)
	if s.slotOf(winner) < 0 {
		return errors.Wrapf(ErrCorruptState, "winner policy picked non-player %s", winner)
	}

	// ---- Payout ----
	players := s.Players
	pot, err := cc.ledger.TransferAll(winner)
	if err != nil {
		return err
	}

	cc.emit(NewGameResolved(first, second, winner, pot))
	cc.outcome = &Outcome{
		Kind:      OutcomeResolved,
		Winner:    winner,
		Players:   players,
		Reveals:   []Reveal{first, second},
		Pot:       pot,
		SettledAt: cc.env.Timestamp,
		TxID:      cc.env.TxID,
	}
	c.logger.Info("game resolved", "winner", winner, "choices", choices, "pot", pot.ToBig())

	s.reset()
	return nil
}
