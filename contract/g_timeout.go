package contract

import (
	"github.com/ethereum/go-ethereum/common"
)

//
// Deadline forfeiture.
//
// A late second commitment or a late second reveal does not count. The
// call that arrives after the deadline instead closes the game and hands
// the whole pot to the beneficiary.
//

// forfeit pays the pot to beneficiary, emits gameAbandoned and resets the
// session. It is reached from commit and reveal; the caller picks who
// benefits since the rule differs per stage.
func (c *Controller) forfeit(cc *callCtx, beneficiary common.Address) error {
	s := cc.session
	if s.slotOf(beneficiary) < 0 {
		return ErrCorruptState
	}

	var reveals []Reveal
	if s.FirstReveal != nil {
		reveals = append(reveals, *s.FirstReveal)
	}
	players := s.Players
	stage := s.Phase.Stage()

	pot, err := cc.ledger.TransferAll(beneficiary)
	if err != nil {
		return err
	}

	cc.emit(NewGameAbandoned(beneficiary, AbandonReason, pot))
	cc.outcome = &Outcome{
		Kind:      OutcomeAbandoned,
		Winner:    beneficiary,
		Players:   players,
		Reveals:   reveals,
		Pot:       pot,
		Reason:    AbandonReason,
		SettledAt: cc.env.Timestamp,
		TxID:      cc.env.TxID,
	}
	c.logger.Info("game abandoned", "stage", stage, "beneficiary", beneficiary, "late", cc.env.Sender, "pot", pot.ToBig())

	s.reset()
	return nil
}
