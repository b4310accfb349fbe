package contract

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"commit-reveal-wager/sdk"
)

// Register joins the caller to the current game. env.Value is the payment
// sent along; it must cover the stake.
func (c *Controller) Register(env sdk.Env) (*Receipt, error) {
	return c.call(env, c.register)
}

// register takes the next free slot and draws the stake into the pot.
// Guards run in the order the deployed contract evaluates them: stake,
// then phase, then duplicate registration.
func (c *Controller) register(cc *callCtx) error {
	s := cc.session
	caller := cc.env.Sender
	value := cc.env.CallValue()

	if caller == (common.Address{}) {
		return errors.Wrap(ErrMalformedPayload, "zero sender")
	}
	if value.Lt(c.stake) {
		return ErrInsufficientStake
	}
	if s.Phase >= PhaseCommitOpen {
		return ErrRegistrationClosed
	}
	if s.slotOf(caller) >= 0 {
		return ErrAlreadyRegistered
	}

	drawn := value
	if value.Gt(c.stake) {
		switch c.cfg.Overpayment {
		case OverpaymentReject:
			return ErrOverpayment
		case OverpaymentRefund:
			drawn = c.stake
		}
	}
	if err := cc.ledger.Draw(caller, drawn); err != nil {
		return err
	}

	slot := int(s.Phase)
	s.Players[slot] = caller
	s.Payments[slot]++
	s.Phase++

	cc.emit(NewRegistered(caller))
	c.logger.Info("player registered", "player", caller, "slot", slot, "paid", drawn.ToBig(), "phase", s.Phase)
	return nil
}
