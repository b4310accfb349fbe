package contract

import (
	"strings"

	"github.com/pkg/errors"

	"commit-reveal-wager/sdk"
)

// Action names understood by Execute.
const (
	ActionRegister       = "register"
	ActionCommit         = "commit"
	ActionReveal         = "reveal"
	ActionPhase          = "phase"
	ActionStage          = "stage"
	ActionPlayers        = "players"
	ActionPayments       = "payments"
	ActionCommitment     = "commitment"
	ActionStartTime      = "start_time"
	ActionFirstCommitter = "first_committer"
	ActionMinutes        = "minutes"
	ActionPot            = "pot"
	ActionStake          = "stake"
	ActionStatus         = "status"
)

// IsMutating reports whether action changes state.
func IsMutating(action string) bool {
	switch action {
	case ActionRegister, ActionCommit, ActionReveal:
		return true
	}
	return false
}

// Execute is the string entry point of the controller. Payload fields are
// separated by '|':
//
//	register    (empty)
//	commit      0x<32-byte commitment>
//	reveal      choice|nonce
//	payments    address
//	commitment  address
//
// Mutating actions return the receipt as JSON, queries their value.
func (c *Controller) Execute(env sdk.Env, action, payload string) (*string, error) {
	out, err := c.execute(env, strings.TrimSpace(action), payload)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Controller) execute(env sdk.Env, action, payload string) (string, error) {
	switch action {

	// ---------- Mutating ----------

	case ActionRegister:
		return receiptJSON(c.Register(env))

	case ActionCommit:
		h, err := ParseCommitment(strings.TrimSpace(payload))
		if err != nil {
			return "", err
		}
		return receiptJSON(c.Commit(env, h))

	case ActionReveal:
		in := payload
		choiceStr := NextField(&in)
		nonceStr := NextField(&in)
		if in != "" {
			return "", errors.Wrap(ErrMalformedPayload, "reveal expects choice|nonce")
		}
		choice, err := parseChoice(choiceStr)
		if err != nil {
			return "", err
		}
		nonce, err := ParseNonce(nonceStr)
		if err != nil {
			return "", err
		}
		return receiptJSON(c.Reveal(env, choice, nonce))

	// ---------- Queries ----------

	case ActionPhase:
		p, err := c.Phase()
		if err != nil {
			return "", err
		}
		return UInt64ToString(uint64(p)), nil

	case ActionStage:
		st, err := c.Stage()
		if err != nil {
			return "", err
		}
		return st.String(), nil

	case ActionPlayers:
		players, err := c.Players()
		if err != nil {
			return "", err
		}
		return ToJSON(hexAddresses(players), "players")

	case ActionPayments:
		addr, err := parseAddress(payload)
		if err != nil {
			return "", err
		}
		n, err := c.Payments(addr)
		if err != nil {
			return "", err
		}
		return UInt64ToString(n), nil

	case ActionCommitment:
		addr, err := parseAddress(payload)
		if err != nil {
			return "", err
		}
		h, err := c.Commitment(addr)
		if err != nil {
			return "", err
		}
		return h.Hex(), nil

	case ActionStartTime:
		ts, err := c.StartTime()
		if err != nil {
			return "", err
		}
		return UInt64ToString(ts), nil

	case ActionFirstCommitter:
		addr, err := c.FirstCommitter()
		if err != nil {
			return "", err
		}
		return addr.Hex(), nil

	case ActionMinutes:
		now := env.Timestamp
		if strings.TrimSpace(payload) != "" {
			var err error
			if now, err = parseU64(payload); err != nil {
				return "", err
			}
		}
		m, err := c.ElapsedMinutes(now)
		if err != nil {
			return "", err
		}
		return UInt64ToString(m), nil

	case ActionPot:
		pot, err := c.Pot()
		if err != nil {
			return "", err
		}
		return pot.ToBig().String(), nil

	case ActionStake:
		return c.Stake().ToBig().String(), nil

	case ActionStatus:
		snap, err := c.Snapshot()
		if err != nil {
			return "", err
		}
		return ToJSON(snap, "status")
	}
	return "", errors.Wrapf(ErrUnknownAction, "%q", action)
}

func receiptJSON(r *Receipt, err error) (string, error) {
	if err != nil {
		return "", err
	}
	return ToJSON(r, "receipt")
}
