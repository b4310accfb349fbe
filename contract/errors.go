package contract

import "github.com/pkg/errors"

var (
	ErrAlreadyRegistered   = errors.New("ALREADY_REGISTERED")
	ErrInsufficientStake   = errors.New("INSUFFICIENT_STAKE")
	ErrRegistrationClosed  = errors.New("REGISTRATION_CLOSED")
	ErrOverpayment         = errors.New("OVERPAYMENT")
	ErrNotAnActivePlayer   = errors.New("NOT_AN_ACTIVE_PLAYER")
	ErrCommitClosed        = errors.New("COMMIT_CLOSED")
	ErrEmptyCommitment     = errors.New("EMPTY_COMMITMENT")
	ErrNoPendingCommitment = errors.New("NO_PENDING_COMMITMENT")
	ErrInvalidChoice       = errors.New("INVALID_CHOICE")
	ErrRevealClosed        = errors.New("REVEAL_CLOSED")
	ErrStakeMismatch       = errors.New("STAKE_MISMATCH")
	ErrCorruptState        = errors.New("CORRUPT_STATE")
	ErrUnknownAction       = errors.New("UNKNOWN_ACTION")
	ErrMalformedPayload    = errors.New("MALFORMED_PAYLOAD")
	ErrInvalidConfig       = errors.New("INVALID_CONFIG")
)
