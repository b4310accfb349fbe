package contract

import (
	"time"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"
)

// Overpayment handling for registrations that send more than the stake.
const (
	OverpaymentRetain = "retain" // whole value joins the pot
	OverpaymentRefund = "refund" // only the stake is drawn
	OverpaymentReject = "reject" // call fails with ErrOverpayment
)

// Who receives the pot when the second reveal arrives after the deadline.
const (
	BeneficiaryCaller   = "caller"   // the late revealer that triggered the check
	BeneficiaryRevealer = "revealer" // the player who revealed on time
)

const AbandonReason = "the second participant did not act in time"

type Config struct {
	Stake                    string        `koanf:"stake"`
	Deadline                 time.Duration `koanf:"deadline"`
	WinnerRule               string        `koanf:"winner-rule"`
	Overpayment              string        `koanf:"overpayment"`
	RevealTimeoutBeneficiary string        `koanf:"reveal-timeout-beneficiary"`
}

var DefaultConfig = Config{
	Stake:                    "1000000",
	Deadline:                 5 * time.Minute,
	WinnerRule:               RuleMatching,
	Overpayment:              OverpaymentRetain,
	RevealTimeoutBeneficiary: BeneficiaryCaller,
}

func ConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".stake", DefaultConfig.Stake, "stake every player must send to register (decimal, smallest unit)")
	f.Duration(prefix+".deadline", DefaultConfig.Deadline, "time allowed after the first commitment for the second commit and the second reveal")
	f.String(prefix+".winner-rule", DefaultConfig.WinnerRule, "rule deciding the winner from both revealed choices (matching or mismatching)")
	f.String(prefix+".overpayment", DefaultConfig.Overpayment, "what to do with value above the stake (retain, refund or reject)")
	f.String(prefix+".reveal-timeout-beneficiary", DefaultConfig.RevealTimeoutBeneficiary, "who is paid when the second reveal is late (caller or revealer)")
}

// StakeAmount parses Stake.
func (c *Config) StakeAmount() (*uint256.Int, error) {
	v, err := uint256.FromDecimal(c.Stake)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidConfig, "stake %q: %v", c.Stake, err)
	}
	return v, nil
}

func (c *Config) Validate() error {
	stake, err := c.StakeAmount()
	if err != nil {
		return err
	}
	if stake.IsZero() {
		return errors.Wrap(ErrInvalidConfig, "stake must be positive")
	}
	if c.Deadline <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "deadline must be positive, got %v", c.Deadline)
	}
	if c.Deadline%time.Second != 0 {
		return errors.Wrapf(ErrInvalidConfig, "deadline %v must be a whole number of seconds", c.Deadline)
	}
	if _, err := PolicyByName(c.WinnerRule); err != nil {
		return err
	}
	switch c.Overpayment {
	case OverpaymentRetain, OverpaymentRefund, OverpaymentReject:
	default:
		return errors.Wrapf(ErrInvalidConfig, "overpayment mode %q", c.Overpayment)
	}
	switch c.RevealTimeoutBeneficiary {
	case BeneficiaryCaller, BeneficiaryRevealer:
	default:
		return errors.Wrapf(ErrInvalidConfig, "reveal timeout beneficiary %q", c.RevealTimeoutBeneficiary)
	}
	return nil
}
