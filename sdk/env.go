package sdk

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Env is the call environment of a single contract invocation: who sent it,
// how much value came along and the block time it executes at.
type Env struct {
	Sender    common.Address
	Value     *uint256.Int
	Timestamp uint64 // unix seconds
	TxID      string
}

// NewEnv builds an Env, treating a nil value as zero.
func NewEnv(sender common.Address, value *uint256.Int, ts uint64) Env {
	if value == nil {
		value = new(uint256.Int)
	}
	return Env{Sender: sender, Value: value, Timestamp: ts}
}

// CallValue returns the attached value, never nil.
func (e Env) CallValue() *uint256.Int {
	if e.Value == nil {
		return new(uint256.Int)
	}
	return e.Value
}
