package contract

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

const (
	RuleMatching    = "matching"
	RuleMismatching = "mismatching"
)

// WinnerPolicy picks the single winner of a fully revealed game.
// choices is indexed by player slot, like players. The returned address
// must be one of the two players.
type WinnerPolicy interface {
	Winner(players [2]common.Address, choices [2]uint8) common.Address
}

type WinnerPolicyFunc func(players [2]common.Address, choices [2]uint8) common.Address

func (f WinnerPolicyFunc) Winner(players [2]common.Address, choices [2]uint8) common.Address {
	return f(players, choices)
}

// MatchingPolicy: the first registrant wins when both choices are equal,
// the second registrant otherwise.
var MatchingPolicy = WinnerPolicyFunc(func(players [2]common.Address, choices [2]uint8) common.Address {
	if choices[0] == choices[1] {
		return players[0]
	}
	return players[1]
})

// MismatchingPolicy is MatchingPolicy with the roles swapped.
var MismatchingPolicy = WinnerPolicyFunc(func(players [2]common.Address, choices [2]uint8) common.Address {
	if choices[0] != choices[1] {
		return players[0]
	}
	return players[1]
})

func PolicyByName(name string) (WinnerPolicy, error) {
	switch name {
	case RuleMatching:
		return MatchingPolicy, nil
	case RuleMismatching:
		return MismatchingPolicy, nil
	}
	return nil, errors.Wrapf(ErrInvalidConfig, "unknown winner rule %q", name)
}
