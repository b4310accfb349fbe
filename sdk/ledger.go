package sdk

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

var ErrInsufficientFunds = errors.New("INSUFFICIENT_FUNDS")

const escrowKey = "b:escrow"

func balanceKey(addr common.Address) string { return "b:" + addr.Hex() }

// Ledger moves value between accounts and the contract escrow. It works on
// a Tx so custody changes commit or roll back together with game state.
type Ledger struct {
	tx Tx
}

func NewLedger(tx Tx) *Ledger { return &Ledger{tx: tx} }

// BalanceOf returns the spendable balance of an account.
func (l *Ledger) BalanceOf(addr common.Address) (*uint256.Int, error) {
	return l.read(balanceKey(addr))
}

// Escrow returns the value currently held by the contract.
func (l *Ledger) Escrow() (*uint256.Int, error) {
	return l.read(escrowKey)
}

// Mint credits an account out of thin air. Only operator tooling and tests
// call this; the contract never does.
func (l *Ledger) Mint(to common.Address, amount *uint256.Int) error {
	bal, err := l.BalanceOf(to)
	if err != nil {
		return err
	}
	sum, overflow := new(uint256.Int).AddOverflow(bal, amount)
	if overflow {
		return errors.Errorf("balance overflow for %s", to.Hex())
	}
	return l.write(balanceKey(to), sum)
}

// Draw pulls amount from an account into escrow.
func (l *Ledger) Draw(from common.Address, amount *uint256.Int) error {
	bal, err := l.BalanceOf(from)
	if err != nil {
		return err
	}
	if bal.Lt(amount) {
		return errors.Wrapf(ErrInsufficientFunds, "%s holds %s, needs %s", from.Hex(), bal.ToBig(), amount.ToBig())
	}
	esc, err := l.Escrow()
	if err != nil {
		return err
	}
	if err := l.write(balanceKey(from), new(uint256.Int).Sub(bal, amount)); err != nil {
		return err
	}
	return l.write(escrowKey, new(uint256.Int).Add(esc, amount))
}

// Transfer pays amount out of escrow to an account.
func (l *Ledger) Transfer(to common.Address, amount *uint256.Int) error {
	esc, err := l.Escrow()
	if err != nil {
		return err
	}
	if esc.Lt(amount) {
		return errors.Wrapf(ErrInsufficientFunds, "escrow holds %s, needs %s", esc.ToBig(), amount.ToBig())
	}
	bal, err := l.BalanceOf(to)
	if err != nil {
		return err
	}
	if err := l.write(escrowKey, new(uint256.Int).Sub(esc, amount)); err != nil {
		return err
	}
	return l.write(balanceKey(to), new(uint256.Int).Add(bal, amount))
}

// TransferAll empties escrow into one account and returns what moved.
func (l *Ledger) TransferAll(to common.Address) (*uint256.Int, error) {
	esc, err := l.Escrow()
	if err != nil {
		return nil, err
	}
	if esc.IsZero() {
		return esc, nil
	}
	return esc, l.Transfer(to, esc)
}

func (l *Ledger) read(key string) (*uint256.Int, error) {
	raw, err := l.tx.Get(key)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", key)
	}
	if len(raw) == 0 {
		return new(uint256.Int), nil
	}
	if len(raw) != 32 {
		return nil, errors.Errorf("corrupt balance at %s: %d bytes", key, len(raw))
	}
	return new(uint256.Int).SetBytes(raw), nil
}

func (l *Ledger) write(key string, v *uint256.Int) error {
	if v.IsZero() {
		return l.tx.Delete(key)
	}
	b := v.Bytes32()
	return l.tx.Set(key, b[:])
}
