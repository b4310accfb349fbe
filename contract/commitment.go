package contract

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// CommitmentHash binds a choice to a nonce:
// keccak256(abi.encodePacked(uint8 choice, bytes32 nonce)).
func CommitmentHash(choice uint8, nonce [32]byte) common.Hash {
	return crypto.Keccak256Hash([]byte{choice}, nonce[:])
}

// ParseNonce reads a nonce either as 0x-prefixed 32-byte hex or as a short
// string of at most 31 bytes, right padded with zeros the way
// ethers.encodeBytes32String does it.
func ParseNonce(s string) ([32]byte, error) {
	var nonce [32]byte
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		b, err := hexutil.Decode(s)
		if err != nil {
			return nonce, errors.Wrap(ErrMalformedPayload, "nonce: "+err.Error())
		}
		if len(b) != 32 {
			return nonce, errors.Wrapf(ErrMalformedPayload, "hex nonce must be 32 bytes, got %d", len(b))
		}
		copy(nonce[:], b)
		return nonce, nil
	}
	if len(s) > 31 {
		return nonce, errors.Wrapf(ErrMalformedPayload, "string nonce must be at most 31 bytes, got %d", len(s))
	}
	copy(nonce[:], s)
	return nonce, nil
}

// ParseCommitment reads a 0x-prefixed 32-byte hash.
func ParseCommitment(s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return common.Hash{}, errors.Wrap(ErrMalformedPayload, "commitment: "+err.Error())
	}
	if len(b) != common.HashLength {
		return common.Hash{}, errors.Wrapf(ErrMalformedPayload, "commitment must be 32 bytes, got %d", len(b))
	}
	return common.BytesToHash(b), nil
}
