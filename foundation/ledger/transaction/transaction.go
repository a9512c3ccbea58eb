// Package transaction implements the value-transfer record that blocks
// carry and the mempool holds. A transaction is immutable once constructed
// and is identified everywhere by its content hash.
package transaction

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Set of errors returned when validating a transaction.
var (
	ErrInvalidAmount  = errors.New("invalid amount: amount must be greater than 0")
	ErrSameFromTo     = errors.New("from and to cannot be the same")
	ErrInvalidAddress = errors.New("invalid address format")
)

// Tx is the transactional information between two parties. The Nonce
// disambiguates transactions with identical from/to/amount and is the
// ordering key inside the mempool. It is not a per-party replay counter.
type Tx struct {
	From   common.Address `json:"from"`
	To     common.Address `json:"to"`
	Amount uint64         `json:"amount"`
	Nonce  uint64         `json:"nonce"`
}

// New constructs a new transaction between the two specified parties.
func New(from common.Address, to common.Address, amount uint64, nonce uint64) Tx {
	return Tx{
		From:   from,
		To:     to,
		Amount: amount,
		Nonce:  nonce,
	}
}

// ToAddress converts a hex encoded string into a 20 byte address. An
// error is returned if the string is not a properly formatted address.
func ToAddress(hex string) (common.Address, error) {
	if !common.IsHexAddress(hex) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, hex)
	}

	return common.HexToAddress(hex), nil
}

// Validate checks the transaction holds a transferable amount. The genesis
// transaction is the only one allowed to pay an address from itself.
func (tx Tx) Validate(isGenesis bool) error {
	if tx.Amount == 0 {
		return ErrInvalidAmount
	}

	if !isGenesis && tx.From == tx.To {
		return ErrSameFromTo
	}

	return nil
}

// Hash returns the content hash that serves as the transaction's identity.
// Two structurally identical transactions always hash identically, which is
// what the mempool relies on for duplicate rejection.
func (tx Tx) Hash() common.Hash {
	var buf [8]byte

	h := sha256.New()
	h.Write(tx.From.Bytes())
	h.Write(tx.To.Bytes())

	binary.BigEndian.PutUint64(buf[:], tx.Amount)
	h.Write(buf[:])

	binary.BigEndian.PutUint64(buf[:], tx.Nonce)
	h.Write(buf[:])

	return common.BytesToHash(h.Sum(nil))
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s:%d -> %s, amount[%d]", tx.From.String(), tx.Nonce, tx.To.String(), tx.Amount)
}
