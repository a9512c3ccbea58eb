// Package block implements the once-sealed container of transactions,
// the proof of work search that seals it, and its self-verification.
package block

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pebblechain/pebblechain/foundation/ledger/transaction"
)

// Set of errors returned when constructing and verifying a block.
var (
	ErrEmptyTransactions   = errors.New("no transactions in block")
	ErrInvalidHash         = errors.New("invalid block hash")
	ErrInvalidPreviousHash = errors.New("invalid previous hash format")
	ErrInvalidProofOfWork  = errors.New("proof of work validation failed")
	ErrInvalidDifficulty   = errors.New("invalid difficulty target")
)

// EventHandler defines a function that is called when block events occur.
type EventHandler func(v string, args ...any)

// Block represents a group of transactions batched together with the
// proof of work that seals them. The Hash field holds the SHA-256 digest
// of the hashed fields and must be recomputed whenever any of them change.
// A block is mutated only while mining and is immutable once sealed.
type Block struct {
	TimeStamp     uint64
	Trans         []transaction.Tx
	PrevBlockHash common.Hash
	Hash          common.Hash
	Nonce         uint64
	Difficulty    uint32
}

// New constructs an unsealed block over the specified transactions. The
// wall clock is captured once here, the nonce starts at zero, and the
// initial hash is computed from those starting values.
func New(trans []transaction.Tx, prevBlockHash common.Hash, difficulty uint32) (Block, error) {
	if len(trans) == 0 {
		return Block{}, ErrEmptyTransactions
	}

	b := Block{
		TimeStamp:     uint64(time.Now().UTC().Unix()),
		Trans:         append([]transaction.Tx(nil), trans...),
		PrevBlockHash: prevBlockHash,
		Nonce:         0,
		Difficulty:    difficulty,
	}
	b.Hash = b.CalculateHash()

	return b, nil
}

// POW constructs a new block and performs the work to find a nonce that
// solves the cryptographic proof of work puzzle. Only a sealed block is
// ever returned.
func POW(ctx context.Context, trans []transaction.Tx, prevBlockHash common.Hash, difficulty uint32, ev EventHandler) (Block, error) {
	b, err := New(trans, prevBlockHash, difficulty)
	if err != nil {
		return Block{}, err
	}

	if err := b.Mine(ctx, ev); err != nil {
		return Block{}, err
	}

	return b, nil
}

// CalculateHash is a pure function of the current field values. It hashes
// the timestamp, each transaction's fields in sequence order, the previous
// block hash, and the nonce, all integers big endian.
func (b Block) CalculateHash() common.Hash {
	var buf [8]byte

	h := sha256.New()

	binary.BigEndian.PutUint64(buf[:], b.TimeStamp)
	h.Write(buf[:])

	for _, tx := range b.Trans {
		h.Write(tx.From.Bytes())
		h.Write(tx.To.Bytes())

		binary.BigEndian.PutUint64(buf[:], tx.Amount)
		h.Write(buf[:])

		binary.BigEndian.PutUint64(buf[:], tx.Nonce)
		h.Write(buf[:])
	}

	h.Write(b.PrevBlockHash.Bytes())

	binary.BigEndian.PutUint64(buf[:], b.Nonce)
	h.Write(buf[:])

	return common.BytesToHash(h.Sum(nil))
}

// Mine does the work of finding a nonce whose hash meets the difficulty
// target. Pointer semantics are being used since a nonce is being
// discovered. The loop has no upper bound; the context is the caller's
// externally imposed limit and cancellation leaves the block unsealed.
func (b *Block) Mine(ctx context.Context, ev EventHandler) error {
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	ev("block: mine: started: difficulty[%d]", b.Difficulty)
	defer ev("block: mine: completed")

	target := powTarget(b.Difficulty)

	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("block: mine: attempts[%d]", attempts)
		}

		if ctx.Err() != nil {
			ev("block: mine: CANCELLED")
			return ctx.Err()
		}

		hash := b.CalculateHash()
		if hashValue(hash) > target {
			b.Nonce++
			continue
		}

		b.Hash = hash

		ev("block: mine: SOLVED: prevBlk[%s]: newBlk[%s]", b.PrevBlockHash, hash)
		ev("block: mine: attempts[%d]", attempts)

		return nil
	}
}

// HasValidProof re-checks only the stored hash against the difficulty
// target without recomputing the hash. It is a cheap structural check,
// not full verification.
func (b Block) HasValidProof() bool {
	return hashValue(b.Hash) <= powTarget(b.Difficulty)
}

// Verify validates the block can be trusted: every transaction validates
// under the specified genesis rule, the stored hash matches a recomputation
// from the current fields, and the stored hash meets the difficulty target.
// The check order is fixed: transactions, then hash integrity, then proof
// of work.
func (b Block) Verify(isGenesis bool) error {
	if len(b.Trans) == 0 {
		return ErrEmptyTransactions
	}

	for _, tx := range b.Trans {
		if err := tx.Validate(isGenesis); err != nil {
			return fmt.Errorf("transaction error: %w", err)
		}
	}

	// A mismatch here catches any post-sealing tampering of the
	// transactions, the previous hash, or the nonce.
	if b.Hash != b.CalculateHash() {
		return ErrInvalidHash
	}

	if !b.HasValidProof() {
		return ErrInvalidProofOfWork
	}

	return nil
}

// powTarget returns the largest 8 byte value a solved hash may lead with:
// the difficulty is the number of leading zero bits required.
func powTarget(difficulty uint32) uint64 {
	return ^uint64(0) >> difficulty
}

// hashValue interprets the first 8 bytes of the hash as a big endian number.
func hashValue(hash common.Hash) uint64 {
	return binary.BigEndian.Uint64(hash[:8])
}
