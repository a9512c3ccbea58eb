// Package mempool maintains the pool of transactions that have been
// admitted but not yet included in a block.
package mempool

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pebblechain/pebblechain/foundation/ledger/transaction"
)

// Set of errors returned when admitting a transaction.
var (
	ErrDuplicateTransaction = errors.New("transaction already exists")
	ErrInvalidTransaction   = errors.New("invalid transaction")
)

// Mempool represents a cache of admitted transactions keyed by their
// content hash with a parallel index ordered by ascending nonce. Both
// views are mutated together under the same lock so a transaction present
// in one is always present in the other.
type Mempool struct {
	mu      sync.RWMutex
	pool    map[common.Hash]transaction.Tx
	ordered []transaction.Tx
}

// New constructs a new empty mempool.
func New() *Mempool {
	return &Mempool{
		pool: make(map[common.Hash]transaction.Tx),
	}
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Admit adds a transaction to the pool. A transaction whose content
// hash is already present is rejected, as is any transaction that fails
// validation under the non-genesis rule. On failure the pool is unchanged.
func (mp *Mempool) Admit(tx transaction.Tx) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	hash := tx.Hash()

	if _, exists := mp.pool[hash]; exists {
		return ErrDuplicateTransaction
	}

	if err := tx.Validate(false); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTransaction, err)
	}

	// Insert at the first index holding a strictly greater nonce so
	// transactions sharing a nonce keep their admission order.
	at := sort.Search(len(mp.ordered), func(i int) bool {
		return mp.ordered[i].Nonce > tx.Nonce
	})

	mp.ordered = append(mp.ordered, transaction.Tx{})
	copy(mp.ordered[at+1:], mp.ordered[at:])
	mp.ordered[at] = tx

	mp.pool[hash] = tx

	return nil
}

// PickBest returns up to the specified number of transactions in ascending
// nonce order. Pass -1 for all transactions in the pool. The pool is not
// mutated by this call.
func (mp *Mempool) PickBest(howMany int) []transaction.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	if howMany == -1 || howMany > len(mp.ordered) {
		howMany = len(mp.ordered)
	}

	txs := make([]transaction.Tx, howMany)
	copy(txs, mp.ordered[:howMany])

	return txs
}

// Delete removes the specified transactions from the pool, matching by
// content hash. Transactions not present are ignored.
func (mp *Mempool) Delete(txs ...transaction.Tx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	for _, tx := range txs {
		hash := tx.Hash()

		if _, exists := mp.pool[hash]; !exists {
			continue
		}
		delete(mp.pool, hash)

		for i, otx := range mp.ordered {
			if otx.Hash() == hash {
				mp.ordered = append(mp.ordered[:i], mp.ordered[i+1:]...)
				break
			}
		}
	}
}

// Contains reports whether a transaction with the same content hash is
// currently in the pool.
func (mp *Mempool) Contains(tx transaction.Tx) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	_, exists := mp.pool[tx.Hash()]
	return exists
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[common.Hash]transaction.Tx)
	mp.ordered = nil
}
