// Package chain maintains the ordered, append-only sequence of blocks,
// owns the mempool feeding it, and verifies the whole sequence.
package chain

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pebblechain/pebblechain/foundation/ledger/block"
	"github.com/pebblechain/pebblechain/foundation/ledger/mempool"
	"github.com/pebblechain/pebblechain/foundation/ledger/transaction"
)

// Set of errors returned when verifying the chain.
var (
	ErrEmptyChain       = errors.New("chain is empty")
	ErrInvalidGenesis   = errors.New("invalid genesis block")
	ErrInvalidBlockLink = errors.New("invalid block link")
)

// transactionsPerBlock is the maximum batch size pulled from the mempool
// when assembling a new block.
const transactionsPerBlock = 10

// The difficulty is a count of leading zero bits in the hash's first
// 8 bytes, so anything outside this range makes the puzzle either free
// or a zero target.
const (
	minDifficulty = 1
	maxDifficulty = 63
)

// EventHandler defines a function that is called when chain events occur.
type EventHandler func(v string, args ...any)

// Serializer represents the behavior required to be implemented by any
// package providing support for storing and reading sealed blocks.
type Serializer interface {
	Write(data block.Data) error
	GetBlock(num uint64) (block.Data, error)
	ForEach() Iterator
	Reset() error
	Close() error
}

// Iterator represents the behavior required to be implemented by any
// package providing support to iterate over stored blocks.
type Iterator interface {
	Next() (block.Data, error)
	Done() bool
}

// Config represents the configuration required to start the chain.
type Config struct {

	// Difficulty applies to every block mined by this chain. It must be
	// in the range [1,63].
	Difficulty uint32

	// Genesis is the transaction sealed into the first block. Leave it
	// as the zero value to use the default genesis transaction.
	Genesis transaction.Tx

	// Storage persists sealed blocks. When nil the chain keeps blocks in
	// memory only. A storage holding blocks is replayed and re-verified
	// during construction instead of mining a new genesis block.
	Storage Serializer

	// EvHandler receives chain and mining events for logging.
	EvHandler EventHandler
}

// Chain manages the block sequence and the mempool. All operations are
// guarded by a single lock: the design has no finer-grained concurrency.
type Chain struct {
	mu         sync.RWMutex
	blocks     []block.Block
	difficulty uint32
	mempool    *mempool.Mempool
	storage    Serializer
	evHandler  EventHandler
}

// New constructs a chain by replaying blocks from storage when any exist,
// or by mining a genesis block over the configured (or default) genesis
// transaction with a zero previous hash. The context bounds the genesis
// mining time.
func New(ctx context.Context, cfg Config) (*Chain, error) {
	if cfg.Difficulty < minDifficulty || cfg.Difficulty > maxDifficulty {
		return nil, fmt.Errorf("%w: %d", block.ErrInvalidDifficulty, cfg.Difficulty)
	}

	ev := func(v string, args ...any) {}
	if cfg.EvHandler != nil {
		ev = cfg.EvHandler
	}

	ch := Chain{
		difficulty: cfg.Difficulty,
		mempool:    mempool.New(),
		storage:    cfg.Storage,
		evHandler:  ev,
	}

	if ch.storage != nil {
		blocks, err := loadBlocks(ch.storage)
		if err != nil {
			return nil, err
		}

		if len(blocks) > 0 {
			if err := verifyBlocks(blocks); err != nil {
				return nil, fmt.Errorf("replaying storage: %w", err)
			}

			ev("chain: new: replayed %d blocks from storage", len(blocks))
			ch.blocks = blocks
			return &ch, nil
		}
	}

	genesisTx := cfg.Genesis
	if genesisTx == (transaction.Tx{}) {
		genesisTx = transaction.New(common.Address{}, common.Address{}, 1, 0)
	}

	genesis, err := block.POW(ctx, []transaction.Tx{genesisTx}, common.Hash{}, cfg.Difficulty, block.EventHandler(ev))
	if err != nil {
		return nil, err
	}

	if err := ch.write(1, genesis); err != nil {
		return nil, err
	}
	ch.blocks = []block.Block{genesis}

	return &ch, nil
}

// Close releases the underlying storage.
func (ch *Chain) Close() error {
	if ch.storage == nil {
		return nil
	}
	return ch.storage.Close()
}

// SubmitTransaction delegates admission of the transaction to the mempool.
func (ch *Chain) SubmitTransaction(tx transaction.Tx) error {
	if err := ch.mempool.Admit(tx); err != nil {
		return err
	}

	ch.evHandler("chain: submit: tx[%s] admitted to mempool", tx)
	return nil
}

// AddBlock pulls the next batch of transactions from the mempool, mines a
// block over them referencing the current tail, verifies it, and appends
// it. An empty mempool is a no-op, not an error. Included transactions are
// evicted only after the block is successfully persisted and appended, so
// a failure never loses transactions or leaves a partial block.
func (ch *Chain) AddBlock(ctx context.Context) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if len(ch.blocks) == 0 {
		return ErrEmptyChain
	}

	trans := ch.mempool.PickBest(transactionsPerBlock)
	if len(trans) == 0 {
		ch.evHandler("chain: addblock: no pending transactions")
		return nil
	}

	if err := ch.mineAndAppend(ctx, trans); err != nil {
		return err
	}

	ch.mempool.Delete(trans...)
	return nil
}

// AddBlockWithTransactions mines a block over the caller supplied
// transactions, bypassing the mempool entirely. Mempool state is not
// touched, so the caller owns any overlap with pending transactions.
func (ch *Chain) AddBlockWithTransactions(ctx context.Context, trans []transaction.Tx) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if len(ch.blocks) == 0 {
		return ErrEmptyChain
	}

	return ch.mineAndAppend(ctx, trans)
}

// mineAndAppend must be called with the chain lock held.
func (ch *Chain) mineAndAppend(ctx context.Context, trans []transaction.Tx) error {
	prev := ch.blocks[len(ch.blocks)-1]

	nb, err := block.POW(ctx, trans, prev.Hash, ch.difficulty, block.EventHandler(ch.evHandler))
	if err != nil {
		return err
	}

	if err := nb.Verify(false); err != nil {
		return err
	}

	if err := ch.write(uint64(len(ch.blocks)+1), nb); err != nil {
		return err
	}

	ch.blocks = append(ch.blocks, nb)
	ch.evHandler("chain: addblock: sealed blk[%d] hash[%s] txs[%d]", len(ch.blocks)-1, nb.Hash, len(nb.Trans))

	return nil
}

// write persists the block when storage is configured.
func (ch *Chain) write(number uint64, b block.Block) error {
	if ch.storage == nil {
		return nil
	}
	return ch.storage.Write(block.NewData(number, b))
}

// Verify walks the whole sequence independently of mining: the genesis
// block must carry a zero previous hash and verify under the genesis
// relaxation, and every later block must link to its predecessor's hash
// and pass strict verification.
func (ch *Chain) Verify() error {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	return verifyBlocks(ch.blocks)
}

func verifyBlocks(blocks []block.Block) error {
	if len(blocks) == 0 {
		return ErrEmptyChain
	}

	genesis := blocks[0]
	if genesis.PrevBlockHash != (common.Hash{}) {
		return ErrInvalidGenesis
	}
	if err := genesis.Verify(true); err != nil {
		return fmt.Errorf("block validation failed: %w", err)
	}

	for i := 1; i < len(blocks); i++ {
		if blocks[i].PrevBlockHash != blocks[i-1].Hash {
			return ErrInvalidBlockLink
		}

		if err := blocks[i].Verify(false); err != nil {
			return fmt.Errorf("block validation failed: %w", err)
		}
	}

	return nil
}

// loadBlocks reads every block from storage in order.
func loadBlocks(storage Serializer) ([]block.Block, error) {
	var blocks []block.Block

	iter := storage.ForEach()
	for data, err := iter.Next(); !iter.Done(); data, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		b, err := block.ToBlock(data)
		if err != nil {
			return nil, err
		}

		blocks = append(blocks, b)
	}

	return blocks, nil
}

// =============================================================================

// Length returns the current number of blocks in the chain.
func (ch *Chain) Length() int {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	return len(ch.blocks)
}

// GetBlock returns the block at the specified index. The second return
// value reports whether the index exists; indexing past the chain length
// is an absent value, not a fault.
func (ch *Chain) GetBlock(index int) (block.Block, bool) {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	if index < 0 || index >= len(ch.blocks) {
		return block.Block{}, false
	}

	return ch.blocks[index], true
}

// LatestBlock returns the block at the tail of the chain.
func (ch *Chain) LatestBlock() (block.Block, bool) {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	if len(ch.blocks) == 0 {
		return block.Block{}, false
	}

	return ch.blocks[len(ch.blocks)-1], true
}

// Difficulty returns the difficulty applied to newly mined blocks.
func (ch *Chain) Difficulty() uint32 {
	return ch.difficulty
}

// MempoolCount returns the number of uncommitted transactions.
func (ch *Chain) MempoolCount() int {
	return ch.mempool.Count()
}

// Uncommitted returns all pending transactions in ascending nonce order.
func (ch *Chain) Uncommitted() []transaction.Tx {
	return ch.mempool.PickBest(-1)
}
