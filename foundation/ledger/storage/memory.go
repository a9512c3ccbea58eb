package storage

import (
	"errors"
	"sync"

	"github.com/pebblechain/pebblechain/foundation/ledger/block"
	"github.com/pebblechain/pebblechain/foundation/ledger/chain"
)

// Memory reads and stores blocks in memory using a slice. This implements
// the chain.Serializer interface and is what tests and ephemeral nodes use.
type Memory struct {
	mu     sync.RWMutex
	blocks []block.Data
}

// NewMemory constructs a Memory value for use.
func NewMemory() (*Memory, error) {
	return &Memory{}, nil
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Write stores the block in memory. Blocks must arrive in order.
func (m *Memory) Write(data block.Data) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if uint64(len(m.blocks))+1 != data.Number {
		return errors.New("block is out of order")
	}

	m.blocks = append(m.blocks, data)

	return nil
}

// GetBlock locates and returns the contents of the specified block
// by number.
func (m *Memory) GetBlock(num uint64) (block.Data, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if num == 0 || num > uint64(len(m.blocks)) {
		return block.Data{}, errors.New("block does not exist")
	}

	return m.blocks[num-1], nil
}

// ForEach returns an iterator to walk through all the blocks starting
// with block number 1.
func (m *Memory) ForEach() chain.Iterator {
	return &MemoryIterator{memory: m}
}

// Reset clears out all the stored blocks.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = nil

	return nil
}

// =============================================================================

// MemoryIterator walks through and reads blocks in memory. This
// implements the chain.Iterator interface.
type MemoryIterator struct {
	memory  *Memory
	current uint64
	eoc     bool
}

// Next retrieves the next block from memory.
func (mi *MemoryIterator) Next() (block.Data, error) {
	if mi.eoc {
		return block.Data{}, errors.New("end of chain")
	}

	mi.current++
	data, err := mi.memory.GetBlock(mi.current)
	if err != nil {
		mi.eoc = true
	}

	return data, err
}

// Done returns the end of chain value.
func (mi *MemoryIterator) Done() bool {
	return mi.eoc
}
