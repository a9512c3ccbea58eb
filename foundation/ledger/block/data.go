package block

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pebblechain/pebblechain/foundation/ledger/transaction"
)

// Data is the wire and storage representation of a block. The Number is
// the block's 1-based position in the chain and exists only so storage
// implementations can order and locate blocks.
type Data struct {
	Number        uint64           `json:"number"`
	Hash          string           `json:"hash"`
	TimeStamp     uint64           `json:"timestamp"`
	PrevBlockHash string           `json:"prev_block_hash"`
	Nonce         uint64           `json:"nonce"`
	Difficulty    uint32           `json:"difficulty"`
	Trans         []transaction.Tx `json:"trans"`
}

// NewData constructs the value to serialize for the specified block.
func NewData(number uint64, b Block) Data {
	return Data{
		Number:        number,
		Hash:          hexutil.Encode(b.Hash[:]),
		TimeStamp:     b.TimeStamp,
		PrevBlockHash: hexutil.Encode(b.PrevBlockHash[:]),
		Nonce:         b.Nonce,
		Difficulty:    b.Difficulty,
		Trans:         b.Trans,
	}
}

// ToBlock converts serialized block data back into a block.
func ToBlock(data Data) (Block, error) {
	hash, err := hexutil.Decode(data.Hash)
	if err != nil || len(hash) != common.HashLength {
		return Block{}, fmt.Errorf("%w: %q", ErrInvalidHash, data.Hash)
	}

	prev, err := hexutil.Decode(data.PrevBlockHash)
	if err != nil || len(prev) != common.HashLength {
		return Block{}, fmt.Errorf("%w: %q", ErrInvalidPreviousHash, data.PrevBlockHash)
	}

	b := Block{
		TimeStamp:     data.TimeStamp,
		Trans:         append([]transaction.Tx(nil), data.Trans...),
		PrevBlockHash: common.BytesToHash(prev),
		Hash:          common.BytesToHash(hash),
		Nonce:         data.Nonce,
		Difficulty:    data.Difficulty,
	}

	return b, nil
}
