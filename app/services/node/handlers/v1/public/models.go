package public

import (
	"github.com/pebblechain/pebblechain/business/sys/validate"
	"github.com/pebblechain/pebblechain/foundation/ledger/block"
	"github.com/pebblechain/pebblechain/foundation/ledger/transaction"
	"github.com/pebblechain/pebblechain/foundation/nameservice"
)

// newTx is what clients submit to place a transaction in the mempool.
type newTx struct {
	From   string `json:"from" validate:"required"`
	To     string `json:"to" validate:"required"`
	Amount uint64 `json:"amount" validate:"required,gt=0"`
	Nonce  uint64 `json:"nonce"`
}

// Validate checks the data in the model is considered clean.
func (nt newTx) Validate() error {
	return validate.Check(nt)
}

// tx represents a transaction in API responses.
type tx struct {
	Hash     string `json:"hash"`
	From     string `json:"from"`
	FromName string `json:"from_name"`
	To       string `json:"to"`
	ToName   string `json:"to_name"`
	Amount   uint64 `json:"amount"`
	Nonce    uint64 `json:"nonce"`
}

func toTx(t transaction.Tx, ns *nameservice.NameService) tx {
	return tx{
		Hash:     t.Hash().Hex(),
		From:     t.From.String(),
		FromName: ns.Lookup(t.From),
		To:       t.To.String(),
		ToName:   ns.Lookup(t.To),
		Amount:   t.Amount,
		Nonce:    t.Nonce,
	}
}

// blk represents a block in API responses.
type blk struct {
	Hash          string `json:"hash"`
	PrevBlockHash string `json:"prev_block_hash"`
	TimeStamp     uint64 `json:"timestamp"`
	Nonce         uint64 `json:"nonce"`
	Difficulty    uint32 `json:"difficulty"`
	Trans         []tx   `json:"trans"`
}

func toBlk(b block.Block, ns *nameservice.NameService) blk {
	trans := make([]tx, len(b.Trans))
	for i, t := range b.Trans {
		trans[i] = toTx(t, ns)
	}

	return blk{
		Hash:          b.Hash.Hex(),
		PrevBlockHash: b.PrevBlockHash.Hex(),
		TimeStamp:     b.TimeStamp,
		Nonce:         b.Nonce,
		Difficulty:    b.Difficulty,
		Trans:         trans,
	}
}
