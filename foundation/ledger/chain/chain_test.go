package chain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pebblechain/pebblechain/foundation/ledger/block"
	"github.com/pebblechain/pebblechain/foundation/ledger/chain"
	"github.com/pebblechain/pebblechain/foundation/ledger/mempool"
	"github.com/pebblechain/pebblechain/foundation/ledger/storage"
	"github.com/pebblechain/pebblechain/foundation/ledger/transaction"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func addr(value byte) common.Address {
	var a common.Address
	for i := range a {
		a[i] = value
	}
	return a
}

func newTestChain(t *testing.T) *chain.Chain {
	ch, err := chain.New(context.Background(), chain.Config{Difficulty: 1})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct a chain: %v.", failed, err)
	}
	return ch
}

func Test_NewChain(t *testing.T) {
	t.Log("Given the need to construct a chain with a mined genesis block.")
	{
		t.Logf("\tTest 0:\tWhen constructing a chain at difficulty 1.")
		{
			ch := newTestChain(t)

			if ch.Length() != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould have a length of 1, got %d.", failed, ch.Length())
			}
			t.Logf("\t%s\tTest 0:\tShould have a length of 1.", success)

			genesis, exists := ch.GetBlock(0)
			if !exists {
				t.Fatalf("\t%s\tTest 0:\tShould be able to retrieve the genesis block.", failed)
			}
			if genesis.PrevBlockHash != (common.Hash{}) {
				t.Fatalf("\t%s\tTest 0:\tShould have a zero previous hash on genesis.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould have a zero previous hash on genesis.", success)

			if err := ch.Verify(); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould pass chain verification: %v.", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould pass chain verification.", success)
		}

		t.Logf("\tTest 1:\tWhen constructing a chain with an out of range difficulty.")
		{
			if _, err := chain.New(context.Background(), chain.Config{Difficulty: 0}); !errors.Is(err, block.ErrInvalidDifficulty) {
				t.Fatalf("\t%s\tTest 1:\tShould get ErrInvalidDifficulty, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould get ErrInvalidDifficulty.", success)
		}

		t.Logf("\tTest 2:\tWhen constructing a chain with a caller supplied genesis transaction.")
		{
			genesisTx := transaction.New(addr(9), addr(9), 42, 0)
			ch, err := chain.New(context.Background(), chain.Config{Difficulty: 1, Genesis: genesisTx})
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to construct the chain: %v.", failed, err)
			}

			genesis, _ := ch.GetBlock(0)
			if len(genesis.Trans) != 1 || genesis.Trans[0].Amount != 42 {
				t.Fatalf("\t%s\tTest 2:\tShould seal the supplied transaction into genesis.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould seal the supplied transaction into genesis.", success)

			if err := ch.Verify(); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould pass chain verification: %v.", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould pass chain verification.", success)
		}
	}
}

func Test_AddBlock(t *testing.T) {
	t.Log("Given the need to mine blocks from pending transactions.")
	{
		t.Logf("\tTest 0:\tWhen submitting transactions and mining a block.")
		{
			ch := newTestChain(t)

			tx5 := transaction.New(addr(1), addr(2), 100, 5)
			tx3 := transaction.New(addr(1), addr(2), 100, 3)

			if err := ch.SubmitTransaction(tx5); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to submit nonce 5: %v.", failed, err)
			}
			if err := ch.SubmitTransaction(tx3); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to submit nonce 3: %v.", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to submit both transactions.", success)

			if err := ch.AddBlock(context.Background()); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to add the block: %v.", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to add the block.", success)

			if ch.Length() != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould have a length of 2, got %d.", failed, ch.Length())
			}
			t.Logf("\t%s\tTest 0:\tShould have a length of 2.", success)

			latest, _ := ch.LatestBlock()
			if len(latest.Trans) != 2 || latest.Trans[0].Nonce != 3 || latest.Trans[1].Nonce != 5 {
				t.Fatalf("\t%s\tTest 0:\tShould order the transactions by ascending nonce.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould order the transactions by ascending nonce.", success)

			if ch.MempoolCount() != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould evict the included transactions, %d left.", failed, ch.MempoolCount())
			}
			t.Logf("\t%s\tTest 0:\tShould evict the included transactions.", success)

			if err := ch.Verify(); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould pass chain verification: %v.", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould pass chain verification.", success)
		}

		t.Logf("\tTest 1:\tWhen mining with an empty mempool.")
		{
			ch := newTestChain(t)

			if err := ch.AddBlock(context.Background()); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould not get an error: %v.", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould not get an error.", success)

			if ch.Length() != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould leave the chain unchanged, got length %d.", failed, ch.Length())
			}
			t.Logf("\t%s\tTest 1:\tShould leave the chain unchanged.", success)
		}

		t.Logf("\tTest 2:\tWhen submitting a duplicate transaction.")
		{
			ch := newTestChain(t)

			tx := transaction.New(addr(1), addr(2), 100, 1)
			if err := ch.SubmitTransaction(tx); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to submit the transaction: %v.", failed, err)
			}

			if err := ch.SubmitTransaction(tx); !errors.Is(err, mempool.ErrDuplicateTransaction) {
				t.Fatalf("\t%s\tTest 2:\tShould get ErrDuplicateTransaction, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould get ErrDuplicateTransaction.", success)
		}
	}
}

func Test_AddBlockWithTransactions(t *testing.T) {
	t.Log("Given the need to mine blocks over caller supplied transactions.")
	{
		t.Logf("\tTest 0:\tWhen bypassing the mempool.")
		{
			ch := newTestChain(t)

			pending := transaction.New(addr(3), addr(4), 10, 1)
			if err := ch.SubmitTransaction(pending); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to submit a pending transaction: %v.", failed, err)
			}

			trans := []transaction.Tx{
				transaction.New(addr(1), addr(2), 100, 7),
			}
			if err := ch.AddBlockWithTransactions(context.Background(), trans); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to add the block: %v.", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to add the block.", success)

			if ch.Length() != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould have a length of 2, got %d.", failed, ch.Length())
			}
			t.Logf("\t%s\tTest 0:\tShould have a length of 2.", success)

			if ch.MempoolCount() != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould leave the mempool untouched, got %d.", failed, ch.MempoolCount())
			}
			t.Logf("\t%s\tTest 0:\tShould leave the mempool untouched.", success)
		}

		t.Logf("\tTest 1:\tWhen supplying no transactions.")
		{
			ch := newTestChain(t)

			if err := ch.AddBlockWithTransactions(context.Background(), nil); !errors.Is(err, block.ErrEmptyTransactions) {
				t.Fatalf("\t%s\tTest 1:\tShould get ErrEmptyTransactions, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould get ErrEmptyTransactions.", success)
		}
	}
}

func Test_StorageReplay(t *testing.T) {
	t.Log("Given the need to rebuild a chain from stored blocks.")
	{
		t.Logf("\tTest 0:\tWhen constructing a second chain over the same storage.")
		{
			store, err := storage.NewMemory()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct storage: %v.", failed, err)
			}

			ch, err := chain.New(context.Background(), chain.Config{Difficulty: 1, Storage: store})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct a chain: %v.", failed, err)
			}

			if err := ch.SubmitTransaction(transaction.New(addr(1), addr(2), 100, 1)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to submit a transaction: %v.", failed, err)
			}
			if err := ch.AddBlock(context.Background()); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to add a block: %v.", failed, err)
			}

			replayed, err := chain.New(context.Background(), chain.Config{Difficulty: 1, Storage: store})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to replay the chain: %v.", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to replay the chain.", success)

			if replayed.Length() != ch.Length() {
				t.Fatalf("\t%s\tTest 0:\tShould replay all %d blocks, got %d.", failed, ch.Length(), replayed.Length())
			}
			t.Logf("\t%s\tTest 0:\tShould replay all blocks.", success)

			if err := replayed.Verify(); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould pass chain verification: %v.", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould pass chain verification.", success)

			orig, _ := ch.LatestBlock()
			back, _ := replayed.LatestBlock()
			if orig.Hash != back.Hash {
				t.Fatalf("\t%s\tTest 0:\tShould replay identical block hashes.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould replay identical block hashes.", success)
		}
	}
}

func Test_Accessors(t *testing.T) {
	t.Log("Given the need to read chain state.")
	{
		t.Logf("\tTest 0:\tWhen indexing past the chain length.")
		{
			ch := newTestChain(t)

			if _, exists := ch.GetBlock(5); exists {
				t.Fatalf("\t%s\tTest 0:\tShould report an absent value.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould report an absent value.", success)

			if _, exists := ch.GetBlock(-1); exists {
				t.Fatalf("\t%s\tTest 0:\tShould report an absent value for a negative index.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould report an absent value for a negative index.", success)
		}

		t.Logf("\tTest 1:\tWhen reading the difficulty.")
		{
			ch := newTestChain(t)

			if ch.Difficulty() != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould get difficulty 1, got %d.", failed, ch.Difficulty())
			}
			t.Logf("\t%s\tTest 1:\tShould get difficulty 1.", success)
		}
	}
}
