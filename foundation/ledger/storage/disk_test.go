package storage_test

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pebblechain/pebblechain/foundation/ledger/block"
	"github.com/pebblechain/pebblechain/foundation/ledger/chain"
	"github.com/pebblechain/pebblechain/foundation/ledger/storage"
	"github.com/pebblechain/pebblechain/foundation/ledger/transaction"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// Both implementations must satisfy the chain's storage contract.
var (
	_ chain.Serializer = (*storage.Disk)(nil)
	_ chain.Serializer = (*storage.Memory)(nil)
)

func mineBlock(t *testing.T) block.Block {
	tx := transaction.New(common.Address{}, common.Address{}, 1, 0)

	b, err := block.POW(context.Background(), []transaction.Tx{tx}, common.Hash{}, 1, nil)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to mine a block: %v.", failed, err)
	}

	return b
}

func Test_Disk(t *testing.T) {
	t.Log("Given the need to persist blocks on disk, one file per block.")
	{
		t.Logf("\tTest 0:\tWhen writing and reading back blocks.")
		{
			disk, err := storage.NewDisk(t.TempDir())
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct disk storage: %v.", failed, err)
			}
			defer disk.Close()

			genesis := mineBlock(t)

			if err := disk.Write(block.NewData(1, genesis)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to write the block: %v.", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to write the block.", success)

			data, err := disk.GetBlock(1)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to read the block back: %v.", failed, err)
			}

			got, err := block.ToBlock(data)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to decode the block: %v.", failed, err)
			}
			if got.Hash != genesis.Hash {
				t.Fatalf("\t%s\tTest 0:\tShould read back the same block hash.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould read back the same block hash.", success)
		}

		t.Logf("\tTest 1:\tWhen iterating an empty storage.")
		{
			disk, err := storage.NewDisk(t.TempDir())
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to construct disk storage: %v.", failed, err)
			}
			defer disk.Close()

			iter := disk.ForEach()
			if _, err := iter.Next(); !iter.Done() {
				t.Fatalf("\t%s\tTest 1:\tShould be done immediately, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould be done immediately.", success)
		}

		t.Logf("\tTest 2:\tWhen reading an unknown block number.")
		{
			disk, err := storage.NewDisk(t.TempDir())
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to construct disk storage: %v.", failed, err)
			}
			defer disk.Close()

			if _, err := disk.GetBlock(42); err == nil {
				t.Fatalf("\t%s\tTest 2:\tShould get an error.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould get an error.", success)
		}
	}
}

func Test_Memory(t *testing.T) {
	t.Log("Given the need to keep blocks in memory in write order.")
	{
		t.Logf("\tTest 0:\tWhen writing blocks out of order.")
		{
			mem, err := storage.NewMemory()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct memory storage: %v.", failed, err)
			}
			defer mem.Close()

			b := mineBlock(t)

			if err := mem.Write(block.NewData(2, b)); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould reject a block number gap.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould reject a block number gap.", success)

			if err := mem.Write(block.NewData(1, b)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould accept the next block number: %v.", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould accept the next block number.", success)
		}
	}
}
