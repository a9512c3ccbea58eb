// Package storage implements the serializers the chain uses to persist
// and reload sealed blocks.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strconv"

	"github.com/pebblechain/pebblechain/foundation/ledger/block"
	"github.com/pebblechain/pebblechain/foundation/ledger/chain"
)

// Disk reads and stores blocks in their own separate files on disk, one
// file per block named after the block number. This implements the
// chain.Serializer interface.
type Disk struct {
	dbPath string
}

// NewDisk constructs a Disk value for use.
func NewDisk(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, err
	}

	return &Disk{dbPath: dbPath}, nil
}

// Close in this implementation has nothing to do since a new file is
// written to disk for each new block and then immediately closed.
func (d *Disk) Close() error {
	return nil
}

// Write stores the block on disk in a file labeled with the block number.
func (d *Disk) Write(data block.Data) error {

	// Marshal the block for writing to disk in a more human readable format.
	doc, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	f, err := os.OpenFile(d.getPath(data.Number), os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(doc); err != nil {
		return err
	}

	return nil
}

// GetBlock searches the disk to locate and return the contents of the
// specified block by number.
func (d *Disk) GetBlock(num uint64) (block.Data, error) {
	f, err := os.OpenFile(d.getPath(num), os.O_RDONLY, 0600)
	if err != nil {
		return block.Data{}, err
	}
	defer f.Close()

	var data block.Data
	if err := json.NewDecoder(f).Decode(&data); err != nil {
		return block.Data{}, err
	}

	return data, nil
}

// ForEach returns an iterator to walk through all the blocks starting
// with block number 1.
func (d *Disk) ForEach() chain.Iterator {
	return &DiskIterator{disk: d}
}

// Reset clears out the blocks on disk.
func (d *Disk) Reset() error {
	if err := os.RemoveAll(d.dbPath); err != nil {
		return err
	}

	return os.MkdirAll(d.dbPath, 0755)
}

// getPath forms the path to the specified block.
func (d *Disk) getPath(blockNum uint64) string {
	name := strconv.FormatUint(blockNum, 10)
	return path.Join(d.dbPath, fmt.Sprintf("%s.json", name))
}

// =============================================================================

// DiskIterator walks through and reads blocks on disk. This implements
// the chain.Iterator interface.
type DiskIterator struct {
	disk    *Disk
	current uint64
	eoc     bool
}

// Next retrieves the next block from disk.
func (di *DiskIterator) Next() (block.Data, error) {
	if di.eoc {
		return block.Data{}, errors.New("end of chain")
	}

	di.current++
	data, err := di.disk.GetBlock(di.current)
	if errors.Is(err, fs.ErrNotExist) {
		di.eoc = true
	}

	return data, err
}

// Done returns the end of chain value.
func (di *DiskIterator) Done() bool {
	return di.eoc
}
