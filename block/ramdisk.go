package block

import (
	"sync"

	"github.com/lithos-os/lithos"
)

// RamDisk is an in-memory block device backed by a flat byte slice. A single
// mutex covers the whole region.
type RamDisk struct {
	mu         sync.Mutex
	data       []byte
	blockCount uint64
	readOnly   bool
}

// NewRamDisk creates a zero-initialized RAM disk with the given number of
// blocks.
func NewRamDisk(blockCount uint64) *RamDisk {
	return &RamDisk{
		data:       make([]byte, blockCount*BlockSize),
		blockCount: blockCount,
	}
}

// RamDiskFromImage creates a RAM disk over existing image bytes. The image is
// used directly, not copied; trailing bytes that don't fill a whole block are
// not addressable.
func RamDiskFromImage(data []byte) *RamDisk {
	return &RamDisk{
		data:       data,
		blockCount: uint64(len(data) / BlockSize),
	}
}

// SetReadOnly marks the disk read-only. There is no way back; a read-only
// mount stays read-only.
func (d *RamDisk) SetReadOnly() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.readOnly = true
}

// Image returns a copy of the disk contents.
func (d *RamDisk) Image() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	image := make([]byte, len(d.data))
	copy(image, d.data)
	return image
}

func (d *RamDisk) ReadBlock(n uint64, buf []byte) error {
	if err := checkTransfer(n, d.blockCount, buf); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	offset := n * BlockSize
	copy(buf[:BlockSize], d.data[offset:offset+BlockSize])
	return nil
}

func (d *RamDisk) WriteBlock(n uint64, buf []byte) error {
	if err := checkTransfer(n, d.blockCount, buf); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.readOnly {
		return lithos.ErrReadOnly
	}

	offset := n * BlockSize
	copy(d.data[offset:offset+BlockSize], buf[:BlockSize])
	return nil
}

func (d *RamDisk) BlockCount() uint64 {
	return d.blockCount
}

func (d *RamDisk) BlockSize() int {
	return BlockSize
}

func (d *RamDisk) ReadOnly() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readOnly
}
