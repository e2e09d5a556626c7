package block

import (
	"fmt"
	"sync"

	"github.com/boljen/go-bitmap"
	"github.com/hashicorp/go-multierror"
	"github.com/lithos-os/lithos"
)

// Cache is a write-back block cache over a Device. Blocks are fetched on
// first use and kept until Flush writes the dirty ones back. File system
// backends sit on a Cache so repeated FAT and directory walks don't hit the
// device for every sector.
type Cache struct {
	mu  sync.Mutex
	dev Device

	// loaded and dirty track cache state per block; 1 in loaded means the
	// block is in `blocks`, 1 in dirty means it diverges from the device.
	loaded bitmap.Bitmap
	dirty  bitmap.Bitmap
	blocks map[uint64]*[BlockSize]byte

	blockCount uint64
}

// NewCache creates a cache over the whole device.
func NewCache(dev Device) *Cache {
	count := dev.BlockCount()
	return &Cache{
		dev:        dev,
		loaded:     bitmap.NewSlice(int(count)),
		dirty:      bitmap.NewSlice(int(count)),
		blocks:     make(map[uint64]*[BlockSize]byte),
		blockCount: count,
	}
}

func (c *Cache) BlockCount() uint64 {
	return c.blockCount
}

func (c *Cache) BlockSize() int {
	return BlockSize
}

func (c *Cache) ReadOnly() bool {
	return c.dev.ReadOnly()
}

// loadBlock ensures block n is resident and returns its storage. The caller
// must hold c.mu.
func (c *Cache) loadBlock(n uint64) (*[BlockSize]byte, error) {
	if c.loaded.Get(int(n)) {
		return c.blocks[n], nil
	}

	storage := new([BlockSize]byte)
	if err := c.dev.ReadBlock(n, storage[:]); err != nil {
		return nil, err
	}

	c.blocks[n] = storage
	c.loaded.Set(int(n), true)
	c.dirty.Set(int(n), false)
	return storage, nil
}

func (c *Cache) ReadBlock(n uint64, buf []byte) error {
	if err := checkTransfer(n, c.blockCount, buf); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	storage, err := c.loadBlock(n)
	if err != nil {
		return err
	}
	copy(buf[:BlockSize], storage[:])
	return nil
}

func (c *Cache) WriteBlock(n uint64, buf []byte) error {
	if err := checkTransfer(n, c.blockCount, buf); err != nil {
		return err
	}
	if c.dev.ReadOnly() {
		// Fail now rather than accumulate dirty blocks that can never be
		// written back.
		return lithos.ErrReadOnly
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	storage, ok := c.blocks[n]
	if !ok {
		storage = new([BlockSize]byte)
		c.blocks[n] = storage
	}
	copy(storage[:], buf[:BlockSize])
	c.loaded.Set(int(n), true)
	c.dirty.Set(int(n), true)
	return nil
}

// ReadRange returns `count` consecutive blocks starting at n as one slice,
// loading any that are missing.
func (c *Cache) ReadRange(n uint64, count int) ([]byte, error) {
	if count < 1 || n+uint64(count) > c.blockCount {
		return nil, lithos.ErrInvalidBlock.WithMessage(
			fmt.Sprintf("range [%d, %d) not in [0, %d)", n, n+uint64(count), c.blockCount))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]byte, count*BlockSize)
	for i := 0; i < count; i++ {
		storage, err := c.loadBlock(n + uint64(i))
		if err != nil {
			return nil, err
		}
		copy(out[i*BlockSize:], storage[:])
	}
	return out, nil
}

// Flush writes every dirty block back to the device and marks it clean.
// Failures don't stop the pass; all errors are reported together.
func (c *Cache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var result *multierror.Error
	for n := range c.blocks {
		if !c.dirty.Get(int(n)) {
			continue
		}
		if err := c.dev.WriteBlock(n, c.blocks[n][:]); err != nil {
			result = multierror.Append(result, fmt.Errorf(
				"failed to flush block %d: %w", n, err))
			continue
		}
		c.dirty.Set(int(n), false)
	}
	return result.ErrorOrNil()
}
