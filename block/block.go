// Package block defines the fixed-size sector I/O contract that file system
// backends layer on, together with the kernel's block device implementations.
//
// All block numbers are dense in [0, BlockCount). A read following a
// successful write of the same block returns byte-identical content.
package block

import (
	"fmt"

	"github.com/lithos-os/lithos"
)

// BlockSize is the fixed I/O unit, in bytes.
const BlockSize = 512

// Device is a fixed-size sector store addressed by LBA.
//
// Implementations serialize access internally; a Device may be shared between
// a file system backend and diagnostic code.
type Device interface {
	// ReadBlock fills buf with the contents of block n. buf must be at
	// least BlockSize bytes.
	ReadBlock(n uint64, buf []byte) error

	// WriteBlock writes the first BlockSize bytes of buf to block n.
	// Writes on read-only devices fail with ErrReadOnly.
	WriteBlock(n uint64, buf []byte) error

	// BlockCount returns the total number of addressable blocks.
	BlockCount() uint64

	// BlockSize returns the size of one block, in bytes.
	BlockSize() int

	// ReadOnly reports whether the device rejects writes.
	ReadOnly() bool
}

// checkTransfer validates the block number and buffer for a single-block
// transfer against a device of `count` blocks.
func checkTransfer(n, count uint64, buf []byte) error {
	if n >= count {
		return lithos.ErrInvalidBlock.WithMessage(
			fmt.Sprintf("block %d not in range [0, %d)", n, count))
	}
	if len(buf) < BlockSize {
		return lithos.ErrIOFailed.WithMessage(
			fmt.Sprintf("buffer is %d bytes, need at least %d", len(buf), BlockSize))
	}
	return nil
}
