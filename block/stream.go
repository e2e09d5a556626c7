package block

import (
	"io"
	"sync"

	"github.com/lithos-os/lithos"
	"github.com/xaionaro-go/bytesextra"
)

// StreamDevice adapts any io.ReadWriteSeeker — a disk image file, usually —
// into a block device. Seeks and transfers are serialized under one mutex
// because the stream carries position state.
type StreamDevice struct {
	mu         sync.Mutex
	stream     io.ReadWriteSeeker
	blockCount uint64
	readOnly   bool
}

// WrapStream creates a block device over the first blockCount blocks of a
// stream.
func WrapStream(stream io.ReadWriteSeeker, blockCount uint64, readOnly bool) *StreamDevice {
	return &StreamDevice{
		stream:     stream,
		blockCount: blockCount,
		readOnly:   readOnly,
	}
}

// WrapStreamWithInferredSize sizes the device from the stream's current end
// offset, rounded down to a whole number of blocks.
func WrapStreamWithInferredSize(stream io.ReadWriteSeeker, readOnly bool) (*StreamDevice, error) {
	eofOffset, err := stream.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, lithos.ErrDeviceError.Wrap(err)
	}
	if _, err := stream.Seek(0, io.SeekStart); err != nil {
		return nil, lithos.ErrDeviceError.Wrap(err)
	}
	return WrapStream(stream, uint64(eofOffset)/BlockSize, readOnly), nil
}

// WrapSlice creates a block device over a byte slice in place.
func WrapSlice(storage []byte, readOnly bool) *StreamDevice {
	stream := bytesextra.NewReadWriteSeeker(storage)
	return WrapStream(stream, uint64(len(storage))/BlockSize, readOnly)
}

func (d *StreamDevice) seekToBlock(n uint64) error {
	_, err := d.stream.Seek(int64(n)*BlockSize, io.SeekStart)
	if err != nil {
		return lithos.ErrDeviceError.Wrap(err)
	}
	return nil
}

func (d *StreamDevice) ReadBlock(n uint64, buf []byte) error {
	if err := checkTransfer(n, d.blockCount, buf); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.seekToBlock(n); err != nil {
		return err
	}
	if _, err := io.ReadFull(d.stream, buf[:BlockSize]); err != nil {
		return lithos.ErrDeviceError.Wrap(err)
	}
	return nil
}

func (d *StreamDevice) WriteBlock(n uint64, buf []byte) error {
	if err := checkTransfer(n, d.blockCount, buf); err != nil {
		return err
	}
	if d.readOnly {
		return lithos.ErrReadOnly
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.seekToBlock(n); err != nil {
		return err
	}
	if _, err := d.stream.Write(buf[:BlockSize]); err != nil {
		return lithos.ErrDeviceError.Wrap(err)
	}
	return nil
}

func (d *StreamDevice) BlockCount() uint64 {
	return d.blockCount
}

func (d *StreamDevice) BlockSize() int {
	return BlockSize
}

func (d *StreamDevice) ReadOnly() bool {
	return d.readOnly
}
