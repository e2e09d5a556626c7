package block

import (
	"testing"

	"github.com/lithos-os/lithos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func patternBlock(seed int) []byte {
	buf := make([]byte, BlockSize)
	for i := range buf {
		buf[i] = byte(seed + i)
	}
	return buf
}

func TestCacheReadThrough(t *testing.T) {
	disk := NewRamDisk(8)
	require.NoError(t, disk.WriteBlock(2, patternBlock(7)))

	cache := NewCache(disk)
	buf := make([]byte, BlockSize)
	require.NoError(t, cache.ReadBlock(2, buf))
	assert.Equal(t, patternBlock(7), buf)
}

func TestCacheWriteBack(t *testing.T) {
	disk := NewRamDisk(8)
	cache := NewCache(disk)

	require.NoError(t, cache.WriteBlock(1, patternBlock(3)))

	// Not flushed yet: the device still reads as zeroes.
	direct := make([]byte, BlockSize)
	require.NoError(t, disk.ReadBlock(1, direct))
	assert.Equal(t, make([]byte, BlockSize), direct, "write-back cache must not write through")

	// But the cache serves the new contents.
	cached := make([]byte, BlockSize)
	require.NoError(t, cache.ReadBlock(1, cached))
	assert.Equal(t, patternBlock(3), cached)

	require.NoError(t, cache.Flush())
	require.NoError(t, disk.ReadBlock(1, direct))
	assert.Equal(t, patternBlock(3), direct)

	// A second flush has nothing to do and succeeds.
	require.NoError(t, cache.Flush())
}

func TestCacheReadRange(t *testing.T) {
	disk := NewRamDisk(8)
	require.NoError(t, disk.WriteBlock(4, patternBlock(1)))
	require.NoError(t, disk.WriteBlock(5, patternBlock(2)))

	cache := NewCache(disk)
	data, err := cache.ReadRange(4, 2)
	require.NoError(t, err)
	require.Len(t, data, 2*BlockSize)
	assert.Equal(t, patternBlock(1), data[:BlockSize])
	assert.Equal(t, patternBlock(2), data[BlockSize:])
}

func TestCacheReadRangeOutOfBounds(t *testing.T) {
	cache := NewCache(NewRamDisk(4))

	_, err := cache.ReadRange(3, 2)
	assert.ErrorIs(t, err, lithos.ErrInvalidBlock)

	_, err = cache.ReadRange(0, 0)
	assert.ErrorIs(t, err, lithos.ErrInvalidBlock)
}

func TestCacheReadOnlyDevice(t *testing.T) {
	disk := NewRamDisk(4)
	disk.SetReadOnly()

	cache := NewCache(disk)
	assert.True(t, cache.ReadOnly())
	assert.ErrorIs(t, cache.WriteBlock(0, patternBlock(0)), lithos.ErrReadOnly)
}

// failingDevice wraps a device and fails every write, for exercising flush
// error aggregation.
type failingDevice struct {
	*RamDisk
}

func (d failingDevice) WriteBlock(n uint64, buf []byte) error {
	return lithos.ErrDeviceError
}

func (d failingDevice) ReadOnly() bool {
	return false
}

func TestCacheFlushAggregatesErrors(t *testing.T) {
	cache := NewCache(failingDevice{NewRamDisk(8)})

	require.NoError(t, cache.WriteBlock(0, patternBlock(0)))
	require.NoError(t, cache.WriteBlock(1, patternBlock(1)))

	err := cache.Flush()
	require.Error(t, err)
	assert.ErrorIs(t, err, lithos.ErrDeviceError)
}
