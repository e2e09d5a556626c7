package block

import (
	"testing"

	"github.com/lithos-os/lithos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRamDiskZeroInitialized(t *testing.T) {
	disk := NewRamDisk(4)

	buf := make([]byte, BlockSize)
	buf[0] = 0xFF
	require.NoError(t, disk.ReadBlock(0, buf))

	for i, b := range buf {
		if b != 0 {
			t.Fatalf("byte %d of a fresh disk is 0x%02X, want 0", i, b)
		}
	}
}

func TestRamDiskRoundTrip(t *testing.T) {
	disk := NewRamDisk(100)

	pattern := make([]byte, BlockSize)
	for i := range pattern {
		pattern[i] = byte(i % 256)
	}
	require.NoError(t, disk.WriteBlock(0, pattern))

	readBack := make([]byte, BlockSize)
	require.NoError(t, disk.ReadBlock(0, readBack))
	assert.Equal(t, pattern, readBack, "read after write must be byte-identical")
}

func TestRamDiskRoundTripAllBlocks(t *testing.T) {
	disk := NewRamDisk(8)

	buf := make([]byte, BlockSize)
	for n := uint64(0); n < disk.BlockCount(); n++ {
		for i := range buf {
			buf[i] = byte(int(n) + i)
		}
		require.NoError(t, disk.WriteBlock(n, buf))
	}

	readBack := make([]byte, BlockSize)
	for n := uint64(0); n < disk.BlockCount(); n++ {
		require.NoError(t, disk.ReadBlock(n, readBack))
		for i := range readBack {
			require.Equal(t, byte(int(n)+i), readBack[i],
				"block %d byte %d differs", n, i)
		}
	}
}

func TestRamDiskInvalidBlock(t *testing.T) {
	disk := NewRamDisk(4)
	buf := make([]byte, BlockSize)

	err := disk.ReadBlock(4, buf)
	assert.ErrorIs(t, err, lithos.ErrInvalidBlock)

	err = disk.WriteBlock(100, buf)
	assert.ErrorIs(t, err, lithos.ErrInvalidBlock)
}

func TestRamDiskShortBuffer(t *testing.T) {
	disk := NewRamDisk(4)
	buf := make([]byte, BlockSize-1)

	assert.ErrorIs(t, disk.ReadBlock(0, buf), lithos.ErrIOFailed)
	assert.ErrorIs(t, disk.WriteBlock(0, buf), lithos.ErrIOFailed)
}

func TestRamDiskReadOnly(t *testing.T) {
	disk := NewRamDisk(4)
	disk.SetReadOnly()
	assert.True(t, disk.ReadOnly())

	buf := make([]byte, BlockSize)
	assert.ErrorIs(t, disk.WriteBlock(0, buf), lithos.ErrReadOnly)
}

func TestRamDiskFromImage(t *testing.T) {
	image := make([]byte, 3*BlockSize+17)
	for i := range image {
		image[i] = byte(i)
	}

	disk := RamDiskFromImage(image)
	assert.EqualValues(t, 3, disk.BlockCount(), "trailing partial block must not be addressable")

	buf := make([]byte, BlockSize)
	require.NoError(t, disk.ReadBlock(1, buf))
	assert.Equal(t, image[BlockSize:2*BlockSize], buf)
}
