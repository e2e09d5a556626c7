package fat32

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/lithos-os/lithos"
	"github.com/lithos-os/lithos/block"
)

// FileSystem is a mounted FAT32 volume. Apart from Mount's boot-sector read,
// all device access goes through a write-back block cache; the mounted file
// system itself only ever reads.
type FileSystem struct {
	cache *block.Cache
	boot  *BootSector
}

// Mount reads and validates the boot sector of a device and returns the
// mounted file system. Devices that don't carry a FAT32 volume are rejected
// with ErrIOFailed.
func Mount(dev block.Device) (*FileSystem, error) {
	buf := make([]byte, block.BlockSize)
	if err := dev.ReadBlock(0, buf); err != nil {
		return nil, lithos.ErrIOFailed.Wrap(err)
	}

	boot, err := ParseBootSector(buf)
	if err != nil {
		return nil, err
	}
	if !boot.IsFAT32() {
		return nil, lithos.ErrIOFailed.WithMessage("device does not hold a FAT32 volume")
	}

	return &FileSystem{
		cache: block.NewCache(dev),
		boot:  boot,
	}, nil
}

// BootSector returns the parsed BIOS parameter block.
func (fs *FileSystem) BootSector() *BootSector {
	return fs.boot
}

// Root returns a directory node rooted at the volume's root cluster.
func (fs *FileSystem) Root() lithos.Node {
	return &dirNode{fs: fs, cluster: fs.boot.RootCluster}
}

// Sync writes any cached dirty blocks back to the device.
func (fs *FileSystem) Sync() error {
	return fs.cache.Flush()
}

// fatEntry reads the FAT entry for a cluster, masked to 28 bits.
func (fs *FileSystem) fatEntry(cluster uint32) (uint32, error) {
	byteOffset := cluster * 4
	sector := uint64(fs.boot.ReservedSectors) + uint64(byteOffset/SectorSize)

	buf := make([]byte, block.BlockSize)
	if err := fs.cache.ReadBlock(sector, buf); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[byteOffset%SectorSize:]) & fatEntryMask, nil
}

// clusterChain follows the FAT from a starting cluster to the end-of-chain
// marker.
func (fs *FileSystem) clusterChain(start uint32) ([]uint32, error) {
	var chain []uint32

	cluster := start
	for cluster < endOfChainMin {
		if cluster < 2 {
			return nil, lithos.ErrIOFailed.WithMessage(fmt.Sprintf(
				"corrupt cluster chain: reserved cluster %d", cluster))
		}
		chain = append(chain, cluster)

		// A chain longer than the device has sectors means the FAT loops.
		if uint64(len(chain)) > fs.cache.BlockCount() {
			return nil, lithos.ErrIOFailed.WithMessage("corrupt cluster chain: cycle detected")
		}

		next, err := fs.fatEntry(cluster)
		if err != nil {
			return nil, err
		}
		cluster = next
	}
	return chain, nil
}

// readChainData returns the concatenated contents of every cluster in the
// chain starting at `start`.
func (fs *FileSystem) readChainData(start uint32) ([]byte, error) {
	chain, err := fs.clusterChain(start)
	if err != nil {
		return nil, err
	}

	var data bytes.Buffer
	for _, cluster := range chain {
		first := fs.boot.FirstSectorOfCluster(cluster)
		sectors, err := fs.cache.ReadRange(uint64(first), int(fs.boot.SectorsPerCluster))
		if err != nil {
			return nil, err
		}
		data.Write(sectors)
	}
	return data.Bytes(), nil
}

// dirEntries decodes a directory's cluster chain into its live entries,
// skipping deleted entries, long-filename entries, and the volume label, and
// stopping at the end-of-directory sentinel.
func (fs *FileSystem) dirEntries(cluster uint32) ([]DirEntry, error) {
	data, err := fs.readChainData(cluster)
	if err != nil {
		return nil, err
	}

	var entries []DirEntry
	for offset := 0; offset+DirEntrySize <= len(data); offset += DirEntrySize {
		var entry DirEntry
		reader := bytes.NewReader(data[offset : offset+DirEntrySize])
		if err := binary.Read(reader, binary.LittleEndian, &entry); err != nil {
			return nil, lithos.ErrIOFailed.Wrap(err)
		}

		if entry.IsLast() {
			break
		}
		if entry.IsDeleted() || entry.IsLFN() || entry.IsVolumeLabel() {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
