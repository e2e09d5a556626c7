// Package fat32 is the read side of Microsoft's FAT32 file system, layered
// on a block device through the kernel's block cache, plus a formatter for
// building small volumes.
package fat32

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/lithos-os/lithos"
)

// SectorSize is fixed; the backend only speaks 512-byte sectors.
const SectorSize = 512

// DirEntrySize is the size of one packed directory entry.
const DirEntrySize = 32

// Directory entry attribute flags.
const (
	AttrReadOnly  = 0x01
	AttrHidden    = 0x02
	AttrSystem    = 0x04
	AttrVolumeID  = 0x08
	AttrDirectory = 0x10
	AttrArchive   = 0x20
	AttrLongName  = 0x0F
)

// FAT entries are 32 bits stored, 28 bits significant.
const fatEntryMask = 0x0FFFFFFF

// Chain values at or above this terminate a cluster chain.
const endOfChainMin = 0x0FFFFFF8

const bootSectorMarker = 0xAA55

// BootSector is the FAT32 BIOS parameter block. Field order and widths match
// the on-disk layout exactly; binary.Read in little-endian order fills it
// from a raw sector.
type BootSector struct {
	JmpBoot           [3]byte
	OEMName           [8]byte
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	NumFATs           uint8
	RootEntryCount    uint16
	TotalSectors16    uint16
	Media             uint8
	FATSize16         uint16
	SectorsPerTrack   uint16
	NumHeads          uint16
	HiddenSectors     uint32
	TotalSectors32    uint32

	// FAT32-specific fields.
	FATSize32        uint32
	ExtFlags         uint16
	FSVersion        uint16
	RootCluster      uint32
	FSInfo           uint16
	BackupBootSector uint16
	Reserved         [12]byte
	DriveNumber      uint8
	Reserved1        uint8
	BootSignature    uint8
	VolumeID         uint32
	VolumeLabel      [11]byte
	FSType           [8]byte

	Padding [420]byte
	Marker  uint16
}

// ParseBootSector decodes a raw 512-byte sector and validates its signature.
func ParseBootSector(data []byte) (*BootSector, error) {
	if len(data) < SectorSize {
		return nil, lithos.ErrIOFailed.WithMessage(fmt.Sprintf(
			"boot sector needs %d bytes, got %d", SectorSize, len(data)))
	}

	var bs BootSector
	reader := bytes.NewReader(data[:SectorSize])
	if err := binary.Read(reader, binary.LittleEndian, &bs); err != nil {
		return nil, lithos.ErrIOFailed.Wrap(err)
	}

	if bs.Marker != bootSectorMarker {
		return nil, lithos.ErrIOFailed.WithMessage(fmt.Sprintf(
			"invalid boot sector signature: expected 0x%04X, got 0x%04X",
			bootSectorMarker, bs.Marker))
	}
	return &bs, nil
}

// IsFAT32 applies the FAT32 discriminator: the 16-bit FAT size is zero and
// the 32-bit one is set.
func (bs *BootSector) IsFAT32() bool {
	return bs.FATSize16 == 0 && bs.FATSize32 > 0
}

// FATSize returns the size of one FAT, in sectors.
func (bs *BootSector) FATSize() uint32 {
	if bs.FATSize16 != 0 {
		return uint32(bs.FATSize16)
	}
	return bs.FATSize32
}

// FirstDataSector returns the sector where the cluster heap begins.
func (bs *BootSector) FirstDataSector() uint32 {
	return uint32(bs.ReservedSectors) + uint32(bs.NumFATs)*bs.FATSize()
}

// ClusterSize returns the size of one cluster, in bytes.
func (bs *BootSector) ClusterSize() uint32 {
	return uint32(bs.SectorsPerCluster) * uint32(bs.BytesPerSector)
}

// FirstSectorOfCluster maps a cluster number (≥ 2) to its first sector.
func (bs *BootSector) FirstSectorOfCluster(cluster uint32) uint32 {
	return bs.FirstDataSector() + (cluster-2)*uint32(bs.SectorsPerCluster)
}

// DirEntry is one packed 8.3 directory entry.
type DirEntry struct {
	Name            [11]byte
	Attr            uint8
	NTReserved      uint8
	CreateTimeTenth uint8
	CreateTime      uint16
	CreateDate      uint16
	LastAccessDate  uint16
	FirstClusterHi  uint16
	WriteTime       uint16
	WriteDate       uint16
	FirstClusterLo  uint16
	FileSize        uint32
}

// IsLast reports the end-of-directory sentinel.
func (e *DirEntry) IsLast() bool {
	return e.Name[0] == 0x00
}

// IsDeleted reports the deleted-entry sentinel.
func (e *DirEntry) IsDeleted() bool {
	return e.Name[0] == 0xE5
}

// IsLFN reports a long-filename entry, which this backend recognizes only to
// skip.
func (e *DirEntry) IsLFN() bool {
	return e.Attr == AttrLongName
}

func (e *DirEntry) IsVolumeLabel() bool {
	return e.Attr&AttrVolumeID != 0
}

func (e *DirEntry) IsDirectory() bool {
	return e.Attr&AttrDirectory != 0
}

func (e *DirEntry) IsReadOnly() bool {
	return e.Attr&AttrReadOnly != 0
}

// FirstCluster combines the split cluster halves.
func (e *DirEntry) FirstCluster() uint32 {
	return uint32(e.FirstClusterHi)<<16 | uint32(e.FirstClusterLo)
}

// DisplayName renders the padded 8.3 name as "STEM.EXT".
func (e *DirEntry) DisplayName() string {
	stem := strings.TrimRight(string(e.Name[:8]), " ")
	extension := strings.TrimRight(string(e.Name[8:]), " ")
	if extension == "" {
		return stem
	}
	return stem + "." + extension
}
