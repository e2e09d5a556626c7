package fat32

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/lithos-os/lithos"
	"github.com/lithos-os/lithos/block"
	"github.com/noxer/bytewriter"
)

// FileSpec is a file to place in the root directory of a freshly formatted
// volume.
type FileSpec struct {
	Name string
	Data []byte
}

// FormatOptions configures Format. The zero value formats an empty volume
// labeled "LITHOS" with one sector per cluster.
type FormatOptions struct {
	VolumeLabel       string
	SectorsPerCluster uint8
	Files             []FileSpec
}

const (
	formatReservedSectors = 32
	formatNumFATs         = 2
	formatRootCluster     = 2
	fatEntriesPerSector   = SectorSize / 4
	endOfChainMarker      = 0x0FFFFFFF
)

// Format writes a FAT32 volume onto the device: boot sector (plus the
// customary backup at sector 6), two FAT copies, a root directory holding
// the volume label and the given files, and the file contents in
// contiguously allocated clusters.
func Format(dev block.Device, opts FormatOptions) error {
	if dev.ReadOnly() {
		return lithos.ErrReadOnly
	}

	spc := opts.SectorsPerCluster
	if spc == 0 {
		spc = 1
	}
	label := opts.VolumeLabel
	if label == "" {
		label = "LITHOS"
	}
	if len(label) > 11 {
		return lithos.ErrInvalidPath.WithMessage("volume label is longer than 11 characters")
	}

	totalSectors := dev.BlockCount()
	if totalSectors > 0xFFFFFFFF {
		totalSectors = 0xFFFFFFFF
	}
	if totalSectors <= formatReservedSectors {
		return lithos.ErrNoSpace.WithMessage("device is smaller than the reserved region")
	}

	// One FAT entry per cluster the data region could hold, rounded up to
	// whole sectors. Slightly overestimates; the extra entries are unused.
	maxClusters := (uint32(totalSectors) - formatReservedSectors) / uint32(spc)
	fatSize := (maxClusters + 2 + fatEntriesPerSector - 1) / fatEntriesPerSector

	firstDataSector := uint32(formatReservedSectors) + formatNumFATs*fatSize
	if uint64(firstDataSector)+uint64(spc) > totalSectors {
		return lithos.ErrNoSpace.WithMessage("no room for the root directory cluster")
	}
	totalClusters := (uint32(totalSectors) - firstDataSector) / uint32(spc)

	clusterBytes := int(spc) * SectorSize
	if (1+len(opts.Files))*DirEntrySize > clusterBytes {
		return lithos.ErrNoSpace.WithMessage("too many files for a single root directory cluster")
	}

	// Lay out the FAT: media entry, reserved entry, root directory, then
	// each file as a contiguous run.
	fat := make([]uint32, fatSize*fatEntriesPerSector)
	fat[0] = 0x0FFFFFF8
	fat[1] = endOfChainMarker
	fat[formatRootCluster] = endOfChainMarker

	type placedFile struct {
		spec         FileSpec
		shortName    [11]byte
		firstCluster uint32
	}

	nextCluster := uint32(formatRootCluster + 1)
	placed := make([]placedFile, 0, len(opts.Files))
	for _, spec := range opts.Files {
		shortName, err := nameToShort(spec.Name)
		if err != nil {
			return err
		}

		file := placedFile{spec: spec, shortName: shortName}
		clustersNeeded := (len(spec.Data) + clusterBytes - 1) / clusterBytes
		if clustersNeeded > 0 {
			if nextCluster+uint32(clustersNeeded)-1 > totalClusters+1 {
				return lithos.ErrNoSpace.WithMessage(fmt.Sprintf(
					"no room for %q (%d bytes)", spec.Name, len(spec.Data)))
			}
			file.firstCluster = nextCluster
			for i := 0; i < clustersNeeded-1; i++ {
				fat[nextCluster] = nextCluster + 1
				nextCluster++
			}
			fat[nextCluster] = endOfChainMarker
			nextCluster++
		}
		placed = append(placed, file)
	}

	// Boot sector and its backup.
	boot := BootSector{
		JmpBoot:           [3]byte{0xEB, 0x58, 0x90},
		BytesPerSector:    SectorSize,
		SectorsPerCluster: spc,
		ReservedSectors:   formatReservedSectors,
		NumFATs:           formatNumFATs,
		Media:             0xF8,
		SectorsPerTrack:   32,
		NumHeads:          64,
		TotalSectors32:    uint32(totalSectors),
		FATSize32:         fatSize,
		RootCluster:       formatRootCluster,
		FSInfo:            1,
		BackupBootSector:  6,
		DriveNumber:       0x80,
		BootSignature:     0x29,
		VolumeID:          0x4C495448,
		Marker:            bootSectorMarker,
	}
	copy(boot.OEMName[:], "LITHOS  ")
	copy(boot.VolumeLabel[:], fmt.Sprintf("%-11s", strings.ToUpper(label)))
	copy(boot.FSType[:], "FAT32   ")

	sector := make([]byte, SectorSize)
	writer := bytewriter.New(sector)
	if err := binary.Write(writer, binary.LittleEndian, &boot); err != nil {
		return lithos.ErrIOFailed.Wrap(err)
	}
	if err := dev.WriteBlock(0, sector); err != nil {
		return err
	}
	if err := dev.WriteBlock(uint64(boot.BackupBootSector), sector); err != nil {
		return err
	}

	// Both FAT copies are identical.
	for s := uint32(0); s < fatSize; s++ {
		for i := 0; i < fatEntriesPerSector; i++ {
			binary.LittleEndian.PutUint32(
				sector[i*4:], fat[int(s)*fatEntriesPerSector+i])
		}
		if err := dev.WriteBlock(uint64(formatReservedSectors+s), sector); err != nil {
			return err
		}
		if err := dev.WriteBlock(uint64(formatReservedSectors+fatSize+s), sector); err != nil {
			return err
		}
	}

	// Root directory cluster: volume label first, then one entry per file.
	rootData := make([]byte, clusterBytes)
	writer = bytewriter.New(rootData)

	labelEntry := DirEntry{Attr: AttrVolumeID}
	copy(labelEntry.Name[:], fmt.Sprintf("%-11s", strings.ToUpper(label)))
	if err := binary.Write(writer, binary.LittleEndian, &labelEntry); err != nil {
		return lithos.ErrIOFailed.Wrap(err)
	}

	for _, file := range placed {
		entry := DirEntry{
			Name:           file.shortName,
			Attr:           AttrArchive,
			FirstClusterHi: uint16(file.firstCluster >> 16),
			FirstClusterLo: uint16(file.firstCluster & 0xFFFF),
			FileSize:       uint32(len(file.spec.Data)),
		}
		if err := binary.Write(writer, binary.LittleEndian, &entry); err != nil {
			return lithos.ErrIOFailed.Wrap(err)
		}
	}

	if err := writeCluster(dev, &boot, formatRootCluster, rootData); err != nil {
		return err
	}

	// File contents.
	for _, file := range placed {
		data := file.spec.Data
		cluster := file.firstCluster
		for len(data) > 0 {
			chunk := data
			if len(chunk) > clusterBytes {
				chunk = chunk[:clusterBytes]
			}
			padded := make([]byte, clusterBytes)
			copy(padded, chunk)
			if err := writeCluster(dev, &boot, cluster, padded); err != nil {
				return err
			}
			data = data[len(chunk):]
			cluster = fat[cluster]
		}
	}

	return nil
}

// writeCluster writes one cluster's worth of data sector by sector.
func writeCluster(dev block.Device, boot *BootSector, cluster uint32, data []byte) error {
	first := boot.FirstSectorOfCluster(cluster)
	for s := 0; s < int(boot.SectorsPerCluster); s++ {
		err := dev.WriteBlock(uint64(first)+uint64(s), data[s*SectorSize:(s+1)*SectorSize])
		if err != nil {
			return err
		}
	}
	return nil
}

// nameToShort converts a filename to its padded 8.3 on-disk form. The name
// is normalized to uppercase.
func nameToShort(name string) ([11]byte, error) {
	var short [11]byte

	stem, extension, hasExt := strings.Cut(name, ".")
	if stem == "" {
		return short, lithos.ErrInvalidPath.WithMessage(fmt.Sprintf("bad 8.3 name %q", name))
	}
	if len(stem) > 8 {
		return short, lithos.ErrInvalidPath.WithMessage(fmt.Sprintf(
			"filename stem can be at most eight characters: %q", stem))
	}
	if hasExt && len(extension) > 3 {
		return short, lithos.ErrInvalidPath.WithMessage(fmt.Sprintf(
			"filename extension can be at most three characters: %q", extension))
	}

	copy(short[:], fmt.Sprintf("%-8s", strings.ToUpper(stem)))
	copy(short[8:], fmt.Sprintf("%-3s", strings.ToUpper(extension)))
	return short, nil
}
