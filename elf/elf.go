// Package elf parses ELF64 executable headers. This is the contract the
// program loader consumes; actual segment mapping belongs to the memory
// subsystem.
package elf

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/lithos-os/lithos"
)

// Header is the ELF64 file header.
type Header struct {
	Magic      [4]byte
	Class      uint8
	Data       uint8
	Version    uint8
	OSABI      uint8
	ABIVersion uint8
	Padding    [7]byte
	Type       uint16
	Machine    uint16
	Version2   uint32
	Entry      uint64
	PhOff      uint64
	ShOff      uint64
	Flags      uint32
	EhSize     uint16
	PhEntSize  uint16
	PhNum      uint16
	ShEntSize  uint16
	ShNum      uint16
	ShStrNdx   uint16
}

// ProgramHeader describes one segment.
type ProgramHeader struct {
	Type     uint32
	Flags    uint32
	Offset   uint64
	VirtAddr uint64
	PhysAddr uint64
	FileSize uint64
	MemSize  uint64
	Align    uint64
}

// Segment types.
const (
	PTNull    = 0
	PTLoad    = 1
	PTDynamic = 2
	PTInterp  = 3
	PTNote    = 4
)

const (
	classELF64       = 2
	dataLittleEndian = 1
	typeExecutable   = 2
)

var elfMagic = [4]byte{0x7F, 'E', 'L', 'F'}

const headerSize = 64
const programHeaderSize = 56

// ParseHeader decodes and validates an ELF64 little-endian header.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < headerSize {
		return nil, lithos.ErrInvalidHeader.WithMessage(fmt.Sprintf(
			"need %d bytes, got %d", headerSize, len(data)))
	}

	var header Header
	reader := bytes.NewReader(data[:headerSize])
	if err := binary.Read(reader, binary.LittleEndian, &header); err != nil {
		return nil, lithos.ErrInvalidHeader.Wrap(err)
	}

	if header.Magic != elfMagic {
		return nil, lithos.ErrInvalidMagic
	}
	if header.Class != classELF64 {
		return nil, lithos.ErrUnsupportedClass
	}
	if header.Data != dataLittleEndian {
		return nil, lithos.ErrUnsupportedEndian
	}
	return &header, nil
}

// IsExecutable reports whether the file is a standalone executable (as
// opposed to relocatable, shared, or core).
func (h *Header) IsExecutable() bool {
	return h.Type == typeExecutable
}

// ProgramHeaders decodes the program header table.
func (h *Header) ProgramHeaders(data []byte) ([]ProgramHeader, error) {
	if h.PhNum == 0 {
		return nil, nil
	}
	if h.PhEntSize < programHeaderSize {
		return nil, lithos.ErrInvalidHeader.WithMessage("program header entries too small")
	}

	tableEnd := h.PhOff + uint64(h.PhNum)*uint64(h.PhEntSize)
	if tableEnd > uint64(len(data)) {
		return nil, lithos.ErrInvalidHeader.WithMessage("program header table out of bounds")
	}

	headers := make([]ProgramHeader, h.PhNum)
	for i := range headers {
		offset := h.PhOff + uint64(i)*uint64(h.PhEntSize)
		reader := bytes.NewReader(data[offset : offset+programHeaderSize])
		if err := binary.Read(reader, binary.LittleEndian, &headers[i]); err != nil {
			return nil, lithos.ErrInvalidHeader.Wrap(err)
		}
	}
	return headers, nil
}

// Load validates an executable image and returns its entry point. Segments
// are checked against the image bounds; mapping them is the caller's
// business.
func Load(data []byte) (uint64, error) {
	header, err := ParseHeader(data)
	if err != nil {
		return 0, err
	}
	if !header.IsExecutable() {
		return 0, lithos.ErrInvalidHeader.WithMessage("not an executable")
	}

	programHeaders, err := header.ProgramHeaders(data)
	if err != nil {
		return 0, err
	}
	for _, ph := range programHeaders {
		if ph.Type != PTLoad {
			continue
		}
		if ph.Offset+ph.FileSize > uint64(len(data)) {
			return 0, lithos.ErrInvalidHeader.WithMessage("LOAD segment out of bounds")
		}
		if ph.FileSize > ph.MemSize {
			return 0, lithos.ErrInvalidHeader.WithMessage("segment file size exceeds memory size")
		}
	}
	return header.Entry, nil
}
