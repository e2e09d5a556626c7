package syscalls

import (
	"unicode/utf8"

	"github.com/lithos-os/lithos"
)

// Memory translates user-provided addresses into kernel-accessible byte
// slices. Address 0 is the null pointer and never maps. There are no user
// processes yet, so the only implementations are kernel-context arenas.
type Memory interface {
	// Slice maps [addr, addr+length) for direct access.
	Slice(addr uint64, length uint64) ([]byte, error)

	// CString reads a NUL-terminated byte string starting at addr.
	CString(addr uint64) ([]byte, error)
}

// Arena is a bump-allocated Memory for kernel-context callers and tests.
// The first allocation lands above address 0 so that 0 stays unmappable.
type Arena struct {
	data []byte
	base uint64
}

const arenaBase = 0x1000

func NewArena() *Arena {
	return &Arena{base: arenaBase}
}

// Place copies bytes into the arena and returns their address.
func (a *Arena) Place(p []byte) uint64 {
	addr := a.base + uint64(len(a.data))
	a.data = append(a.data, p...)
	return addr
}

// PlaceString copies a NUL-terminated string into the arena and returns its
// address.
func (a *Arena) PlaceString(s string) uint64 {
	return a.Place(append([]byte(s), 0))
}

func (a *Arena) Slice(addr uint64, length uint64) ([]byte, error) {
	if addr < a.base || addr+length > a.base+uint64(len(a.data)) {
		return nil, lithos.ErrIOFailed.WithMessage("address range not mapped")
	}
	offset := addr - a.base
	return a.data[offset : offset+length], nil
}

func (a *Arena) CString(addr uint64) ([]byte, error) {
	if addr < a.base || addr >= a.base+uint64(len(a.data)) {
		return nil, lithos.ErrIOFailed.WithMessage("address not mapped")
	}

	offset := addr - a.base
	for end := offset; end < uint64(len(a.data)); end++ {
		if a.data[end] == 0 {
			return a.data[offset:end], nil
		}
	}
	return nil, lithos.ErrIOFailed.WithMessage("unterminated string")
}

// decodePath interprets raw path bytes as UTF-8; invalid UTF-8 resolves to
// the empty path, which the resolver then rejects.
func decodePath(raw []byte) string {
	if !utf8.Valid(raw) {
		return ""
	}
	return string(raw)
}
