// Package devfs provides the kernel's device files: /dev/null, /dev/zero,
// and /dev/random.
package devfs

import (
	"sync/atomic"

	"github.com/lithos-os/lithos"
)

// DeviceKind selects the behavior of a device node.
type DeviceKind int

const (
	// Null reads EOF and discards writes.
	Null DeviceKind = iota
	// Zero reads an endless stream of zero bytes.
	Zero
	// Random reads pseudo-random bytes. Not cryptographically secure.
	Random
)

func (k DeviceKind) String() string {
	switch k {
	case Null:
		return "null"
	case Zero:
		return "zero"
	case Random:
		return "random"
	default:
		return "unknown"
	}
}

// lcgSeed is the process-global state of /dev/random's generator. Relaxed
// ordering is fine: the output carries no security guarantee, so a lost
// update under contention is acceptable.
var lcgSeed atomic.Uint64

const lcgInitialSeed = 0x123456789ABCDEF0

func init() {
	lcgSeed.Store(lcgInitialSeed)
}

// resetSeed is for tests only.
func resetSeed() {
	lcgSeed.Store(lcgInitialSeed)
}

func nextRandomByte() byte {
	seed := lcgSeed.Load()
	next := seed*1103515245 + 12345
	lcgSeed.Store(next)
	return byte(next >> 16)
}

// DeviceNode is a character-device VFS node. All device nodes report size 0
// and mode 0o666.
type DeviceNode struct {
	kind DeviceKind
}

func NewDeviceNode(kind DeviceKind) *DeviceNode {
	return &DeviceNode{kind: kind}
}

// Nodes returns the standard /dev population in mount order.
func Nodes() []struct {
	Name string
	Node lithos.Node
} {
	return []struct {
		Name string
		Node lithos.Node
	}{
		{"null", NewDeviceNode(Null)},
		{"zero", NewDeviceNode(Zero)},
		{"random", NewDeviceNode(Random)},
	}
}

func (d *DeviceNode) FileType() lithos.FileType {
	return lithos.FileTypeDevice
}

func (d *DeviceNode) Size() int {
	return 0
}

func (d *DeviceNode) Permissions() lithos.Permissions {
	return lithos.NewPermissions(0o666)
}

func (d *DeviceNode) ReadAt(offset int, p []byte) (int, error) {
	switch d.kind {
	case Null:
		return 0, nil
	case Zero:
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	case Random:
		for i := range p {
			p[i] = nextRandomByte()
		}
		return len(p), nil
	default:
		return 0, lithos.ErrIOFailed
	}
}

func (d *DeviceNode) WriteAt(offset int, p []byte) (int, error) {
	switch d.kind {
	case Null:
		// Discarded.
		return len(p), nil
	default:
		return 0, lithos.ErrPermissionDenied
	}
}

func (d *DeviceNode) ReadDir() ([]string, error) {
	return nil, lithos.ErrNotADirectory
}

func (d *DeviceNode) Lookup(name string) (lithos.Node, error) {
	return nil, lithos.ErrNotADirectory
}

func (d *DeviceNode) Create(name string, fileType lithos.FileType) (lithos.Node, error) {
	return nil, lithos.ErrNotADirectory
}
