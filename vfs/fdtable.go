package vfs

import (
	"sync"

	"github.com/lithos-os/lithos"
)

// FileDescriptor indexes the open file table. 0, 1, and 2 are console
// shorthands handled by the syscall layer and are never issued here.
type FileDescriptor int

// OpenFile is the record behind a descriptor: the resolved node, the
// read/write cursor, and the access flags fixed at open time.
//
// Cursor bookkeeping is only touched from syscall context, which is
// single-threaded under the cooperative model, so the table lock does not
// need to be held across node I/O.
type OpenFile struct {
	Node   lithos.Node
	Offset int
	Flags  lithos.OpenFlags
}

// FDTable is the process-global open file table.
type FDTable struct {
	mu     sync.Mutex
	files  map[FileDescriptor]*OpenFile
	nextFD FileDescriptor
}

func newFDTable() *FDTable {
	return &FDTable{
		files:  make(map[FileDescriptor]*OpenFile),
		nextFD: 3,
	}
}

var table = newFDTable()

// Table returns the process-global FD table.
func Table() *FDTable {
	return table
}

// Alloc issues a fresh descriptor for a node. Descriptors are strictly
// increasing and never reused.
func (t *FDTable) Alloc(node lithos.Node, flags lithos.OpenFlags) FileDescriptor {
	t.mu.Lock()
	defer t.mu.Unlock()

	fd := t.nextFD
	t.nextFD++
	t.files[fd] = &OpenFile{Node: node, Flags: flags}
	return fd
}

// Get returns the open file behind a descriptor, or ErrNotFound if it isn't
// open.
func (t *FDTable) Get(fd FileDescriptor) (*OpenFile, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	file, ok := t.files[fd]
	if !ok {
		return nil, lithos.ErrNotFound
	}
	return file, nil
}

// Close releases a descriptor. Closing one that isn't open — including a
// double close — returns ErrNotFound.
func (t *FDTable) Close(fd FileDescriptor) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.files[fd]; !ok {
		return lithos.ErrNotFound
	}
	delete(t.files, fd)
	return nil
}

// OpenCount returns the number of live descriptors.
func (t *FDTable) OpenCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.files)
}
