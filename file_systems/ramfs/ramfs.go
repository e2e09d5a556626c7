// Package ramfs is the in-memory file system backend. It is the kernel's
// root file system: a tree of directories and byte-slice files, every node
// individually locked and shared by reference.
package ramfs

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/lithos-os/lithos"
)

// nextInode issues process-unique inode numbers. 0 is reserved for the root
// of a freshly created file system.
var nextInode atomic.Uint64

func allocInodeNumber() uint64 {
	return nextInode.Add(1)
}

// resetInodeCounter is for tests only.
func resetInodeCounter() {
	nextInode.Store(0)
}

// FS is a RAM-backed file system.
type FS struct {
	root *Directory
}

// New creates an empty file system whose root directory has inode 0.
func New() *FS {
	return &FS{root: newDirectory(lithos.NewDirectoryInode(0))}
}

// Root returns the root directory node.
func (fs *FS) Root() *Directory {
	return fs.root
}

////////////////////////////////////////////////////////////////////////////////
// Files

// File is an in-memory regular file.
type File struct {
	mu    sync.Mutex
	inode lithos.Inode
	data  []byte
}

func newFile(inode lithos.Inode) *File {
	return &File{inode: inode}
}

func (f *File) FileType() lithos.FileType {
	return lithos.FileTypeRegular
}

func (f *File) Size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.data)
}

func (f *File) Permissions() lithos.Permissions {
	return f.inode.Permissions
}

func (f *File) ReadAt(offset int, p []byte) (int, error) {
	if offset < 0 {
		return 0, lithos.ErrIOFailed.WithMessage("negative offset")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if offset >= len(f.data) {
		return 0, nil
	}
	n := copy(p, f.data[offset:])
	return n, nil
}

func (f *File) WriteAt(offset int, p []byte) (int, error) {
	if offset < 0 {
		return 0, lithos.ErrIOFailed.WithMessage("negative offset")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// Extend with zeroes out to the write position if needed.
	if end := offset + len(p); end > len(f.data) {
		grown := make([]byte, end)
		copy(grown, f.data)
		f.data = grown
	}
	copy(f.data[offset:], p)
	f.inode.Size = len(f.data)
	return len(p), nil
}

func (f *File) ReadDir() ([]string, error) {
	return nil, lithos.ErrNotADirectory
}

func (f *File) Lookup(name string) (lithos.Node, error) {
	return nil, lithos.ErrNotADirectory
}

func (f *File) Create(name string, fileType lithos.FileType) (lithos.Node, error) {
	return nil, lithos.ErrNotADirectory
}

////////////////////////////////////////////////////////////////////////////////
// Directories

// Directory is an in-memory directory. Entries are reference-counted owning
// handles to child nodes; names list in ascending order.
type Directory struct {
	mu      sync.Mutex
	inode   lithos.Inode
	entries map[string]lithos.Node
}

func newDirectory(inode lithos.Inode) *Directory {
	return &Directory{
		inode:   inode,
		entries: make(map[string]lithos.Node),
	}
}

func (d *Directory) FileType() lithos.FileType {
	return lithos.FileTypeDirectory
}

func (d *Directory) Size() int {
	return 0
}

func (d *Directory) Permissions() lithos.Permissions {
	return d.inode.Permissions
}

func (d *Directory) ReadAt(offset int, p []byte) (int, error) {
	return 0, lithos.ErrIsADirectory
}

func (d *Directory) WriteAt(offset int, p []byte) (int, error) {
	return 0, lithos.ErrIsADirectory
}

func (d *Directory) ReadDir() ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	names := make([]string, 0, len(d.entries))
	for name := range d.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (d *Directory) Lookup(name string) (lithos.Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	node, ok := d.entries[name]
	if !ok {
		return nil, lithos.ErrNotFound
	}
	return node, nil
}

func (d *Directory) Create(name string, fileType lithos.FileType) (lithos.Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.entries[name]; exists {
		return nil, lithos.ErrAlreadyExists
	}

	var node lithos.Node
	switch fileType {
	case lithos.FileTypeRegular:
		node = newFile(lithos.NewFileInode(allocInodeNumber()))
	case lithos.FileTypeDirectory:
		node = newDirectory(lithos.NewDirectoryInode(allocInodeNumber()))
	default:
		// Devices and symlinks are made by their own backends, not here.
		return nil, lithos.ErrIOFailed.WithMessage(
			"ramfs cannot create nodes of type " + fileType.String())
	}

	d.entries[name] = node
	return node, nil
}

// Attach inserts an existing node — a device file, another backend's root —
// under the given name.
func (d *Directory) Attach(name string, node lithos.Node) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.entries[name]; exists {
		return lithos.ErrAlreadyExists.WithMessage(name)
	}
	d.entries[name] = node
	return nil
}
