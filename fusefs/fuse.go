//go:build linux
// +build linux

// Package fusefs exposes a kernel VFS tree to the host, read-only, through
// FUSE. It exists for poking at mounted images with ordinary host tools.
package fusefs

import (
	"context"
	"os"
	"time"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
	"github.com/lithos-os/lithos"
)

// KernelFS serves one VFS node tree.
type KernelFS struct {
	root lithos.Node
}

func New(root lithos.Node) *KernelFS {
	return &KernelFS{root: root}
}

func (k *KernelFS) Root() (fs.Node, error) {
	return &Dir{node: k.root}, nil
}

// Dir implements fs.Node and fs.HandleReadDirAller over a directory node.
type Dir struct {
	node lithos.Node
}

func (d *Dir) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Mode = os.ModeDir | os.FileMode(d.node.Permissions().Mode&0o777)
	return nil
}

func (d *Dir) Lookup(ctx context.Context, name string) (fs.Node, error) {
	child, err := d.node.Lookup(name)
	if err != nil {
		return nil, fuse.ENOENT
	}
	if child.FileType() == lithos.FileTypeDirectory {
		return &Dir{node: child}, nil
	}
	return &File{node: child}, nil
}

func (d *Dir) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	names, err := d.node.ReadDir()
	if err != nil {
		return nil, fuse.EIO
	}

	dirEntries := make([]fuse.Dirent, 0, len(names))
	for i, name := range names {
		entryType := fuse.DT_File
		if child, err := d.node.Lookup(name); err == nil {
			switch child.FileType() {
			case lithos.FileTypeDirectory:
				entryType = fuse.DT_Dir
			case lithos.FileTypeDevice:
				entryType = fuse.DT_Char
			}
		}
		dirEntries = append(dirEntries, fuse.Dirent{
			Inode: uint64(i),
			Name:  name,
			Type:  entryType,
		})
	}
	return dirEntries, nil
}

// File implements fs.Node and fs.HandleReader over a file or device node.
type File struct {
	node lithos.Node
}

func (f *File) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Mode = os.FileMode(f.node.Permissions().Mode & 0o777)
	a.Size = uint64(f.node.Size())
	a.Mtime = time.Now()
	return nil
}

func (f *File) Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	size := int(req.Size)
	offset := req.Offset

	fileSize := int64(f.node.Size())
	if f.node.FileType() == lithos.FileTypeRegular {
		if offset >= fileSize {
			// Trying to read past EOF
			resp.Data = []byte{}
			return nil
		}
		// Clamp size if reading near EOF
		if offset+int64(size) > fileSize {
			size = int(fileSize - offset)
		}
	}

	buf := make([]byte, size)
	n, err := f.node.ReadAt(int(offset), buf)
	if err != nil {
		return fuse.EIO
	}

	resp.Data = buf[:n]
	return nil
}
