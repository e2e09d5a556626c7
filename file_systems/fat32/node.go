package fat32

import (
	"strings"

	"github.com/lithos-os/lithos"
)

// The backend is read-only: lookups and reads work, mutation fails with
// ErrPermissionDenied.

type dirNode struct {
	fs      *FileSystem
	cluster uint32
}

func (d *dirNode) FileType() lithos.FileType {
	return lithos.FileTypeDirectory
}

func (d *dirNode) Size() int {
	return 0
}

func (d *dirNode) Permissions() lithos.Permissions {
	return lithos.NewPermissions(0o555)
}

func (d *dirNode) ReadAt(offset int, p []byte) (int, error) {
	return 0, lithos.ErrIsADirectory
}

func (d *dirNode) WriteAt(offset int, p []byte) (int, error) {
	return 0, lithos.ErrIsADirectory
}

func (d *dirNode) ReadDir() ([]string, error) {
	entries, err := d.fs.dirEntries(d.cluster)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for i := range entries {
		name := entries[i].DisplayName()
		if name == "." || name == ".." {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func (d *dirNode) Lookup(name string) (lithos.Node, error) {
	entries, err := d.fs.dirEntries(d.cluster)
	if err != nil {
		return nil, err
	}

	for i := range entries {
		entry := &entries[i]
		if !strings.EqualFold(entry.DisplayName(), name) {
			continue
		}

		if entry.IsDirectory() {
			cluster := entry.FirstCluster()
			if cluster < 2 {
				// ".." in a first-level subdirectory stores cluster 0,
				// meaning the root.
				cluster = d.fs.boot.RootCluster
			}
			return &dirNode{fs: d.fs, cluster: cluster}, nil
		}
		return &fileNode{
			fs:           d.fs,
			firstCluster: entry.FirstCluster(),
			size:         int(entry.FileSize),
			readOnly:     entry.IsReadOnly(),
		}, nil
	}
	return nil, lithos.ErrNotFound
}

func (d *dirNode) Create(name string, fileType lithos.FileType) (lithos.Node, error) {
	return nil, lithos.ErrPermissionDenied.WithMessage("FAT32 volumes are mounted read-only")
}

type fileNode struct {
	fs           *FileSystem
	firstCluster uint32
	size         int
	readOnly     bool
}

func (f *fileNode) FileType() lithos.FileType {
	return lithos.FileTypeRegular
}

func (f *fileNode) Size() int {
	return f.size
}

func (f *fileNode) Permissions() lithos.Permissions {
	if f.readOnly {
		return lithos.NewPermissions(0o444)
	}
	return lithos.NewPermissions(0o644)
}

func (f *fileNode) ReadAt(offset int, p []byte) (int, error) {
	if offset < 0 {
		return 0, lithos.ErrIOFailed.WithMessage("negative offset")
	}
	if offset >= f.size || f.size == 0 {
		return 0, nil
	}
	if f.firstCluster < 2 {
		// Nonzero size but no allocated clusters.
		return 0, lithos.ErrIOFailed.WithMessage("corrupt directory entry")
	}

	data, err := f.fs.readChainData(f.firstCluster)
	if err != nil {
		return 0, err
	}
	if len(data) > f.size {
		data = data[:f.size]
	}
	if offset >= len(data) {
		return 0, nil
	}
	return copy(p, data[offset:]), nil
}

func (f *fileNode) WriteAt(offset int, p []byte) (int, error) {
	return 0, lithos.ErrPermissionDenied.WithMessage("FAT32 volumes are mounted read-only")
}

func (f *fileNode) ReadDir() ([]string, error) {
	return nil, lithos.ErrNotADirectory
}

func (f *fileNode) Lookup(name string) (lithos.Node, error) {
	return nil, lithos.ErrNotADirectory
}

func (f *fileNode) Create(name string, fileType lithos.FileType) (lithos.Node, error) {
	return nil, lithos.ErrNotADirectory
}
