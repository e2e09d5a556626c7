package vfs

import (
	"errors"

	"github.com/lithos-os/lithos"
)

// Open resolves a path and returns a fresh descriptor for it. With the
// create flag set, a missing final component is created as a regular file in
// its parent directory; missing intermediate directories still fail.
func Open(path string, flags lithos.OpenFlags) (FileDescriptor, error) {
	node, err := ResolvePath(path)
	if err != nil {
		if !flags.Create || !errors.Is(err, lithos.ErrNotFound) {
			return 0, err
		}

		parentPath, name, splitErr := SplitPath(path)
		if splitErr != nil {
			return 0, splitErr
		}
		parent, parentErr := ResolvePath(parentPath)
		if parentErr != nil {
			return 0, parentErr
		}
		node, err = parent.Create(name, lithos.FileTypeRegular)
		if err != nil {
			return 0, err
		}
	}

	if node.FileType() == lithos.FileTypeDirectory && flags.Write {
		return 0, lithos.ErrIsADirectory
	}
	return Table().Alloc(node, flags), nil
}

// Read reads from the descriptor's node at its cursor and advances the
// cursor by the number of bytes read.
func Read(fd FileDescriptor, buf []byte) (int, error) {
	file, err := Table().Get(fd)
	if err != nil {
		return 0, err
	}
	if !file.Flags.Read {
		return 0, lithos.ErrPermissionDenied
	}

	n, err := file.Node.ReadAt(file.Offset, buf)
	if err != nil {
		return 0, err
	}
	file.Offset += n
	return n, nil
}

// Write writes to the descriptor's node at its cursor — or at EOF in append
// mode — and advances the cursor past the written bytes.
func Write(fd FileDescriptor, buf []byte) (int, error) {
	file, err := Table().Get(fd)
	if err != nil {
		return 0, err
	}
	if !file.Flags.Write {
		return 0, lithos.ErrPermissionDenied
	}

	offset := file.Offset
	if file.Flags.Append {
		offset = file.Node.Size()
	}

	n, err := file.Node.WriteAt(offset, buf)
	if err != nil {
		return 0, err
	}
	file.Offset = offset + n
	return n, nil
}

// Close releases a descriptor.
func Close(fd FileDescriptor) error {
	return Table().Close(fd)
}

// Mkdir creates a directory at the given absolute path.
func Mkdir(path string) error {
	parentPath, name, err := SplitPath(path)
	if err != nil {
		return err
	}
	parent, err := ResolvePath(parentPath)
	if err != nil {
		return err
	}
	_, err = parent.Create(name, lithos.FileTypeDirectory)
	return err
}

// Create creates an empty regular file at the given absolute path.
func Create(path string) error {
	parentPath, name, err := SplitPath(path)
	if err != nil {
		return err
	}
	parent, err := ResolvePath(parentPath)
	if err != nil {
		return err
	}
	_, err = parent.Create(name, lithos.FileTypeRegular)
	return err
}

// ReadDir lists a directory's entry names.
func ReadDir(path string) ([]string, error) {
	node, err := ResolvePath(path)
	if err != nil {
		return nil, err
	}
	return node.ReadDir()
}

// Stat returns a path's metadata.
func Stat(path string) (lithos.FileType, int, lithos.Permissions, error) {
	node, err := ResolvePath(path)
	if err != nil {
		return 0, 0, lithos.Permissions{}, err
	}
	return node.FileType(), node.Size(), node.Permissions(), nil
}
