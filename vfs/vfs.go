// Package vfs ties the file system backends together: it owns the root file
// system slot, resolves absolute paths to nodes, and mediates all
// descriptor-based I/O through the process-global open file table.
package vfs

import (
	"strings"
	"sync"

	"github.com/lithos-os/lithos"
)

var (
	rootMu   sync.Mutex
	rootNode lithos.Node
)

// Init installs the root file system. It is called exactly once at boot;
// a second call is a kernel bug.
func Init(root lithos.Node) {
	rootMu.Lock()
	defer rootMu.Unlock()

	if rootNode != nil {
		panic("vfs: root file system already initialized")
	}
	rootNode = root
}

// reset tears down the root slot and the FD table. Tests only.
func reset() {
	rootMu.Lock()
	rootNode = nil
	rootMu.Unlock()
	table = newFDTable()
}

// Root returns the root file system node, or ErrNotInitialized before boot
// wiring has run.
func Root() (lithos.Node, error) {
	rootMu.Lock()
	defer rootMu.Unlock()

	if rootNode == nil {
		return nil, lithos.ErrNotInitialized.WithMessage("no root file system")
	}
	return rootNode, nil
}

// ResolvePath walks an absolute path to its node. Relative paths and empty
// strings are rejected; lookup failures propagate from the backend.
//
// Each component holds only its own node briefly; resolution never holds two
// nodes at once.
func ResolvePath(path string) (lithos.Node, error) {
	if path == "" || !strings.HasPrefix(path, "/") {
		return nil, lithos.ErrInvalidPath.WithMessage(path)
	}

	current, err := Root()
	if err != nil {
		return nil, err
	}
	if path == "/" {
		return current, nil
	}

	for _, component := range strings.Split(path[1:], "/") {
		if component == "" {
			continue
		}
		next, err := current.Lookup(component)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

// SplitPath splits a path at its last separator into the parent directory
// and the final name. The parent of "/a" is "/". The root itself has no
// parent, and a trailing slash leaves no name; both are InvalidPath.
func SplitPath(path string) (parent, name string, err error) {
	if path == "/" {
		return "", "", lithos.ErrInvalidPath.WithMessage("the root has no parent")
	}

	lastSlash := strings.LastIndex(path, "/")
	if lastSlash < 0 {
		return "", "", lithos.ErrInvalidPath.WithMessage(path)
	}

	parent = path[:lastSlash]
	if lastSlash == 0 {
		parent = "/"
	}

	name = path[lastSlash+1:]
	if name == "" {
		return "", "", lithos.ErrInvalidPath.WithMessage(path)
	}
	return parent, name, nil
}
