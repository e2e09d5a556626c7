//go:build !linux
// +build !linux

package fusefs

import (
	"fmt"

	"github.com/lithos-os/lithos"
)

// Mount is only supported on Linux.
func Mount(mountpoint string, root lithos.Node) error {
	return fmt.Errorf("FUSE mount is only supported on Linux")
}
