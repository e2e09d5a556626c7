package main

import (
	"fmt"

	"github.com/lithos-os/lithos/fusefs"
	"github.com/urfave/cli/v2"
)

var mountCommand = &cli.Command{
	Name:      "mount",
	Usage:     "FUSE-mount a FAT32 disk image on the host (read-only, Linux only)",
	ArgsUsage: "IMAGE_FILE MOUNTPOINT",
	Action:    mountImage,
}

func mountImage(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("expected IMAGE_FILE and MOUNTPOINT")
	}

	root, err := openImageRoot(c.Args().Get(0))
	if err != nil {
		return err
	}
	return fusefs.Mount(c.Args().Get(1), root)
}
