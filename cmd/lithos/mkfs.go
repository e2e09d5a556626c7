package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lithos-os/lithos/block"
	"github.com/lithos-os/lithos/disks"
	"github.com/lithos-os/lithos/file_systems/fat32"
	"github.com/urfave/cli/v2"
)

var mkfsCommand = &cli.Command{
	Name:      "mkfs",
	Usage:     "Create a FAT32 disk image",
	ArgsUsage: "IMAGE_FILE",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "profile",
			Usage: "media profile to size the image (" + strings.Join(disks.Slugs(), ", ") + ")",
			Value: "cf32",
		},
		&cli.Uint64Flag{
			Name:  "blocks",
			Usage: "image size in 512-byte blocks; overrides --profile",
		},
		&cli.StringFlag{
			Name:  "label",
			Usage: "volume label",
			Value: "LITHOS",
		},
		&cli.UintFlag{
			Name:  "sectors-per-cluster",
			Value: 1,
		},
		&cli.StringSliceFlag{
			Name:  "add",
			Usage: "host file to copy into the root directory (repeatable)",
		},
	},
	Action: makeFilesystem,
}

func makeFilesystem(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one IMAGE_FILE argument")
	}
	imagePath := c.Args().First()

	totalBlocks := c.Uint64("blocks")
	if totalBlocks == 0 {
		profile, err := disks.GetPredefinedMediaProfile(c.String("profile"))
		if err != nil {
			return err
		}
		totalBlocks = profile.TotalBlocks
	}

	var files []fat32.FileSpec
	for _, hostPath := range c.StringSlice("add") {
		data, err := os.ReadFile(hostPath)
		if err != nil {
			return err
		}
		files = append(files, fat32.FileSpec{
			Name: filepath.Base(hostPath),
			Data: data,
		})
	}

	storage := make([]byte, totalBlocks*block.BlockSize)
	dev := block.WrapSlice(storage, false)
	err := fat32.Format(dev, fat32.FormatOptions{
		VolumeLabel:       c.String("label"),
		SectorsPerCluster: uint8(c.Uint("sectors-per-cluster")),
		Files:             files,
	})
	if err != nil {
		return err
	}

	if err := saveImage(imagePath, storage); err != nil {
		return err
	}
	fmt.Printf("formatted %s: %d blocks, %d file(s)\n", imagePath, totalBlocks, len(files))
	return nil
}
