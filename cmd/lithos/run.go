package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/lithos-os/lithos"
	"github.com/lithos-os/lithos/block"
	"github.com/lithos-os/lithos/console"
	"github.com/lithos-os/lithos/file_systems/devfs"
	"github.com/lithos-os/lithos/file_systems/fat32"
	"github.com/lithos-os/lithos/file_systems/ramfs"
	"github.com/lithos-os/lithos/internal/logger"
	"github.com/lithos-os/lithos/shell"
	"github.com/lithos-os/lithos/task"
	"github.com/lithos-os/lithos/task/keyboard"
	"github.com/lithos-os/lithos/vfs"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "Boot the kernel core: RamFS root, /dev, optional FAT32 image at /mnt, interactive shell",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "image",
			Usage: "FAT32 disk image to load into a RAM disk and mount at /mnt",
		},
		&cli.BoolFlag{
			Name:  "persist",
			Usage: "write the RAM disk back to the image file on shutdown",
		},
	},
	Action: runKernel,
}

func runKernel(c *cli.Context) error {
	log := logger.Default()
	log.Info("Lithos kernel core booting")

	// The host plays the bootloader: build the root file system and wire
	// the standard tree.
	root := ramfs.New()
	vfs.Init(root.Root())

	devNode, err := root.Root().Create("dev", lithos.FileTypeDirectory)
	if err != nil {
		return err
	}
	devDir := devNode.(*ramfs.Directory)
	for _, dev := range devfs.Nodes() {
		if err := devDir.Attach(dev.Name, dev.Node); err != nil {
			return err
		}
	}
	for _, dir := range []string{"/home", "/home/user", "/tmp"} {
		if err := vfs.Mkdir(dir); err != nil {
			return err
		}
	}

	var (
		disk  *block.RamDisk
		fatFS *fat32.FileSystem
	)
	if imagePath := c.String("image"); imagePath != "" {
		data, err := loadImage(imagePath)
		if err != nil {
			return err
		}
		disk = block.RamDiskFromImage(data)

		fatFS, err = fat32.Mount(disk)
		if err != nil {
			return fmt.Errorf("cannot mount %s: %w", imagePath, err)
		}
		if err := root.Root().Attach("mnt", fatFS.Root()); err != nil {
			return err
		}
		log.Infof("mounted FAT32 image %s at /mnt (%d blocks)", imagePath, disk.BlockCount())
	}

	stream := keyboard.NewScancodeStream()
	sh := shell.New()
	console.WriteString("Lithos shell. Type 'help' for available commands.\n")
	console.WriteString(sh.Prompt())

	executor := task.NewExecutor()
	keyTaskID := executor.Spawn(keyboard.NewKeyTask(stream, sh.HandleKey))
	task.AddTask(keyTaskID)

	var group errgroup.Group
	// Host stdin stands in for the keyboard interrupt line: every rune the
	// keymap can encode becomes the make/break scancodes that would have
	// produced it; other runes are skipped.
	group.Go(func() error {
		reader := bufio.NewReader(os.Stdin)
		for {
			r, _, err := reader.ReadRune()
			if err != nil {
				break
			}
			codes, ok := keyboard.EncodeRune(r)
			if !ok {
				continue
			}
			for _, code := range codes {
				keyboard.AddScancode(code)
			}
		}
		stream.Close()
		return nil
	})
	group.Go(func() error {
		executor.Run()
		return nil
	})
	if err := group.Wait(); err != nil {
		return err
	}

	// Shutdown: flush everything that might be dirty, reporting all
	// failures rather than the first.
	var result *multierror.Error
	if fatFS != nil {
		result = multierror.Append(result, fatFS.Sync())
	}
	if disk != nil && c.Bool("persist") {
		result = multierror.Append(result, saveImage(c.String("image"), disk.Image()))
	}
	log.Info("kernel halted")
	return result.ErrorOrNil()
}
