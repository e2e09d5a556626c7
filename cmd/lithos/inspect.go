package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/lithos-os/lithos"
	"github.com/lithos-os/lithos/block"
	"github.com/lithos-os/lithos/file_systems/fat32"
	"github.com/urfave/cli/v2"
)

var lsCommand = &cli.Command{
	Name:      "ls",
	Usage:     "List a directory inside a FAT32 disk image",
	ArgsUsage: "IMAGE_FILE [PATH]",
	Action:    listImage,
}

var catCommand = &cli.Command{
	Name:      "cat",
	Usage:     "Print a file from a FAT32 disk image",
	ArgsUsage: "IMAGE_FILE PATH",
	Action:    catImage,
}

// openImageRoot mounts an image file read-only and returns its root node.
func openImageRoot(imagePath string) (lithos.Node, error) {
	data, err := loadImage(imagePath)
	if err != nil {
		return nil, err
	}

	disk := block.RamDiskFromImage(data)
	disk.SetReadOnly()
	fs, err := fat32.Mount(disk)
	if err != nil {
		return nil, fmt.Errorf("cannot mount %s: %w", imagePath, err)
	}
	return fs.Root(), nil
}

// walkPath resolves an absolute path against a node tree that isn't
// installed as the kernel root.
func walkPath(root lithos.Node, path string) (lithos.Node, error) {
	if path == "" || !strings.HasPrefix(path, "/") {
		return nil, lithos.ErrInvalidPath.WithMessage(path)
	}

	current := root
	for _, component := range strings.Split(path, "/") {
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

func listImage(c *cli.Context) error {
	if c.NArg() < 1 || c.NArg() > 2 {
		return fmt.Errorf("expected IMAGE_FILE and an optional PATH")
	}

	root, err := openImageRoot(c.Args().Get(0))
	if err != nil {
		return err
	}

	path := c.Args().Get(1)
	if path == "" {
		path = "/"
	}
	node, err := walkPath(root, path)
	if err != nil {
		return err
	}

	names, err := node.ReadDir()
	if err != nil {
		return err
	}
	for _, name := range names {
		child, err := node.Lookup(name)
		if err != nil {
			return err
		}
		if child.FileType() == lithos.FileTypeDirectory {
			fmt.Printf("%12s  %s/\n", "", name)
		} else {
			fmt.Printf("%12d  %s\n", child.Size(), name)
		}
	}
	return nil
}

func catImage(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("expected IMAGE_FILE and PATH")
	}

	root, err := openImageRoot(c.Args().Get(0))
	if err != nil {
		return err
	}
	node, err := walkPath(root, c.Args().Get(1))
	if err != nil {
		return err
	}

	buf := make([]byte, node.Size())
	n, err := node.ReadAt(0, buf)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(buf[:n])
	return err
}
