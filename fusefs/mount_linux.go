//go:build linux
// +build linux

package fusefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
	"github.com/lithos-os/lithos"
	"github.com/lithos-os/lithos/internal/logger"
)

// Mount serves a VFS tree at the given mountpoint until the process receives
// an interrupt or termination signal.
func Mount(mountpoint string, root lithos.Node) error {
	created, err := PrepareMountpoint(mountpoint)
	if err != nil {
		return err
	}
	if created {
		defer os.Remove(mountpoint)
	}

	conn, err := fuse.Mount(mountpoint)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		srv := fusefs.New(conn, nil)
		if err := srv.Serve(New(root)); err != nil {
			logger.Default().Errorf("FUSE serve error: %v", err)
			os.Exit(1)
		}
	}()
	return waitForUmount(mountpoint)
}

func waitForUmount(mountpoint string) error {
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)

	log := logger.Default()
	log.Info("Waiting for termination signal...")

	const maxUnmountRetries = 3

	unmountAttempts := 0
	for sig := range sigc {
		log.Infof("Signal received: %v.", sig)

		if unmountAttempts >= maxUnmountRetries {
			return fmt.Errorf(
				"maximum unmount retries (%d) exceeded; still unable to unmount %s",
				maxUnmountRetries, mountpoint)
		}

		log.Infof("Attempting unmount of %s (attempt %d/%d)...",
			mountpoint, unmountAttempts+1, maxUnmountRetries)
		err := fuse.Unmount(mountpoint)
		if err == nil {
			log.Info("Unmounted successfully, exiting.")
			return nil
		}

		unmountAttempts++
		log.Warnf("Unmount failed: %v. Remaining retries: %d.",
			err, maxUnmountRetries-unmountAttempts)
	}
	return nil
}

// PrepareMountpoint ensures the given path is a valid, empty directory
// suitable for FUSE mounting. It creates the directory if it doesn't exist
// and reports whether it did.
func PrepareMountpoint(mountpoint string) (bool, error) {
	finfo, err := os.Stat(mountpoint)
	if errors.Is(err, os.ErrNotExist) {
		if err := os.Mkdir(mountpoint, 0755); err != nil {
			return false, fmt.Errorf("failed to create mountpoint %s: %w", mountpoint, err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat mountpoint %s: %w", mountpoint, err)
	}

	if !finfo.IsDir() {
		return false, fmt.Errorf("mountpoint %s is not a directory", mountpoint)
	}

	empty, err := isDirEmpty(mountpoint)
	if err != nil {
		return false, fmt.Errorf("failed to check if mountpoint %s is empty: %w", mountpoint, err)
	}
	if !empty {
		return false, fmt.Errorf("mountpoint %s is not empty", mountpoint)
	}
	return false, nil
}

func isDirEmpty(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	_, err = f.Readdirnames(1)
	if err == io.EOF {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}
