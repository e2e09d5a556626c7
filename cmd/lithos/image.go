package main

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/google/renameio"
	"github.com/klauspost/pgzip"
)

// loadImage reads a disk image from the host, transparently decompressing
// ".gz" files.
func loadImage(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := pgzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		reader = zr
	}
	return io.ReadAll(reader)
}

// saveImage writes a disk image atomically, compressing when the name says
// so. A crash mid-write leaves the old image intact.
func saveImage(path string, data []byte) error {
	if strings.HasSuffix(path, ".gz") {
		var buf bytes.Buffer
		zw := pgzip.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			zw.Close()
			return err
		}
		if err := zw.Close(); err != nil {
			return err
		}
		data = buf.Bytes()
	}
	return renameio.WriteFile(path, data, 0644)
}
