package source

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Compression identifies how a source file is encoded on disk.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
	CompressionXZ
	CompressionBzip2
)

func (c Compression) String() string {
	switch c {
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	case CompressionXZ:
		return "xz"
	case CompressionBzip2:
		return "bzip2"
	default:
		return "none"
	}
}

var (
	magicGzip  = []byte{0x1f, 0x8b}
	magicZstd  = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicXZ    = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	magicBzip2 = []byte{'B', 'Z', 'h'}
)

// CompressionFromPath detects compression from the file extension.
// ok is false when the extension says nothing either way.
func CompressionFromPath(path string) (c Compression, ok bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return CompressionGzip, true
	case ".zst", ".zstd":
		return CompressionZstd, true
	case ".xz":
		return CompressionXZ, true
	case ".bz2":
		return CompressionBzip2, true
	case ".csv", ".txt", ".tsv":
		return CompressionNone, true
	}
	return CompressionNone, false
}

// delimiterFromPath returns the field separator for path, looking through a
// compression extension: tab for .tsv and .tsv.gz, comma otherwise.
func delimiterFromPath(path string) rune {
	name := strings.ToLower(path)
	if c, ok := CompressionFromPath(name); ok && c != CompressionNone {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	if filepath.Ext(name) == ".tsv" {
		return '\t'
	}
	return ','
}

// sniffCompression detects compression from the leading bytes without consuming them.
func sniffCompression(r *bufio.Reader) Compression {
	head, _ := r.Peek(len(magicXZ))
	switch {
	case bytes.HasPrefix(head, magicGzip):
		return CompressionGzip
	case bytes.HasPrefix(head, magicZstd):
		return CompressionZstd
	case bytes.HasPrefix(head, magicXZ):
		return CompressionXZ
	case bytes.HasPrefix(head, magicBzip2):
		return CompressionBzip2
	}
	return CompressionNone
}

// decompress wraps r in the matching decoder. The returned close function
// releases decoder resources and is never nil.
func decompress(r io.Reader, c Compression) (io.Reader, func() error, error) {
	noop := func() error { return nil }

	switch c {
	case CompressionGzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gz, gz.Close, nil

	case CompressionZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return dec, func() error { dec.Close(); return nil }, nil

	case CompressionXZ:
		xzr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return xzr, noop, nil

	case CompressionBzip2:
		return bzip2.NewReader(r), noop, nil

	default:
		return r, noop, nil
	}
}
