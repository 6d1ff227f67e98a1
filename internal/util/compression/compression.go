// Package compression wraps the codecs used for stored content blobs.
package compression

import (
	"bytes"
	"fmt"
)

type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	Name() string
}

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	gzipMagic = []byte{0x1f, 0x8b}
)

// New returns the compressor registered under name: zstd, gzip or none.
func New(name string) (Compressor, error) {
	switch name {
	case "zstd":
		return ZstdCompressor{}, nil
	case "gzip":
		return GzipCompressor{}, nil
	case "none", "":
		return NoneCompressor{}, nil
	}
	return nil, fmt.Errorf("unknown compression %q", name)
}

// Detect picks the codec a blob was written with from its leading bytes, so
// blobs stay readable after the configured compression changes.
func Detect(data []byte) Compressor {
	switch {
	case bytes.HasPrefix(data, zstdMagic):
		return ZstdCompressor{}
	case bytes.HasPrefix(data, gzipMagic):
		return GzipCompressor{}
	}
	return NoneCompressor{}
}

// Open decompresses data with the codec it was written with.
func Open(data []byte) ([]byte, error) {
	return Detect(data).Decompress(data)
}

type NoneCompressor struct{}

func (NoneCompressor) Compress(data []byte) ([]byte, error)   { return data, nil }
func (NoneCompressor) Decompress(data []byte) ([]byte, error) { return data, nil }
func (NoneCompressor) Name() string                           { return "none" }
