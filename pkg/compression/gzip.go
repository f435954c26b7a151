package compression

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

// MethodRFC1952 is the CompressionMethod value announcing GZIP file format
// content in an ApplicationRequest.
const MethodRFC1952 = "RFC1952"

var gzipMagic = []byte{0x1f, 0x8b}

// Compressor handles payload compression
type Compressor struct {
	compressionLevel int
}

// NewCompressor creates a new compressor with default compression level
func NewCompressor() *Compressor {
	return &Compressor{
		compressionLevel: gzip.DefaultCompression,
	}
}

// NewCompressorWithLevel creates a new compressor with the given gzip level.
// The level is checked on first use.
func NewCompressorWithLevel(level int) *Compressor {
	return &Compressor{
		compressionLevel: level,
	}
}

// Method returns the CompressionMethod value for payloads produced by c.
func (c *Compressor) Method() string {
	return MethodRFC1952
}

// Compress compresses data into a single RFC 1952 member
func (c *Compressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	writer, err := gzip.NewWriterLevel(&buf, c.compressionLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to write data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}

	return buf.Bytes(), nil
}

// Decompress decompresses GZIP data
func (c *Compressor) Decompress(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer reader.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, fmt.Errorf("failed to read compressed data: %w", err)
	}

	return buf.Bytes(), nil
}

// IsGzip reports whether data starts with the GZIP member header.
func IsGzip(data []byte) bool {
	return bytes.HasPrefix(data, gzipMagic)
}
