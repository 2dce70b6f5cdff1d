package trace

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

// CompressionType represents the compression algorithm of a trace file
type CompressionType uint8

const (
	CompressionNone   CompressionType = 0
	CompressionLZ4    CompressionType = 1
	CompressionSnappy CompressionType = 2
)

// String returns the codec name
func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionSnappy:
		return "snappy"
	default:
		return "unknown"
	}
}

// CompressionForPath picks the codec from the file extension:
// .lz4 for LZ4 frames, .sz or .snappy for snappy framing, anything else is plain text
func CompressionForPath(path string) CompressionType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".lz4":
		return CompressionLZ4
	case ".sz", ".snappy":
		return CompressionSnappy
	default:
		return CompressionNone
	}
}

// NewDecompressor wraps r with the decoder for the given codec
func NewDecompressor(r io.Reader, compressionType CompressionType) (io.Reader, error) {
	switch compressionType {
	case CompressionNone:
		return r, nil
	case CompressionLZ4:
		return lz4.NewReader(r), nil
	case CompressionSnappy:
		return snappy.NewReader(r), nil
	default:
		return nil, errors.Errorf("unsupported compression type: %d", compressionType)
	}
}

// NewCompressor wraps w with the encoder for the given codec.
// Closing the returned writer flushes the codec but does not close w.
func NewCompressor(w io.Writer, compressionType CompressionType) (io.WriteCloser, error) {
	switch compressionType {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	case CompressionSnappy:
		return snappy.NewBufferedWriter(w), nil
	default:
		return nil, errors.Errorf("unsupported compression type: %d", compressionType)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
