package storage

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// CompressionDeflate is the compression method recorded in envelopes.
const CompressionDeflate = "deflate"

// MaxDecompressedSize is the safety ceiling for decompressed data (256 MB).
// This prevents memory exhaustion from hostile or corrupt envelopes.
const MaxDecompressedSize = 256 << 20

// Compress compresses data with raw deflate.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompressionFailed, err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompressionFailed, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompressionFailed, err)
	}
	return buf.Bytes(), nil
}

// Decompress inflates deflate-compressed data. Malformed input returns
// ErrCompressionFailed wrapping the underlying cause, never partial output.
func Decompress(data []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer func() { _ = r.Close() }()

	out, err := io.ReadAll(io.LimitReader(r, MaxDecompressedSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompressionFailed, err)
	}
	if len(out) > MaxDecompressedSize {
		return nil, ErrDecompressedTooLarge
	}
	return out, nil
}

// decompressMethod dispatches on the envelope's compression method.
func decompressMethod(data []byte, method string) ([]byte, error) {
	switch method {
	case "", CompressionDeflate:
		return Decompress(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCompression, method)
	}
}
