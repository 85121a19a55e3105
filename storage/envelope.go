package storage

import (
	"encoding/json"
	"fmt"
)

// Envelope formats. Raw and compressed-text exist for backward compatibility
// with records written before binary compression was introduced.
const (
	FormatCompressed     = "compressed"
	FormatRaw            = "raw"
	FormatCompressedText = "compressed-text"
)

// DefaultMimeType is used when the caller does not supply a content type.
const DefaultMimeType = "application/octet-stream"

// compressionGain is the minimum relative size reduction required before a
// payload is stored compressed.
const compressionGain = 0.10

// Envelope is the versioned record format written to any backend. The payload
// is base64 text, compressed or raw per Format. OriginalSize is always the
// exact uncompressed byte length; it is set once at seal time and trusted by
// repair and quota estimation.
type Envelope struct {
	Payload           string `json:"payload"`
	OriginalSize      int64  `json:"originalSize"`
	CompressedSize    int64  `json:"compressedSize"`
	MimeType          string `json:"mimeType"`
	CompressionMethod string `json:"compressionMethod,omitempty"`
	Format            string `json:"format"`
}

// ChunkMetadata is persisted once per chunked key, after all chunks.
// TotalChunks must equal the number of contiguous chunk keys actually present.
type ChunkMetadata struct {
	TotalChunks    int    `json:"totalChunks"`
	OriginalSize   int64  `json:"originalSize"`
	CompressedSize int64  `json:"compressedSize"`
	Timestamp      int64  `json:"timestamp"`
	ChunkHash      string `json:"chunkHash,omitempty"`
}

// SealEnvelope wraps raw bytes into an envelope, compressing when deflate
// shrinks the payload by more than 10%. An empty mimeType is defaulted.
func SealEnvelope(data []byte, mimeType string) (*Envelope, error) {
	if mimeType == "" {
		mimeType = DefaultMimeType
	}

	env := &Envelope{
		OriginalSize: int64(len(data)),
		MimeType:     mimeType,
	}

	compressed, err := Compress(data)
	if err != nil {
		return nil, err
	}

	if float64(len(compressed)) < float64(len(data))*(1-compressionGain) {
		env.Payload = EncodeText(compressed)
		env.CompressedSize = int64(len(compressed))
		env.CompressionMethod = CompressionDeflate
		env.Format = FormatCompressed
	} else {
		env.Payload = EncodeText(data)
		env.CompressedSize = int64(len(data))
		env.Format = FormatRaw
	}
	return env, nil
}

// Marshal serializes the envelope for storage.
func (e *Envelope) Marshal() ([]byte, error) {
	out, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("storage: marshal envelope: %w", err)
	}
	return out, nil
}

// DecodeEnvelope parses and structurally validates a stored record. Any parse
// or validation failure is reported as ErrCorruption wrapping the cause; the
// caller is expected to remove the offending key.
func DecodeEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: parse envelope: %w", ErrCorruption, err)
	}
	if err := env.validate(); err != nil {
		return nil, err
	}
	return &env, nil
}

func (e *Envelope) validate() error {
	switch e.Format {
	case FormatCompressed, FormatRaw, FormatCompressedText:
	default:
		return fmt.Errorf("%w: unrecognized format %q", ErrCorruption, e.Format)
	}
	if e.OriginalSize < 0 || e.CompressedSize < 0 {
		return fmt.Errorf("%w: negative size", ErrCorruption)
	}
	return nil
}

// Open returns the original bytes the envelope was sealed over. Compressed
// and legacy compressed-text formats are inflated; raw is decoded directly.
func (e *Envelope) Open() ([]byte, error) {
	encoded, err := DecodeText(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruption, err)
	}

	var data []byte
	switch e.Format {
	case FormatCompressed, FormatCompressedText:
		data, err = decompressMethod(encoded, e.CompressionMethod)
		if err != nil {
			return nil, err
		}
	case FormatRaw:
		data = encoded
	default:
		return nil, fmt.Errorf("%w: unrecognized format %q", ErrCorruption, e.Format)
	}

	if int64(len(data)) != e.OriginalSize {
		return nil, fmt.Errorf("%w: size mismatch, envelope says %d bytes, got %d",
			ErrCorruption, e.OriginalSize, len(data))
	}
	return data, nil
}
