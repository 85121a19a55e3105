package storage

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// MaxFileSize is the ceiling for file-to-bytes conversion (50 MB). Files
// above it are rejected before any read.
const MaxFileSize = 50 << 20

// BinaryFile is a handle to a converted file on disk, carrying the metadata
// the filesystem alone cannot: the content type and the logical modification
// time.
type BinaryFile struct {
	Path       string
	Name       string
	MimeType   string
	ModifiedAt time.Time
}

// FileToBytes reads the file behind the handle into memory. Files larger
// than MaxFileSize are rejected with ErrFileTooLarge before reading.
func FileToBytes(f *BinaryFile) ([]byte, error) {
	info, err := os.Stat(f.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrFileTooLarge, info.Size(), MaxFileSize)
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}
	return data, nil
}

// BytesToFile writes data to dir/name and returns a handle preserving the
// given MIME type and modification time. Legacy raw envelopes are accepted
// transparently: their payload is unwrapped, and their embedded MIME type is
// used when the caller's is generic. A zero modifiedAt keeps the write time.
func BytesToFile(data []byte, dir, name, mimeType string, modifiedAt time.Time) (*BinaryFile, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty file name", ErrConversionFailed)
	}

	if payload, hint, ok := unwrapLegacyEnvelope(data); ok {
		data = payload
		if isGenericMime(mimeType) && !isGenericMime(hint) {
			mimeType = hint
		}
	}
	if mimeType == "" {
		mimeType = sniffMimeType(data)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}
	if !modifiedAt.IsZero() {
		if err := os.Chtimes(path, modifiedAt, modifiedAt); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConversionFailed, err)
		}
	} else {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConversionFailed, err)
		}
		modifiedAt = info.ModTime()
	}

	return &BinaryFile{
		Path:       path,
		Name:       name,
		MimeType:   mimeType,
		ModifiedAt: modifiedAt,
	}, nil
}

// unwrapLegacyEnvelope detects bytes that are themselves a stored envelope,
// as produced by writers predating binary conversion, and returns the
// original payload plus the embedded MIME type hint.
func unwrapLegacyEnvelope(data []byte) ([]byte, string, bool) {
	if len(data) == 0 || data[0] != '{' {
		return nil, "", false
	}
	env, err := DecodeEnvelope(data)
	if err != nil {
		return nil, "", false
	}
	payload, err := env.Open()
	if err != nil {
		return nil, "", false
	}
	return payload, env.MimeType, true
}

func isGenericMime(mimeType string) bool {
	return mimeType == "" || mimeType == DefaultMimeType
}

// sniffMimeType detects the content type from the first bytes of data.
func sniffMimeType(data []byte) string {
	if len(data) > 512 {
		data = data[:512]
	}
	return http.DetectContentType(data)
}
