package storage

import "errors"

var (
	// ErrNotFound indicates no record exists for the given key.
	ErrNotFound = errors.New("storage: key not found")

	// ErrInvalidKey indicates the key is empty or otherwise unusable.
	ErrInvalidKey = errors.New("storage: invalid key")

	// ErrQuotaExceeded indicates the bounded backend has no capacity left.
	ErrQuotaExceeded = errors.New("storage: quota exceeded")

	// ErrFileTooLarge indicates a file exceeds the conversion size ceiling.
	ErrFileTooLarge = errors.New("storage: file exceeds maximum size")

	// ErrConversionFailed indicates a file could not be read or written.
	ErrConversionFailed = errors.New("storage: file conversion failed")

	// ErrStorageUnavailable indicates the requested backend is not usable.
	ErrStorageUnavailable = errors.New("storage: backend unavailable")

	// ErrCompressionFailed indicates compression or decompression failed.
	ErrCompressionFailed = errors.New("storage: compression failed")

	// ErrBlobStore indicates a failure in the larger blob backend.
	ErrBlobStore = errors.New("storage: blob store failure")

	// ErrCorruption indicates a stored record is malformed or truncated.
	ErrCorruption = errors.New("storage: corrupt record")

	// ErrUnsupportedCompression indicates an unknown compression method.
	ErrUnsupportedCompression = errors.New("storage: unsupported compression method")

	// ErrDecompressedTooLarge indicates decompressed data exceeds the safety limit.
	ErrDecompressedTooLarge = errors.New("storage: decompressed data exceeds maximum size")

	// ErrInvalidChunkSize indicates the chunk size is not a positive integer.
	ErrInvalidChunkSize = errors.New("storage: chunk size must be positive")

	// ErrChunkHashMismatch indicates chunk reassembly hash verification failed.
	ErrChunkHashMismatch = errors.New("storage: chunk reassembly hash mismatch")
)
