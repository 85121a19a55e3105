package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// DefaultChunkSize is the default chunk ceiling for the bounded backend (64 KB).
const DefaultChunkSize = 64 * 1024

// splitChunks splits a serialized record into fixed-size string fragments.
// The last chunk may be smaller than chunkSize.
func splitChunks(record string, chunkSize int) ([]string, error) {
	if chunkSize <= 0 {
		return nil, ErrInvalidChunkSize
	}
	if len(record) == 0 {
		return nil, nil
	}
	chunks := make([]string, 0, (len(record)+chunkSize-1)/chunkSize)
	for i := 0; i < len(record); i += chunkSize {
		end := i + chunkSize
		if end > len(record) {
			end = len(record)
		}
		chunks = append(chunks, record[i:end])
	}
	return chunks, nil
}

// chunkDigest computes hex(SHA256(chunk0 || chunk1 || ...)), recorded in
// ChunkMetadata and verified on reassembly.
func chunkDigest(chunks []string) string {
	h := sha256.New()
	for _, chunk := range chunks {
		h.Write([]byte(chunk))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// joinChunks concatenates chunks in index order and verifies the digest when
// the metadata carries one. Older metadata records without a digest are
// accepted as-is.
func joinChunks(chunks []string, expectedDigest string) (string, error) {
	var sb strings.Builder
	h := sha256.New()
	for _, chunk := range chunks {
		sb.WriteString(chunk)
		h.Write([]byte(chunk))
	}
	if expectedDigest != "" && hex.EncodeToString(h.Sum(nil)) != expectedDigest {
		return "", ErrChunkHashMismatch
	}
	return sb.String(), nil
}
