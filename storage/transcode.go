package storage

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const (
	// encodeWindow is the raw-byte window size for text encoding (48 KB).
	// It is a multiple of 3, so each window encodes to complete base64
	// groups and windows concatenate into a valid whole-buffer encoding.
	encodeWindow = 48 * 1024

	// decodeWindow is the text window size for decoding (64 KB).
	// It is a multiple of 4, so each window decodes independently.
	decodeWindow = 64 * 1024
)

// EncodeText converts a byte buffer to base64 text in fixed-size windows.
// Windowing bounds peak memory on very large buffers.
func EncodeText(data []byte) string {
	if len(data) <= encodeWindow {
		return base64.StdEncoding.EncodeToString(data)
	}
	var sb strings.Builder
	sb.Grow(base64.StdEncoding.EncodedLen(len(data)))
	for i := 0; i < len(data); i += encodeWindow {
		end := i + encodeWindow
		if end > len(data) {
			end = len(data)
		}
		sb.WriteString(base64.StdEncoding.EncodeToString(data[i:end]))
	}
	return sb.String()
}

// DecodeText converts base64 text back to bytes in fixed-size windows.
// Round-trip law: DecodeText(EncodeText(b)) == b for all b.
func DecodeText(text string) ([]byte, error) {
	if len(text) <= decodeWindow {
		data, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return nil, fmt.Errorf("storage: decode text: %w", err)
		}
		return data, nil
	}
	out := make([]byte, 0, base64.StdEncoding.DecodedLen(len(text)))
	for i := 0; i < len(text); i += decodeWindow {
		end := i + decodeWindow
		if end > len(text) {
			end = len(text)
		}
		window, err := base64.StdEncoding.DecodeString(text[i:end])
		if err != nil {
			return nil, fmt.Errorf("storage: decode text at offset %d: %w", i, err)
		}
		out = append(out, window...)
	}
	return out, nil
}
