package storage

import (
	"log/slog"
	"math/rand"
	"testing"
)

// testLogger returns a logger that routes through the test log, so cleanup
// warnings show up next to the failing assertion.
func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, nil))
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

// seededBytes produces deterministic incompressible data.
func seededBytes(seed int64, size int) []byte {
	data := make([]byte, size)
	rand.New(rand.NewSource(seed)).Read(data)
	return data
}
