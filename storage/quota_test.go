package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// plainStore hides MemStore's usage report to exercise the fallback path.
type plainStore struct {
	inner *MemStore
}

func (p *plainStore) Set(key, value string) error    { return p.inner.Set(key, value) }
func (p *plainStore) Get(key string) (string, error) { return p.inner.Get(key) }
func (p *plainStore) Remove(key string) error        { return p.inner.Remove(key) }
func (p *plainStore) Keys() ([]string, error)        { return p.inner.Keys() }

func TestEstimate_WithUsageReporter(t *testing.T) {
	store := NewMemStore(1000)
	require.NoError(t, store.Set("abcd", "efghij")) // 10 bytes

	info, err := NewEstimator(store, 0).Estimate()
	require.NoError(t, err)
	assert.Equal(t, int64(10), info.UsedBytes)
	assert.Equal(t, int64(1000), info.QuotaBytes)
	assert.Equal(t, int64(990), info.AvailableBytes)
	assert.InDelta(t, 1.0, info.UsagePercentage, 0.001)
}

func TestEstimate_FallbackCountsEntries(t *testing.T) {
	store := &plainStore{inner: NewMemStore(0)}
	require.NoError(t, store.Set("ab", "cdef")) // 6 bytes

	info, err := NewEstimator(store, 100).Estimate()
	require.NoError(t, err)
	assert.Equal(t, int64(6), info.UsedBytes)
	assert.Equal(t, int64(100), info.QuotaBytes)
	assert.Equal(t, int64(94), info.AvailableBytes)
}

func TestEstimate_DefaultFallbackQuota(t *testing.T) {
	info, err := NewEstimator(&plainStore{inner: NewMemStore(0)}, 0).Estimate()
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultQuota), info.QuotaBytes)
}

func TestHasSpace_Boundary(t *testing.T) {
	// Empty store with quota 1000: available is 1000, reserve leaves 900.
	estimator := NewEstimator(NewMemStore(1000), 0)

	tests := []struct {
		name     string
		required int64
		want     bool
	}{
		{"well under", 100, true},
		{"exactly at the 90% boundary", 900, true},
		{"one byte past the boundary", 901, false},
		{"full quota", 1000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, estimator.HasSpace(tt.required))
		})
	}
}

func TestHasSpace_ShrinksWithUsage(t *testing.T) {
	store := NewMemStore(1000)
	estimator := NewEstimator(store, 0)
	require.NoError(t, store.Set("k", string(make([]byte, 499)))) // 500 bytes used

	// 500 available, reserve leaves 450.
	assert.True(t, estimator.HasSpace(450))
	assert.False(t, estimator.HasSpace(451))
}
