package storage

// DefaultQuota is the conservative capacity estimate used when the bounded
// backend cannot report usage (5 MB).
const DefaultQuota = 5 << 20

// quotaReserve is the fraction of available capacity held back as a safety
// buffer by HasSpace.
const quotaReserve = 0.10

// QuotaInfo is a transient snapshot of bounded-backend capacity. It is
// recomputed on every query and never persisted.
type QuotaInfo struct {
	UsedBytes       int64
	AvailableBytes  int64
	QuotaBytes      int64
	UsagePercentage float64
}

// Estimator computes capacity headroom for a bounded store. It uses the
// store's own usage report when available, otherwise sums stored entries
// against a fixed conservative quota.
type Estimator struct {
	store         BoundedStore
	fallbackQuota int64
}

// NewEstimator creates an Estimator over store. A non-positive fallbackQuota
// gets DefaultQuota.
func NewEstimator(store BoundedStore, fallbackQuota int64) *Estimator {
	if fallbackQuota <= 0 {
		fallbackQuota = DefaultQuota
	}
	return &Estimator{store: store, fallbackQuota: fallbackQuota}
}

// Estimate returns the current capacity snapshot.
func (e *Estimator) Estimate() (QuotaInfo, error) {
	used, quota, err := e.measure()
	if err != nil {
		return QuotaInfo{}, err
	}

	info := QuotaInfo{
		UsedBytes:      used,
		QuotaBytes:     quota,
		AvailableBytes: quota - used,
	}
	if info.AvailableBytes < 0 {
		info.AvailableBytes = 0
	}
	if quota > 0 {
		info.UsagePercentage = float64(used) / float64(quota) * 100
	}
	return info, nil
}

func (e *Estimator) measure() (used, quota int64, err error) {
	if reporter, ok := e.store.(UsageReporter); ok {
		return reporter.Usage()
	}

	// No precise signal: walk the key set and count entry bytes against the
	// conservative fixed quota.
	keys, err := e.store.Keys()
	if err != nil {
		return 0, 0, err
	}
	for _, key := range keys {
		value, err := e.store.Get(key)
		if err != nil {
			continue // entry vanished between Keys and Get
		}
		used += int64(len(key) + len(value))
	}
	return used, e.fallbackQuota, nil
}

// HasSpace reports whether requiredBytes fits within available capacity after
// reserving a 10% safety buffer. Advisory only: capacity is shared and can
// change between this check and the write, so writers must still treat
// ErrQuotaExceeded from the backend as the authoritative signal.
func (e *Estimator) HasSpace(requiredBytes int64) bool {
	info, err := e.Estimate()
	if err != nil {
		return true // cannot measure, let the backend decide
	}
	return float64(requiredBytes) <= float64(info.AvailableBytes)*(1-quotaReserve)
}
