package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// RepairReport summarizes a ScanAndRepair pass.
type RepairReport struct {
	Scanned int     // namespace keys examined
	Cleared int     // records removed as corrupt
	Errors  []error // removal failures (the scan itself continues)
}

// ScanAndRepair enumerates every key under this subsystem's namespace in the
// bounded backend, attempts to parse each record, and removes any that fail.
// Chunk fragments are validated through their metadata record; fragments
// whose metadata is gone are cleared as orphans. This is a maintenance
// operation, not part of the normal read path.
func (t *TieredStore) ScanAndRepair(ctx context.Context) (*RepairReport, error) {
	keys, err := t.bounded.Keys()
	if err != nil {
		return nil, err
	}

	report := &RepairReport{}
	for _, sk := range keys {
		if !strings.HasPrefix(sk, keyPrefix) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Scanned++

		if base, ok := strings.CutSuffix(sk, "_metadata"); ok {
			// A key ending in "_metadata" is usually chunk metadata, but a
			// direct record can collide with the suffix; when no chunk set
			// answers to the base key the record is validated below like
			// any other.
			if t.repairChunkSet(base, report) {
				continue
			}
		}
		if base, ok := chunkFragmentBase(sk); ok {
			// Fragments under live metadata are covered by the metadata
			// scan. Without metadata the key is either an unreachable
			// orphan or a direct record whose key happens to end in an
			// index; only the envelope parse below can tell them apart.
			if live, err := t.chunked.Has(base); err == nil && live {
				continue
			}
		}

		raw, err := t.bounded.Get(sk)
		if err != nil {
			continue // vanished mid-scan
		}
		if _, derr := openRecord([]byte(raw)); derr != nil {
			t.clearRecord(sk, report)
		}
	}
	return report, nil
}

// repairChunkSet validates the chunk set whose metadata lives at
// base+"_metadata": the metadata must parse, every chunk must be present, and
// the reassembled record must parse as an envelope. It reports false when no
// chunk set exists for base, so the caller can treat the key as a direct
// record.
func (t *TieredStore) repairChunkSet(base string, report *RepairReport) bool {
	record, found, err := t.chunked.Read(base)
	if err != nil {
		// Read already cleaned up corrupt sets.
		if errors.Is(err, ErrCorruption) {
			report.Cleared++
		} else {
			report.Errors = append(report.Errors, err)
		}
		return true
	}
	if !found {
		return false
	}
	if _, derr := openRecord([]byte(record)); derr != nil {
		report.Cleared++
		if rmErr := t.chunked.Remove(base); rmErr != nil {
			report.Errors = append(report.Errors,
				fmt.Errorf("storage: repair remove chunk set %q: %w", base, rmErr))
		}
	}
	return true
}

func (t *TieredStore) clearRecord(sk string, report *RepairReport) {
	report.Cleared++
	if err := t.bounded.Remove(sk); err != nil {
		report.Errors = append(report.Errors,
			fmt.Errorf("storage: repair remove %q: %w", sk, err))
	}
}

// chunkFragmentBase reports whether sk looks like a chunk fragment key
// (base + "_" + index) and returns the base key.
func chunkFragmentBase(sk string) (string, bool) {
	i := strings.LastIndexByte(sk, '_')
	if i < 0 || i == len(sk)-1 {
		return "", false
	}
	for _, r := range sk[i+1:] {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return sk[:i], true
}
