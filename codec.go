package lfsgate

import (
	"encoding/json"
	"fmt"
	"time"
)

type storedOwner struct {
	Name string `json:"name"`
}

type storedLock struct {
	ID       string       `json:"id"`
	Path     string       `json:"path"`
	Owner    *storedOwner `json:"owner,omitempty"`
	LockedAt string       `json:"locked_at"`
}

// EncodeLockSet serializes a lock set into the persisted record format.
func EncodeLockSet(records []LockRecord) ([]byte, error) {
	out := make([]storedLock, 0, len(records))
	for _, r := range records {
		sl := storedLock{
			ID:       r.ID,
			Path:     r.Path,
			LockedAt: r.LockedAt.UTC().Format(time.RFC3339Nano),
		}
		if r.Owner != "" {
			sl.Owner = &storedOwner{Name: r.Owner}
		}
		out = append(out, sl)
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode lock set: %w: %w", ErrGeneral, err)
	}
	return data, nil
}

// DecodeLockSet parses a persisted lock set. Empty input is an empty set.
func DecodeLockSet(data []byte) ([]LockRecord, error) {
	if len(data) == 0 {
		return []LockRecord{}, nil
	}

	var in []storedLock
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("decode lock set: %w: %w", ErrGeneral, err)
	}

	records := make([]LockRecord, 0, len(in))
	for _, sl := range in {
		if sl.ID == "" {
			return nil, fmt.Errorf("decode lock set: %w: lock without id", ErrGeneral)
		}

		lockedAt, err := time.Parse(time.RFC3339Nano, sl.LockedAt)
		if err != nil {
			return nil, fmt.Errorf("decode lock set: %w: lock %s: %w", ErrGeneral, sl.ID, err)
		}

		r := LockRecord{ID: sl.ID, Path: sl.Path, LockedAt: lockedAt}
		if sl.Owner != nil {
			r.Owner = sl.Owner.Name
		}
		records = append(records, r)
	}

	return records, nil
}
