// Package kvstore keeps versioned JSON blobs keyed by (scope, key).
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("kvstore: entry not found")
	ErrVersionConflict = errors.New("kvstore: version conflict")
)

type Entry struct {
	Scope     string          `db:"scope"`
	Key       string          `db:"key"`
	Blob      json.RawMessage `db:"blob"`
	Version   int64           `db:"version"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// Store writes are compare-and-swap: Put succeeds only when the stored version equals
// expectedVersion (0 meaning the entry must not exist yet) and returns the new version.
type Store interface {
	Get(ctx context.Context, scope, key string) (*Entry, error)
	Put(ctx context.Context, scope, key string, blob []byte, expectedVersion int64) (int64, error)
}
