// Package kv provides the persistent key-value byte store backing the
// session gallery. The gallery is written as one atomic value under a single
// key; callers treat every write as a whole-value overwrite.
package kv

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when the key has no stored value.
	ErrNotFound = errors.New("kv: key not found")
	// ErrQuotaExceeded is returned by Set when the value does not fit the
	// store's capacity. Callers are expected to treat it as non-fatal.
	ErrQuotaExceeded = errors.New("kv: storage quota exceeded")
)

// Store is the minimal byte store contract the session gallery needs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}
