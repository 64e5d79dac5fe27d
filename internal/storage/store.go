// Package storage holds the flat key-value stores the ledger and session
// snapshots are written to.
package storage

import (
	"context"
	"errors"
)

var ErrClosed = errors.New("store closed")

// Store is a flat string key-value store. A missing key is not an error:
// Get reports it with ok=false.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	// SetMany writes all pairs. Implementations make the write atomic when
	// the backend allows it.
	SetMany(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	Close() error
}
