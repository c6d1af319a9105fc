package kvstore

import (
	"context"
	"errors"
)

// Store is the key-value store behind the cleanup timestamps. Values are
// RFC3339 timestamps; the store itself does not interpret them.
type Store interface {
	Get(ctx context.Context, key string) (string, error)

	Set(ctx context.Context, key, value string) error
}

var ErrKeyNotFound = errors.New("key not found")
