package core

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound is returned by KeyValueStore.Get for absent keys.
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore is a small durable key-value capability. The session layer
// uses it for the persisted demo marker and the remember-me flag; nothing
// else touches those keys.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	// Set stores the value. A zero ttl means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Remove deletes the key; removing an absent key is a no-op.
	Remove(ctx context.Context, key string) error
}
