// Package metadata is the client-local key/value repository. Session slots
// (access, refresh, user and the demo slots) live here.
package metadata

import (
	"context"
)

// Repository reads and writes raw slot values. Get returns (nil, nil) for a
// missing key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	GetMany(ctx context.Context, keys ...string) (map[string][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}
