// Package localstore is the durable client-side key/value store backing
// session identity and the cart mirror, so a restart restores them. The
// default backend is an embedded sqlite file; a redis backend exists for
// kiosk deployments where several terminals share one session wall.
package localstore

import (
	"context"
	"errors"
)

type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

var ErrNotFound = errors.New("key not found")
