package ratelimiter

import (
	"errors"
	"time"
)

var ErrCacheMiss = errors.New("cache miss")

// GetterSetter is the bucket state backend. The in-memory implementation is
// the default; a shared cache can be swapped in when running behind a load
// balancer.
type GetterSetter interface {
	Get(key string) (int, error)
	Set(key string, value int) error
	SetWithExpiration(key string, value int, expiration time.Duration) error
	Close() error
}
