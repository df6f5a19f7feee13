package common

import "time"

// CacheInterface abstracts the process cache so the config resolver and the
// ops handlers work against either the in-memory or the Redis backend.
type CacheInterface interface {
	Set(key string, value interface{}, duration time.Duration)
	Get(key string) (interface{}, bool)
	Delete(key string)
	GetOrSet(key string, duration time.Duration, loader func() (any, error)) (interface{}, error)
	Close() error
}
