package cache

import "time"

// BytesCache stores pre-serialized API responses with a TTL. The signal
// endpoint caches its JSON body for one candle-safe window.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}
