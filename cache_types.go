package postboard

import "time"

// CacheEntry is one cached response body.
type CacheEntry struct {
	Key       string
	Data      []byte
	Tags      []string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (e *CacheEntry) IsExpired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}
