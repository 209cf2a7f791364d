package cache

import (
	"context"
	"fmt"
	"time"
)

// Entry is one cached payload addressed by key
type Entry struct {
	Key        string
	Payload    []byte
	TTLSeconds int
	Public     bool
	StoredAt   time.Time
}

// CacheControl renders the freshness directive the entry was stored with
func (e Entry) CacheControl() string {
	scope := "private"
	if e.Public {
		scope = "public"
	}
	return fmt.Sprintf("%s, max-age=%d", scope, e.TTLSeconds)
}

// ExpiresAt returns the instant after which the entry is stale
func (e Entry) ExpiresAt() time.Time {
	return e.StoredAt.Add(time.Duration(e.TTLSeconds) * time.Second)
}

// Expired reports whether the entry is stale at now
func (e Entry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt())
}

// Store is a key-addressed byte store with TTL expiry.
// Implementations handle their own concurrency control.
type Store interface {
	// Match returns the fresh entry stored at key, if any
	Match(ctx context.Context, key string) (Entry, bool, error)

	// Put stores entry, replacing any previous value at entry.Key
	Put(ctx context.Context, entry Entry) error

	// Delete removes key and reports whether something was removed
	Delete(ctx context.Context, key string) (bool, error)
}
