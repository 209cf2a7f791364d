package cache

import (
	"context"
	"errors"
	"time"
)

// ErrEmptyKey is returned when a store operation is given an empty key
var ErrEmptyKey = errors.New("cache key is empty")

// MemoryStore is an in-process Store bounded by entry count.
// Stale entries are dropped lazily on Match.
type MemoryStore struct {
	entries *LRU[Entry]
	now     func() time.Time
}

// MemoryOption configures a MemoryStore
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source used for expiry
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore creates a store holding at most maxEntries entries
func NewMemoryStore(maxEntries int, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: NewLRU[Entry](maxEntries),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Match implements Store
func (s *MemoryStore) Match(ctx context.Context, key string) (Entry, bool, error) {
	if key == "" {
		return Entry{}, false, ErrEmptyKey
	}
	if err := ctx.Err(); err != nil {
		return Entry{}, false, err
	}

	entry, ok := s.entries.Get(key)
	if !ok {
		return Entry{}, false, nil
	}
	if entry.Expired(s.now()) {
		s.entries.Delete(key)
		return Entry{}, false, nil
	}

	entry.Payload = append([]byte(nil), entry.Payload...)
	return entry, true, nil
}

// Put implements Store
func (s *MemoryStore) Put(ctx context.Context, entry Entry) error {
	if entry.Key == "" {
		return ErrEmptyKey
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if entry.TTLSeconds <= 0 {
		// nothing fresh to keep
		s.entries.Delete(entry.Key)
		return nil
	}

	entry.Payload = append([]byte(nil), entry.Payload...)
	if entry.StoredAt.IsZero() {
		entry.StoredAt = s.now()
	}
	s.entries.Put(entry.Key, entry)
	return nil
}

// Delete implements Store
func (s *MemoryStore) Delete(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.entries.Delete(key), nil
}

// Len returns the number of entries held, fresh or not
func (s *MemoryStore) Len() int {
	return s.entries.Len()
}
