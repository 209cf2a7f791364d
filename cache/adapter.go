package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/s0up4200/animecal/schema"
)

// Lookup and write outcomes reported to an Observer
const (
	ResultHit     = "hit"
	ResultMiss    = "miss"
	ResultInvalid = "invalid"
	ResultError   = "error"
	ResultStored  = "stored"
)

// Observer receives cache outcomes, typically for metrics
type Observer interface {
	ObserveLookup(result string)
	ObserveWrite(result string)
}

// Adapter is the only path to a Store. It validates payloads on the way in and
// out and absorbs every failure: a broken cache degrades to a miss or a skipped
// write, never to an error.
type Adapter struct {
	store    Store
	logger   zerolog.Logger
	observer Observer
	now      func() time.Time
}

// AdapterOption configures an Adapter
type AdapterOption func(*Adapter)

// WithObserver reports lookup and write outcomes to o
func WithObserver(o Observer) AdapterOption {
	return func(a *Adapter) {
		a.observer = o
	}
}

// WithAdapterClock overrides the time stamped on stored entries
func WithAdapterClock(now func() time.Time) AdapterOption {
	return func(a *Adapter) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAdapter wraps store
func NewAdapter(store Store, logger zerolog.Logger, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		store:  store,
		logger: logger.With().Str("component", "cache").Logger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) lookup(result string) {
	if a.observer != nil {
		a.observer.ObserveLookup(result)
	}
}

func (a *Adapter) write(result string) {
	if a.observer != nil {
		a.observer.ObserveWrite(result)
	}
}

// Load returns the value cached at key if it is present, fresh and valid
// against s. An invalid payload is evicted so the next write replaces it.
func Load[T any](ctx context.Context, a *Adapter, key string, s schema.Schema[T]) (T, bool) {
	var zero T

	entry, ok, err := a.store.Match(ctx, key)
	if err != nil {
		a.logger.Warn().Err(err).Str("key", key).Msg("Cache lookup failed, treating as miss")
		a.lookup(ResultError)
		return zero, false
	}
	if !ok {
		a.lookup(ResultMiss)
		return zero, false
	}

	value, err := s.Decode(entry.Payload)
	if err != nil {
		a.logger.Warn().Err(err).Str("key", key).Msg("Cached payload failed validation, evicting")
		if _, derr := a.store.Delete(ctx, key); derr != nil {
			a.logger.Warn().Err(derr).Str("key", key).Msg("Failed to evict invalid cache entry")
		}
		a.lookup(ResultInvalid)
		return zero, false
	}

	a.logger.Debug().Str("key", key).Msg("Cache hit")
	a.lookup(ResultHit)
	return value, true
}

// SavePublic stores value at key for ttl with a public freshness window.
// Values failing s, non-positive ttls and store errors are skipped silently.
func SavePublic[T any](ctx context.Context, a *Adapter, key string, value T, s schema.Schema[T], ttl time.Duration) {
	if err := s.Validate(value); err != nil {
		a.logger.Debug().Err(err).Str("key", key).Msg("Skipping cache write for invalid value")
		a.write(ResultInvalid)
		return
	}

	seconds := int(ttl / time.Second)
	if seconds <= 0 {
		a.write(ResultInvalid)
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		a.logger.Warn().Err(err).Str("key", key).Msg("Failed to encode cache value")
		a.write(ResultError)
		return
	}

	entry := Entry{
		Key:        key,
		Payload:    payload,
		TTLSeconds: seconds,
		Public:     true,
		StoredAt:   a.now(),
	}
	if err := a.store.Put(ctx, entry); err != nil {
		a.logger.Warn().Err(err).Str("key", key).Msg("Failed to store cache entry")
		a.write(ResultError)
		return
	}

	a.logger.Debug().
		Str("key", key).
		Str("cache_control", entry.CacheControl()).
		Int("bytes", len(payload)).
		Msg("Stored cache entry")
	a.write(ResultStored)
}
