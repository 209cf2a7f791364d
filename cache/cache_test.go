package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/animecal/schema"
)

type release struct {
	ID    int    `json:"id" validate:"required"`
	Title string `json:"title" validate:"required"`
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// recordingObserver counts outcomes reported by the adapter
type recordingObserver struct {
	lookups map[string]int
	writes  map[string]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{lookups: map[string]int{}, writes: map[string]int{}}
}

func (o *recordingObserver) ObserveLookup(result string) { o.lookups[result]++ }
func (o *recordingObserver) ObserveWrite(result string)  { o.writes[result]++ }

// brokenStore fails every operation
type brokenStore struct{ deletes int }

var errBroken = errors.New("store unavailable")

func (b *brokenStore) Match(context.Context, string) (Entry, bool, error) {
	return Entry{}, false, errBroken
}
func (b *brokenStore) Put(context.Context, Entry) error { return errBroken }
func (b *brokenStore) Delete(context.Context, string) (bool, error) {
	b.deletes++
	return false, errBroken
}

func newTestAdapter(t *testing.T) (*Adapter, *MemoryStore, *fakeClock, *recordingObserver) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(16, WithClock(clock.Now))
	obs := newRecordingObserver()
	a := NewAdapter(store, zerolog.Nop(), WithObserver(obs), WithAdapterClock(clock.Now))
	return a, store, clock, obs
}

func TestLRU(t *testing.T) {
	c := NewLRU[int](2)
	var evicted []string
	c.OnEvict(func(key string, _ int) { evicted = append(evicted, key) })

	c.Put("a", 1)
	c.Put("b", 2)
	_, _ = c.Get("a") // a is now most recent
	c.Put("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "b should have been evicted")
	assert.Equal(t, []string{"b"}, evicted)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Len())

	assert.True(t, c.Delete("a"))
	assert.False(t, c.Delete("a"))

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(4, WithClock(clock.Now))

	t.Run("round trip copies payload", func(t *testing.T) {
		payload := []byte(`{"a":1}`)
		require.NoError(t, store.Put(ctx, Entry{Key: "k", Payload: payload, TTLSeconds: 60, Public: true}))
		payload[0] = 'x'

		got, ok, err := store.Match(ctx, "k")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, `{"a":1}`, string(got.Payload))
		assert.Equal(t, "public, max-age=60", got.CacheControl())
	})

	t.Run("expired entries are dropped", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, Entry{Key: "short", Payload: []byte("1"), TTLSeconds: 10}))
		clock.Advance(10 * time.Second)

		_, ok, err := store.Match(ctx, "short")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("zero ttl removes existing entry", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, Entry{Key: "z", Payload: []byte("1"), TTLSeconds: 60}))
		require.NoError(t, store.Put(ctx, Entry{Key: "z", Payload: []byte("2")}))

		_, ok, err := store.Match(ctx, "z")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("empty key", func(t *testing.T) {
		_, _, err := store.Match(ctx, "")
		assert.ErrorIs(t, err, ErrEmptyKey)
		assert.ErrorIs(t, store.Put(ctx, Entry{}), ErrEmptyKey)
		_, err = store.Delete(ctx, "")
		assert.ErrorIs(t, err, ErrEmptyKey)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, _, err := store.Match(cctx, "k")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestAdapterRoundTrip(t *testing.T) {
	ctx := context.Background()
	a, _, _, obs := newTestAdapter(t)
	s := schema.Strict[release]{}

	want := release{ID: 42, Title: "劇場版"}
	SavePublic(ctx, a, "page:1", want, s, 24*time.Hour)

	got, ok := Load(ctx, a, "page:1", s)
	require.True(t, ok)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, obs.writes[ResultStored])
	assert.Equal(t, 1, obs.lookups[ResultHit])
}

func TestAdapterMiss(t *testing.T) {
	a, _, _, obs := newTestAdapter(t)

	_, ok := Load(context.Background(), a, "absent", schema.Strict[release]{})
	assert.False(t, ok)
	assert.Equal(t, 1, obs.lookups[ResultMiss])
}

func TestAdapterSelfHealing(t *testing.T) {
	ctx := context.Background()
	a, store, _, obs := newTestAdapter(t)
	s := schema.Strict[release]{}

	// an older payload shape that no longer validates
	require.NoError(t, store.Put(ctx, Entry{
		Key:        "page:1",
		Payload:    []byte(`{"id": 42, "name": "old shape"}`),
		TTLSeconds: 3600,
		Public:     true,
	}))

	_, ok := Load(ctx, a, "page:1", s)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len(), "invalid entry should be evicted")

	_, ok = Load(ctx, a, "page:1", s)
	assert.False(t, ok)
	assert.Equal(t, 1, obs.lookups[ResultInvalid])
	assert.Equal(t, 1, obs.lookups[ResultMiss])

	SavePublic(ctx, a, "page:1", release{ID: 42, Title: "new"}, s, time.Hour)
	got, ok := Load(ctx, a, "page:1", s)
	require.True(t, ok)
	assert.Equal(t, "new", got.Title)
}

func TestAdapterSkipsInvalidWrites(t *testing.T) {
	ctx := context.Background()
	a, store, _, obs := newTestAdapter(t)
	s := schema.Strict[release]{}

	SavePublic(ctx, a, "page:1", release{ID: 1}, s, time.Hour)
	assert.Equal(t, 0, store.Len())

	SavePublic(ctx, a, "page:2", release{ID: 2, Title: "ok"}, s, 0)
	assert.Equal(t, 0, store.Len())

	assert.Equal(t, 2, obs.writes[ResultInvalid])
}

func TestAdapterExpiry(t *testing.T) {
	ctx := context.Background()
	a, _, clock, _ := newTestAdapter(t)
	s := schema.Strict[release]{}

	SavePublic(ctx, a, "page:1", release{ID: 1, Title: "t"}, s, time.Hour)

	clock.Advance(59 * time.Minute)
	_, ok := Load(ctx, a, "page:1", s)
	assert.True(t, ok)

	clock.Advance(time.Minute)
	_, ok = Load(ctx, a, "page:1", s)
	assert.False(t, ok)
}

func TestAdapterAbsorbsStoreFailures(t *testing.T) {
	ctx := context.Background()
	store := &brokenStore{}
	obs := newRecordingObserver()
	a := NewAdapter(store, zerolog.Nop(), WithObserver(obs))
	s := schema.Strict[release]{}

	assert.NotPanics(t, func() {
		SavePublic(ctx, a, "k", release{ID: 1, Title: "t"}, s, time.Hour)
	})
	_, ok := Load(ctx, a, "k", s)
	assert.False(t, ok)

	assert.Equal(t, 1, obs.writes[ResultError])
	assert.Equal(t, 1, obs.lookups[ResultError])
	assert.Equal(t, 0, store.deletes)
}
