package anilist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/s0up4200/animecal/cache"
	"github.com/s0up4200/animecal/schema"
)

const (
	// DefaultMaxPages is the pagination ceiling
	DefaultMaxPages = 100
	// DefaultCacheTTL is how long a fetched page stays fresh
	DefaultCacheTTL = 24 * time.Hour
	// DefaultCacheNamespace prefixes page cache keys
	DefaultCacheNamespace = DefaultEndpoint + "/upcoming-movies"
)

// Page sources reported to a PageObserver
const (
	SourceLive  = "live"
	SourceCache = "cache"
)

var envelopeSchema = schema.Strict[PageEnvelope]{}

// PageFetcher fetches a single page
type PageFetcher interface {
	FetchPage(ctx context.Context, page int) (PageEnvelope, error)
}

// PageObserver is told where each page came from
type PageObserver interface {
	ObservePage(source string)
}

// Paginator walks all pages of the upcoming movies query
type Paginator struct {
	fetcher   PageFetcher
	logger    zerolog.Logger
	cache     *cache.Adapter
	ttl       time.Duration
	namespace string
	maxPages  int
	observer  PageObserver
}

// PaginatorOption configures a Paginator
type PaginatorOption func(*Paginator)

// WithCache reads and writes pages through a, keeping them fresh for ttl
func WithCache(a *cache.Adapter, ttl time.Duration) PaginatorOption {
	return func(p *Paginator) {
		p.cache = a
		p.ttl = ttl
	}
}

// WithCacheNamespace sets the prefix used for page cache keys
func WithCacheNamespace(namespace string) PaginatorOption {
	return func(p *Paginator) {
		if namespace != "" {
			p.namespace = namespace
		}
	}
}

// WithMaxPages sets the pagination ceiling
func WithMaxPages(n int) PaginatorOption {
	return func(p *Paginator) {
		if n > 0 {
			p.maxPages = n
		}
	}
}

// WithPageObserver reports the source of every page to o
func WithPageObserver(o PageObserver) PaginatorOption {
	return func(p *Paginator) {
		p.observer = o
	}
}

// NewPaginator creates a paginator over fetcher
func NewPaginator(fetcher PageFetcher, logger zerolog.Logger, opts ...PaginatorOption) *Paginator {
	p := &Paginator{
		fetcher:   fetcher,
		logger:    logger.With().Str("component", "paginator").Logger(),
		ttl:       DefaultCacheTTL,
		namespace: DefaultCacheNamespace,
		maxPages:  DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PageCacheKey returns the cache key for page under namespace
func PageCacheKey(namespace string, page int) string {
	return fmt.Sprintf("%s?page=%d", strings.TrimRight(namespace, "/?"), page)
}

// FetchAll returns the concatenated media of pages 1..N in page order, stopping
// after the first page that reports no next page. Any page failure aborts the
// listing.
func (p *Paginator) FetchAll(ctx context.Context) ([]Media, error) {
	start := time.Now()
	media := make([]Media, 0, PageSize)
	pages := 0

	for page := 1; ; page++ {
		if page > p.maxPages {
			p.logger.Error().
				Int("limit", p.maxPages).
				Int("media", len(media)).
				Msg("AniList reported more pages than the ceiling allows")
			return nil, &PaginationLimitError{Limit: p.maxPages}
		}

		env, err := p.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}
		pages++
		media = append(media, env.Media...)

		if !env.HasNextPage {
			break
		}
	}

	p.logger.Debug().
		Int("pages", pages).
		Int("media", len(media)).
		Dur("duration", time.Since(start)).
		Msg("Fetched all AniList pages")

	return media, nil
}

// fetchPage returns one page, preferring a fresh cached copy
func (p *Paginator) fetchPage(ctx context.Context, page int) (PageEnvelope, error) {
	key := PageCacheKey(p.namespace, page)

	if p.cache != nil {
		if env, ok := cache.Load(ctx, p.cache, key, envelopeSchema); ok {
			p.observe(SourceCache)
			return env, nil
		}
	}

	env, err := p.fetcher.FetchPage(ctx, page)
	if err != nil {
		p.logger.Debug().Err(err).Int("page", page).Msg("Page fetch failed")
		return PageEnvelope{}, err
	}
	p.observe(SourceLive)

	if p.cache != nil {
		cache.SavePublic(ctx, p.cache, key, env, envelopeSchema, p.ttl)
	}

	return env, nil
}

func (p *Paginator) observe(source string) {
	if p.observer != nil {
		p.observer.ObservePage(source)
	}
}
