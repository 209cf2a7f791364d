package cmd

import (
	"fmt"
	"strings"

	"github.com/s0up4200/animecal/anilist"
	"github.com/s0up4200/animecal/cache"
	"github.com/s0up4200/animecal/feed"
	"github.com/s0up4200/animecal/filter"
	"github.com/s0up4200/animecal/metrics"
)

// pipeline holds the components shared by serve, export and list
type pipeline struct {
	paginator *anilist.Paginator
	filters   *filter.Manager
	metrics   *metrics.Metrics
}

// newPipeline wires the AniList client, page cache and filter presets from
// the loaded configuration. m may be nil.
func newPipeline(m *metrics.Metrics) (*pipeline, error) {
	client, err := anilist.NewClient(logger,
		anilist.WithEndpoint(cfg.AniList.URL),
		anilist.WithTimeout(cfg.AniList.Timeout),
		anilist.WithUserAgent(userAgent(cfg.AniList.UserAgent)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AniList client: %w", err)
	}

	opts := []anilist.PaginatorOption{
		anilist.WithMaxPages(cfg.AniList.MaxPages),
		anilist.WithPageObserver(m),
	}

	if cfg.Cache.Enabled && cfg.Cache.TTL > 0 {
		store := cache.NewMemoryStore(cfg.Cache.MaxEntries)
		adapter := cache.NewAdapter(store, logger, cache.WithObserver(m))
		opts = append(opts,
			anilist.WithCache(adapter, cfg.Cache.TTL),
			anilist.WithCacheNamespace(cfg.Cache.Namespace),
		)
		logger.Debug().
			Dur("ttl", cfg.Cache.TTL).
			Int("max_entries", cfg.Cache.MaxEntries).
			Msg("Page cache enabled")
	}

	filters := filter.NewManager()
	if err := filters.RegisterFilters(cfg.Filter.Presets); err != nil {
		return nil, fmt.Errorf("invalid filter preset: %w", err)
	}

	return &pipeline{
		paginator: anilist.NewPaginator(client, logger, opts...),
		filters:   filters,
		metrics:   m,
	}, nil
}

// resolveFilter picks the filter from flags, falling back to the config
func (p *pipeline) resolveFilter(expression, presetName string) (filter.CompiledFilter, error) {
	if expression == "" && presetName == "" {
		expression, presetName = cfg.Filter.Expression, cfg.Filter.Preset
	}

	// preset names are lowercased by viper
	f, err := p.filters.Resolve(expression, strings.ToLower(presetName))
	if err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}
	if f != nil {
		logger.Info().Str("filter", f.Expression()).Msg("Using release filter")
	}
	return f, nil
}

// newFeed creates the feed service with the selected filter applied
func (p *pipeline) newFeed(expression, presetName string) (*feed.Service, error) {
	f, err := p.resolveFilter(expression, presetName)
	if err != nil {
		return nil, err
	}

	opts := []feed.Option{feed.WithMetrics(p.metrics)}
	if f != nil {
		opts = append(opts, feed.WithFilter(f))
	}
	return feed.NewService(p.paginator, logger, opts...), nil
}
