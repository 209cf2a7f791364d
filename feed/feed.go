// Package feed assembles the calendar feed: list upcoming media, apply the
// optional release filter, derive events and encode them.
package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/s0up4200/animecal/anilist"
	"github.com/s0up4200/animecal/calendar"
	"github.com/s0up4200/animecal/filter"
	"github.com/s0up4200/animecal/metrics"
)

const buildKey = "calendar"

// Lister returns the full upcoming media listing
type Lister interface {
	FetchAll(ctx context.Context) ([]anilist.Media, error)
}

// Service builds calendar feeds. Concurrent Build calls share one in-flight build.
type Service struct {
	lister     Lister
	serializer calendar.Serializer
	filter     filter.CompiledFilter
	evaluator  filter.Evaluator
	metrics    *metrics.Metrics
	logger     zerolog.Logger
	group      singleflight.Group
}

// Option configures a Service
type Option func(*Service)

// WithFilter restricts the feed to media matching f
func WithFilter(f filter.CompiledFilter) Option {
	return func(s *Service) {
		s.filter = f
	}
}

// WithEvaluator sets the evaluator used to apply the filter
func WithEvaluator(e filter.Evaluator) Option {
	return func(s *Service) {
		if e != nil {
			s.evaluator = e
		}
	}
}

// WithSerializer replaces the iCalendar serializer
func WithSerializer(serializer calendar.Serializer) Option {
	return func(s *Service) {
		if serializer != nil {
			s.serializer = serializer
		}
	}
}

// WithMetrics records builds to m
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService creates a feed service over lister
func NewService(lister Lister, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		lister:     lister,
		serializer: calendar.NewICSSerializer(),
		evaluator:  filter.NewConcurrentEvaluator(),
		logger:     logger.With().Str("component", "feed").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Events lists, filters and derives the feed events in listing order
func (s *Service) Events(ctx context.Context) ([]calendar.Event, error) {
	media, err := s.lister.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list upcoming media: %w", err)
	}

	if s.filter != nil {
		total := len(media)
		media, err = s.evaluator.Evaluate(ctx, s.filter, media)
		if err != nil {
			return nil, fmt.Errorf("apply filter: %w", err)
		}
		s.logger.Debug().
			Str("filter", s.filter.Expression()).
			Int("matched", len(media)).
			Int("total", total).
			Msg("Applied release filter")
	}

	return calendar.DeriveEvents(media), nil
}

// Build returns the encoded calendar. Callers arriving while a build is in
// flight wait for and share its result.
func (s *Service) Build(ctx context.Context) ([]byte, error) {
	ch := s.group.DoChan(buildKey, func() (any, error) {
		// the build outlives any single waiting caller
		return s.build(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.Debug().Msg("Shared in-flight feed build")
		}
		return res.Val.([]byte), nil
	}
}

func (s *Service) build(ctx context.Context) ([]byte, error) {
	start := time.Now()

	events, err := s.Events(ctx)
	if err != nil {
		s.metrics.ObserveBuild(metrics.BuildError, time.Since(start), 0)
		return nil, err
	}

	body, err := s.serializer.Serialize(events)
	if err != nil {
		s.metrics.ObserveBuild(metrics.BuildError, time.Since(start), len(events))
		return nil, fmt.Errorf("serialize calendar: %w", err)
	}

	elapsed := time.Since(start)
	s.metrics.ObserveBuild(metrics.BuildSuccess, elapsed, len(events))
	s.logger.Info().
		Int("events", len(events)).
		Int("bytes", len(body)).
		Dur("duration", elapsed).
		Msg("Built calendar feed")

	return body, nil
}
