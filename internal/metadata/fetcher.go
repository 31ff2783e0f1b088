// Package metadata fetches link previews (title, description, site name,
// content type, keywords) for bookmark URLs.
package metadata

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/devilqueenlove/BookMyWebs/internal/model"
)

// DefaultStrategyTimeout bounds each strategy attempt.
const DefaultStrategyTimeout = 5 * time.Second

// Cache stores successful fetches. A nil result with a nil error is a miss.
type Cache interface {
	GetMetadata(ctx context.Context, pageURL string) (*model.PageMetadata, error)
	SetMetadata(ctx context.Context, pageURL string, m model.PageMetadata) error
}

// Observer receives fetch outcomes, typically for metrics.
type Observer interface {
	ObserveFetch(strategy string, ok bool, elapsed time.Duration)
	ObserveCache(hit bool)
}

// Fetcher tries its strategies in order and never fails: when every
// strategy errors it returns Empty metadata.
type Fetcher struct {
	strategies []Strategy
	timeout    time.Duration
	cache      Cache
	observer   Observer
	logger     zerolog.Logger
	group      singleflight.Group
}

// Option configures a Fetcher.
type Option func(*Fetcher)

func WithCache(c Cache) Option {
	return func(f *Fetcher) { f.cache = c }
}

func WithObserver(o Observer) Option {
	return func(f *Fetcher) { f.observer = o }
}

func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// NewFetcher returns a Fetcher over strategies, tried in the given order.
func NewFetcher(strategies []Strategy, opts ...Option) *Fetcher {
	f := &Fetcher{
		strategies: strategies,
		timeout:    DefaultStrategyTimeout,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns metadata for rawURL. Concurrent calls for the same URL share
// one upstream fetch. If ctx ends first the caller gets Empty metadata while
// the shared fetch carries on for the others.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) model.PageMetadata {
	pageURL := NormalizeURL(rawURL)
	if pageURL == "" {
		return Empty(rawURL)
	}

	if f.cache != nil {
		cached, err := f.cache.GetMetadata(ctx, pageURL)
		if err != nil {
			f.logger.Warn().Err(err).Msg("metadata cache get failed")
		}
		f.observeCache(cached != nil)
		if cached != nil {
			return *cached
		}
	}

	base := context.WithoutCancel(ctx)
	ch := f.group.DoChan(pageURL, func() (interface{}, error) {
		return f.fetch(base, pageURL), nil
	})

	select {
	case res := <-ch:
		return res.Val.(model.PageMetadata)
	case <-ctx.Done():
		return Empty(pageURL)
	}
}

func (f *Fetcher) fetch(ctx context.Context, pageURL string) model.PageMetadata {
	for _, s := range f.strategies {
		sctx, cancel := context.WithTimeout(ctx, f.timeout)
		start := time.Now()
		m, err := s.Fetch(sctx, pageURL)
		cancel()

		f.observeFetch(s.Name(), err == nil, time.Since(start))
		if err != nil {
			f.logger.Debug().Err(err).Str("strategy", s.Name()).Msg("metadata strategy failed")
			continue
		}

		if m.Keywords == nil {
			m.Keywords = []string{}
		}
		if m.URL == "" {
			m.URL = pageURL
		}

		if f.cache != nil {
			if err := f.cache.SetMetadata(ctx, pageURL, m); err != nil {
				f.logger.Warn().Err(err).Msg("metadata cache set failed")
			}
		}
		return m
	}
	return Empty(pageURL)
}

func (f *Fetcher) observeFetch(strategy string, ok bool, elapsed time.Duration) {
	if f.observer != nil {
		f.observer.ObserveFetch(strategy, ok, elapsed)
	}
}

func (f *Fetcher) observeCache(hit bool) {
	if f.observer != nil {
		f.observer.ObserveCache(hit)
	}
}
