package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/devilqueenlove/BookMyWebs/internal/model"
	"github.com/devilqueenlove/BookMyWebs/pkg/httputil"
)

// Strategy names.
const (
	StrategyDirect  = "direct"
	StrategyService = "service"
	StrategyProxy   = "proxy"
)

// DefaultProxyURL is the public HTML fetch proxy.
const DefaultProxyURL = "https://api.allorigins.win"

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// ErrNoMetadata is returned by a strategy that reached the page but found no
// usable signal, so the next strategy gets a chance.
var ErrNoMetadata = errors.New("no metadata found")

// Strategy fetches metadata for a normalised URL.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, pageURL string) (model.PageMetadata, error)
}

// DirectStrategy downloads the page itself and parses its HTML.
type DirectStrategy struct {
	client *http.Client
}

func NewDirectStrategy(client *http.Client) *DirectStrategy {
	return &DirectStrategy{client: client}
}

func (s *DirectStrategy) Name() string { return StrategyDirect }

func (s *DirectStrategy) Fetch(ctx context.Context, pageURL string) (model.PageMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return model.PageMetadata{}, err
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := s.client.Do(req)
	if err != nil {
		return model.PageMetadata{}, err
	}
	defer drain(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.PageMetadata{}, fmt.Errorf("direct fetch: status %d", resp.StatusCode)
	}

	m, err := ParseHTML(resp.Body, pageURL)
	if err != nil {
		return model.PageMetadata{}, fmt.Errorf("direct fetch: %w", err)
	}
	if m.IsEmpty() {
		return model.PageMetadata{}, ErrNoMetadata
	}
	return m, nil
}

// ServiceStrategy asks a remote metadata service that answers with the
// PageMetadata JSON shape.
type ServiceStrategy struct {
	endpoint string
	client   *http.Client
}

func NewServiceStrategy(endpoint string, client *http.Client) *ServiceStrategy {
	return &ServiceStrategy{endpoint: endpoint, client: client}
}

func (s *ServiceStrategy) Name() string { return StrategyService }

func (s *ServiceStrategy) Fetch(ctx context.Context, pageURL string) (model.PageMetadata, error) {
	var m model.PageMetadata
	if err := getJSON(ctx, s.client, withQuery(s.endpoint, pageURL), &m); err != nil {
		return model.PageMetadata{}, fmt.Errorf("metadata service: %w", err)
	}
	if m.IsEmpty() {
		return model.PageMetadata{}, ErrNoMetadata
	}
	if m.Keywords == nil {
		m.Keywords = []string{}
	}
	m.URL = pageURL
	return m, nil
}

// ProxyStrategy fetches the page through an allorigins-style proxy that
// wraps the HTML in {"contents": "..."}.
type ProxyStrategy struct {
	endpoint string
	client   *http.Client
}

func NewProxyStrategy(baseURL string, client *http.Client) *ProxyStrategy {
	if baseURL == "" {
		baseURL = DefaultProxyURL
	}
	return &ProxyStrategy{endpoint: strings.TrimRight(baseURL, "/") + "/get", client: client}
}

func (s *ProxyStrategy) Name() string { return StrategyProxy }

func (s *ProxyStrategy) Fetch(ctx context.Context, pageURL string) (model.PageMetadata, error) {
	var body struct {
		Contents string `json:"contents"`
	}
	if err := getJSON(ctx, s.client, withQuery(s.endpoint, pageURL), &body); err != nil {
		return model.PageMetadata{}, fmt.Errorf("proxy: %w", err)
	}
	m, err := ParseHTML(strings.NewReader(body.Contents), pageURL)
	if err != nil {
		return model.PageMetadata{}, fmt.Errorf("proxy: %w", err)
	}
	if m.IsEmpty() {
		return model.PageMetadata{}, ErrNoMetadata
	}
	return m, nil
}

// Chain returns the strategies in fallback order. A configured
// first-party service replaces the direct fetch; the proxy, when set, comes
// last. pageClient fetches user supplied URLs and must refuse non-public
// addresses; upstreamClient talks to the operator configured endpoints.
func Chain(serviceURL, proxyURL string, pageClient, upstreamClient *http.Client) []Strategy {
	var chain []Strategy
	if serviceURL != "" {
		chain = append(chain, NewServiceStrategy(serviceURL, upstreamClient))
	} else {
		chain = append(chain, NewDirectStrategy(pageClient))
	}
	if proxyURL != "" {
		chain = append(chain, NewProxyStrategy(proxyURL, upstreamClient))
	}
	return chain
}

// breakerStrategy skips a failing upstream until its breaker half-opens.
type breakerStrategy struct {
	next Strategy
	cb   *gobreaker.CircuitBreaker
}

// WithBreaker wraps s in a circuit breaker that opens after five
// consecutive failures and retries after timeout.
func WithBreaker(s Strategy, timeout time.Duration, logger zerolog.Logger) Strategy {
	settings := gobreaker.Settings{
		Name:        "metadata-" + s.Name(),
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
		IsSuccessful: func(err error) bool {
			// pages without metadata, refused private addresses and callers
			// giving up say nothing about upstream health
			return err == nil ||
				errors.Is(err, ErrNoMetadata) ||
				errors.Is(err, httputil.ErrBlockedAddress) ||
				errors.Is(err, context.Canceled)
		},
	}
	return &breakerStrategy{next: s, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *breakerStrategy) Name() string { return b.next.Name() }

func (b *breakerStrategy) Fetch(ctx context.Context, pageURL string) (model.PageMetadata, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Fetch(ctx, pageURL)
	})
	if err != nil {
		return model.PageMetadata{}, err
	}
	return res.(model.PageMetadata), nil
}

func withQuery(endpoint, pageURL string) string {
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return endpoint + sep + "url=" + url.QueryEscape(pageURL)
}

func getJSON(ctx context.Context, client *http.Client, target string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer drain(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(io.LimitReader(resp.Body, maxHTMLBytes*2)).Decode(out)
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	_ = body.Close()
}
