package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/devilqueenlove/BookMyWebs/internal/model"
	"github.com/devilqueenlove/BookMyWebs/pkg/httputil"
)

const (
	DefaultLinkCheckWorkers = 8
	DefaultLinkCheckTimeout = 5 * time.Second
)

// LinkHealthService reports whether bookmarked sites still answer.
type LinkHealthService struct {
	client  *http.Client
	workers int
	timeout time.Duration
	logger  zerolog.Logger
}

func NewLinkHealthService(client *http.Client, workers int, timeout time.Duration, logger zerolog.Logger) *LinkHealthService {
	if workers <= 0 {
		workers = DefaultLinkCheckWorkers
	}
	if timeout <= 0 {
		timeout = DefaultLinkCheckTimeout
	}
	return &LinkHealthService{
		client:  client,
		workers: workers,
		timeout: timeout,
		logger:  logger.With().Str("component", "link-health").Logger(),
	}
}

// CheckAll checks each distinct URL once, in input order of first
// appearance.
func (s *LinkHealthService) CheckAll(ctx context.Context, urls []string) *model.LinkHealthResponse {
	seen := make(map[string]bool, len(urls))
	var unique []string
	for _, u := range urls {
		if !seen[u] {
			seen[u] = true
			unique = append(unique, u)
		}
	}

	results := make([]model.LinkStatus, len(unique))
	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, u := range unique {
		g.Go(func() error {
			results[i] = s.Check(ctx, u)
			return nil
		})
	}
	_ = g.Wait()

	summary := map[string]int{model.LinkOnline: 0, model.LinkOffline: 0, model.LinkUnknown: 0}
	for _, r := range results {
		summary[r.Status]++
	}
	return &model.LinkHealthResponse{Results: results, Summary: summary}
}

// Check requests one URL with HEAD, falling back to GET when HEAD is refused.
// Any HTTP answer below 500 counts as online; network failures are offline;
// invalid input, timeouts and addresses the client refuses to dial are
// unknown.
func (s *LinkHealthService) Check(ctx context.Context, rawURL string) model.LinkStatus {
	res := model.LinkStatus{URL: rawURL, Status: model.LinkUnknown}

	target, err := NormalizeBookmarkURL(rawURL)
	if err != nil {
		return res
	}

	status, err := s.request(ctx, http.MethodHead, target)
	if err == nil && (status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented || status == http.StatusForbidden) {
		status, err = s.request(ctx, http.MethodGet, target)
	}

	switch {
	case err != nil:
		if ctx.Err() != nil || isTimeout(err) || errors.Is(err, httputil.ErrBlockedAddress) {
			return res
		}
		s.logger.Debug().Err(err).Msg("link unreachable")
		res.Status = model.LinkOffline
	case status >= 500:
		res.Status = model.LinkOffline
		res.HTTPStatus = status
	default:
		res.Status = model.LinkOnline
		res.HTTPStatus = status
	}
	return res
}

func (s *LinkHealthService) request(ctx context.Context, method, target string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", "BookMyWebs-LinkCheck/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
