package service

import (
	"errors"
	"net/url"
	"strings"

	"github.com/devilqueenlove/BookMyWebs/internal/metadata"
	"github.com/devilqueenlove/BookMyWebs/pkg/httputil"
)

var (
	ErrInvalidURL        = errors.New("url must be an absolute http(s) address")
	ErrInvalidCategory   = errors.New("category name must be 1-64 characters")
	ErrReservedCategory  = errors.New("category name is reserved")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrInvalidFile       = errors.New("file could not be parsed")
	ErrInvalidSince      = errors.New("since must be an RFC 3339 timestamp")
	ErrPrivateURL        = errors.New("url must point to a public host")
)

const (
	maxURLLen      = 2048
	maxCategoryLen = 64
)

// NormalizeBookmarkURL trims raw, assumes https:// when no scheme is given
// and checks that the result is an http(s) URL with a host.
func NormalizeBookmarkURL(raw string) (string, error) {
	s := metadata.NormalizeURL(raw)
	if s == "" || len(s) > maxURLLen || strings.ContainsAny(s, " \t\r\n") {
		return "", ErrInvalidURL
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (!strings.Contains(u.Hostname(), ".") && u.Hostname() != "localhost") {
		return "", ErrInvalidURL
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return "", ErrInvalidURL
	}
	return s, nil
}

// NormalizeFetchURL is NormalizeBookmarkURL for URLs the server is about to
// fetch on a caller's behalf: localhost names and non-public IP literals
// are refused with ErrPrivateURL. Names that resolve to private addresses
// are refused later by the outbound client.
func NormalizeFetchURL(raw string) (string, error) {
	s, err := NormalizeBookmarkURL(raw)
	if err != nil {
		return "", err
	}
	if !IsFetchable(s) {
		return "", ErrPrivateURL
	}
	return s, nil
}

// IsFetchable reports whether the host of a normalised URL passes the
// public host pre-check.
func IsFetchable(pageURL string) bool {
	u, err := url.Parse(pageURL)
	return err == nil && httputil.IsPublicHost(u.Hostname())
}
