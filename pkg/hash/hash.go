package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// SHA256Hex returns the hex-encoded SHA256 hash of the input string.
func SHA256Hex(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}

// Prefix returns the first n characters of SHA256Hex(input). Used where a
// short, irreversible correlation key is enough (log IP hashes).
func Prefix(input string, n int) string {
	full := SHA256Hex(input)
	if n > len(full) || n <= 0 {
		return full
	}
	return full[:n]
}

// CanonicalURL reduces a URL to the form used for duplicate detection:
// https:// is assumed when no scheme is given, scheme and host are
// lower-cased, the fragment and a trailing slash are dropped.
func CanonicalURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return strings.ToLower(s)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	return u.String()
}

// URLKey is the stable key of a URL: SHA256Hex(CanonicalURL(raw)).
func URLKey(raw string) string {
	return SHA256Hex(CanonicalURL(raw))
}
