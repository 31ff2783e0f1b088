package hash

import (
	"testing"
)

func TestSHA256Hex(t *testing.T) {
	// Known SHA256 of "hello"
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	got := SHA256Hex("hello")
	if got != want {
		t.Errorf("SHA256Hex(\"hello\") = %s, want %s", got, want)
	}
}

func TestSHA256Hex_Empty(t *testing.T) {
	// SHA256 of empty string
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	got := SHA256Hex("")
	if got != want {
		t.Errorf("SHA256Hex(\"\") = %s, want %s", got, want)
	}
}

func TestPrefix(t *testing.T) {
	fullHash := SHA256Hex("192.168.1.1")

	tests := []struct {
		name string
		n    int
		want string
	}{
		{"12 char prefix", 12, fullHash[:12]},
		{"4 char prefix", 4, fullHash[:4]},
		{"full hash if prefix too long", 100, fullHash},
		{"full hash for zero", 0, fullHash},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Prefix("192.168.1.1", tt.n)
			if got != tt.want {
				t.Errorf("Prefix(%d) = %s, want %s", tt.n, got, tt.want)
			}
		})
	}
}

func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://Example.COM/Path/", "https://example.com/Path"},
		{"example.com", "https://example.com"},
		{"HTTP://example.com/a#section", "http://example.com/a"},
		{"https://example.com/?q=1", "https://example.com?q=1"},
		{"  https://example.com  ", "https://example.com"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := CanonicalURL(tt.in); got != tt.want {
				t.Errorf("CanonicalURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestURLKey(t *testing.T) {
	if URLKey("https://example.com/") != URLKey("EXAMPLE.com") {
		t.Error("equivalent URLs should share a key")
	}
	if URLKey("https://example.com/a") == URLKey("https://example.com/b") {
		t.Error("different URLs should have different keys")
	}
	if len(URLKey("example.com")) != 64 {
		t.Error("URLKey should be a full SHA256 hex digest")
	}
}
