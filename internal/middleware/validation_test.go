package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"

	"github.com/devilqueenlove/BookMyWebs/internal/model"
)

func TestValidateUserID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"firebase uid", "Xy12abCDef34GhIJkl56", "Xy12abCDef34GhIJkl56", false},
		{"with dash and underscore", "user_1-a", "user_1-a", false},
		{"trims whitespace", "  abc  ", "abc", false},
		{"empty", "", "", true},
		{"too long", strings.Repeat("a", 129), "", true},
		{"exactly 128", strings.Repeat("a", 128), strings.Repeat("a", 128), false},
		{"invalid chars", "abc def", "", true},
		{"sql injection", "a'; DROP--", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errMsg := ValidateUserID(tt.input)
			if tt.wantErr && errMsg == "" {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && errMsg != "" {
				t.Errorf("unexpected error: %s", errMsg)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateBookmarkID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"uuid", "5f0c6d3e-1b2a-4c5d-9e8f-0a1b2c3d4e5f", "5f0c6d3e-1b2a-4c5d-9e8f-0a1b2c3d4e5f", false},
		{"empty", "", "", true},
		{"too long", strings.Repeat("a", 65), "", true},
		{"path traversal", "../etc", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errMsg := ValidateBookmarkID(tt.input)
			if tt.wantErr && errMsg == "" {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && errMsg != "" {
				t.Errorf("unexpected error: %s", errMsg)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateCategory(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"valid", "Reading List", "Reading List", false},
		{"trims", "  Work ", "Work", false},
		{"blank", "   ", "", true},
		{"exactly 64", strings.Repeat("c", 64), strings.Repeat("c", 64), false},
		{"too long", strings.Repeat("c", 65), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errMsg := ValidateCategory(tt.input)
			if tt.wantErr && errMsg == "" {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && errMsg != "" {
				t.Errorf("unexpected error: %s", errMsg)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateURLParam(t *testing.T) {
	if _, msg := ValidateURLParam(" "); msg == "" {
		t.Error("blank url should be rejected")
	}
	if _, msg := ValidateURLParam("https://a.com/" + strings.Repeat("x", 2048)); msg == "" {
		t.Error("oversized url should be rejected")
	}
	if got, msg := ValidateURLParam(" github.com "); msg != "" || got != "github.com" {
		t.Errorf("got %q, %q", got, msg)
	}
}

func TestValidateStruct(t *testing.T) {
	if msg := ValidateStruct(model.BookmarkRequest{URL: "https://go.dev"}); msg != "" {
		t.Errorf("valid request rejected: %s", msg)
	}

	msg := ValidateStruct(model.BookmarkRequest{Title: strings.Repeat("t", 501)})
	if !strings.Contains(msg, "url is required") {
		t.Errorf("message %q should name the json field url", msg)
	}
	if !strings.Contains(msg, "title must be at most 500 characters") {
		t.Errorf("message %q should report the title limit", msg)
	}

	msg = ValidateStruct(model.LinkHealthRequest{URLs: []string{}})
	if !strings.Contains(msg, "urls must have at least 1 entries") {
		t.Errorf("message = %q", msg)
	}
}

func TestRequireUser(t *testing.T) {
	app := fiber.New()
	app.Get("/me", RequireUser(), func(c fiber.Ctx) error {
		return c.SendString(UserID(c))
	})

	req := httptest.NewRequest("GET", "/me", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("status = %d, want 401 without header", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set(UserIDHeader, "user-42")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
