package middleware

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// Field length limits matching database schema constraints.
const (
	MaxUserIDLen   = 128  // bookmarks.user_id VARCHAR(128)
	MaxURLLen      = 2048 // bookmarks.url
	MaxCategoryLen = 64   // categories.name VARCHAR(64)
	MaxBookmarkID  = 64
)

// UserIDHeader carries the caller's identity.
const UserIDHeader = "X-User-ID"

const userLocalsKey = "userID"

var (
	// userIDRe matches auth-provider uids and hashed ids.
	userIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	// bookmarkIDRe matches generated bookmark ids (UUIDs) and imported ids.
	bookmarkIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateStruct checks s against its validate tags and returns a readable
// message, or "" when s is valid.
func ValidateStruct(s any) string {
	err := validate.Struct(s)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return strings.Join(msgs, "; ")
}

func formatFieldError(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at least %s entries", field, e.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters", field, e.Param())
	case "max":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at most %s entries", field, e.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// ValidateUserID checks that a user ID is well-formed and within DB limits.
func ValidateUserID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "X-User-ID header is required"
	}
	if len(id) > MaxUserIDLen {
		return "", "userId must be at most 128 characters"
	}
	if !userIDRe.MatchString(id) {
		return "", "userId contains invalid characters"
	}
	return id, ""
}

// ValidateBookmarkID checks a bookmark id path parameter.
func ValidateBookmarkID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "bookmark id is required"
	}
	if len(id) > MaxBookmarkID {
		return "", "bookmark id must be at most 64 characters"
	}
	if !bookmarkIDRe.MatchString(id) {
		return "", "bookmark id contains invalid characters"
	}
	return id, ""
}

// ValidateURLParam checks a url query parameter before it reaches a service.
func ValidateURLParam(raw string) (string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "url query parameter is required"
	}
	if len(raw) > MaxURLLen {
		return "", "url must be at most 2048 characters"
	}
	return raw, ""
}

// ValidateCategory trims a category name and checks its length.
func ValidateCategory(name string) (string, string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "category is required"
	}
	if len(name) > MaxCategoryLen {
		return "", "category must be at most 64 characters"
	}
	return name, ""
}

// RequireUser rejects requests without a valid X-User-ID header and stores
// the id for handlers.
func RequireUser() fiber.Handler {
	return func(c fiber.Ctx) error {
		id, msg := ValidateUserID(c.Get(UserIDHeader))
		if msg != "" {
			return ErrorResponse(c, fiber.StatusUnauthorized, "MISSING_USER", msg)
		}
		c.Locals(userLocalsKey, id)
		return c.Next()
	}
}

// UserID returns the id stored by RequireUser.
func UserID(c fiber.Ctx) string {
	id, _ := c.Locals(userLocalsKey).(string)
	return id
}
