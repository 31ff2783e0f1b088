package handler

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"

	"github.com/devilqueenlove/BookMyWebs/internal/classifier"
)

func TestPing(t *testing.T) {
	up := ping(context.Background(), func(context.Context) error { return nil })
	if up.Status != statusUp || up.Error != "" {
		t.Errorf("up check = %+v", up)
	}

	down := ping(context.Background(), func(context.Context) error { return errors.New("dial tcp: refused") })
	if down.Status != statusDown {
		t.Errorf("status = %q, want down", down.Status)
	}
	if down.Error != "connection failed" {
		t.Errorf("error detail leaked: %q", down.Error)
	}
}

func TestHealthLive(t *testing.T) {
	h := NewHealthHandler(nil, nil, classifier.MustDefaultTable())
	app := fiber.New()
	app.Get("/health/live", h.Live)

	resp, err := app.Test(httptest.NewRequest("GET", "/health/live", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
